package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog item. StockOnHand is owned by the stock ledger once the
// product exists; nothing else writes it.
type Product struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SKU          string          `gorm:"uniqueIndex;not null"`
	Name         string          `gorm:"index;not null"`
	CategoryID   *uuid.UUID      `gorm:"type:uuid;index"`
	UnitID       *uuid.UUID      `gorm:"type:uuid"`
	Brand        string
	CostPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SalePrice    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	StockOnHand  int             `gorm:"not null;default:0;check:stock_on_hand >= 0"`
	ReorderLevel int             `gorm:"not null;default:0"`
	Active       bool            `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Category *Category `gorm:"foreignKey:CategoryID"`
	Unit     *Unit     `gorm:"foreignKey:UnitID"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// BelowReorderLevel reports whether the product needs restocking.
func (p *Product) BelowReorderLevel() bool {
	return p.ReorderLevel > 0 && p.StockOnHand <= p.ReorderLevel
}

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PurchaseStatus string

const (
	PurchaseDraft     PurchaseStatus = "Draft"
	PurchaseReceived  PurchaseStatus = "Received"
	PurchaseCancelled PurchaseStatus = "Cancelled"
)

// Purchase is a purchase order to a supplier. Only receiving a Draft moves stock.
type Purchase struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Number      string          `gorm:"type:varchar(64);uniqueIndex;not null"`
	SupplierID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Date        time.Time       `gorm:"not null;index"`
	SubTotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	GrandTotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status      PurchaseStatus  `gorm:"type:varchar(20);not null;index"`
	CreatedByID *uuid.UUID      `gorm:"type:uuid"`
	ReceivedAt  *time.Time
	CancelledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Supplier *Supplier     `gorm:"foreignKey:SupplierID"`
	Items    []PurchaseItem `gorm:"foreignKey:PurchaseID"`
}

func (p *Purchase) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

type PurchaseItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PurchaseID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity   int             `gorm:"not null"`
	UnitCost   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	LineTotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (p *PurchaseItem) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MovementType string

const (
	MovementIn     MovementType = "In"
	MovementOut    MovementType = "Out"
	MovementAdjust MovementType = "Adjust"
)

// StockMovement is one immutable ledger entry. Qty is always positive; the
// direction comes from Type, and for Adjust rows from StockAfter - StockBefore.
type StockMovement struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey"`
	ProductID     uuid.UUID    `gorm:"type:uuid;not null;index"`
	Type          MovementType `gorm:"type:varchar(10);not null"`
	Qty           int          `gorm:"not null;check:qty > 0"`
	StockBefore   int          `gorm:"not null"`
	StockAfter    int          `gorm:"not null"`
	ReferenceType string       `gorm:"type:varchar(40);not null;index:idx_movement_reference"`
	ReferenceID   *uuid.UUID   `gorm:"type:uuid;index:idx_movement_reference"`
	Note          string
	CreatedAt     time.Time `gorm:"index"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (m *StockMovement) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}

// SignedQty returns the change this movement applied to StockOnHand.
func (m StockMovement) SignedQty() int {
	switch m.Type {
	case MovementIn:
		return m.Qty
	case MovementOut:
		return -m.Qty
	default:
		return m.StockAfter - m.StockBefore
	}
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer is an invoiced party. Invoices without a customer are walk-in sales.
type Customer struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null;index"`
	Email     *string
	Phone     *string
	Address   *string
	Active    bool `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Customer) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

type Supplier struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"not null;index"`
	TaxID       *string   `gorm:"uniqueIndex"`
	Email       *string
	Phone       *string
	Address     *string
	PaymentTerm *string
	Active      bool `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (s *Supplier) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvoiceStatus string

const (
	InvoiceUnpaid        InvoiceStatus = "Unpaid"
	InvoicePartiallyPaid InvoiceStatus = "PartiallyPaid"
	InvoicePaid          InvoiceStatus = "Paid"
	InvoiceCancelled     InvoiceStatus = "Cancelled"
)

// Invoice is a sale to a customer, or to a walk-in when CustomerID is nil.
// Status is recomputed from PaidAmount and GrandTotal on every change except
// the terminal Cancelled transition.
type Invoice struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Number      string          `gorm:"type:varchar(64);uniqueIndex;not null"`
	Date        time.Time       `gorm:"not null;index"`
	CustomerID  *uuid.UUID      `gorm:"type:uuid;index"`
	SubTotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	GrandTotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaidAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status      InvoiceStatus   `gorm:"type:varchar(20);not null;index"`
	CreatedByID *uuid.UUID      `gorm:"type:uuid"`
	CancelledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Customer *Customer     `gorm:"foreignKey:CustomerID"`
	Items    []InvoiceItem `gorm:"foreignKey:InvoiceID"`
}

func (i *Invoice) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}

// BalanceDue is what the customer still owes; zero for cancelled invoices.
func (i *Invoice) BalanceDue() decimal.Decimal {
	if i.Status == InvoiceCancelled {
		return decimal.Zero
	}
	due := i.GrandTotal.Sub(i.PaidAmount)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

type InvoiceItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity  int             `gorm:"not null"`
	LineTotal decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (i *InvoiceItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}

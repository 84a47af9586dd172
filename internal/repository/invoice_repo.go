package repository

import (
	"context"
	"time"

	"backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvoiceFilter struct {
	Status     string
	CustomerID *uuid.UUID
	From       *time.Time
	To         *time.Time
	Page       int
	Limit      int
}

type InvoiceRepository interface {
	CreateTx(tx *gorm.DB, inv *model.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	NumberExists(ctx context.Context, number string) (bool, error)
	List(ctx context.Context, filter InvoiceFilter) ([]model.Invoice, int64, error)

	LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Invoice, error)
	ItemsTx(tx *gorm.DB, invoiceID uuid.UUID) ([]model.InvoiceItem, error)
	UpdateSettlementTx(tx *gorm.DB, inv *model.Invoice) error

	DB() *gorm.DB
}

type invoiceRepo struct{ db *gorm.DB }

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository { return &invoiceRepo{db: db} }

func (r *invoiceRepo) DB() *gorm.DB { return r.db }

// CreateTx inserts the invoice header, then its Items.
func (r *invoiceRepo) CreateTx(tx *gorm.DB, inv *model.Invoice) error {
	if err := tx.Omit(clause.Associations).Create(inv).Error; err != nil {
		return err
	}
	if len(inv.Items) == 0 {
		return nil
	}
	for i := range inv.Items {
		inv.Items[i].InvoiceID = inv.ID
	}
	return tx.Omit(clause.Associations).Create(&inv.Items).Error
}

func (r *invoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items.Product").
		First(&inv, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepo) NumberExists(ctx context.Context, number string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Invoice{}).Where("number = ?", number).Count(&n).Error
	return n > 0, err
}

func (r *invoiceRepo) List(ctx context.Context, filter InvoiceFilter) ([]model.Invoice, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Invoice{})
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.From != nil {
		q = q.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("date < ?", filter.To.AddDate(0, 0, 1))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(filter.Page, filter.Limit, 50, 200)

	var invoices []model.Invoice
	err := q.Preload("Customer").Preload("Items.Product").
		Order("date DESC, created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&invoices).Error
	return invoices, total, err
}

// LockByIDTx loads the invoice header only, under a row lock. Items are read
// separately with ItemsTx: a preload would not be covered by the lock.
func (r *invoiceRepo) LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&inv, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepo) ItemsTx(tx *gorm.DB, invoiceID uuid.UUID) ([]model.InvoiceItem, error) {
	var items []model.InvoiceItem
	err := tx.Where("invoice_id = ?", invoiceID).Order("id").Find(&items).Error
	return items, err
}

// UpdateSettlementTx persists the payment and lifecycle columns only.
func (r *invoiceRepo) UpdateSettlementTx(tx *gorm.DB, inv *model.Invoice) error {
	return tx.Model(&model.Invoice{}).Where("id = ?", inv.ID).Updates(map[string]interface{}{
		"paid_amount":  inv.PaidAmount,
		"status":       inv.Status,
		"cancelled_at": inv.CancelledAt,
		"updated_at":   time.Now(),
	}).Error
}

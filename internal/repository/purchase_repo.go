package repository

import (
	"context"
	"time"

	"backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseFilter struct {
	Status     string
	SupplierID *uuid.UUID
	Page       int
	Limit      int
}

type PurchaseRepository interface {
	CreateTx(tx *gorm.DB, p *model.Purchase) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error)
	NumberExists(ctx context.Context, number string) (bool, error)
	List(ctx context.Context, filter PurchaseFilter) ([]model.Purchase, int64, error)

	LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Purchase, error)
	ItemsTx(tx *gorm.DB, purchaseID uuid.UUID) ([]model.PurchaseItem, error)
	UpdateStatusTx(tx *gorm.DB, p *model.Purchase) error

	DB() *gorm.DB
}

type purchaseRepo struct{ db *gorm.DB }

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository { return &purchaseRepo{db: db} }

func (r *purchaseRepo) DB() *gorm.DB { return r.db }

func (r *purchaseRepo) CreateTx(tx *gorm.DB, p *model.Purchase) error {
	if err := tx.Omit(clause.Associations).Create(p).Error; err != nil {
		return err
	}
	if len(p.Items) == 0 {
		return nil
	}
	for i := range p.Items {
		p.Items[i].PurchaseID = p.ID
	}
	return tx.Omit(clause.Associations).Create(&p.Items).Error
}

func (r *purchaseRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	var p model.Purchase
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Preload("Items.Product").
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *purchaseRepo) NumberExists(ctx context.Context, number string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Purchase{}).Where("number = ?", number).Count(&n).Error
	return n > 0, err
}

func (r *purchaseRepo) List(ctx context.Context, filter PurchaseFilter) ([]model.Purchase, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Purchase{})
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.SupplierID != nil {
		q = q.Where("supplier_id = ?", *filter.SupplierID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(filter.Page, filter.Limit, 50, 200)

	var purchases []model.Purchase
	err := q.Preload("Supplier").Preload("Items.Product").
		Order("date DESC, created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&purchases).Error
	return purchases, total, err
}

func (r *purchaseRepo) LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Purchase, error) {
	var p model.Purchase
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *purchaseRepo) ItemsTx(tx *gorm.DB, purchaseID uuid.UUID) ([]model.PurchaseItem, error) {
	var items []model.PurchaseItem
	err := tx.Where("purchase_id = ?", purchaseID).Order("id").Find(&items).Error
	return items, err
}

func (r *purchaseRepo) UpdateStatusTx(tx *gorm.DB, p *model.Purchase) error {
	return tx.Model(&model.Purchase{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"status":       p.Status,
		"received_at":  p.ReceivedAt,
		"cancelled_at": p.CancelledAt,
		"updated_at":   time.Now(),
	}).Error
}

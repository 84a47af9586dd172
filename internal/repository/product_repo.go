package repository

import (
	"context"

	"backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository is the data access contract for catalog products.
// Stock columns are only written through ApplyStockDeltaTx, which the stock
// ledger calls while holding the row lock.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)
	ListLowStock(ctx context.Context, limit int) ([]model.Product, error)
	ListLowStockByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)

	// Used inside transactions; callers must pass the tx instance
	LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	ApplyStockDeltaTx(tx *gorm.DB, id uuid.UUID, delta int) (bool, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	if len(ids) == 0 {
		return products, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error
	return products, err
}

const lowStockCondition = "active = ? AND reorder_level > 0 AND stock_on_hand <= reorder_level"

func (r *productRepo) ListLowStock(ctx context.Context, limit int) ([]model.Product, error) {
	var products []model.Product
	q := r.db.WithContext(ctx).Where(lowStockCondition, true).
		Order("stock_on_hand - reorder_level ASC, sku ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&products).Error
	return products, err
}

func (r *productRepo) ListLowStockByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	if len(ids) == 0 {
		return products, nil
	}
	err := r.db.WithContext(ctx).Where(lowStockCondition, true).
		Where("id IN ?", ids).Order("sku ASC").Find(&products).Error
	return products, err
}

// LockByIDTx reads the product with SELECT ... FOR UPDATE so concurrent
// ledger writers on the same product serialize. SQLite has no row locks and
// relies on its database-level write lock instead.
func (r *productRepo) LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ApplyStockDeltaTx adds delta to stock_on_hand unless the result would be
// negative. It reports whether the row was updated.
func (r *productRepo) ApplyStockDeltaTx(tx *gorm.DB, id uuid.UUID, delta int) (bool, error) {
	res := tx.Model(&model.Product{}).
		Where("id = ? AND stock_on_hand + ? >= 0", id, delta).
		Update("stock_on_hand", gorm.Expr("stock_on_hand + ?", delta))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *productRepo) DB() *gorm.DB { return r.db }

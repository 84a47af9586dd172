package repository

import (
	"context"

	"backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockMovementFilter defines filters for listing ledger entries.
type StockMovementFilter struct {
	ProductID     *uuid.UUID
	Type          string
	ReferenceType string
	ReferenceID   *uuid.UUID
	Page          int
	Limit         int
}

// StockMovementRepository is append-only: there is no update or delete.
type StockMovementRepository interface {
	CreateTx(tx *gorm.DB, m *model.StockMovement) error
	List(ctx context.Context, filter StockMovementFilter) ([]model.StockMovement, int64, error)
	NetQuantity(ctx context.Context, productID uuid.UUID) (int, error)
}

type stockMovementRepo struct{ db *gorm.DB }

func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepo{db: db}
}

func (r *stockMovementRepo) CreateTx(tx *gorm.DB, m *model.StockMovement) error {
	return tx.Create(m).Error
}

func (r *stockMovementRepo) List(ctx context.Context, filter StockMovementFilter) ([]model.StockMovement, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockMovement{})
	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.ReferenceType != "" {
		q = q.Where("reference_type = ?", filter.ReferenceType)
	}
	if filter.ReferenceID != nil {
		q = q.Where("reference_id = ?", *filter.ReferenceID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(filter.Page, filter.Limit, 100, 500)

	var movements []model.StockMovement
	err := q.Preload("Product").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&movements).Error
	return movements, total, err
}

// NetQuantity sums the signed effect of every movement of a product. Adjust
// rows carry their direction in stock_after - stock_before.
func (r *stockMovementRepo) NetQuantity(ctx context.Context, productID uuid.UUID) (int, error) {
	var net int
	err := r.db.WithContext(ctx).Model(&model.StockMovement{}).
		Select(`COALESCE(SUM(CASE type
			WHEN ? THEN qty
			WHEN ? THEN -qty
			ELSE stock_after - stock_before END), 0)`, string(model.MovementIn), string(model.MovementOut)).
		Where("product_id = ?", productID).
		Scan(&net).Error
	return net, err
}

// normalizePage clamps pagination input to sane bounds.
func normalizePage(page, limit, def, maxLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = def
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

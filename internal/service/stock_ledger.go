package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/dto"
	"backoffice/internal/metrics"
	"backoffice/internal/model"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Reference types written on ledger rows.
const (
	RefManual        = "Manual"
	RefInvoice       = "Invoice"
	RefInvoiceCancel = "InvoiceCancel"
	RefPurchase      = "Purchase"
)

// MovementRef says which document caused a movement.
type MovementRef struct {
	Type string
	ID   *uuid.UUID
	Note string
}

// LowStockNotifier receives products that fell to or below their reorder
// level. Delivery is best effort.
type LowStockNotifier interface {
	NotifyLowStock(ctx context.Context, productIDs []uuid.UUID) error
}

// StockReconciliation compares a product's stock with its ledger.
type StockReconciliation struct {
	ProductID   uuid.UUID
	StockOnHand int
	LedgerNet   int
}

// Opening is the stock the product had before its first movement.
func (r StockReconciliation) Opening() int { return r.StockOnHand - r.LedgerNet }

// StockLedger is the only writer of Product.StockOnHand. Every change is
// paired with exactly one StockMovement in the same transaction.
//
// Methods taking a tx join it when non-nil; with a nil tx they run in their
// own transaction and trigger reorder checks after commit. Callers passing a
// tx call CheckReorder themselves once their transaction has committed.
type StockLedger interface {
	ApplyDelta(ctx context.Context, tx *gorm.DB, productID uuid.UUID, delta int, typ model.MovementType, ref MovementRef) (*model.StockMovement, error)
	IncreaseStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, ref MovementRef) (*model.StockMovement, error)
	DecreaseStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, ref MovementRef) (*model.StockMovement, error)
	AdjustStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, delta int, ref MovementRef) (*model.StockMovement, error)

	Movements(ctx context.Context, filter dto.StockMovementFilter) (*dto.StockMovementListResponse, error)
	Reconcile(ctx context.Context, productID uuid.UUID) (*StockReconciliation, error)
	LowStock(ctx context.Context) ([]dto.LowStockResponse, error)
	CheckReorder(ctx context.Context, productIDs ...uuid.UUID)
}

type stockLedger struct {
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	notifier  LowStockNotifier
}

// NewStockLedger builds the ledger. notifier may be nil.
func NewStockLedger(products repository.ProductRepository, movements repository.StockMovementRepository, notifier LowStockNotifier) StockLedger {
	return &stockLedger{products: products, movements: movements, notifier: notifier}
}

func (l *stockLedger) IncreaseStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, ref MovementRef) (*model.StockMovement, error) {
	if qty < 0 {
		return nil, NewValidationError("quantity", "must not be negative")
	}
	return l.ApplyDelta(ctx, tx, productID, qty, model.MovementIn, ref)
}

func (l *stockLedger) DecreaseStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, ref MovementRef) (*model.StockMovement, error) {
	if qty < 0 {
		return nil, NewValidationError("quantity", "must not be negative")
	}
	return l.ApplyDelta(ctx, tx, productID, -qty, model.MovementOut, ref)
}

func (l *stockLedger) AdjustStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, delta int, ref MovementRef) (*model.StockMovement, error) {
	return l.ApplyDelta(ctx, tx, productID, delta, model.MovementAdjust, ref)
}

// ApplyDelta locks the product row, refuses deltas that would make stock
// negative, applies the guarded update and appends the movement. A zero
// delta does nothing and returns a nil movement.
func (l *stockLedger) ApplyDelta(ctx context.Context, tx *gorm.DB, productID uuid.UUID, delta int, typ model.MovementType, ref MovementRef) (*model.StockMovement, error) {
	if delta == 0 {
		return nil, nil
	}
	if err := checkDirection(typ, delta); err != nil {
		return nil, err
	}
	ref.Type = strings.TrimSpace(ref.Type)
	if ref.Type == "" {
		ref.Type = RefManual
	}

	var mv *model.StockMovement
	err := joinTx(ctx, l.products.DB(), tx, func(tx *gorm.DB) error {
		p, err := l.products.LockByIDTx(tx, productID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		if err != nil {
			return fmt.Errorf("lock product: %w", err)
		}

		insufficient := &InsufficientStockError{
			ProductID: p.ID, SKU: p.SKU, Name: p.Name,
			Current: p.StockOnHand, Requested: delta,
		}
		if p.StockOnHand+delta < 0 {
			metrics.InsufficientStock.Inc()
			return insufficient
		}
		applied, err := l.products.ApplyStockDeltaTx(tx, productID, delta)
		if err != nil {
			return fmt.Errorf("update stock: %w", err)
		}
		if !applied {
			metrics.InsufficientStock.Inc()
			return insufficient
		}

		mv = &model.StockMovement{
			ProductID:     productID,
			Type:          typ,
			Qty:           abs(delta),
			StockBefore:   p.StockOnHand,
			StockAfter:    p.StockOnHand + delta,
			ReferenceType: ref.Type,
			ReferenceID:   ref.ID,
			Note:          ref.Note,
		}
		if err := l.movements.CreateTx(tx, mv); err != nil {
			return fmt.Errorf("insert movement: %w", err)
		}
		metrics.StockMovements.WithLabelValues(string(typ), ref.Type).Inc()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if tx == nil && delta < 0 {
		l.CheckReorder(ctx, productID)
	}
	return mv, nil
}

func checkDirection(typ model.MovementType, delta int) error {
	switch typ {
	case model.MovementIn:
		if delta < 0 {
			return NewValidationError("delta", "an In movement must be positive")
		}
	case model.MovementOut:
		if delta > 0 {
			return NewValidationError("delta", "an Out movement must be negative")
		}
	case model.MovementAdjust:
	default:
		return NewValidationError("type", fmt.Sprintf("unknown movement type %q", typ))
	}
	return nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (l *stockLedger) Movements(ctx context.Context, filter dto.StockMovementFilter) (*dto.StockMovementListResponse, error) {
	rf := repository.StockMovementFilter{
		Type:          filter.Type,
		ReferenceType: filter.ReferenceType,
		Page:          filter.Page,
		Limit:         filter.Limit,
	}
	if filter.ProductID != "" {
		id, err := uuid.Parse(filter.ProductID)
		if err != nil {
			return nil, NewValidationError("product_id", "must be a UUID")
		}
		rf.ProductID = &id
	}

	rows, total, err := l.movements.List(ctx, rf)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	resp := &dto.StockMovementListResponse{
		Data:  make([]dto.StockMovementResponse, 0, len(rows)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range rows {
		resp.Data = append(resp.Data, movementToResponse(&rows[i]))
	}
	return resp, nil
}

func (l *stockLedger) Reconcile(ctx context.Context, productID uuid.UUID) (*StockReconciliation, error) {
	p, err := l.products.FindByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	net, err := l.movements.NetQuantity(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("sum movements: %w", err)
	}
	return &StockReconciliation{ProductID: productID, StockOnHand: p.StockOnHand, LedgerNet: net}, nil
}

func (l *stockLedger) LowStock(ctx context.Context) ([]dto.LowStockResponse, error) {
	products, err := l.products.ListLowStock(ctx, 0)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LowStockResponse, 0, len(products))
	for _, p := range products {
		out = append(out, dto.LowStockResponse{
			ProductID:    p.ID.String(),
			SKU:          p.SKU,
			Name:         p.Name,
			StockOnHand:  p.StockOnHand,
			ReorderLevel: p.ReorderLevel,
		})
	}
	return out, nil
}

// CheckReorder looks up which of productIDs are at or under their reorder
// level and hands them to the notifier. Failures are logged, never returned.
func (l *stockLedger) CheckReorder(ctx context.Context, productIDs ...uuid.UUID) {
	if l.notifier == nil || len(productIDs) == 0 {
		return
	}
	low, err := l.products.ListLowStockByIDs(ctx, uniqueIDs(productIDs))
	if err != nil {
		log.Error().Err(err).Msg("reorder check failed")
		return
	}
	if len(low) == 0 {
		return
	}
	ids := make([]uuid.UUID, 0, len(low))
	for _, p := range low {
		log.Warn().
			Str("sku", p.SKU).
			Int("stock_on_hand", p.StockOnHand).
			Int("reorder_level", p.ReorderLevel).
			Msg("product at or below reorder level")
		ids = append(ids, p.ID)
	}
	if err := l.notifier.NotifyLowStock(ctx, ids); err != nil {
		log.Error().Err(err).Int("products", len(ids)).Msg("low stock notification not queued")
	}
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func movementToResponse(m *model.StockMovement) dto.StockMovementResponse {
	r := dto.StockMovementResponse{
		ID:            m.ID.String(),
		ProductID:     m.ProductID.String(),
		Type:          string(m.Type),
		Qty:           m.Qty,
		StockBefore:   m.StockBefore,
		StockAfter:    m.StockAfter,
		ReferenceType: m.ReferenceType,
		Note:          m.Note,
		CreatedAt:     m.CreatedAt.Format(time.RFC3339),
	}
	if m.Product != nil {
		r.Product = m.Product.Name
	}
	if m.ReferenceID != nil {
		s := m.ReferenceID.String()
		r.ReferenceID = &s
	}
	return r
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backoffice/internal/dto"
	"backoffice/internal/metrics"
	"backoffice/internal/model"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseService runs the purchase order lifecycle
// Draft → Received | Cancelled. Only Receive moves stock.
type PurchaseService interface {
	Create(ctx context.Context, createdBy uuid.UUID, req dto.CreatePurchaseRequest) (*dto.PurchaseResponse, error)
	Receive(ctx context.Context, id uuid.UUID) (*dto.PurchaseResponse, error)
	Cancel(ctx context.Context, id uuid.UUID) (*dto.PurchaseResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.PurchaseResponse, error)
	List(ctx context.Context, filter dto.PurchaseFilter) (*dto.PurchaseListResponse, error)
}

type purchaseService struct {
	repo      repository.PurchaseRepository
	products  repository.ProductRepository
	suppliers repository.SupplierRepository
	ledger    StockLedger
	numbers   *NumberGenerator
	now       func() time.Time
}

func NewPurchaseService(
	repo repository.PurchaseRepository,
	products repository.ProductRepository,
	suppliers repository.SupplierRepository,
	ledger StockLedger,
) PurchaseService {
	return &purchaseService{
		repo:      repo,
		products:  products,
		suppliers: suppliers,
		ledger:    ledger,
		numbers:   NewNumberGenerator(PurchasePrefix),
		now:       time.Now,
	}
}

func (s *purchaseService) Create(ctx context.Context, createdBy uuid.UUID, req dto.CreatePurchaseRequest) (*dto.PurchaseResponse, error) {
	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		return nil, NewValidationError("supplier_id", "must be a UUID")
	}
	supplier, err := s.suppliers.FindByID(ctx, supplierID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NewValidationError("supplier_id", "supplier not found")
	}
	if err != nil {
		return nil, err
	}
	if !supplier.Active {
		return nil, NewValidationError("supplier_id", "supplier is inactive")
	}

	items := make([]model.PurchaseItem, 0, len(req.Items))
	ids := make([]uuid.UUID, 0, len(req.Items))
	for _, it := range req.Items {
		pid, err := uuid.Parse(it.ProductID)
		if err != nil || pid == uuid.Nil || it.Quantity <= 0 || it.UnitCost.IsNegative() {
			continue
		}
		items = append(items, model.PurchaseItem{
			ProductID: pid,
			Quantity:  it.Quantity,
			UnitCost:  it.UnitCost,
			LineTotal: it.UnitCost.Mul(decimal.NewFromInt(int64(it.Quantity))),
		})
		ids = append(ids, pid)
	}
	if len(items) == 0 {
		return nil, NewValidationError("items", "at least one valid line is required")
	}
	if _, err := loadActiveProducts(ctx, s.products, uniqueIDs(ids)); err != nil {
		return nil, err
	}

	date := s.now()
	if req.PurchaseDate != "" {
		if date, err = time.Parse("2006-01-02", req.PurchaseDate); err != nil {
			return nil, NewValidationError("purchase_date", "must be YYYY-MM-DD")
		}
	} else {
		y, m, d := date.Date()
		date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	number, err := s.numbers.Next(ctx, s.repo.NumberExists)
	if err != nil {
		return nil, err
	}

	p := &model.Purchase{
		Number:     number,
		SupplierID: supplierID,
		Date:       date,
		SubTotal:   decimal.Zero,
		Status:     model.PurchaseDraft,
		Items:      items,
	}
	if createdBy != uuid.Nil {
		p.CreatedByID = &createdBy
	}
	for _, it := range items {
		p.SubTotal = p.SubTotal.Add(it.LineTotal)
	}
	p.GrandTotal = p.SubTotal

	if err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.repo.CreateTx(tx, p)
	}); err != nil {
		return nil, fmt.Errorf("insert purchase: %w", err)
	}

	metrics.PurchaseEvents.WithLabelValues("created").Inc()
	log.Info().Str("purchase", p.Number).Str("supplier", supplier.Name).Msg("purchase order drafted")
	return s.Get(ctx, p.ID)
}

// Receive books every line into stock and closes the order. The purchase
// row is locked so two concurrent receives cannot both add stock.
func (s *purchaseService) Receive(ctx context.Context, id uuid.UUID) (*dto.PurchaseResponse, error) {
	var number string
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		p, err := s.lockPurchase(tx, id)
		if err != nil {
			return err
		}
		if p.Status != model.PurchaseDraft {
			return fmt.Errorf("receive %s purchase: %w", p.Status, ErrInvalidTransition)
		}
		number = p.Number

		items, err := s.repo.ItemsTx(tx, id)
		if err != nil {
			return fmt.Errorf("load purchase items: %w", err)
		}
		for _, item := range items {
			ref := MovementRef{Type: RefPurchase, ID: &p.ID, Note: p.Number}
			if _, err := s.ledger.IncreaseStock(ctx, tx, item.ProductID, item.Quantity, ref); err != nil {
				return err
			}
		}

		now := s.now()
		p.Status = model.PurchaseReceived
		p.ReceivedAt = &now
		return s.repo.UpdateStatusTx(tx, p)
	})
	if err != nil {
		return nil, err
	}

	metrics.PurchaseEvents.WithLabelValues("received").Inc()
	log.Info().Str("purchase", number).Msg("purchase received")
	return s.Get(ctx, id)
}

func (s *purchaseService) Cancel(ctx context.Context, id uuid.UUID) (*dto.PurchaseResponse, error) {
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		p, err := s.lockPurchase(tx, id)
		if err != nil {
			return err
		}
		if p.Status != model.PurchaseDraft {
			return fmt.Errorf("cancel %s purchase: %w", p.Status, ErrInvalidTransition)
		}
		now := s.now()
		p.Status = model.PurchaseCancelled
		p.CancelledAt = &now
		return s.repo.UpdateStatusTx(tx, p)
	})
	if err != nil {
		return nil, err
	}

	metrics.PurchaseEvents.WithLabelValues("cancelled").Inc()
	return s.Get(ctx, id)
}

func (s *purchaseService) lockPurchase(tx *gorm.DB, id uuid.UUID) (*model.Purchase, error) {
	p, err := s.repo.LockByIDTx(tx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock purchase: %w", err)
	}
	return p, nil
}

func (s *purchaseService) Get(ctx context.Context, id uuid.UUID) (*dto.PurchaseResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	resp := purchaseToResponse(p)
	return &resp, nil
}

func (s *purchaseService) List(ctx context.Context, filter dto.PurchaseFilter) (*dto.PurchaseListResponse, error) {
	rf := repository.PurchaseFilter{Status: filter.Status, Page: filter.Page, Limit: filter.Limit}
	if filter.SupplierID != "" {
		id, err := uuid.Parse(filter.SupplierID)
		if err != nil {
			return nil, NewValidationError("supplier_id", "must be a UUID")
		}
		rf.SupplierID = &id
	}

	rows, total, err := s.repo.List(ctx, rf)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	resp := &dto.PurchaseListResponse{
		Data:  make([]dto.PurchaseResponse, 0, len(rows)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range rows {
		resp.Data = append(resp.Data, purchaseToResponse(&rows[i]))
	}
	return resp, nil
}

func purchaseToResponse(p *model.Purchase) dto.PurchaseResponse {
	resp := dto.PurchaseResponse{
		ID:         p.ID.String(),
		Number:     p.Number,
		SupplierID: p.SupplierID.String(),
		Date:       p.Date.Format("2006-01-02"),
		SubTotal:   p.SubTotal,
		GrandTotal: p.GrandTotal,
		Status:     string(p.Status),
		Items:      make([]dto.PurchaseItemResponse, 0, len(p.Items)),
		CreatedAt:  p.CreatedAt.Format(time.RFC3339),
	}
	if p.Supplier != nil {
		resp.Supplier = p.Supplier.Name
	}
	if p.ReceivedAt != nil {
		at := p.ReceivedAt.Format(time.RFC3339)
		resp.ReceivedAt = &at
	}
	for _, it := range p.Items {
		item := dto.PurchaseItemResponse{
			ProductID: it.ProductID.String(),
			Quantity:  it.Quantity,
			UnitCost:  it.UnitCost,
			LineTotal: it.LineTotal,
		}
		if it.Product != nil {
			item.SKU = it.Product.SKU
			item.Product = it.Product.Name
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}

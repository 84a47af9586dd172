package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"backoffice/internal/dto"
	"backoffice/internal/infra"
	"backoffice/internal/metrics"
	"backoffice/internal/model"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvoiceService interface {
	Create(ctx context.Context, createdBy uuid.UUID, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
	RecordPayment(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*dto.InvoiceResponse, error)
	Cancel(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error)
	List(ctx context.Context, filter dto.InvoiceFilter) (*dto.InvoiceListResponse, error)
	RenderPDF(ctx context.Context, id uuid.UUID, w io.Writer) (string, error)
}

type invoiceService struct {
	repo         repository.InvoiceRepository
	products     repository.ProductRepository
	customers    repository.CustomerRepository
	ledger       StockLedger
	numbers      *NumberGenerator
	businessName string
	now          func() time.Time
}

func NewInvoiceService(
	repo repository.InvoiceRepository,
	products repository.ProductRepository,
	customers repository.CustomerRepository,
	ledger StockLedger,
	businessName string,
) InvoiceService {
	return &invoiceService{
		repo:         repo,
		products:     products,
		customers:    customers,
		ledger:       ledger,
		numbers:      NewNumberGenerator(InvoicePrefix),
		businessName: businessName,
		now:          time.Now,
	}
}

// DeriveInvoiceStatus is the single source of truth for invoice status. It
// returns the status together with the paid amount to store, which is
// clamped to the grand total on overpayment.
func DeriveInvoiceStatus(paid, total decimal.Decimal, cancelled bool) (model.InvoiceStatus, decimal.Decimal) {
	switch {
	case cancelled:
		return model.InvoiceCancelled, paid
	case !total.IsPositive():
		return model.InvoicePaid, decimal.Zero
	case paid.GreaterThanOrEqual(total):
		return model.InvoicePaid, total
	case paid.IsPositive():
		return model.InvoicePartiallyPaid, paid
	default:
		return model.InvoiceUnpaid, decimal.Zero
	}
}

type invoiceLine struct {
	productID uuid.UUID
	quantity  int
	unitPrice decimal.Decimal
}

// ── Create ──────────────────────────────────────────────────────────────────
//   1. drop malformed rows; nothing left is a validation error
//   2. check customer and products, then stock for every product (summed)
//   3. BEGIN TX: insert invoice + items, one Out movement per line
//   4. COMMIT, then reorder check

func (s *invoiceService) Create(ctx context.Context, createdBy uuid.UUID, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	lines := make([]invoiceLine, 0, len(req.Items))
	for _, it := range req.Items {
		pid, err := uuid.Parse(it.ProductID)
		if err != nil || pid == uuid.Nil || it.Quantity <= 0 || it.UnitPrice.IsNegative() {
			continue
		}
		lines = append(lines, invoiceLine{productID: pid, quantity: it.Quantity, unitPrice: it.UnitPrice})
	}
	if len(lines) == 0 {
		return nil, NewValidationError("items", "at least one valid line is required")
	}
	if req.PaidAmount.IsNegative() {
		return nil, NewValidationError("paid_amount", "must not be negative")
	}

	date, err := s.documentDate(req.InvoiceDate)
	if err != nil {
		return nil, NewValidationError("invoice_date", "must be YYYY-MM-DD")
	}

	var customerID *uuid.UUID
	if req.CustomerID != nil && *req.CustomerID != "" {
		id, err := s.activeCustomer(ctx, *req.CustomerID)
		if err != nil {
			return nil, err
		}
		customerID = &id
	}

	products, err := loadActiveProducts(ctx, s.products, productIDsOf(lines))
	if err != nil {
		return nil, err
	}

	// Pre-check before any write; the ledger re-checks under the row lock.
	need := make(map[uuid.UUID]int, len(lines))
	for _, l := range lines {
		need[l.productID] += l.quantity
	}
	for pid, qty := range need {
		p := products[pid]
		if p.StockOnHand < qty {
			metrics.InsufficientStock.Inc()
			return nil, &InsufficientStockError{
				ProductID: p.ID, SKU: p.SKU, Name: p.Name,
				Current: p.StockOnHand, Requested: -qty,
			}
		}
	}

	number, err := s.numbers.Next(ctx, s.repo.NumberExists)
	if err != nil {
		return nil, err
	}

	inv := &model.Invoice{
		Number:     number,
		Date:       date,
		CustomerID: customerID,
		SubTotal:   decimal.Zero,
		Items:      make([]model.InvoiceItem, 0, len(lines)),
	}
	if createdBy != uuid.Nil {
		inv.CreatedByID = &createdBy
	}
	for _, l := range lines {
		lineTotal := l.unitPrice.Mul(decimal.NewFromInt(int64(l.quantity)))
		inv.Items = append(inv.Items, model.InvoiceItem{
			ProductID: l.productID,
			UnitPrice: l.unitPrice,
			Quantity:  l.quantity,
			LineTotal: lineTotal,
		})
		inv.SubTotal = inv.SubTotal.Add(lineTotal)
	}
	inv.GrandTotal = inv.SubTotal
	inv.Status, inv.PaidAmount = DeriveInvoiceStatus(req.PaidAmount, inv.GrandTotal, false)

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, inv); err != nil {
			return fmt.Errorf("insert invoice: %w", err)
		}
		invoiceID := inv.ID
		for _, item := range inv.Items {
			ref := MovementRef{Type: RefInvoice, ID: &invoiceID, Note: inv.Number}
			if _, err := s.ledger.DecreaseStock(ctx, tx, item.ProductID, item.Quantity, ref); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.InvoiceEvents.WithLabelValues("created").Inc()
	log.Info().
		Str("invoice", inv.Number).
		Str("grand_total", inv.GrandTotal.StringFixed(2)).
		Str("status", string(inv.Status)).
		Msg("invoice created")

	s.ledger.CheckReorder(ctx, productIDsOf(lines)...)
	return s.Get(ctx, inv.ID)
}

func (s *invoiceService) activeCustomer(ctx context.Context, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, NewValidationError("customer_id", "must be a UUID")
	}
	c, err := s.customers.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, NewValidationError("customer_id", "customer not found")
	}
	if err != nil {
		return uuid.Nil, err
	}
	if !c.Active {
		return uuid.Nil, NewValidationError("customer_id", "customer is inactive")
	}
	return id, nil
}

func (s *invoiceService) documentDate(raw string) (time.Time, error) {
	if raw == "" {
		y, m, d := s.now().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", raw)
}

// ── RecordPayment ───────────────────────────────────────────────────────────

func (s *invoiceService) RecordPayment(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*dto.InvoiceResponse, error) {
	if !amount.IsPositive() {
		return nil, NewValidationError("amount", "must be greater than zero")
	}

	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		inv, err := s.lockInvoice(tx, id)
		if err != nil {
			return err
		}
		if inv.Status == model.InvoiceCancelled {
			return ErrAlreadyCancelled
		}
		inv.Status, inv.PaidAmount = DeriveInvoiceStatus(inv.PaidAmount.Add(amount), inv.GrandTotal, false)
		return s.repo.UpdateSettlementTx(tx, inv)
	})
	if err != nil {
		return nil, err
	}

	metrics.InvoiceEvents.WithLabelValues("payment").Inc()
	return s.Get(ctx, id)
}

// ── Cancel ──────────────────────────────────────────────────────────────────
// The invoice row lock makes a concurrent second cancel wait and then see
// Cancelled, so stock is restored exactly once. PaidAmount is kept as is.

func (s *invoiceService) Cancel(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error) {
	var number string
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		inv, err := s.lockInvoice(tx, id)
		if err != nil {
			return err
		}
		if inv.Status == model.InvoiceCancelled {
			return ErrAlreadyCancelled
		}
		number = inv.Number

		items, err := s.repo.ItemsTx(tx, id)
		if err != nil {
			return fmt.Errorf("load invoice items: %w", err)
		}
		for _, item := range items {
			ref := MovementRef{Type: RefInvoiceCancel, ID: &inv.ID, Note: "cancel " + inv.Number}
			if _, err := s.ledger.IncreaseStock(ctx, tx, item.ProductID, item.Quantity, ref); err != nil {
				return err
			}
		}

		now := s.now()
		inv.CancelledAt = &now
		inv.Status, inv.PaidAmount = DeriveInvoiceStatus(inv.PaidAmount, inv.GrandTotal, true)
		return s.repo.UpdateSettlementTx(tx, inv)
	})
	if err != nil {
		return nil, err
	}

	metrics.InvoiceEvents.WithLabelValues("cancelled").Inc()
	log.Info().Str("invoice", number).Msg("invoice cancelled")
	return s.Get(ctx, id)
}

func (s *invoiceService) lockInvoice(tx *gorm.DB, id uuid.UUID) (*model.Invoice, error) {
	inv, err := s.repo.LockByIDTx(tx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock invoice: %w", err)
	}
	return inv, nil
}

// ── Queries ─────────────────────────────────────────────────────────────────

func (s *invoiceService) Get(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error) {
	inv, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := invoiceToResponse(inv)
	return &resp, nil
}

func (s *invoiceService) find(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	inv, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return inv, err
}

func (s *invoiceService) List(ctx context.Context, filter dto.InvoiceFilter) (*dto.InvoiceListResponse, error) {
	rf := repository.InvoiceFilter{Status: filter.Status, Page: filter.Page, Limit: filter.Limit}
	if filter.CustomerID != "" {
		id, err := uuid.Parse(filter.CustomerID)
		if err != nil {
			return nil, NewValidationError("customer_id", "must be a UUID")
		}
		rf.CustomerID = &id
	}
	for field, raw := range map[string]string{"from": filter.From, "to": filter.To} {
		if raw == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, NewValidationError(field, "must be YYYY-MM-DD")
		}
		if field == "from" {
			rf.From = &t
		} else {
			rf.To = &t
		}
	}

	invoices, total, err := s.repo.List(ctx, rf)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	resp := &dto.InvoiceListResponse{
		Data:  make([]dto.InvoiceResponse, 0, len(invoices)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range invoices {
		resp.Data = append(resp.Data, invoiceToResponse(&invoices[i]))
	}
	return resp, nil
}

// RenderPDF writes the printable invoice to w and returns its number.
func (s *invoiceService) RenderPDF(ctx context.Context, id uuid.UUID, w io.Writer) (string, error) {
	inv, err := s.find(ctx, id)
	if err != nil {
		return "", err
	}
	if err := infra.RenderInvoicePDF(w, inv, s.businessName); err != nil {
		return "", err
	}
	return inv.Number, nil
}

// ── Helpers ─────────────────────────────────────────────────────────────────

// loadActiveProducts fetches every product once and rejects missing or
// inactive ones.
func loadActiveProducts(ctx context.Context, repo repository.ProductRepository, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	rows, err := repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	byID := make(map[uuid.UUID]*model.Product, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}
	verr := &ValidationError{}
	for _, id := range ids {
		p, ok := byID[id]
		switch {
		case !ok:
			verr.Add("product:"+id.String(), "product not found")
		case !p.Active:
			verr.Add("product:"+id.String(), "product "+p.SKU+" is inactive")
		}
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}
	return byID, nil
}

func productIDsOf(lines []invoiceLine) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.productID)
	}
	return uniqueIDs(ids)
}

func invoiceToResponse(inv *model.Invoice) dto.InvoiceResponse {
	resp := dto.InvoiceResponse{
		ID:         inv.ID.String(),
		Number:     inv.Number,
		Date:       inv.Date.Format("2006-01-02"),
		SubTotal:   inv.SubTotal,
		GrandTotal: inv.GrandTotal,
		PaidAmount: inv.PaidAmount,
		BalanceDue: inv.BalanceDue(),
		Status:     string(inv.Status),
		Items:      make([]dto.InvoiceItemResponse, 0, len(inv.Items)),
		CreatedAt:  inv.CreatedAt.Format(time.RFC3339),
	}
	if inv.CustomerID != nil {
		id := inv.CustomerID.String()
		resp.CustomerID = &id
	}
	if inv.Customer != nil {
		resp.Customer = inv.Customer.Name
	}
	for _, it := range inv.Items {
		item := dto.InvoiceItemResponse{
			ProductID: it.ProductID.String(),
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
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

package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// InvoiceItemRequest rows that are malformed (bad product id, quantity < 1,
// negative price) are dropped by the invoice service rather than rejected here.
type InvoiceItemRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type CreateInvoiceRequest struct {
	CustomerID  *string              `json:"customer_id"  validate:"omitempty,uuid"`
	InvoiceDate string               `json:"invoice_date" validate:"omitempty,datetime=2006-01-02"`
	Items       []InvoiceItemRequest `json:"items"        validate:"required,min=1"`
	PaidAmount  decimal.Decimal      `json:"paid_amount"  validate:"min=0"`
}

type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

// InvoiceFilter is bound from the query string of GET /v1/invoices.
type InvoiceFilter struct {
	Status     string `form:"status"`
	CustomerID string `form:"customer_id" validate:"omitempty,uuid"`
	From       string `form:"from"        validate:"omitempty,datetime=2006-01-02"`
	To         string `form:"to"          validate:"omitempty,datetime=2006-01-02"`
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type InvoiceItemResponse struct {
	ProductID string          `json:"product_id"`
	SKU       string          `json:"sku"`
	Product   string          `json:"product"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type InvoiceResponse struct {
	ID         string                `json:"id"`
	Number     string                `json:"number"`
	Date       string                `json:"date"`
	CustomerID *string               `json:"customer_id"`
	Customer   string                `json:"customer"`
	SubTotal   decimal.Decimal       `json:"sub_total"`
	GrandTotal decimal.Decimal       `json:"grand_total"`
	PaidAmount decimal.Decimal       `json:"paid_amount"`
	BalanceDue decimal.Decimal       `json:"balance_due"`
	Status     string                `json:"status"`
	Items      []InvoiceItemResponse `json:"items"`
	CreatedAt  string                `json:"created_at"`
}

type InvoiceListResponse struct {
	Data  []InvoiceResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

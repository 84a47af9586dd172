package dto

import "github.com/shopspring/decimal"

type PurchaseItemRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

type CreatePurchaseRequest struct {
	SupplierID   string                `json:"supplier_id"   validate:"required,uuid"`
	PurchaseDate string                `json:"purchase_date" validate:"omitempty,datetime=2006-01-02"`
	Items        []PurchaseItemRequest `json:"items"         validate:"required,min=1"`
}

type PurchaseFilter struct {
	Status     string `form:"status"`
	SupplierID string `form:"supplier_id" validate:"omitempty,uuid"`
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type PurchaseItemResponse struct {
	ProductID string          `json:"product_id"`
	SKU       string          `json:"sku"`
	Product   string          `json:"product"`
	Quantity  int             `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type PurchaseResponse struct {
	ID         string                 `json:"id"`
	Number     string                 `json:"number"`
	SupplierID string                 `json:"supplier_id"`
	Supplier   string                 `json:"supplier"`
	Date       string                 `json:"date"`
	SubTotal   decimal.Decimal        `json:"sub_total"`
	GrandTotal decimal.Decimal        `json:"grand_total"`
	Status     string                 `json:"status"`
	ReceivedAt *string                `json:"received_at"`
	Items      []PurchaseItemResponse `json:"items"`
	CreatedAt  string                 `json:"created_at"`
}

type PurchaseListResponse struct {
	Data  []PurchaseResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

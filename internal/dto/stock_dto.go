package dto

type StockAdjustmentRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Delta     int    `json:"delta"      validate:"required,ne=0"`
	Note      string `json:"note"       validate:"required,min=3,max=255"`
}

// StockMovementFilter is bound from the query string of GET /v1/stock/movements.
type StockMovementFilter struct {
	ProductID     string `form:"product_id"     validate:"omitempty,uuid"`
	Type          string `form:"type"           validate:"omitempty,oneof=In Out Adjust"`
	ReferenceType string `form:"reference_type"`
	Page          int    `form:"page,default=1"    validate:"min=1"`
	Limit         int    `form:"limit,default=100" validate:"min=1,max=500"`
}

type StockMovementResponse struct {
	ID            string  `json:"id"`
	ProductID     string  `json:"product_id"`
	Product       string  `json:"product"`
	Type          string  `json:"type"`
	Qty           int     `json:"qty"`
	StockBefore   int     `json:"stock_before"`
	StockAfter    int     `json:"stock_after"`
	ReferenceType string  `json:"reference_type"`
	ReferenceID   *string `json:"reference_id"`
	Note          string  `json:"note"`
	CreatedAt     string  `json:"created_at"`
}

type StockMovementListResponse struct {
	Data  []StockMovementResponse `json:"data"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}

type StockAdjustmentResponse struct {
	ProductID   string `json:"product_id"`
	StockOnHand int    `json:"stock_on_hand"`
}

type LowStockResponse struct {
	ProductID    string `json:"product_id"`
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	StockOnHand  int    `json:"stock_on_hand"`
	ReorderLevel int    `json:"reorder_level"`
}

// StockReconciliationResponse reports whether the ledger explains the
// current stock given the opening balance.
type StockReconciliationResponse struct {
	ProductID   string `json:"product_id"`
	StockOnHand int    `json:"stock_on_hand"`
	LedgerNet   int    `json:"ledger_net"`
	Opening     int    `json:"opening"`
}

package handler

import (
	"net/http"

	"backoffice/internal/apierror"
	"backoffice/internal/dto"
	"backoffice/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StockHandler struct{ ledger service.StockLedger }

func NewStockHandler(ledger service.StockLedger) *StockHandler {
	return &StockHandler{ledger: ledger}
}

// Movements godoc
// @Summary      List stock movements
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        product_id     query string false "Product UUID"
// @Param        type           query string false "In | Out | Adjust"
// @Param        reference_type query string false "Manual | Invoice | InvoiceCancel | Purchase"
// @Param        page           query int    false "Page (default 1)"
// @Param        limit          query int    false "Page size (default 100)"
// @Success      200  {object} dto.StockMovementListResponse
// @Router       /v1/stock/movements [get]
func (h *StockHandler) Movements(c *gin.Context) {
	var filter dto.StockMovementFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.ledger.Movements(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Alerts godoc
// @Summary      Products at or below their reorder level
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array} dto.LowStockResponse
// @Router       /v1/stock/alerts [get]
func (h *StockHandler) Alerts(c *gin.Context) {
	resp, err := h.ledger.LowStock(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Adjust godoc
// @Summary      Manual stock adjustment
// @Description  Applies a signed delta; stock never goes below zero.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.StockAdjustmentRequest true "Adjustment"
// @Success      200  {object} dto.StockAdjustmentResponse
// @Failure      409  {object} apierror.StockError
// @Router       /v1/stock/adjustments [post]
func (h *StockHandler) Adjust(c *gin.Context) {
	var req dto.StockAdjustmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	productID := uuid.MustParse(req.ProductID)
	mv, err := h.ledger.AdjustStock(c.Request.Context(), nil, productID, req.Delta, service.MovementRef{
		Type: service.RefManual,
		Note: req.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if mv == nil {
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(map[string]string{"Delta": "ne"}))
		return
	}
	c.JSON(http.StatusOK, dto.StockAdjustmentResponse{ProductID: req.ProductID, StockOnHand: mv.StockAfter})
}

// Reconcile godoc
// @Summary      Compare a product's stock with its movement ledger
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Product UUID"
// @Success      200  {object} dto.StockReconciliationResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/stock/products/{id}/reconcile [get]
func (h *StockHandler) Reconcile(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	rec, err := h.ledger.Reconcile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StockReconciliationResponse{
		ProductID:   rec.ProductID.String(),
		StockOnHand: rec.StockOnHand,
		LedgerNet:   rec.LedgerNet,
		Opening:     rec.Opening(),
	})
}

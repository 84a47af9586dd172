// Package apierror provides the JSON error envelope of the API and the
// translation of domain errors into HTTP statuses. Internal details (DB
// errors, stack traces) never reach the client.
package apierror

import (
	"errors"
	"net/http"

	"backoffice/internal/service"
)

const internalMessage = "internal server error"

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps field level errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Fields: fields}
}

// StockError is returned when a stock delta is refused.
type StockError struct {
	Detail    string `json:"detail"`
	ProductID string `json:"product_id"`
	SKU       string `json:"sku"`
	Current   int    `json:"current"`
	Requested int    `json:"requested"`
}

// FromError maps an error returned by the service layer to a status and a
// response body. Unknown errors become a generic 500; the caller is
// responsible for logging them.
func FromError(err error) (int, interface{}) {
	var verr *service.ValidationError
	var stock *service.InsufficientStockError

	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, NewValidation(verr.Fields)
	case errors.As(err, &stock):
		return http.StatusConflict, &StockError{
			Detail:    stock.Error(),
			ProductID: stock.ProductID.String(),
			SKU:       stock.SKU,
			Current:   stock.Current,
			Requested: stock.Requested,
		}
	case errors.Is(err, service.ErrProductNotFound):
		return http.StatusNotFound, New("product not found")
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, New("not found")
	case errors.Is(err, service.ErrAlreadyCancelled):
		return http.StatusConflict, New("already cancelled")
	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict, New(err.Error())
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, New("insufficient permissions")
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, New("invalid credentials")
	default:
		return http.StatusInternalServerError, New(internalMessage)
	}
}

// Internal is the body sent for any unexpected failure.
func Internal() *APIError { return New(internalMessage) }

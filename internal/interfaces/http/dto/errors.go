package dto

import (
	"errors"
	"net/http"

	"github.com/shopkart/backend/internal/domain/catalog"
	"github.com/shopkart/backend/internal/domain/order"
	"github.com/shopkart/backend/internal/domain/shared"
)

// InsufficientStockDetails is the structured payload for stock failures
type InsufficientStockDetails struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

// InvalidTransitionDetails is the structured payload for illegal status
// changes
type InvalidTransitionDetails struct {
	Current   string   `json:"current"`
	Requested string   `json:"requested"`
	Allowed   []string `json:"allowed"`
}

// domainErrorStatus maps domain error codes to HTTP status codes.
// Business-rule violations are 400: the caller can recover by changing
// the request. Codes not listed here fall through to 400 as well, only
// infrastructure failures surface as 500.
var domainErrorStatus = map[string]int{
	"NOT_FOUND":            http.StatusNotFound,
	"UNAUTHORIZED":         http.StatusUnauthorized,
	"FORBIDDEN":            http.StatusForbidden,
	"CONCURRENCY_CONFLICT": http.StatusInternalServerError,
}

// MapError translates an application error into an HTTP status and the
// failure envelope
func MapError(err error) (int, Response) {
	var stockErr *catalog.InsufficientStockError
	if errors.As(err, &stockErr) {
		return http.StatusBadRequest, NewErrorResponseWithDetails(
			stockErr.Error(),
			InsufficientStockDetails{
				ProductID:   stockErr.ProductID.String(),
				ProductName: stockErr.ProductName,
				Requested:   stockErr.Requested,
				Available:   stockErr.Available,
			})
	}

	var transitionErr *order.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		allowed := transitionErr.Current.AllowedTransitions()
		allowedStrings := make([]string, len(allowed))
		for i, status := range allowed {
			allowedStrings[i] = status.String()
		}
		return http.StatusBadRequest, NewErrorResponseWithDetails(
			transitionErr.Error(),
			InvalidTransitionDetails{
				Current:   transitionErr.Current.String(),
				Requested: transitionErr.Requested.String(),
				Allowed:   allowedStrings,
			})
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		status, ok := domainErrorStatus[domainErr.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		message := domainErr.Message
		if domainErr.Code == "CONCURRENCY_CONFLICT" {
			message = "The resource was modified concurrently, please retry"
		}
		// provider errors keep the wrapped provider message
		if errors.Is(err, shared.ErrPaymentProvider) {
			message = err.Error()
		}
		return status, NewErrorResponse(message)
	}

	return http.StatusInternalServerError, NewErrorResponse("Internal server error")
}

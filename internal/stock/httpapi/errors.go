package httpapi

import (
	"errors"
	"net/http"

	"stockcache/internal/stock/refresh"
)

// StatusFor maps a coordinator error to an HTTP status code.
func StatusFor(err error) int {
	var (
		notFound    *refresh.DataNotFoundError
		storeErr    *refresh.StoreUnavailableError
		providerErr *refresh.ProviderUnavailableError
	)
	switch {
	case errors.Is(err, refresh.ErrInvalidSymbol), errors.Is(err, refresh.ErrInvalidDays):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &storeErr):
		return http.StatusServiceUnavailable
	case errors.As(err, &providerErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the error text safe to send to a client. Server-side
// failures get a fixed message; their detail stays in the logs.
func PublicMessage(err error, status int) string {
	switch status {
	case http.StatusServiceUnavailable:
		return "price store unavailable"
	case http.StatusBadGateway:
		return "price provider unavailable"
	}
	if status >= http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request-id,omitempty"`
}

package binance

import (
	"errors"
	"net/http"

	"exapi-service/internal/infrastructure/governor"
)

var (
	ErrAPIRequest       = errors.New("binance API request failed")
	ErrConnectionFailed = errors.New("connection to binance failed")
	ErrInvalidResponse  = errors.New("invalid binance response")
)

// Binance error codes with a specific category
const (
	codeInvalidSymbol    = -1121
	codeTimestampWindow  = -1021
	codeInvalidSignature = -1022
	codeNoSuchOrder      = -2013
	codeRejectedAPIKey   = -2015
	codeTooManyRequests  = -1003
)

// APIError es el cuerpo de error de Binance: {"code": -1121, "msg": "Invalid symbol."}
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

func (e *APIError) Error() string {
	return e.Message
}

// classify maps an HTTP status and optional error body to a governor category
func classify(status int, apiErr *APIError) governor.Category {
	if apiErr != nil {
		switch apiErr.Code {
		case codeInvalidSymbol:
			return governor.CategoryExchangeError
		case codeTimestampWindow:
			return governor.CategoryInvalidNonce
		case codeInvalidSignature, codeRejectedAPIKey:
			return governor.CategoryAuthentication
		case codeNoSuchOrder:
			return governor.CategoryOrderNotFound
		case codeTooManyRequests:
			return governor.CategoryExchangeNotAvailable
		}
	}

	switch {
	case status >= 500:
		return governor.CategoryServiceUnavailable
	case status == http.StatusTooManyRequests, status == http.StatusTeapot:
		// 418 is Binance's auto-ban after ignoring 429s
		return governor.CategoryExchangeNotAvailable
	case status == http.StatusUnauthorized:
		return governor.CategoryAuthentication
	case status == http.StatusForbidden:
		return governor.CategoryPermissionDenied
	case status >= 400:
		return governor.CategoryInvalidOrder
	default:
		return governor.CategoryExchangeError
	}
}

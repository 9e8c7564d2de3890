package kraken

import (
	"errors"
	"strings"

	"exapi-service/internal/infrastructure/governor"
)

var (
	ErrAPIRequest       = errors.New("kraken API request failed")
	ErrConnectionFailed = errors.New("connection to kraken failed")
	ErrInvalidResponse  = errors.New("invalid kraken response")
	ErrNoDepthData      = errors.New("no depth data in kraken response")
)

// classifyAPIErrors maps Kraken error strings (e.g. "EAPI:Invalid key")
// to a governor category. The first message decides.
func classifyAPIErrors(messages []string) governor.Category {
	if len(messages) == 0 {
		return governor.CategoryExchangeError
	}

	msg := messages[0]
	switch {
	case strings.HasPrefix(msg, "EAPI:Invalid key"), strings.HasPrefix(msg, "EAPI:Invalid signature"):
		return governor.CategoryAuthentication
	case strings.HasPrefix(msg, "EGeneral:Permission denied"):
		return governor.CategoryPermissionDenied
	case strings.HasPrefix(msg, "EAPI:Invalid nonce"):
		return governor.CategoryInvalidNonce
	case strings.HasPrefix(msg, "EOrder:Unknown order"):
		return governor.CategoryOrderNotFound
	case strings.HasPrefix(msg, "EOrder:"):
		return governor.CategoryInvalidOrder
	case strings.HasPrefix(msg, "EService:Unavailable"), strings.HasPrefix(msg, "EService:Busy"),
		strings.HasPrefix(msg, "EAPI:Rate limit exceeded"):
		return governor.CategoryExchangeNotAvailable
	case strings.HasPrefix(msg, "EService:Timeout"):
		return governor.CategoryServiceUnavailable
	default:
		return governor.CategoryExchangeError
	}
}

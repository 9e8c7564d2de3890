package services

import (
	"errors"
	"fmt"

	"exapi-service/internal/domain/entities"
)

var (
	// ErrPriceUnavailable is matched by every PriceUnavailableError
	ErrPriceUnavailable = errors.New("price unavailable")
	// ErrUnknownExchange is returned for exchange names with no registered source
	ErrUnknownExchange = errors.New("unknown exchange")
	// ErrNoOrderBook is returned when the upstream reports no book for the market
	ErrNoOrderBook = errors.New("no order book")
	// ErrUnsupported is returned when the exchange source lacks the requested capability
	ErrUnsupported = errors.New("not supported by exchange")
	// ErrNotFound is returned when the upstream reports the requested data as not found
	ErrNotFound = errors.New("not found")
)

// PriceUnavailableError means no fresh price could be fetched and no usable
// stale price was cached. Err is the last refresh failure.
type PriceUnavailableError struct {
	Market entities.Market
	Err    error
}

func (e *PriceUnavailableError) Error() string {
	return fmt.Sprintf("price unavailable for %s: %v", e.Market, e.Err)
}

func (e *PriceUnavailableError) Unwrap() error {
	return e.Err
}

func (e *PriceUnavailableError) Is(target error) bool {
	return target == ErrPriceUnavailable
}

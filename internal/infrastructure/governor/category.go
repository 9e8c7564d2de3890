package governor

import (
	"errors"
	"fmt"
)

// Category is the upstream failure class an exchange adapter assigns to an error
type Category int

const (
	CategoryUnknown Category = iota
	CategoryOrderNotFound
	CategoryInvalidOrder
	CategoryAuthentication
	CategoryPermissionDenied
	CategoryInvalidNonce
	CategoryExchangeError
	CategoryNetworkError
	CategoryRemoteDisconnected
	CategoryExchangeNotAvailable
	CategoryServiceUnavailable
)

var categoryNames = map[Category]string{
	CategoryUnknown:              "Unknown",
	CategoryOrderNotFound:        "OrderNotFound",
	CategoryInvalidOrder:         "InvalidOrder",
	CategoryAuthentication:       "AuthenticationError",
	CategoryPermissionDenied:     "PermissionDenied",
	CategoryInvalidNonce:         "InvalidNonce",
	CategoryExchangeError:        "ExchangeError",
	CategoryNetworkError:         "NetworkError",
	CategoryRemoteDisconnected:   "RemoteDisconnected",
	CategoryExchangeNotAvailable: "ExchangeNotAvailable",
	CategoryServiceUnavailable:   "ServiceUnavailable",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// CallError tags an upstream failure with its category
type CallError struct {
	Category Category
	Err      error
}

// NewCallError wraps err with a category
func NewCallError(category Category, err error) *CallError {
	return &CallError{Category: category, Err: err}
}

// Errorf builds a CallError from a formatted message
func Errorf(category Category, format string, args ...interface{}) *CallError {
	return &CallError{Category: category, Err: fmt.Errorf(format, args...)}
}

func (e *CallError) Error() string {
	if e.Err == nil {
		return e.Category.String()
	}
	return e.Category.String() + ": " + e.Err.Error()
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// CategoryOf returns the category of the first CallError in err's chain
func CategoryOf(err error) Category {
	var callErr *CallError
	if errors.As(err, &callErr) {
		return callErr.Category
	}
	return CategoryUnknown
}

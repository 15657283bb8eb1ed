package refresh

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSymbol = errors.New("symbol must not be empty")
	ErrInvalidDays   = errors.New("days must be greater than or equal to 0")
)

// DataNotFoundError means the provider has no data for Symbol, or did not
// answer within the provider timeout.
type DataNotFoundError struct {
	Symbol string
	Err    error
}

func (e *DataNotFoundError) Error() string {
	return fmt.Sprintf("No data could be found for symbol '%s'", e.Symbol)
}

func (e *DataNotFoundError) Unwrap() error { return e.Err }

// StoreUnavailableError wraps a persistent store failure.
type StoreUnavailableError struct {
	Op     string // "read" or "write"
	Symbol string
	Err    error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("price store %s failed for %s: %v", e.Op, e.Symbol, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// ProviderUnavailableError wraps a provider failure other than not-found.
type ProviderUnavailableError struct {
	Symbol string
	Err    error
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("price provider unavailable for %s: %v", e.Symbol, e.Err)
}

func (e *ProviderUnavailableError) Unwrap() error { return e.Err }

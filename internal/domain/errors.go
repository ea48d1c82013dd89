package domain

import "errors"

// RetriableError defines an interface for errors that a client may retry
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// NetworkError represents a failed call to the quote provider.
// It matches ErrProviderUnavailable with errors.Is.
type NetworkError struct {
	Op        string // Operation that failed (e.g., "quote", "decode")
	Err       error  // Underlying error
	Retriable bool   // Whether the client may retry
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) IsRetriable() bool {
	return e.Retriable
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrProviderUnavailable
}

// NewNetworkError creates a new retriable network error
func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: true}
}

// NewFatalNetworkError creates a non-retriable network error
func NewFatalNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: false}
}

// ConfigError represents a configuration error (never retriable).
// It matches ErrConfigurationMissing with errors.Is.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfigurationMissing
}

var (
	// ErrInvalidSymbol is returned when a symbol is empty or longer than MaxSymbolLen.
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrInvalidTrade is returned when side, shares or price of a trade are malformed.
	ErrInvalidTrade = errors.New("invalid trade")

	// ErrInsufficientShares is returned when a sell exceeds the held position.
	ErrInsufficientShares = errors.New("not enough shares to sell")

	// ErrSettlementFailed is returned when the store rejects a trade. The transaction is rolled back.
	ErrSettlementFailed = errors.New("trade failed")

	// ErrHoldingNotFound is returned when no holding exists for a symbol.
	ErrHoldingNotFound = errors.New("holding not found")

	// ErrQuoteNotFound is returned when the provider has no price for a symbol.
	ErrQuoteNotFound = errors.New("quote not found")

	// ErrProviderUnavailable is returned when the quote provider cannot be reached. Retriable by the client.
	ErrProviderUnavailable = errors.New("quote provider unavailable")

	// ErrConfigurationMissing is returned when the provider credential is not configured.
	ErrConfigurationMissing = errors.New("configuration missing")
)

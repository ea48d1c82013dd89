package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Trade amounts are bounded so every stored value renders as a finite JSON number.
const (
	MaxAmountIntegerDigits = 8
	MaxAmountScale         = 8
)

// ParseSide accepts exactly "buy" or "sell".
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	default:
		return "", fmt.Errorf("%w: side must be buy or sell, got %q", ErrInvalidTrade, s)
	}
}

// TradeRequest is a buy or sell instruction. It is never persisted;
// only its effect on a Holding is.
type TradeRequest struct {
	Symbol string          `json:"symbol"`
	Side   Side            `json:"side"`
	Shares decimal.Decimal `json:"shares"`
	Price  decimal.Decimal `json:"price"`
}

// Normalize validates the request and returns a copy with the symbol uppercased.
func (t TradeRequest) Normalize() (TradeRequest, error) {
	sym, err := NormalizeSymbol(t.Symbol)
	if err != nil {
		return t, err
	}
	side, err := ParseSide(string(t.Side))
	if err != nil {
		return t, err
	}
	if err := checkAmount("shares", t.Shares); err != nil {
		return t, err
	}
	if err := checkAmount("price", t.Price); err != nil {
		return t, err
	}
	t.Symbol = sym
	t.Side = side
	return t, nil
}

// checkAmount requires 0 < v < 10^MaxAmountIntegerDigits with at most
// MaxAmountScale fractional digits. It never formats or rescales v before the
// exponent is known to be small.
func checkAmount(field string, v decimal.Decimal) error {
	if !v.IsPositive() {
		return fmt.Errorf("%w: %s must be greater than 0", ErrInvalidTrade, field)
	}
	exp := int64(v.Exponent())
	if int64(v.NumDigits())+exp > MaxAmountIntegerDigits {
		return fmt.Errorf("%w: %s must be less than 1e%d", ErrInvalidTrade, field, MaxAmountIntegerDigits)
	}
	if exp < -MaxAmountScale {
		// trailing zeros such as 1.0000000000 are fine
		if exp < -(MaxAmountScale+MaxAmountIntegerDigits+16) || !v.Equal(v.Truncate(MaxAmountScale)) {
			return fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidTrade, field, MaxAmountScale)
		}
	}
	return nil
}

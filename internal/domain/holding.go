package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaxSymbolLen is the longest ticker symbol accepted.
const MaxSymbolLen = 10

// Holding is the current position in one symbol.
// A holding with zero shares is never stored.
//
// Cost is the exact amount paid for the shares held. AvgCost is derived from
// it with a single division, so a run of buys never compounds rounding.
type Holding struct {
	Symbol    string          `json:"symbol"`
	Shares    decimal.Decimal `json:"shares"`
	AvgCost   decimal.Decimal `json:"avg_cost"`
	Cost      decimal.Decimal `json:"cost_basis"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewHolding opens a position from a first buy.
func NewHolding(symbol string, shares, price decimal.Decimal) *Holding {
	return &Holding{Symbol: symbol, Shares: shares, AvgCost: price, Cost: shares.Mul(price)}
}

// CostBasis returns the total cost of the shares held.
func (h *Holding) CostBasis() decimal.Decimal {
	return h.Cost
}

// Buy adds shares bought at price. The average cost becomes
// total_paid / total_shares.
func (h *Holding) Buy(shares, price decimal.Decimal) {
	h.Shares = h.Shares.Add(shares)
	h.Cost = h.Cost.Add(shares.Mul(price))
	h.AvgCost = h.Cost.Div(h.Shares)
}

// Sell removes shares from the position. The average cost is left as is and
// the cost basis follows it; realized gains are not tracked. It reports
// whether the position is now closed.
func (h *Holding) Sell(shares decimal.Decimal) (closed bool, err error) {
	if h.Shares.LessThan(shares) {
		return false, fmt.Errorf("%w: %s held %s, selling %s", ErrInsufficientShares, h.Symbol, h.Shares, shares)
	}
	h.Shares = h.Shares.Sub(shares)
	if h.Shares.IsZero() {
		h.Cost = decimal.Zero
		return true, nil
	}
	h.Cost = h.Shares.Mul(h.AvgCost)
	return false, nil
}

// NormalizeSymbol trims and uppercases a symbol and checks its length.
func NormalizeSymbol(raw string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(raw))
	if sym == "" {
		return "", fmt.Errorf("%w: symbol is required", ErrInvalidSymbol)
	}
	if len(sym) > MaxSymbolLen {
		return "", fmt.Errorf("%w: %q is longer than %d characters", ErrInvalidSymbol, sym, MaxSymbolLen)
	}
	return sym, nil
}

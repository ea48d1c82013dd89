package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a price snapshot from the market-data provider.
// All fields are non-negative except Change and ChangePct.
type Quote struct {
	Symbol     string          `json:"symbol"`
	Current    decimal.Decimal `json:"current"`
	Change     decimal.Decimal `json:"change"`
	ChangePct  decimal.Decimal `json:"change_pct"`
	High       decimal.Decimal `json:"high"`
	Low        decimal.Decimal `json:"low"`
	Open       decimal.Decimal `json:"open"`
	PrevClose  decimal.Decimal `json:"prev_close"`
	CapturedAt time.Time       `json:"captured_at"`
}

// Provenance tells whether a quote was served from cache or fetched live.
type Provenance string

const (
	SourceCache Provenance = "cache"
	SourceLive  Provenance = "live"
)

// ChangeDirection returns "positive", "negative", or "neutral"
func (q *Quote) ChangeDirection() string {
	if q.Change.IsPositive() {
		return "positive"
	}
	if q.Change.IsNegative() {
		return "negative"
	}
	return "neutral"
}

package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestHolding_Buy(t *testing.T) {
	t.Run("Weighted Average", func(t *testing.T) {
		h := NewHolding("AAPL", d("10"), d("100"))
		h.Buy(d("10"), d("200"))

		if !h.Shares.Equal(d("20")) {
			t.Errorf("Expected 20 shares, got %v", h.Shares)
		}
		if !h.AvgCost.Equal(d("150")) {
			t.Errorf("Expected avg cost 150, got %v", h.AvgCost)
		}
	})

	t.Run("Fractional Shares Do Not Drift", func(t *testing.T) {
		h := NewHolding("MSFT", d("0.1"), d("0.3"))
		for i := 0; i < 9; i++ {
			h.Buy(d("0.1"), d("0.3"))
		}
		if !h.Shares.Equal(d("1")) {
			t.Errorf("Expected exactly 1 share, got %v", h.Shares)
		}
		if !h.AvgCost.Equal(d("0.3")) {
			t.Errorf("Expected avg cost exactly 0.3, got %v", h.AvgCost)
		}
	})

	t.Run("Cost Basis Composes Exactly", func(t *testing.T) {
		h := NewHolding("AAPL", d("1"), d("1"))
		h.Buy(d("2"), d("2"))
		h.Buy(d("3"), d("3"))

		if !h.CostBasis().Equal(d("14")) {
			t.Errorf("Expected cost basis exactly 14, got %v", h.CostBasis())
		}
		want := d("14").Div(d("6"))
		if !h.AvgCost.Equal(want) {
			t.Errorf("Expected avg cost %v, got %v", want, h.AvgCost)
		}
	})
}

func TestHolding_Sell(t *testing.T) {
	t.Run("Partial Keeps Avg Cost", func(t *testing.T) {
		h := NewHolding("AAPL", d("20"), d("150"))
		closed, err := h.Sell(d("5"))
		if err != nil {
			t.Fatalf("Sell failed: %v", err)
		}
		if closed {
			t.Error("Position should remain open")
		}
		if !h.Shares.Equal(d("15")) || !h.AvgCost.Equal(d("150")) {
			t.Errorf("Expected {15, 150}, got {%v, %v}", h.Shares, h.AvgCost)
		}
		if !h.CostBasis().Equal(d("2250")) {
			t.Errorf("Expected cost basis 2250, got %v", h.CostBasis())
		}
	})

	t.Run("Exact Closes Position", func(t *testing.T) {
		h := NewHolding("AAPL", d("20"), d("150"))
		closed, err := h.Sell(d("20"))
		if err != nil {
			t.Fatalf("Sell failed: %v", err)
		}
		if !closed {
			t.Error("Selling every share should close the position")
		}
		if !h.CostBasis().IsZero() {
			t.Errorf("Closed position should carry no cost, got %v", h.CostBasis())
		}
	})

	t.Run("Oversell Leaves Holding Untouched", func(t *testing.T) {
		h := NewHolding("AAPL", d("5"), d("100"))
		_, err := h.Sell(d("5.0001"))
		if !errors.Is(err, ErrInsufficientShares) {
			t.Fatalf("Expected ErrInsufficientShares, got %v", err)
		}
		if !h.Shares.Equal(d("5")) {
			t.Errorf("Shares changed to %v", h.Shares)
		}
	})
}

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"aapl", "AAPL", false},
		{"  msft ", "MSFT", false},
		{"BRK.B", "BRK.B", false},
		{"", "", true},
		{"   ", "", true},
		{"ABCDEFGHIJK", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeSymbol(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidSymbol) {
				t.Errorf("NormalizeSymbol(%q): expected ErrInvalidSymbol, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("NormalizeSymbol(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestTradeRequest_Normalize(t *testing.T) {
	valid := TradeRequest{Symbol: "aapl", Side: "buy", Shares: d("1.00000000000"), Price: d("99999999.99999999")}
	got, err := valid.Normalize()
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if got.Symbol != "AAPL" || got.Side != SideBuy {
		t.Errorf("Expected AAPL/buy, got %s/%s", got.Symbol, got.Side)
	}

	bad := []TradeRequest{
		{Symbol: "AAPL", Side: "hold", Shares: d("1"), Price: d("1")},
		{Symbol: "AAPL", Side: "buy", Shares: d("0"), Price: d("1")},
		{Symbol: "AAPL", Side: "sell", Shares: d("1"), Price: d("-1")},
		{Symbol: "AAPL", Side: "BUY", Shares: d("1"), Price: d("1")},
		{Symbol: "AAPL", Side: " sell ", Shares: d("1"), Price: d("1")},
		{Symbol: "AAPL", Side: "buy", Shares: d("1e400"), Price: d("1")},
		{Symbol: "AAPL", Side: "buy", Shares: d("1"), Price: d("1e2000000000")},
		{Symbol: "AAPL", Side: "buy", Shares: d("100000000"), Price: d("1")},
		{Symbol: "AAPL", Side: "buy", Shares: d("0.000000001"), Price: d("1")},
		{Symbol: "AAPL", Side: "buy", Shares: d("1"), Price: d("1e-2000000000")},
	}
	for _, tr := range bad {
		if _, err := tr.Normalize(); !errors.Is(err, ErrInvalidTrade) {
			t.Errorf("Normalize(%s %q): expected ErrInvalidTrade, got %v", tr.Symbol, tr.Side, err)
		}
	}

	if _, err := (TradeRequest{Side: "buy", Shares: d("1"), Price: d("1")}).Normalize(); !errors.Is(err, ErrInvalidSymbol) {
		t.Errorf("Expected ErrInvalidSymbol for empty symbol, got %v", err)
	}
}

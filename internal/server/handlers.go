package server

import (
	"fmt"
	"net/http"

	"portfolio_go/internal/domain"
	"portfolio_go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type holdingResponse struct {
	Symbol  string  `json:"symbol"`
	Shares  float64 `json:"shares"`
	AvgCost float64 `json:"avg_cost"`
}

type tradeBody struct {
	Symbol string          `json:"symbol"`
	Side   string          `json:"side"`
	Shares decimal.Decimal `json:"shares"`
	Price  decimal.Decimal `json:"price"`
}

type priceResponse struct {
	Symbol    string  `json:"symbol"`
	Source    string  `json:"source"`
	Current   float64 `json:"current"`
	Change    float64 `json:"change"`
	ChangePct float64 `json:"change_pct"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Open      float64 `json:"open"`
	PrevClose float64 `json:"prev_close"`
}

type positionResponse struct {
	Symbol       string   `json:"symbol"`
	Shares       float64  `json:"shares"`
	AvgCost      float64  `json:"avg_cost"`
	CurrentPrice *float64 `json:"current_price"`
	MarketValue  *float64 `json:"market_value"`
	CostBasis    float64  `json:"cost_basis"`
	UnrealizedPL *float64 `json:"unrealized_pl"`
	Source       string   `json:"source,omitempty"`
	PriceError   string   `json:"price_error,omitempty"`
}

type portfolioResponse struct {
	Currency          string             `json:"currency"`
	Positions         []positionResponse `json:"positions"`
	TotalMarketValue  float64            `json:"total_market_value"`
	TotalCostBasis    float64            `json:"total_cost_basis"`
	TotalUnrealizedPL float64            `json:"total_unrealized_pl"`
	Display           map[string]string  `json:"display"`
}

func toHoldingResponse(h domain.Holding) holdingResponse {
	return holdingResponse{
		Symbol:  h.Symbol,
		Shares:  h.Shares.InexactFloat64(),
		AvgCost: h.AvgCost.InexactFloat64(),
	}
}

func toPriceResponse(q domain.Quote, src domain.Provenance) priceResponse {
	return priceResponse{
		Symbol:    q.Symbol,
		Source:    string(src),
		Current:   q.Current.InexactFloat64(),
		Change:    q.Change.InexactFloat64(),
		ChangePct: q.ChangePct.InexactFloat64(),
		High:      q.High.InexactFloat64(),
		Low:       q.Low.InexactFloat64(),
		Open:      q.Open.InexactFloat64(),
		PrevClose: q.PrevClose.InexactFloat64(),
	}
}

func floatPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

// --- Handlers ---

func (s *Server) getMetrics(c *gin.Context) {
	snap := s.Metrics.Snapshot()
	snap.CachedQuotes = s.Quotes.CachedQuotes()
	c.JSON(http.StatusOK, snap)
}

func (s *Server) getHoldings(c *gin.Context) {
	rows, err := s.Settlement.Holdings(c.Request.Context())
	if err != nil {
		s.writeError(c, "Holdings", err)
		return
	}
	out := make([]holdingResponse, 0, len(rows))
	for _, h := range rows {
		out = append(out, toHoldingResponse(h))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getHolding(c *gin.Context) {
	h, err := s.Settlement.Holding(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		s.writeError(c, "Holding", err)
		return
	}
	c.JSON(http.StatusOK, toHoldingResponse(*h))
}

func (s *Server) postTrade(c *gin.Context) {
	var body tradeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.writeError(c, "Trade", fmt.Errorf("%w: %v", domain.ErrInvalidTrade, err))
		return
	}

	_, err := s.Settlement.Settle(c.Request.Context(), domain.TradeRequest{
		Symbol: body.Symbol,
		Side:   domain.Side(body.Side),
		Shares: body.Shares,
		Price:  body.Price,
	})
	if err != nil {
		s.writeError(c, "Trade", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) getPrice(c *gin.Context) {
	q, src, err := s.Quotes.GetOrFetch(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		s.writeError(c, "Price", err)
		return
	}
	c.JSON(http.StatusOK, toPriceResponse(q, src))
}

func (s *Server) getPortfolio(c *gin.Context) {
	v, err := s.Portfolio.Value(c.Request.Context())
	if err != nil {
		s.writeError(c, "Portfolio", err)
		return
	}

	resp := portfolioResponse{
		Currency:          service.ReportingCurrency,
		Positions:         make([]positionResponse, 0, len(v.Positions)),
		TotalMarketValue:  v.TotalMarketValue.InexactFloat64(),
		TotalCostBasis:    v.TotalCostBasis.InexactFloat64(),
		TotalUnrealizedPL: v.TotalUnrealizedPL.InexactFloat64(),
		Display: map[string]string{
			"total_market_value":  service.FormatMoney(v.TotalMarketValue),
			"total_cost_basis":    service.FormatMoney(v.TotalCostBasis),
			"total_unrealized_pl": service.FormatMoney(v.TotalUnrealizedPL),
		},
	}
	for _, p := range v.Positions {
		pr := positionResponse{
			Symbol:       p.Holding.Symbol,
			Shares:       p.Holding.Shares.InexactFloat64(),
			AvgCost:      p.Holding.AvgCost.InexactFloat64(),
			CurrentPrice: floatPtr(p.CurrentPrice),
			MarketValue:  floatPtr(p.MarketValue),
			CostBasis:    p.CostBasis.InexactFloat64(),
			UnrealizedPL: floatPtr(p.UnrealizedPL),
			Source:       string(p.Source),
		}
		if p.PriceErr != nil {
			pr.PriceError = p.PriceErr.Error()
		}
		resp.Positions = append(resp.Positions, pr)
	}
	c.JSON(http.StatusOK, resp)
}

package service

import (
	"context"
	"errors"
	"sync"

	"portfolio_go/internal/domain"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ReportingCurrency is the currency all valuation figures are formatted in
const ReportingCurrency = money.USD

// maxConcurrentQuotes bounds provider calls during one valuation
const maxConcurrentQuotes = 5

// Position is a holding valued at its current price.
// Price-derived fields are nil when the quote could not be fetched.
type Position struct {
	Holding      domain.Holding
	CurrentPrice *decimal.Decimal
	MarketValue  *decimal.Decimal
	CostBasis    decimal.Decimal
	UnrealizedPL *decimal.Decimal
	Source       domain.Provenance
	PriceErr     error
}

// Valuation is the whole portfolio valued at current prices.
// Totals only include positions that have a price.
type Valuation struct {
	Positions         []Position
	TotalMarketValue  decimal.Decimal
	TotalCostBasis    decimal.Decimal
	TotalUnrealizedPL decimal.Decimal
}

// PortfolioService values holdings with quotes from the cache
type PortfolioService struct {
	holdings *SettlementService
	quotes   *QuoteService
}

// NewPortfolioService creates a new PortfolioService instance
func NewPortfolioService(holdings *SettlementService, quotes *QuoteService) *PortfolioService {
	return &PortfolioService{holdings: holdings, quotes: quotes}
}

// Value prices every holding. A missing provider credential fails the whole
// valuation; any other quote error is attached to its position.
func (s *PortfolioService) Value(ctx context.Context) (*Valuation, error) {
	holdings, err := s.holdings.Holdings(ctx)
	if err != nil {
		return nil, err
	}

	positions := make([]Position, len(holdings))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, maxConcurrentQuotes)

	for i := range holdings {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := &positions[i]
			p.Holding = holdings[i]
			p.CostBasis = holdings[i].CostBasis()

			select {
			case <-ctx.Done():
				p.PriceErr = ctx.Err()
				return
			case semaphore <- struct{}{}: // Acquire
			}
			defer func() { <-semaphore }() // Release

			q, src, err := s.quotes.GetOrFetch(ctx, holdings[i].Symbol)
			if err != nil {
				p.PriceErr = err
				return
			}
			price := q.Current
			value := holdings[i].Shares.Mul(price)
			pl := value.Sub(p.CostBasis)
			p.CurrentPrice = &price
			p.MarketValue = &value
			p.UnrealizedPL = &pl
			p.Source = src
		}(i)
	}
	wg.Wait()

	v := &Valuation{Positions: positions}
	for _, p := range positions {
		if errors.Is(p.PriceErr, domain.ErrConfigurationMissing) {
			return nil, p.PriceErr
		}
		if p.PriceErr != nil {
			continue
		}
		v.TotalMarketValue = v.TotalMarketValue.Add(*p.MarketValue)
		v.TotalCostBasis = v.TotalCostBasis.Add(p.CostBasis)
		v.TotalUnrealizedPL = v.TotalUnrealizedPL.Add(*p.UnrealizedPL)
	}
	return v, nil
}

// FormatMoney renders an amount in the reporting currency, e.g. "$1,234.50".
func FormatMoney(amount decimal.Decimal) string {
	cur := money.GetCurrency(ReportingCurrency)
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, ReportingCurrency).Display()
}

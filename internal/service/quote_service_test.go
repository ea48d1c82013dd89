package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"portfolio_go/internal/cache"
	"portfolio_go/internal/domain"
	"portfolio_go/internal/infra"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// fakeProvider returns a price that increases on every call
type fakeProvider struct {
	mu    sync.Mutex
	calls map[string]int
	err   error
}

func (p *fakeProvider) FetchQuote(_ context.Context, symbol string) (*domain.Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls == nil {
		p.calls = make(map[string]int)
	}
	p.calls[symbol]++
	if p.err != nil {
		return nil, p.err
	}
	return &domain.Quote{
		Symbol:  symbol,
		Current: decimal.NewFromInt(int64(100 + p.calls[symbol])),
		Change:  decimal.RequireFromString("-0.5"),
	}, nil
}

func (p *fakeProvider) Calls(symbol string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[symbol]
}

func newQuoteService(provider domain.QuoteProvider) (*QuoteService, *fakeClock, *infra.Metrics) {
	clk := &fakeClock{now: time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)}
	metrics := &infra.Metrics{}
	quotes := cache.NewTTL[string, domain.Quote](512, 30*time.Second, clk)
	return NewQuoteService(provider, quotes, metrics), clk, metrics
}

func TestQuoteService_CacheWithinTTL(t *testing.T) {
	provider := &fakeProvider{}
	svc, clk, metrics := newQuoteService(provider)
	ctx := context.Background()

	first, src, err := svc.GetOrFetch(ctx, "aapl")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceLive, src)
	assert.Equal(t, "AAPL", first.Symbol)

	clk.Advance(29 * time.Second)
	second, src, err := svc.GetOrFetch(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceCache, src)
	assert.True(t, first.Current.Equal(second.Current), "cached values must be identical")
	assert.Equal(t, 1, provider.Calls("AAPL"))

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
}

func TestQuoteService_RefetchAfterTTL(t *testing.T) {
	provider := &fakeProvider{}
	svc, clk, _ := newQuoteService(provider)
	ctx := context.Background()

	_, _, err := svc.GetOrFetch(ctx, "AAPL")
	require.NoError(t, err)

	clk.Advance(31 * time.Second)
	q, src, err := svc.GetOrFetch(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceLive, src)
	assert.True(t, q.Current.Equal(decimal.NewFromInt(102)))
	assert.Equal(t, 2, provider.Calls("AAPL"))
}

func TestQuoteService_FailuresNotCached(t *testing.T) {
	provider := &fakeProvider{err: domain.NewNetworkError("quote", errors.New("connection reset"))}
	svc, _, metrics := newQuoteService(provider)
	ctx := context.Background()

	_, _, err := svc.GetOrFetch(ctx, "AAPL")
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)

	provider.mu.Lock()
	provider.err = nil
	provider.mu.Unlock()

	_, src, err := svc.GetOrFetch(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceLive, src)
	assert.Equal(t, 2, provider.Calls("AAPL"))
	assert.Equal(t, uint64(1), metrics.Snapshot().ProviderErrors)
}

func TestQuoteService_ErrorsPropagateUntouched(t *testing.T) {
	for _, want := range []error{
		fmt.Errorf("%w: no price for XYZ", domain.ErrQuoteNotFound),
		&domain.ConfigError{Field: "FINNHUB_API_KEY", Err: errors.New("not set")},
	} {
		provider := &fakeProvider{err: want}
		svc, _, _ := newQuoteService(provider)
		_, _, err := svc.GetOrFetch(context.Background(), "XYZ")
		assert.Equal(t, want, err)
	}
}

func TestQuoteService_InvalidSymbol(t *testing.T) {
	provider := &fakeProvider{}
	svc, _, _ := newQuoteService(provider)

	_, _, err := svc.GetOrFetch(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidSymbol)
	assert.Equal(t, 0, provider.Calls(""))
}

package service

import (
	"context"
	"errors"
	"log/slog"

	"portfolio_go/internal/cache"
	"portfolio_go/internal/domain"
	"portfolio_go/internal/infra"
)

// QuoteService serves quotes through a bounded TTL cache in front of the provider.
type QuoteService struct {
	provider domain.QuoteProvider
	cache    *cache.TTL[string, domain.Quote]
	metrics  *infra.Metrics
}

// NewQuoteService creates a new QuoteService instance
func NewQuoteService(provider domain.QuoteProvider, quotes *cache.TTL[string, domain.Quote], metrics *infra.Metrics) *QuoteService {
	if metrics == nil {
		metrics = &infra.Metrics{}
	}
	return &QuoteService{
		provider: provider,
		cache:    quotes,
		metrics:  metrics,
	}
}

// GetOrFetch returns the cached quote for symbol if still fresh, otherwise
// calls the provider once and caches the result. Failures are never cached.
func (s *QuoteService) GetOrFetch(ctx context.Context, symbol string) (domain.Quote, domain.Provenance, error) {
	sym, err := domain.NormalizeSymbol(symbol)
	if err != nil {
		return domain.Quote{}, "", err
	}

	if q, ok := s.cache.Get(sym); ok {
		s.metrics.RecordCacheHit()
		slog.DebugContext(ctx, "Quote cache hit", slog.String("symbol", sym))
		return q, domain.SourceCache, nil
	}
	s.metrics.RecordCacheMiss()

	q, err := s.provider.FetchQuote(ctx, sym)
	if err != nil {
		if !errors.Is(err, domain.ErrQuoteNotFound) && !errors.Is(err, domain.ErrConfigurationMissing) {
			s.metrics.RecordProviderError()
			slog.WarnContext(ctx, "Quote provider failed",
				slog.String("symbol", sym),
				slog.Bool("retriable", domain.IsRetriable(err)),
				slog.Any("error", err))
		}
		return domain.Quote{}, "", err
	}

	s.cache.Set(sym, *q)
	return *q, domain.SourceLive, nil
}

// CachedQuotes returns the number of quote cache entries, including expired
// ones not yet dropped.
func (s *QuoteService) CachedQuotes() int {
	return s.cache.Len()
}

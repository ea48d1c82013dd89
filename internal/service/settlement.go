package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"portfolio_go/internal/domain"
	"portfolio_go/internal/infra"
)

// symbolLocks hands out one mutex per symbol. Entries are reference counted
// and removed when no trade is using them.
type symbolLocks struct {
	mu    sync.Mutex
	locks map[string]*symbolLock
}

type symbolLock struct {
	sync.Mutex
	refs int
}

func (l *symbolLocks) lock(symbol string) func() {
	l.mu.Lock()
	sl, ok := l.locks[symbol]
	if !ok {
		sl = &symbolLock{}
		l.locks[symbol] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.Lock()
	return func() {
		sl.Unlock()
		l.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(l.locks, symbol)
		}
		l.mu.Unlock()
	}
}

// SettlementService applies trades to the Holding Store.
// Trades on the same symbol are linearized; different symbols proceed independently.
type SettlementService struct {
	store   domain.HoldingStore
	metrics *infra.Metrics
	locks   symbolLocks
}

// NewSettlementService creates a new SettlementService instance
func NewSettlementService(store domain.HoldingStore, metrics *infra.Metrics) *SettlementService {
	if metrics == nil {
		metrics = &infra.Metrics{}
	}
	return &SettlementService{
		store:   store,
		metrics: metrics,
		locks:   symbolLocks{locks: make(map[string]*symbolLock)},
	}
}

// Settle validates req and applies it in one transaction. It returns the
// resulting holding, or nil when a sell closed the position.
func (s *SettlementService) Settle(ctx context.Context, req domain.TradeRequest) (*domain.Holding, error) {
	start := time.Now()

	req, err := req.Normalize()
	if err != nil {
		s.metrics.RecordRejection()
		return nil, err
	}

	unlock := s.locks.lock(req.Symbol)
	defer unlock()

	var result *domain.Holding
	err = s.store.WithTx(ctx, func(repo domain.HoldingRepository) error {
		h, err := repo.GetForUpdate(ctx, req.Symbol)
		if err != nil {
			return err
		}

		switch req.Side {
		case domain.SideBuy:
			if h == nil {
				h = domain.NewHolding(req.Symbol, req.Shares, req.Price)
			} else {
				h.Buy(req.Shares, req.Price)
			}
			result = h
			return repo.Upsert(ctx, h)

		case domain.SideSell:
			if h == nil {
				return fmt.Errorf("%w: no holding for %s", domain.ErrInsufficientShares, req.Symbol)
			}
			closed, err := h.Sell(req.Shares)
			if err != nil {
				return err
			}
			if closed {
				return repo.Delete(ctx, req.Symbol)
			}
			result = h
			return repo.Upsert(ctx, h)
		}
		return fmt.Errorf("%w: unknown side %q", domain.ErrInvalidTrade, req.Side)
	})
	if err != nil {
		s.metrics.RecordRejection()
		if errors.Is(err, domain.ErrInsufficientShares) || errors.Is(err, domain.ErrInvalidTrade) {
			slog.WarnContext(ctx, "Trade rejected",
				slog.String("symbol", req.Symbol),
				slog.String("side", string(req.Side)),
				slog.String("shares", req.Shares.String()),
				slog.Any("error", err))
			return nil, err
		}
		slog.ErrorContext(ctx, "Trade rolled back",
			slog.String("symbol", req.Symbol),
			slog.String("side", string(req.Side)),
			slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", domain.ErrSettlementFailed, err)
	}

	s.metrics.RecordSettlement(time.Since(start))
	attrs := []any{
		slog.String("symbol", req.Symbol),
		slog.String("side", string(req.Side)),
		slog.String("shares", req.Shares.String()),
		slog.String("price", req.Price.String()),
	}
	if result != nil {
		attrs = append(attrs,
			slog.String("held", result.Shares.String()),
			slog.String("avg_cost", result.AvgCost.String()))
	} else {
		attrs = append(attrs, slog.Bool("closed", true))
	}
	slog.InfoContext(ctx, "Trade settled", attrs...)
	return result, nil
}

// Holdings returns every open position ordered by symbol.
func (s *SettlementService) Holdings(ctx context.Context) ([]domain.Holding, error) {
	return s.store.List(ctx)
}

// Holding returns one position or domain.ErrHoldingNotFound.
func (s *SettlementService) Holding(ctx context.Context, symbol string) (*domain.Holding, error) {
	sym, err := domain.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	h, err := s.store.Get(ctx, sym)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrHoldingNotFound, sym)
	}
	return h, nil
}

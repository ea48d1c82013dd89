package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"portfolio_go/internal/domain"

	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) *Storage {
	s, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func upsert(t *testing.T, s *Storage, h *domain.Holding) {
	t.Helper()
	err := s.WithTx(context.Background(), func(repo domain.HoldingRepository) error {
		return repo.Upsert(context.Background(), h)
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
}

func TestUpsertAndGetHolding(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	upsert(t, s, domain.NewHolding("AAPL", decimal.RequireFromString("10.1234"), decimal.RequireFromString("100.5")))

	fetched, err := s.Get(ctx, "AAPL")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched == nil {
		t.Fatal("fetched holding is nil")
	}
	if !fetched.Shares.Equal(decimal.RequireFromString("10.1234")) {
		t.Errorf("expected 10.1234 shares, got %s", fetched.Shares)
	}
	if !fetched.AvgCost.Equal(decimal.RequireFromString("100.5")) {
		t.Errorf("expected avg cost 100.5, got %s", fetched.AvgCost)
	}
	if fetched.UpdatedAt.IsZero() {
		t.Error("expected updated_at to be set")
	}
}

func TestUpsertKeepsFullPrecision(t *testing.T) {
	s := setupTestDB(t)

	avg := decimal.NewFromInt(1000).Div(decimal.NewFromInt(3))
	upsert(t, s, domain.NewHolding("MSFT", decimal.NewFromInt(3), avg))

	fetched, _ := s.Get(context.Background(), "MSFT")
	if !fetched.AvgCost.Equal(avg) {
		t.Errorf("expected avg cost %s, got %s", avg, fetched.AvgCost)
	}
}

func TestUpsertReplacesExisting(t *testing.T) {
	s := setupTestDB(t)

	upsert(t, s, domain.NewHolding("AAPL", decimal.NewFromInt(10), decimal.NewFromInt(100)))
	upsert(t, s, domain.NewHolding("AAPL", decimal.NewFromInt(20), decimal.NewFromInt(150)))

	all, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 holding, got %d", len(all))
	}
	if !all[0].Shares.Equal(decimal.NewFromInt(20)) {
		t.Errorf("expected 20 shares, got %s", all[0].Shares)
	}
}

func TestDeleteHolding(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	upsert(t, s, domain.NewHolding("DEL", decimal.NewFromInt(1), decimal.NewFromInt(1)))

	err := s.WithTx(ctx, func(repo domain.HoldingRepository) error {
		return repo.Delete(ctx, "DEL")
	})
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	fetched, err := s.Get(ctx, "DEL")
	if err != nil {
		t.Fatalf("Get after delete failed: %v", err)
	}
	if fetched != nil {
		t.Error("expected holding to be deleted, but found record")
	}
}

func TestListOrderedBySymbol(t *testing.T) {
	s := setupTestDB(t)
	for _, sym := range []string{"TSLA", "AAPL", "MSFT"} {
		upsert(t, s, domain.NewHolding(sym, decimal.NewFromInt(1), decimal.NewFromInt(1)))
	}

	all, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 || all[0].Symbol != "AAPL" || all[1].Symbol != "MSFT" || all[2].Symbol != "TSLA" {
		t.Errorf("Not sorted: %+v", all)
	}
}

func TestListEmpty(t *testing.T) {
	s := setupTestDB(t)
	all, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if all == nil || len(all) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", all)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	upsert(t, s, domain.NewHolding("AAPL", decimal.NewFromInt(10), decimal.NewFromInt(100)))

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(repo domain.HoldingRepository) error {
		h, err := repo.GetForUpdate(ctx, "AAPL")
		if err != nil {
			return err
		}
		h.Shares = decimal.NewFromInt(999)
		if err := repo.Upsert(ctx, h); err != nil {
			return err
		}
		if err := repo.Upsert(ctx, domain.NewHolding("NEW", decimal.NewFromInt(1), decimal.NewFromInt(1))); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	h, _ := s.Get(ctx, "AAPL")
	if !h.Shares.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected rollback to 10 shares, got %s", h.Shares)
	}
	if n, _ := s.Get(ctx, "NEW"); n != nil {
		t.Error("expected NEW to be rolled back")
	}
}

func TestGetForUpdateMissing(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	err := s.WithTx(ctx, func(repo domain.HoldingRepository) error {
		h, err := repo.GetForUpdate(ctx, "NONE")
		if h != nil {
			t.Errorf("expected nil holding, got %+v", h)
		}
		return err
	})
	if err != nil {
		t.Fatalf("WithTx failed: %v", err)
	}
}

func TestOpenFilePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "portfolio.db")
	s, err := Open("sqlite://" + path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	upsert(t, s, domain.NewHolding("AAPL", decimal.NewFromInt(1), decimal.NewFromInt(2)))
	if h, _ := s.Get(context.Background(), "AAPL"); h == nil {
		t.Error("expected holding to persist in file database")
	}
}

func TestCostBasisRoundTrip(t *testing.T) {
	s := setupTestDB(t)

	h := domain.NewHolding("AAPL", decimal.NewFromInt(1), decimal.NewFromInt(1))
	h.Buy(decimal.NewFromInt(2), decimal.NewFromInt(2))
	h.Buy(decimal.NewFromInt(3), decimal.NewFromInt(3))
	upsert(t, s, h)

	fetched, err := s.Get(context.Background(), "AAPL")
	if err != nil || fetched == nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !fetched.CostBasis().Equal(decimal.NewFromInt(14)) {
		t.Errorf("expected cost basis 14, got %s", fetched.CostBasis())
	}
	if !fetched.AvgCost.Equal(h.AvgCost) {
		t.Errorf("expected avg cost %s, got %s", h.AvgCost, fetched.AvgCost)
	}
}

func TestRowWithoutCostFallsBackToSharesTimesAvg(t *testing.T) {
	s := setupTestDB(t)

	rec := &holdingRecord{
		Symbol:  "IBM",
		Shares:  numeric{decimal.NewFromInt(4)},
		AvgCost: numeric{decimal.RequireFromString("12.5")},
	}
	if err := s.db.Create(rec).Error; err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	fetched, err := s.Get(context.Background(), "IBM")
	if err != nil || fetched == nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !fetched.CostBasis().Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected cost basis 50, got %s", fetched.CostBasis())
	}
}

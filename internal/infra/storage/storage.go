package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"portfolio_go/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// numeric stores a decimal exactly: unconstrained NUMERIC on Postgres,
// TEXT on SQLite (whose NUMERIC affinity would coerce to REAL).
type numeric struct {
	decimal.Decimal
}

func (numeric) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "numeric"
	}
	return "text"
}

// holdingRecord is the persisted row behind domain.Holding
type holdingRecord struct {
	Symbol    string   `gorm:"primaryKey;size:10"`
	Shares    numeric  `gorm:"not null"`
	AvgCost   numeric  `gorm:"not null"`
	Cost      *numeric // NULL on rows written before the column existed
	UpdatedAt time.Time
}

func (holdingRecord) TableName() string { return "holdings" }

func toRecord(h *domain.Holding) *holdingRecord {
	return &holdingRecord{
		Symbol:  h.Symbol,
		Shares:  numeric{h.Shares},
		AvgCost: numeric{h.AvgCost},
		Cost:    &numeric{h.Cost},
	}
}

func (r *holdingRecord) toDomain() *domain.Holding {
	h := &domain.Holding{
		Symbol:    r.Symbol,
		Shares:    r.Shares.Decimal,
		AvgCost:   r.AvgCost.Decimal,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Cost != nil {
		h.Cost = r.Cost.Decimal
	} else {
		h.Cost = h.Shares.Mul(h.AvgCost)
	}
	return h
}

// Storage is the gorm-backed Holding Store
type Storage struct {
	db *gorm.DB
}

// Open connects to the database named by dsn and migrates the schema.
// postgres:// and postgresql:// URLs select Postgres; anything else is a SQLite path.
func Open(dsn string) (*Storage, error) {
	dialector, err := dialectorFor(dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(log.New(os.Stderr, "", log.LstdFlags), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return newStorage(db)
}

// OpenSQLite opens a SQLite database at path (":memory:" for a private in-memory DB).
func OpenSQLite(path string) (*Storage, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return newStorage(db)
}

func newStorage(db *gorm.DB) (*Storage, error) {
	if db.Dialector.Name() == "sqlite" {
		// One writer at a time; SQLite has no row locks and fails concurrent
		// writers with SQLITE_BUSY instead of queueing them.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&holdingRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Storage{db: db}, nil
}

func dialectorFor(dsn string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return postgres.Open(dsn), nil
	case dsn == ":memory:":
		return sqlite.Open(dsn), nil
	}

	path := strings.TrimPrefix(dsn, "sqlite://")
	if !strings.HasPrefix(path, "file:") {
		// Ensure directory exists
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create DB directory: %w", err)
			}
		}
	}
	return sqlite.Open(path), nil
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Get retrieves a holding by symbol. A missing holding is (nil, nil).
func (s *Storage) Get(ctx context.Context, symbol string) (*domain.Holding, error) {
	var rec holdingRecord
	err := s.db.WithContext(ctx).First(&rec, "symbol = ?", symbol).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

// List retrieves all holdings ordered by symbol
func (s *Storage) List(ctx context.Context) ([]domain.Holding, error) {
	var recs []holdingRecord
	if err := s.db.WithContext(ctx).Order("symbol").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Holding, 0, len(recs))
	for i := range recs {
		out = append(out, *recs[i].toDomain())
	}
	return out, nil
}

// WithTx runs fn inside a transaction. A returned error or a panic rolls back.
func (s *Storage) WithTx(ctx context.Context, fn func(domain.HoldingRepository) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txRepo{tx: tx})
	})
}

// txRepo is the Holding Store bound to one transaction
type txRepo struct {
	tx *gorm.DB
}

func (r *txRepo) GetForUpdate(ctx context.Context, symbol string) (*domain.Holding, error) {
	var rec holdingRecord
	err := r.tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&rec, "symbol = ?", symbol).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

func (r *txRepo) Upsert(ctx context.Context, h *domain.Holding) error {
	rec := toRecord(h)
	return r.tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{"shares", "avg_cost", "cost", "updated_at"}),
	}).Create(rec).Error
}

func (r *txRepo) Delete(ctx context.Context, symbol string) error {
	return r.tx.WithContext(ctx).Where("symbol = ?", symbol).Delete(&holdingRecord{}).Error
}

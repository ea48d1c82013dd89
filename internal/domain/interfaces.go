package domain

import (
	"context"
)

// HoldingRepository is the Holding Store seen from inside one transaction.
type HoldingRepository interface {
	// GetForUpdate returns the holding and locks it until the transaction ends.
	// It returns (nil, nil) when no holding exists.
	GetForUpdate(ctx context.Context, symbol string) (*Holding, error)
	Upsert(ctx context.Context, h *Holding) error
	Delete(ctx context.Context, symbol string) error
}

// HoldingStore is the durable symbol -> Holding mapping.
type HoldingStore interface {
	Get(ctx context.Context, symbol string) (*Holding, error)
	List(ctx context.Context) ([]Holding, error)
	// WithTx runs fn in a single transaction. Any error returned by fn rolls it back.
	WithTx(ctx context.Context, fn func(HoldingRepository) error) error
}

// QuoteProvider is the remote market-data source.
type QuoteProvider interface {
	FetchQuote(ctx context.Context, symbol string) (*Quote, error)
}

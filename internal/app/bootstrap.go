package app

import (
	"errors"
	"log/slog"

	"portfolio_go/internal/cache"
	"portfolio_go/internal/domain"
	"portfolio_go/internal/infra"
	"portfolio_go/internal/infra/storage"
	"portfolio_go/internal/server"
	"portfolio_go/internal/service"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	// Quiet raises the log level to warn for one-shot CLI commands
	Quiet bool

	Config     *infra.Config
	Storage    *storage.Storage
	Metrics    *infra.Metrics
	Provider   *infra.FinnhubClient
	Settlement *service.SettlementService
	Quotes     *service.QuoteService
	Portfolio  *service.PortfolioService
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads configuration, opens the holding store and wires the services.
// An empty configPath uses defaults plus environment.
func (b *Bootstrap) Initialize(configPath string) error {
	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	if b.Quiet {
		cfg.Logging.Level = "warn"
	}
	slog.SetDefault(infra.NewLogger(cfg))
	slog.Info("bootstrapping portfolio service", slog.String("version", cfg.App.Version))

	// 3. Initialize Storage (DB)
	store, err := storage.Open(cfg.Database.URL)
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("holding store ready")

	// 4. Quote provider and cache
	b.Metrics = &infra.Metrics{}
	b.Provider = infra.NewFinnhubClientWithConfig(cfg.Quote.APIKey, cfg.Quote.BaseURL, cfg.Quote.Timeout)
	if !b.Provider.Configured() {
		slog.Warn("FINNHUB_API_KEY is not set; price requests will fail")
	}
	quotes := cache.NewTTL[string, domain.Quote](cfg.Quote.CacheSize, cfg.Quote.CacheTTL, nil)

	// 5. Services
	b.Settlement = service.NewSettlementService(store, b.Metrics)
	b.Quotes = service.NewQuoteService(b.Provider, quotes, b.Metrics)
	b.Portfolio = service.NewPortfolioService(b.Settlement, b.Quotes)

	return nil
}

// NewServer builds the HTTP server from the initialized services.
func (b *Bootstrap) NewServer() (*server.Server, error) {
	if b.Config == nil {
		return nil, errors.New("bootstrap is not initialized")
	}
	return server.NewServer(b.Settlement, b.Quotes, b.Portfolio, b.Metrics, server.Options{
		CORSOrigin:     b.Config.Server.CORSOrigin,
		StreamInterval: b.Config.Server.StreamInterval,
	}), nil
}

// Close releases the holding store.
func (b *Bootstrap) Close() error {
	if b.Storage == nil {
		return nil
	}
	return b.Storage.Close()
}

package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"portfolio_go/internal/domain"

	"github.com/shopspring/decimal"
)

// maxQuoteBodyBytes caps how much of a provider response is read
const maxQuoteBodyBytes = 64 << 10

// finnhubQuote represents the Finnhub /quote response.
// Unknown symbols come back with c=0 and null change fields.
type finnhubQuote struct {
	Current   decimal.NullDecimal `json:"c"`
	Change    decimal.Decimal     `json:"d"`
	ChangePct decimal.Decimal     `json:"dp"`
	High      decimal.Decimal     `json:"h"`
	Low       decimal.Decimal     `json:"l"`
	Open      decimal.Decimal     `json:"o"`
	PrevClose decimal.Decimal     `json:"pc"`
	Timestamp int64               `json:"t"`
}

// FinnhubClient fetches stock quotes from the Finnhub REST API
type FinnhubClient struct {
	apiKey     string
	apiURL     string
	timeout    time.Duration
	httpClient *http.Client
	now        func() time.Time
}

// NewFinnhubClient creates a client with the default endpoint and an 8 second timeout
func NewFinnhubClient(apiKey string) *FinnhubClient {
	return &FinnhubClient{
		apiKey:  apiKey,
		apiURL:  DefaultFinnhubURL,
		timeout: 8 * time.Second,
		httpClient: &http.Client{
			Timeout: 8 * time.Second,
		},
		now: time.Now,
	}
}

// NewFinnhubClientWithConfig creates a client with custom configuration
func NewFinnhubClientWithConfig(apiKey, apiURL string, timeout time.Duration) *FinnhubClient {
	client := NewFinnhubClient(apiKey)
	if apiURL != "" {
		client.apiURL = apiURL
	}
	if timeout > 0 {
		client.timeout = timeout
		client.httpClient.Timeout = timeout
	}
	return client
}

// Configured reports whether a credential is present.
func (c *FinnhubClient) Configured() bool {
	return c.apiKey != ""
}

// FetchQuote calls the provider once for an already normalized symbol.
// It never retries; transport failures surface as domain.ErrProviderUnavailable.
func (c *FinnhubClient) FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	if !c.Configured() {
		return nil, &domain.ConfigError{Field: "FINNHUB_API_KEY", Err: errors.New("not set")}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	addr := fmt.Sprintf("%s/quote?symbol=%s&token=%s", c.apiURL, url.QueryEscape(symbol), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, domain.NewFatalNetworkError("quote", err)
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error carries the token in its URL; report the operation only
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, domain.NewNetworkError("quote", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, domain.NewFatalNetworkError("quote", fmt.Errorf("provider rejected credential: %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, domain.NewNetworkError("quote", fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	// A quote is a few hundred bytes; anything past the limit fails to decode
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxQuoteBodyBytes))
	if err != nil {
		return nil, domain.NewNetworkError("quote", err)
	}

	var data finnhubQuote
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, domain.NewFatalNetworkError("decode", err)
	}

	return normalizeQuote(symbol, data, c.now())
}

// normalizeQuote rejects a missing or zero price; secondary fields default to zero.
func normalizeQuote(symbol string, data finnhubQuote, capturedAt time.Time) (*domain.Quote, error) {
	if !data.Current.Valid || data.Current.Decimal.IsZero() {
		return nil, fmt.Errorf("%w: no price for %s", domain.ErrQuoteNotFound, symbol)
	}
	return &domain.Quote{
		Symbol:     symbol,
		Current:    data.Current.Decimal,
		Change:     data.Change,
		ChangePct:  data.ChangePct,
		High:       data.High,
		Low:        data.Low,
		Open:       data.Open,
		PrevClose:  data.PrevClose,
		CapturedAt: capturedAt,
	}, nil
}

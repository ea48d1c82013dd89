package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"portfolio_go/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	streamWriteTimeout = 10 * time.Second
	streamReadTimeout  = 60 * time.Second
	maxStreamSymbols   = 50
)

var upgrader = websocket.Upgrader{
	HandshakeTimeout: 10 * time.Second,
	CheckOrigin:      func(r *http.Request) bool { return true },
}

type streamError struct {
	Symbol string `json:"symbol"`
	Error  string `json:"error"`
}

// parseStreamSymbols splits a comma separated list, normalizing and deduplicating.
func parseStreamSymbols(raw string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		sym, err := domain.NormalizeSymbol(part)
		if err != nil {
			return nil, err
		}
		if seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: symbols query parameter is required", domain.ErrInvalidSymbol)
	}
	if len(out) > maxStreamSymbols {
		return nil, fmt.Errorf("%w: at most %d symbols per stream", domain.ErrInvalidSymbol, maxStreamSymbols)
	}
	return out, nil
}

func (s *Server) streamPrices(c *gin.Context) {
	symbols, err := parseStreamSymbols(c.Query("symbols"))
	if err != nil {
		s.writeError(c, "Stream", err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		slog.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	s.Metrics.IncrementStreams()
	defer s.Metrics.DecrementStreams()

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	// The reader only exists to notice the client going away.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		for {
			conn.SetReadDeadline(time.Now().Add(streamReadTimeout + s.StreamInterval))
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Debug("price stream read error", slog.Any("error", err))
				}
				return
			}
		}
	}()

	slog.Info("price stream opened", slog.Any("symbols", symbols))

	ticker := time.NewTicker(s.StreamInterval)
	defer ticker.Stop()

loop:
	for {
		if err := s.pushQuotes(ctx, conn, symbols); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
		}
	}

	cancel()
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	conn.Close()
	wg.Wait()
	slog.Info("price stream closed", slog.Any("symbols", symbols))
}

// pushQuotes writes one message per symbol. Lookups go through the quote cache.
func (s *Server) pushQuotes(ctx context.Context, conn *websocket.Conn, symbols []string) error {
	for _, sym := range symbols {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var msg any
		q, src, err := s.Quotes.GetOrFetch(ctx, sym)
		if err != nil {
			msg = streamError{Symbol: sym, Error: err.Error()}
		} else {
			msg = toPriceResponse(q, src)
		}
		conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			return err
		}
	}
	return nil
}

package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"portfolio_go/internal/infra"
	"portfolio_go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// Server wires the router to the settlement, quote and valuation services.
type Server struct {
	R              *gin.Engine
	Settlement     *service.SettlementService
	Quotes         *service.QuoteService
	Portfolio      *service.PortfolioService
	Metrics        *infra.Metrics
	StreamInterval time.Duration

	// ctx is cancelled by Close so open streams end on shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// Options configures NewServer.
type Options struct {
	CORSOrigin     string
	StreamInterval time.Duration
}

// NewServer wires the router, services, and middleware.
func NewServer(settlement *service.SettlementService, quotes *service.QuoteService, portfolio *service.PortfolioService, metrics *infra.Metrics, opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)
	g := gin.New()

	g.Use(requestID())
	g.Use(requestLogger())
	g.Use(gin.Recovery())
	g.Use(cors(opts.CORSOrigin))

	if opts.StreamInterval <= 0 {
		opts.StreamInterval = 5 * time.Second
	}
	if metrics == nil {
		metrics = &infra.Metrics{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		R:              g,
		Settlement:     settlement,
		Quotes:         quotes,
		Portfolio:      portfolio,
		Metrics:        metrics,
		StreamInterval: opts.StreamInterval,
		ctx:            ctx,
		cancel:         cancel,
	}

	g.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	g.GET("/metrics", s.getMetrics)
	g.GET("/holdings", s.getHoldings)
	g.GET("/holdings/:symbol", s.getHolding)
	g.POST("/trade", s.postTrade)
	g.GET("/price/", s.getPrice)
	g.GET("/price/:symbol", s.getPrice)
	g.GET("/portfolio", s.getPortfolio)
	g.GET("/ws/prices", s.streamPrices)

	return s
}

// Close ends all open price streams. Plain HTTP requests are drained by http.Server.Shutdown.
func (s *Server) Close() {
	s.cancel()
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.InfoContext(c.Request.Context(), "http_request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", c.GetString("request_id")),
			slog.Duration("latency", time.Since(start)),
		)
	}
}

func cors(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqOrigin := c.GetHeader("Origin")
		h := c.Writer.Header()
		h.Set("Vary", "Origin")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Max-Age", "86400")
		if origin == "*" {
			h.Set("Access-Control-Allow-Origin", "*")
		} else if reqOrigin != "" && reqOrigin == origin {
			h.Set("Access-Control-Allow-Origin", origin)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

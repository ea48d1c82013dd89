package server

import (
	"errors"
	"log/slog"
	"net/http"

	"portfolio_go/internal/domain"

	"github.com/gin-gonic/gin"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorStatus maps the domain taxonomy to an HTTP status and a stable code
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidSymbol):
		return http.StatusBadRequest, "invalid_symbol"
	case errors.Is(err, domain.ErrInvalidTrade):
		return http.StatusBadRequest, "invalid_trade"
	case errors.Is(err, domain.ErrInsufficientShares):
		return http.StatusBadRequest, "insufficient_shares"
	case errors.Is(err, domain.ErrSettlementFailed):
		return http.StatusBadRequest, "settlement_failed"
	case errors.Is(err, domain.ErrHoldingNotFound):
		return http.StatusNotFound, "holding_not_found"
	case errors.Is(err, domain.ErrQuoteNotFound):
		return http.StatusNotFound, "quote_not_found"
	case errors.Is(err, domain.ErrProviderUnavailable):
		return http.StatusBadGateway, "provider_unavailable"
	case errors.Is(err, domain.ErrConfigurationMissing):
		return http.StatusInternalServerError, "configuration_missing"
	default:
		return http.StatusInternalServerError, "internal_server_error"
	}
}

// writeError renders err. Unclassified errors are logged and hidden from the client.
func (s *Server) writeError(c *gin.Context, where string, err error) {
	status, code := errorStatus(err)
	msg := err.Error()
	switch code {
	case "internal_server_error":
		slog.ErrorContext(c.Request.Context(), "internal_error", slog.String("where", where), slog.Any("error", err))
		msg = "internal server error"
	case "settlement_failed":
		// store details stay in the log
		msg = domain.ErrSettlementFailed.Error()
	case "configuration_missing":
		msg = "quote provider credential is not configured"
	}
	if domain.IsRetriable(err) {
		c.Header("Retry-After", "5")
	}
	c.JSON(status, apiError{Code: code, Message: msg})
}

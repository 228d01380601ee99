package http

import (
	"log/slog"
	"net/http"

	apperrors "inventorypro/internal/errors"
)

// MetricsHandler serves the Prometheus scrape endpoint
type MetricsHandler struct {
	prometheus   http.Handler
	errorHandler *apperrors.ErrorHandler
	logger       *slog.Logger
}

// NewMetricsHandler creates a new metrics handler. prometheus is nil when
// the Prometheus exporter is disabled.
func NewMetricsHandler(prometheus http.Handler, errorHandler *apperrors.ErrorHandler, logger *slog.Logger) *MetricsHandler {
	return &MetricsHandler{
		prometheus:   prometheus,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "metrics")),
	}
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		h.logger.DebugContext(r.Context(), "metrics requested but prometheus exporter is disabled")
		h.errorHandler.HandleError(w, r, apperrors.NotFoundError("metrics"))
		return
	}
	h.prometheus.ServeHTTP(w, r)
}

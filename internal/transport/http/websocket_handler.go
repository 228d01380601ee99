package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"inventorypro/internal/config"
	"inventorypro/internal/infrastructure"
	"inventorypro/internal/middleware"
	"inventorypro/internal/websocket"
)

// WebSocketHandler upgrades browser connections and attaches them to the hub
type WebSocketHandler struct {
	hub            *websocket.Hub
	upgrader       gorillaws.Upgrader
	allowedOrigins []string
	pongWait       time.Duration
	logger         *slog.Logger
}

// NewWebSocketHandler creates a handler. An empty allowedOrigins list accepts
// every origin, as in development mode.
func NewWebSocketHandler(hub *websocket.Hub, cfg config.WebSocketConfig, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:            hub,
		allowedOrigins: allowedOrigins,
		pongWait:       cfg.PongWait,
		logger:         logger.With(slog.String("handler", "websocket")),
	}
	h.upgrader = gorillaws.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			h.logger.WarnContext(r.Context(), "WebSocket upgrade error",
				slog.Int("status", status),
				slog.String("reason", reason.Error()),
				slog.String("origin", r.Header.Get("Origin")))
			http.Error(w, http.StatusText(status), status)
		},
	}
	return h
}

// ServeHTTP handles GET /ws
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetRequestID(r.Context())
	ctx := infrastructure.WithTraceID(r.Context(), traceID)

	h.logger.InfoContext(ctx, "WebSocket upgrade request",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("origin", r.Header.Get("Origin")),
		slog.String("user_agent", r.UserAgent()))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already responded.
		return
	}

	client := websocket.ServeClient(h.hub, websocket.NewConnection(conn), traceID, h.pongWait, h.logger)
	h.logger.InfoContext(ctx, "WebSocket client connected",
		slog.String("client_id", client.ID()),
		slog.Int("clients", h.hub.ClientCount()))
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.allowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}

	h.logger.WarnContext(r.Context(), "WebSocket origin not allowed",
		slog.String("origin", origin),
		slog.Any("allowed_origins", h.allowedOrigins))
	return false
}

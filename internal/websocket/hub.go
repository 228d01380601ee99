package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"inventorypro/internal/infrastructure"
)

// Message types pushed to browsers
const (
	TypeConnection = "connection"
	TypeToast      = "toast"
	TypeLoader     = "loader"
)

// Message is the envelope of every frame sent to clients
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
// The clients map is owned by the Run goroutine.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu          sync.RWMutex
	clientCount int
	running     bool
	quit        chan struct{}
	done        chan struct{}

	logger *slog.Logger

	clientsGauge metric.Int64UpDownCounter
	messagesSent metric.Int64Counter
	dropped      metric.Int64Counter
}

// NewHub creates a new Hub. A nil logger uses the global logger.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	meter := otel.Meter(infrastructure.InstrumentationID)
	clientsGauge, _ := meter.Int64UpDownCounter("inventory_ws_clients",
		metric.WithDescription("Connected websocket clients"))
	messagesSent, _ := meter.Int64Counter("inventory_ws_messages_sent",
		metric.WithDescription("Websocket frames queued to clients"))
	dropped, _ := meter.Int64Counter("inventory_ws_clients_dropped",
		metric.WithDescription("Clients disconnected because their send buffer was full"))

	return &Hub{
		clients:      make(map[*Client]bool),
		broadcast:    make(chan []byte, 64),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
		logger:       logger.With(slog.String("component", "websocket.hub")),
		clientsGauge: clientsGauge,
		messagesSent: messagesSent,
		dropped:      dropped,
	}
}

// Start runs the hub loop in a new goroutine. Calling Start twice is a
// no-op, and a stopped hub cannot be restarted.
func (h *Hub) Start() {
	h.mu.Lock()
	select {
	case <-h.quit:
		h.mu.Unlock()
		return
	default:
	}
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
}

// Run is the hub's main loop; it returns after Stop.
func (h *Hub) Run() {
	defer close(h.done)
	ctx := context.Background()

	for {
		select {
		case <-h.quit:
			for client := range h.clients {
				h.remove(ctx, client)
			}
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.clients[client] = true
			h.setCount(len(h.clients))
			h.clientsGauge.Add(ctx, 1)

			h.logger.InfoContext(infrastructure.WithTraceID(ctx, client.traceID), "Client registered",
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr),
				slog.Int("total_clients", len(h.clients)))

			if data, err := encode(TypeConnection, map[string]string{
				"status":    "connected",
				"client_id": client.id,
			}, client.traceID); err == nil {
				h.send(ctx, client, data)
			}

		case client := <-h.unregister:
			if h.clients[client] {
				h.remove(ctx, client)
				h.logger.InfoContext(infrastructure.WithTraceID(ctx, client.traceID), "Client unregistered",
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)),
					slog.Int("total_clients", len(h.clients)))
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				h.send(ctx, client, message)
			}
		}
	}
}

// send queues a frame without blocking; a client whose buffer is full is dropped.
func (h *Hub) send(ctx context.Context, client *Client, message []byte) {
	select {
	case client.send <- message:
		h.messagesSent.Add(ctx, 1)
	default:
		h.remove(ctx, client)
		h.dropped.Add(ctx, 1)
		h.logger.WarnContext(ctx, "Client send buffer full, disconnecting",
			slog.String("client_id", client.id))
	}
}

func (h *Hub) remove(ctx context.Context, client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.setCount(len(h.clients))
	h.clientsGauge.Add(ctx, -1)
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.clientCount = n
	h.mu.Unlock()
}

// Broadcast sends a typed message to all connected clients. It drops the
// message if the hub is not running.
func (h *Hub) Broadcast(messageType string, data interface{}) {
	h.BroadcastWithTrace(messageType, data, "")
}

// BroadcastWithTrace is Broadcast with a trace id in the envelope
func (h *Hub) BroadcastWithTrace(messageType string, data interface{}, traceID string) {
	if !h.isRunning() {
		return
	}

	payload, err := encode(messageType, data, traceID)
	if err != nil {
		h.logger.Error("Error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", messageType))
		return
	}

	select {
	case h.broadcast <- payload:
	case <-h.quit:
	case <-h.done:
	}
}

// Register adds a client to the hub. On a stopped hub the client's send
// channel is closed immediately, which ends its write pump.
func (h *Hub) Register(client *Client) {
	if !h.isRunning() {
		close(client.send)
		return
	}
	select {
	case h.register <- client:
	case <-h.quit:
		close(client.send)
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	if !h.isRunning() {
		return
	}
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

func (h *Hub) isRunning() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clientCount
}

// Stop stops the hub and closes all client send channels. It waits for Run to exit.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.done
}

func encode(messageType string, data interface{}, traceID string) ([]byte, error) {
	return json.Marshal(Message{
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
		TraceID:   traceID,
	})
}

// Ensure Hub satisfies Broadcaster
var _ Broadcaster = (*Hub)(nil)

package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"inventorypro/internal/config"
	"inventorypro/internal/infrastructure"
	"inventorypro/internal/websocket"
)

// LoaderState is the payload of a loader frame
type LoaderState struct {
	Visible bool   `json:"visible"`
	Message string `json:"message,omitempty"`
}

// HubNotifier pushes toasts and the loader state to browsers through a
// websocket broadcaster. Toasts also stay readable through Recent until
// their TTL expires, for clients that poll instead.
type HubNotifier struct {
	hub    websocket.Broadcaster
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu     sync.Mutex
	recent []Notification
	timers map[string]*time.Timer
	closed bool
}

// NewHubNotifier creates a notifier; ttl <= 0 uses the default toast lifetime.
func NewHubNotifier(hub websocket.Broadcaster, ttl time.Duration, logger *slog.Logger) *HubNotifier {
	if ttl <= 0 {
		ttl = config.DefaultToastTTL
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &HubNotifier{
		hub:    hub,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.With(slog.String("component", "notify.hub")),
		timers: make(map[string]*time.Timer),
	}
}

// Notify broadcasts a toast and schedules its expiry
func (n *HubNotifier) Notify(ctx context.Context, message string, severity Severity) {
	note := Notification{
		ID:        uuid.New().String(),
		Message:   message,
		Severity:  ParseSeverity(string(severity)),
		CreatedAt: n.now(),
	}

	n.mu.Lock()
	if !n.closed {
		n.recent = append(n.recent, note)
		n.timers[note.ID] = time.AfterFunc(n.ttl, func() { n.expire(note.ID) })
	}
	n.mu.Unlock()

	n.logger.DebugContext(ctx, "toast",
		slog.String("severity", string(note.Severity)),
		slog.String("message", message))

	n.broadcast(ctx, websocket.TypeToast, note)
}

// WithBusyIndicator shows the loader around action
func (n *HubNotifier) WithBusyIndicator(ctx context.Context, message string, action func(ctx context.Context) error) error {
	return runBusy(ctx, n, message, action)
}

func (n *HubNotifier) setBusy(ctx context.Context, visible bool, message string) {
	n.broadcast(ctx, websocket.TypeLoader, LoaderState{Visible: visible, Message: message})
}

func (n *HubNotifier) broadcast(ctx context.Context, msgType string, data interface{}) {
	if hub, ok := n.hub.(interface {
		BroadcastWithTrace(string, interface{}, string)
	}); ok {
		hub.BroadcastWithTrace(msgType, data, infrastructure.GetTraceID(ctx))
		return
	}
	n.hub.Broadcast(msgType, data)
}

func (n *HubNotifier) expire(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.timers, id)
	for i, note := range n.recent {
		if note.ID == id {
			n.recent = append(n.recent[:i], n.recent[i+1:]...)
			return
		}
	}
}

// Recent returns toasts that have not yet expired, oldest first
func (n *HubNotifier) Recent() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.recent...)
}

// Close stops pending expiry timers and drops the recent list
func (n *HubNotifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, t := range n.timers {
		t.Stop()
		delete(n.timers, id)
	}
	n.recent = nil
	n.closed = true
}

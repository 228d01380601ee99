package notify

import (
	"context"
	"sync"
	"time"
)

// BusyEvent records one show or hide of the busy indicator
type BusyEvent struct {
	Visible bool
	Message string
}

// Recorder keeps every notification in memory. It is safe for concurrent use.
type Recorder struct {
	mu            sync.Mutex
	notifications []Notification
	busy          []BusyEvent
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Notify records the notification
func (r *Recorder) Notify(_ context.Context, message string, severity Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, Notification{
		Message:   message,
		Severity:  severity,
		CreatedAt: time.Now(),
	})
}

// WithBusyIndicator records the indicator around action
func (r *Recorder) WithBusyIndicator(ctx context.Context, message string, action func(ctx context.Context) error) error {
	return runBusy(ctx, r, message, action)
}

func (r *Recorder) setBusy(_ context.Context, visible bool, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.busy = append(r.busy, BusyEvent{Visible: visible, Message: message})
}

// Notifications returns everything recorded so far
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notifications...)
}

// Count returns how many notifications of severity were recorded
func (r *Recorder) Count(severity Severity) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, note := range r.notifications {
		if note.Severity == severity {
			n++
		}
	}
	return n
}

// BusyEvents returns the recorded indicator changes
func (r *Recorder) BusyEvents() []BusyEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]BusyEvent(nil), r.busy...)
}

// Reset forgets everything
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = nil
	r.busy = nil
}

// Package notify delivers transient user-facing messages (toasts) and a
// busy indicator. Callers depend on the Notifier interface; the web server
// wires a HubNotifier, the CLI a LogNotifier and tests a Recorder.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"inventorypro/internal/config"
)

// Severity of a notification
type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Warning Severity = "warning"
	Info    Severity = "info"
)

// ParseSeverity maps a name to a Severity; unknown names are Info.
func ParseSeverity(s string) Severity {
	switch sev := Severity(strings.ToLower(strings.TrimSpace(s))); sev {
	case Success, Error, Warning, Info:
		return sev
	default:
		return Info
	}
}

// Notification is one toast
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier shows messages to the user.
type Notifier interface {
	// Notify shows message with the given severity. It never fails.
	Notify(ctx context.Context, message string, severity Severity)
	// WithBusyIndicator shows a busy indicator while action runs. The indicator is
	// hidden again however action ends. If action fails, an error notification is
	// shown and the error returned.
	WithBusyIndicator(ctx context.Context, message string, action func(ctx context.Context) error) error
}

// busyDisplay is the show/hide half of a notifier
type busyDisplay interface {
	Notifier
	setBusy(ctx context.Context, visible bool, message string)
}

// runBusy implements WithBusyIndicator for every notifier in this package.
func runBusy(ctx context.Context, d busyDisplay, message string, action func(ctx context.Context) error) (err error) {
	d.setBusy(ctx, true, message)
	defer func() {
		d.setBusy(ctx, false, "")
		if r := recover(); r != nil {
			d.Notify(ctx, config.MsgFetchFailed, Error)
			panic(r)
		}
	}()

	if err = action(ctx); err != nil {
		d.Notify(ctx, config.MsgFetchFailed, Error)
		return fmt.Errorf("busy action: %w", err)
	}
	return nil
}

// Nop discards every notification.
type Nop struct{}

// Notify does nothing
func (Nop) Notify(context.Context, string, Severity) {}

// WithBusyIndicator runs action
func (Nop) WithBusyIndicator(ctx context.Context, _ string, action func(ctx context.Context) error) error {
	return action(ctx)
}

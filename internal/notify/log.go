package notify

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// LogNotifier writes notifications to a logger. Used where no browser is attached.
type LogNotifier struct {
	logger   *slog.Logger
	problems atomic.Int64
}

// NewLogNotifier creates a notifier logging through logger
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With(slog.String("component", "notify"))}
}

// Notify logs the message at a level matching its severity
func (n *LogNotifier) Notify(ctx context.Context, message string, severity Severity) {
	level := slog.LevelInfo
	switch severity {
	case Error:
		level = slog.LevelError
		n.problems.Add(1)
	case Warning:
		level = slog.LevelWarn
		n.problems.Add(1)
	}
	n.logger.Log(ctx, level, message, slog.String("severity", string(severity)))
}

// WithBusyIndicator logs start and end of action
func (n *LogNotifier) WithBusyIndicator(ctx context.Context, message string, action func(ctx context.Context) error) error {
	return runBusy(ctx, n, message, action)
}

func (n *LogNotifier) setBusy(ctx context.Context, visible bool, message string) {
	if visible {
		n.logger.DebugContext(ctx, "busy", slog.String("message", message))
		return
	}
	n.logger.DebugContext(ctx, "idle")
}

// Problems counts error and warning notifications seen so far
func (n *LogNotifier) Problems() int64 {
	return n.problems.Load()
}

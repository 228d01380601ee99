package exporter

import (
	"strings"
	"time"

	"inventorypro/internal/config"
)

// Clock supplies the current time; tests freeze it.
type Clock func() time.Time

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// ResolveFilename replaces every {timestamp} in template with now as YYYY-MM-DD.
func ResolveFilename(template string, now time.Time) string {
	if !strings.Contains(template, config.TimestampPlaceholder) {
		return template
	}
	return strings.ReplaceAll(template, config.TimestampPlaceholder, now.Format(config.TimestampLayout))
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"inventorypro/internal/validation"
)

// ClientCounter reports how many websocket clients are connected.
type ClientCounter interface {
	ClientCount() int
}

// CatalogSizer reports how many products are loaded.
type CatalogSizer interface {
	Len() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	outputDir string
	catalog   CatalogSizer
	hub       ClientCounter
	files     *validation.FileValidator
	startTime time.Time
	now       func() time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// HealthDeps are the components whose state the health endpoints report.
// OutputDir may be empty when exports are only streamed over HTTP.
type HealthDeps struct {
	Version   string
	BuildTime string
	OutputDir string
	Catalog   CatalogSizer
	Hub       ClientCounter
}

// NewHealthService creates a new health service
func NewHealthService(deps HealthDeps, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", deps.Version),
		slog.String("build_time", deps.BuildTime))

	return &HealthService{
		version:   deps.Version,
		buildTime: deps.BuildTime,
		outputDir: deps.OutputDir,
		catalog:   deps.Catalog,
		hub:       deps.Hub,
		files:     validation.NewFileValidator(logger),
		startTime: time.Now(),
		now:       time.Now,
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "health check",
		slog.String("uptime", hs.now().Sub(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: hs.now(),
		Version:   hs.version,
	}
}

// ReadinessCheck returns readiness status
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: hs.now(),
		Version:   hs.version,
		Services: map[string]interface{}{
			"catalog":   hs.checkCatalogHealth(),
			"websocket": hs.checkWebSocketHealth(),
			"exports":   hs.checkExportHealth(),
		},
	}

	for name, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			hs.logger.WarnContext(ctx, "service not ready",
				slog.String("name", name),
				slog.String("message", sh.Message))
			status.Status = "not_ready"
		}
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: hs.now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     hs.now().Sub(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       hs.now().Sub(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": hs.now().Format(time.RFC3339),
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	return result
}

func (hs *HealthService) checkCatalogHealth() ServiceHealth {
	if hs.catalog == nil {
		return ServiceHealth{Status: "not_ready", Message: "catalog not loaded"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d products loaded", hs.catalog.Len()),
	}
}

func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{Status: "not_ready", Message: "websocket hub not initialized"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d clients connected", hs.hub.ClientCount()),
		Uptime:  hs.now().Sub(hs.startTime).String(),
	}
}

// checkExportHealth verifies the export directory is writable
func (hs *HealthService) checkExportHealth() ServiceHealth {
	if hs.outputDir == "" {
		return ServiceHealth{Status: "ready", Message: "exports are streamed to the client"}
	}
	if err := hs.files.ValidateOutputDirectory(hs.outputDir); err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("Cannot write to export directory: %v", err),
		}
	}
	return ServiceHealth{Status: "ready", Message: "export directory is writable"}
}

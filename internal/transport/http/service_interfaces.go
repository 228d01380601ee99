package http

import (
	"context"
	"io"

	"inventorypro/internal/exporter"
	"inventorypro/internal/inventory"
	"inventorypro/internal/notify"
	"inventorypro/internal/services"
)

// ExportServiceInterface defines the export operations the handlers call
type ExportServiceInterface interface {
	ExportRecords(ctx context.Context, sink exporter.Sink, req services.RecordsExport) (exporter.Outcome, error)
	ExportTable(ctx context.Context, sink exporter.Sink, req services.TableExport) (exporter.Outcome, error)
	ExportReport(ctx context.Context, sink exporter.Sink, req services.ReportExport) (exporter.Outcome, error)
}

// CatalogInterface defines the inventory operations the handlers call
type CatalogInterface interface {
	Report(name string) (inventory.Report, error)
	List() []inventory.Product
	Get(sku string) (inventory.Product, bool)
	ImportCSV(r io.Reader) (inventory.ImportResult, error)
	Transactions(sku string) []inventory.Transaction
	TransactionStats(sku string) inventory.TransactionStats
	AddTransaction(t inventory.Transaction) error
	ImportTransactionsCSV(r io.Reader) (inventory.ImportResult, error)
}

// HealthServiceInterface defines the health operations the handlers call
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
}

// NotificationSource lists the notifications still on screen
type NotificationSource interface {
	Recent() []notify.Notification
}

var (
	_ ExportServiceInterface = (*services.ExportService)(nil)
	_ HealthServiceInterface = (*services.HealthService)(nil)
	_ CatalogInterface       = (*inventory.Catalog)(nil)
	_ NotificationSource     = (*notify.HubNotifier)(nil)
)

package services

import (
	"context"
	"log/slog"

	apperrors "inventorypro/internal/errors"
	"inventorypro/internal/exporter"
	"inventorypro/internal/inventory"
	"inventorypro/internal/notify"
	"inventorypro/internal/page"
	"inventorypro/internal/validation"
)

// Export formats accepted by ExportRecords
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const busyMessage = "Preparing export..."

// RecordsExport is a request to export a list of records.
type RecordsExport struct {
	Filename string            `json:"filename" validate:"omitempty,filename"`
	Headers  []string          `json:"headers" validate:"omitempty,dive,csvheader"`
	Records  []exporter.Record `json:"records"`
	Format   string            `json:"format" validate:"omitempty,oneof=csv xlsx"`
}

// TableExport is a request to export a table from posted HTML.
type TableExport struct {
	HTML     string `json:"html" validate:"required"`
	TableID  string `json:"table_id" validate:"required"`
	Filename string `json:"filename" validate:"omitempty,filename"`
}

// ReportExport is a request to export a table of a rendered catalog report.
type ReportExport struct {
	Report   string `validate:"required"`
	TableID  string `validate:"required"`
	Filename string `validate:"omitempty,filename"`
}

// ExportService runs exports on behalf of the HTTP handlers. Every export
// shows the busy indicator on the notifier while it runs.
type ExportService struct {
	exporter  *exporter.TabularExporter
	notifier  notify.Notifier
	catalog   *inventory.Catalog
	renderer  *page.Renderer
	validator *validation.Validator
	archive   exporter.Sink
	logger    *slog.Logger
}

// NewExportService creates an export service. The exporter's own notifier is
// replaced by notifier.
func NewExportService(exp *exporter.TabularExporter, notifier notify.Notifier, catalog *inventory.Catalog, renderer *page.Renderer, logger *slog.Logger) *ExportService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportService{
		exporter:  exp.WithNotifier(notifier),
		notifier:  notifier,
		catalog:   catalog,
		renderer:  renderer,
		validator: validation.New(),
		logger:    logger.With(slog.String("service", "export")),
	}
}

// WithArchive returns a copy of s that also saves every download to archive
// before handing it to the caller's sink.
func (s *ExportService) WithArchive(archive exporter.Sink) *ExportService {
	c := *s
	c.archive = archive
	return &c
}

// ExportRecords validates req and delivers the records to sink. A non-nil
// error means req was rejected before any export started.
func (s *ExportService) ExportRecords(ctx context.Context, sink exporter.Sink, req RecordsExport) (exporter.Outcome, error) {
	if err := s.validator.Validate(req); err != nil {
		return "", err
	}

	exp := s.exporter.WithSink(s.sinkFor(sink))
	return s.run(ctx, func(ctx context.Context) exporter.Outcome {
		if req.Format == FormatXLSX {
			return exp.ExportRecordsXLSX(ctx, req.Records, req.Filename, req.Headers...)
		}
		return exp.ExportFromRecords(ctx, req.Records, req.Filename, req.Headers...)
	}), nil
}

// ExportTable parses the posted HTML and exports the table with req.TableID.
func (s *ExportService) ExportTable(ctx context.Context, sink exporter.Sink, req TableExport) (exporter.Outcome, error) {
	if err := s.validator.Validate(req); err != nil {
		return "", err
	}

	doc, err := page.ParseString(req.HTML)
	if err != nil {
		return "", err
	}

	exp := s.exporter.WithSink(s.sinkFor(sink)).WithSource(doc)
	return s.run(ctx, func(ctx context.Context) exporter.Outcome {
		return exp.ExportFromElement(ctx, req.TableID, req.Filename)
	}), nil
}

// ExportReport renders the named catalog report and exports one of its tables.
func (s *ExportService) ExportReport(ctx context.Context, sink exporter.Sink, req ReportExport) (exporter.Outcome, error) {
	if err := s.validator.Validate(req); err != nil {
		return "", err
	}

	report, err := s.catalog.Report(req.Report)
	if err != nil {
		return "", err
	}

	exp := s.exporter.WithSink(s.sinkFor(sink)).WithSource(s.renderer.Resolver(report))
	return s.run(ctx, func(ctx context.Context) exporter.Outcome {
		return exp.ExportFromElement(ctx, req.TableID, req.Filename)
	}), nil
}

func (s *ExportService) sinkFor(sink exporter.Sink) exporter.Sink {
	if s.archive == nil {
		return sink
	}
	return exporter.MultiSink(s.archive, sink)
}

func (s *ExportService) run(ctx context.Context, export func(ctx context.Context) exporter.Outcome) exporter.Outcome {
	var outcome exporter.Outcome
	// The exporter notifies on its own; the action never fails.
	_ = s.notifier.WithBusyIndicator(ctx, busyMessage, func(ctx context.Context) error {
		outcome = export(ctx)
		return nil
	})

	s.logger.DebugContext(ctx, "export finished", slog.String("outcome", string(outcome)))
	return outcome
}

// OutcomeError maps an unsuccessful outcome to the API error a handler
// should respond with. It returns nil for a successful export.
func OutcomeError(outcome exporter.Outcome) error {
	switch outcome {
	case exporter.OutcomeSuccess:
		return nil
	case exporter.OutcomeNotFound:
		return apperrors.ErrTableNotFound
	case exporter.OutcomeEmpty:
		return apperrors.ErrEmptyDataset
	case exporter.OutcomeInvalid:
		return apperrors.ErrValidationFailed
	}
	return apperrors.ErrExportFailed
}

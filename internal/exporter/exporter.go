package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"inventorypro/internal/config"
	apperrors "inventorypro/internal/errors"
	"inventorypro/internal/infrastructure"
	"inventorypro/internal/notify"
)

// Outcome reports how an export ended. Exports never return errors; the
// outcome lets HTTP handlers pick a status code.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeNotFound Outcome = "not_found"
	OutcomeEmpty    Outcome = "empty"
	OutcomeInvalid  Outcome = "invalid"
	OutcomeFailed   Outcome = "failed"
)

const (
	sourceElement = "element"
	sourceRecords = "records"
)

// Options configures a TabularExporter. Zero values are replaced with defaults.
type Options struct {
	Write           WriteOptions
	Clock           Clock
	DefaultFilename string
	MaxRecords      int
	Resolver        TableResolver
	Sink            Sink
	Logger          *slog.Logger
	Tracer          trace.Tracer
	Meter           metric.Meter
}

// OptionsFromConfig maps the export section of the application config.
func OptionsFromConfig(cfg config.ExportConfig) Options {
	return Options{
		Write: WriteOptions{
			BOMPrefix:      cfg.BOM,
			LineTerminator: ParseLineTerminator(cfg.LineTerminator),
			QuoteAll:       cfg.QuoteAll,
		},
		DefaultFilename: cfg.DefaultFilename,
	}
}

// TabularExporter turns tables and record lists into CSV downloads and
// reports the result through a notifier.
type TabularExporter struct {
	notifier        notify.Notifier
	resolver        TableResolver
	sink            Sink
	write           WriteOptions
	clock           Clock
	defaultFilename string
	maxRecords      int
	logger          *slog.Logger
	tracer          trace.Tracer

	exports     metric.Int64Counter
	exportBytes metric.Int64Counter
}

// New creates an exporter reporting to notifier.
func New(notifier notify.Notifier, opts Options) *TabularExporter {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if opts.Write.LineTerminator == "" {
		opts.Write.LineTerminator = LF
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.DefaultFilename == "" {
		opts.DefaultFilename = "export_" + config.TimestampPlaceholder + ".csv"
	}
	if opts.MaxRecords <= 0 {
		opts.MaxRecords = config.MaxRecordsPerExport
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(infrastructure.InstrumentationID)
	}
	if opts.Meter == nil {
		opts.Meter = otel.Meter(infrastructure.InstrumentationID)
	}

	exports, _ := opts.Meter.Int64Counter("inventory_exports",
		metric.WithDescription("Exports by source and outcome"))
	exportBytes, _ := opts.Meter.Int64Counter("inventory_export_bytes",
		metric.WithDescription("Bytes of delivered export documents"),
		metric.WithUnit("By"))

	return &TabularExporter{
		notifier:        notifier,
		resolver:        opts.Resolver,
		sink:            opts.Sink,
		write:           opts.Write,
		clock:           opts.Clock,
		defaultFilename: opts.DefaultFilename,
		maxRecords:      opts.MaxRecords,
		logger:          infrastructure.WithComponent(opts.Logger, "exporter"),
		tracer:          opts.Tracer,
		exports:         exports,
		exportBytes:     exportBytes,
	}
}

// WithSource returns a copy of e that resolves tables through r.
func (e *TabularExporter) WithSource(r TableResolver) *TabularExporter {
	c := *e
	c.resolver = r
	return &c
}

// WithSink returns a copy of e that delivers to s.
func (e *TabularExporter) WithSink(s Sink) *TabularExporter {
	c := *e
	c.sink = s
	return &c
}

// WithNotifier returns a copy of e reporting to n.
func (e *TabularExporter) WithNotifier(n notify.Notifier) *TabularExporter {
	c := *e
	c.notifier = n
	return &c
}

// ExportFromElement exports the table with element id tableID. A table that
// does not resolve is reported as an error notification and nothing is delivered.
func (e *TabularExporter) ExportFromElement(ctx context.Context, tableID, filename string) Outcome {
	ctx, span := e.tracer.Start(ctx, "exporter.ExportFromElement",
		trace.WithAttributes(attribute.String("table_id", tableID)))
	defer span.End()

	d, err := e.BuildFromElement(ctx, tableID, filename)
	if err != nil {
		return e.fail(ctx, span, sourceElement, err)
	}
	return e.deliver(ctx, span, sourceElement, d)
}

// ExportFromRecords exports records. An empty list is reported as a warning
// notification and nothing is delivered.
func (e *TabularExporter) ExportFromRecords(ctx context.Context, records []Record, filename string, headers ...string) Outcome {
	ctx, span := e.tracer.Start(ctx, "exporter.ExportFromRecords",
		trace.WithAttributes(attribute.Int("records", len(records))))
	defer span.End()

	d, err := e.BuildFromRecords(records, filename, headers...)
	if err != nil {
		return e.fail(ctx, span, sourceRecords, err)
	}
	return e.deliver(ctx, span, sourceRecords, d)
}

// BuildFromElement encodes the table with element id tableID without
// delivering or notifying.
func (e *TabularExporter) BuildFromElement(ctx context.Context, tableID, filename string) (Download, error) {
	if e.resolver == nil {
		return Download{}, apperrors.NewSourceNotFoundError(tableID)
	}

	table, err := e.resolver.ResolveTable(ctx, tableID)
	if err != nil {
		return Download{}, err
	}
	if table == nil {
		return Download{}, apperrors.NewSourceNotFoundError(tableID)
	}

	w := NewCSVWriter(e.write)
	for _, row := range table.Rows {
		w.WriteStrings(row)
	}

	return Download{
		Filename:    e.filename(filename),
		ContentType: ContentTypeCSV,
		Body:        w.Bytes(),
		Rows:        w.Lines(),
	}, nil
}

// BuildFromRecords encodes records without delivering or notifying.
func (e *TabularExporter) BuildFromRecords(records []Record, filename string, headers ...string) (Download, error) {
	if len(records) == 0 {
		return Download{}, apperrors.NewEmptyDatasetError()
	}
	if len(records) > e.maxRecords {
		return Download{}, apperrors.NewAppValidationError(
			fmt.Sprintf("too many records: %d exceeds limit of %d", len(records), e.maxRecords))
	}

	columns := ColumnsFor(records[0], headers)

	w := NewCSVWriter(e.write)
	if len(headers) > 0 {
		w.WriteStrings(headers)
	}

	values := make([]any, len(columns))
	for _, rec := range records {
		for i, col := range columns {
			values[i] = col.value(rec)
		}
		w.WriteValues(values)
	}

	return Download{
		Filename:    e.filename(filename),
		ContentType: ContentTypeCSV,
		Body:        w.Bytes(),
		Rows:        w.Lines(),
	}, nil
}

func (e *TabularExporter) filename(template string) string {
	if template == "" {
		template = e.defaultFilename
	}
	return ResolveFilename(template, e.clock())
}

func (e *TabularExporter) deliver(ctx context.Context, span trace.Span, source string, d Download) Outcome {
	if e.sink == nil {
		return e.fail(ctx, span, source, apperrors.NewDeliveryError(d.Filename, fmt.Errorf("no sink configured")))
	}
	if err := e.sink.Deliver(ctx, d); err != nil {
		return e.fail(ctx, span, source, apperrors.NewDeliveryError(d.Filename, err))
	}

	e.record(ctx, source, OutcomeSuccess)
	e.exportBytes.Add(ctx, int64(len(d.Body)), metric.WithAttributes(attribute.String("source", source)))
	span.SetAttributes(attribute.String("filename", d.Filename), attribute.Int("bytes", len(d.Body)))

	e.logger.InfoContext(ctx, "export delivered",
		slog.String("source", source),
		slog.String("filename", d.Filename),
		slog.Int("rows", d.Rows),
		slog.Int("bytes", len(d.Body)))
	e.notifier.Notify(ctx, config.MsgExportSuccessful, notify.Success)
	return OutcomeSuccess
}

// fail maps err to an outcome, logs it and notifies the user.
func (e *TabularExporter) fail(ctx context.Context, span trace.Span, source string, err error) Outcome {
	outcome := OutcomeFailed
	message := config.MsgExportFailed
	severity := notify.Error
	level := slog.LevelError

	switch apperrors.TypeOf(err) {
	case apperrors.ErrTypeSourceNotFound:
		outcome, message = OutcomeNotFound, config.MsgTableNotFound
	case apperrors.ErrTypeEmptyDataset:
		outcome, message, severity, level = OutcomeEmpty, config.MsgNoData, notify.Warning, slog.LevelWarn
	case apperrors.ErrTypeValidation:
		outcome, message, severity, level = OutcomeInvalid, apperrors.MessageOf(err), notify.Warning, slog.LevelWarn
	}

	e.record(ctx, source, outcome)
	span.SetStatus(codes.Error, string(outcome))
	span.RecordError(err)

	e.logger.Log(ctx, level, "export aborted",
		slog.String("source", source),
		slog.String("outcome", string(outcome)),
		slog.String("error", err.Error()))
	e.notifier.Notify(ctx, message, severity)
	return outcome
}

func (e *TabularExporter) record(ctx context.Context, source string, outcome Outcome) {
	e.exports.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("outcome", string(outcome)),
	))
}

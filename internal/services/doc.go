// Package services implements the business logic behind the HTTP handlers.
// Handlers parse requests and write responses; services validate input,
// pick the data source and run the export.
//
// # Available Services
//
//   - ExportService: record, posted-table and report exports with busy indicator
//   - HealthService: health, readiness, liveness and version information
//
// # Error Handling
//
// Services return errors from internal/errors so that the error handler can
// render them as problem details:
//
//   - *APIError with status 400 for request validation failures
//   - *APIError REPORT_NOT_FOUND (ErrReportUnknown) for unknown reports
//   - *AppError of type parsing_error for HTML that cannot be parsed
//
// An export that starts always reports its result as an exporter.Outcome,
// and OutcomeError turns an unsuccessful outcome into the matching API error.
//
// # Testing
//
// Services are tested with in-memory sinks and a recording notifier:
//
//	sink := exporter.NewMemorySink(0)
//	rec := notify.NewRecorder()
//	svc := NewExportService(exp, rec, catalog, renderer, logger)
//
//	outcome, err := svc.ExportRecords(ctx, sink, req)
package services

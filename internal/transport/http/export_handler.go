package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apperrors "inventorypro/internal/errors"
	"inventorypro/internal/exporter"
	"inventorypro/internal/services"
)

// ExportHandler streams CSV and XLSX downloads
type ExportHandler struct {
	service      ExportServiceInterface
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewExportHandler creates a new export handler
func NewExportHandler(service ExportServiceInterface, logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *ExportHandler {
	return &ExportHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "export_handler")),
		errorHandler: errorHandler,
	}
}

// Routes mounts under /api/export
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/records", h.ExportRecords)
	r.Post("/table", h.ExportTable)
	r.Get("/reports/{report}/{tableID}", h.ExportReport)
	return r
}

// ExportRecords handles POST /api/export/records
func (h *ExportHandler) ExportRecords(w http.ResponseWriter, r *http.Request) {
	var req services.RecordsExport
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apperrors.InvalidRequestWithError(err))
		return
	}

	h.logger.InfoContext(r.Context(), "exporting records",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int("records", len(req.Records)),
		slog.String("format", req.Format))

	h.serve(w, r, func(sink exporter.Sink) (exporter.Outcome, error) {
		return h.service.ExportRecords(r.Context(), sink, req)
	})
}

// ExportTable handles POST /api/export/table
func (h *ExportHandler) ExportTable(w http.ResponseWriter, r *http.Request) {
	var req services.TableExport
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apperrors.InvalidRequestWithError(err))
		return
	}

	h.logger.InfoContext(r.Context(), "exporting posted table",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("table_id", req.TableID))

	h.serve(w, r, func(sink exporter.Sink) (exporter.Outcome, error) {
		return h.service.ExportTable(r.Context(), sink, req)
	})
}

// ExportReport handles GET /api/export/reports/{report}/{tableID}?filename=
func (h *ExportHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	req := services.ReportExport{
		Report:   chi.URLParam(r, "report"),
		TableID:  chi.URLParam(r, "tableID"),
		Filename: r.URL.Query().Get("filename"),
	}

	h.logger.InfoContext(r.Context(), "exporting report table",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("report", req.Report),
		slog.String("table_id", req.TableID))

	h.serve(w, r, func(sink exporter.Sink) (exporter.Outcome, error) {
		return h.service.ExportReport(r.Context(), sink, req)
	})
}

// serve runs export against an HTTP sink and renders a problem response
// when the export ends without a download.
func (h *ExportHandler) serve(w http.ResponseWriter, r *http.Request, export func(sink exporter.Sink) (exporter.Outcome, error)) {
	ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

	outcome, err := export(exporter.NewHTTPSink(ww))
	if err == nil {
		err = services.OutcomeError(outcome)
	}
	if err == nil {
		return
	}

	if ww.Status() != 0 {
		// The download started; the status line is already sent.
		h.logger.WarnContext(r.Context(), "export failed after response started",
			slog.String("outcome", string(outcome)),
			slog.Int("bytes_written", ww.BytesWritten()))
		return
	}
	h.errorHandler.HandleError(w, r, err)
}

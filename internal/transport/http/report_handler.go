package http

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "inventorypro/internal/errors"
	"inventorypro/internal/inventory"
)

// ReportRenderer writes the HTML page of a report
type ReportRenderer interface {
	RenderReport(w io.Writer, report inventory.Report) error
}

// ReportHandler serves catalog reports as JSON and as HTML pages
type ReportHandler struct {
	catalog      CatalogInterface
	renderer     ReportRenderer
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewReportHandler creates a new report handler
func NewReportHandler(catalog CatalogInterface, renderer ReportRenderer, logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *ReportHandler {
	return &ReportHandler{
		catalog:      catalog,
		renderer:     renderer,
		logger:       logger.With(slog.String("component", "report_handler")),
		errorHandler: errorHandler,
	}
}

// Routes mounts under /api/inventory
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/products", h.ListProducts)
	r.Post("/products/import", h.ImportProducts)
	r.Get("/products/{sku}/transactions", h.ProductTransactions)
	r.Get("/transactions", h.ListTransactions)
	r.Post("/transactions", h.AddTransaction)
	r.Post("/transactions/import", h.ImportTransactions)
	r.Get("/reports", h.ListReports)
	r.Get("/reports/{report}", h.GetReport)
	return r
}

// ListProducts handles GET /api/inventory/products
func (h *ReportHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"products": h.catalog.List(),
	})
}

// ImportProducts handles POST /api/inventory/products/import with a CSV body
func (h *ReportHandler) ImportProducts(w http.ResponseWriter, r *http.Request) {
	res, err := h.catalog.ImportCSV(r.Body)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "products imported",
		slog.Int("created", res.Created),
		slog.Int("updated", res.Updated),
		slog.Int("skipped", len(res.Skipped)))
	render.JSON(w, r, res)
}

// recentTransactions caps the list returned with the overall stats
const recentTransactions = 20

// ListTransactions handles GET /api/inventory/transactions
func (h *ReportHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions := h.catalog.Transactions("")
	if len(transactions) > recentTransactions {
		transactions = transactions[:recentTransactions]
	}
	render.JSON(w, r, map[string]interface{}{
		"stats":        h.catalog.TransactionStats(""),
		"transactions": transactions,
	})
}

// ProductTransactions handles GET /api/inventory/products/{sku}/transactions
func (h *ReportHandler) ProductTransactions(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")
	product, ok := h.catalog.Get(sku)
	if !ok {
		h.errorHandler.HandleError(w, r, apperrors.NewNotFoundError("product "+sku))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"product": map[string]interface{}{
			"sku":           product.SKU,
			"name":          product.Name,
			"current_stock": product.StockQuantity,
		},
		"stats":        h.catalog.TransactionStats(sku),
		"transactions": h.catalog.Transactions(sku),
	})
}

// AddTransaction handles POST /api/inventory/transactions. A missing
// created_at is set to the time of the request.
func (h *ReportHandler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	var t inventory.Transaction
	if err := render.DecodeJSON(r.Body, &t); err != nil {
		h.errorHandler.HandleError(w, r, apperrors.InvalidRequestWithError(err))
		return
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	if err := h.catalog.AddTransaction(t); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "transaction recorded",
		slog.String("sku", t.SKU),
		slog.String("type", t.Type),
		slog.Int("quantity", t.Quantity))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"stats": h.catalog.TransactionStats(t.SKU),
	})
}

// ImportTransactions handles POST /api/inventory/transactions/import with a CSV body
func (h *ReportHandler) ImportTransactions(w http.ResponseWriter, r *http.Request) {
	res, err := h.catalog.ImportTransactionsCSV(r.Body)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "transactions imported",
		slog.Int("created", res.Created),
		slog.Int("skipped", len(res.Skipped)))
	render.JSON(w, r, res)
}

// ListReports handles GET /api/inventory/reports
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"reports": inventory.ReportNames(),
	})
}

// GetReport handles GET /api/inventory/reports/{report}
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.catalog.Report(chi.URLParam(r, "report"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

// ServeReportPage handles GET /reports/{report}
func (h *ReportHandler) ServeReportPage(w http.ResponseWriter, r *http.Request) {
	report, err := h.catalog.Report(chi.URLParam(r, "report"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.RenderReport(&buf, report); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render report page",
			slog.String("report", report.Name),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(buf.Bytes())
}

// RedirectToStockReport sends the root path to the stock report page
func RedirectToStockReport(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/reports/"+inventory.ReportStock, http.StatusTemporaryRedirect)
}

package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "inventorypro/internal/errors"
	"inventorypro/internal/inventory"
	"inventorypro/internal/page"
)

func newReportRouter(t *testing.T) (http.Handler, *inventory.Catalog) {
	t.Helper()
	logger := quietLogger()

	catalog, err := inventory.NewSeededCatalog(logger)
	require.NoError(t, err)
	renderer, err := page.NewRenderer(func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) })
	require.NoError(t, err)

	h := NewReportHandler(catalog, renderer, logger, apperrors.NewErrorHandler(logger, false))
	r := chi.NewRouter()
	r.Get("/", RedirectToStockReport)
	r.Get("/reports/{report}", h.ServeReportPage)
	r.Mount("/api/inventory", h.Routes())
	return r, catalog
}

func TestReportHandler_GetReport(t *testing.T) {
	router, _ := newReportRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/inventory/reports/low-stock", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Name    string                   `json:"name"`
		TableID string                   `json:"table_id"`
		Headers []string                 `json:"headers"`
		Records []map[string]interface{} `json:"records"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "low-stock", body.Name)
	assert.Equal(t, "low-stock-table", body.TableID)
	assert.Equal(t, []string{"SKU", "Name", "Category", "Stock", "Minimum", "Restock"}, body.Headers)
	require.Len(t, body.Records, 3)
	assert.Equal(t, "KSH001", body.Records[0]["sku"])
}

func TestReportHandler_GetReportUnknown(t *testing.T) {
	router, _ := newReportRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/inventory/reports/sales", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), apperrors.TypeReportNotFound)
	assert.Contains(t, rr.Body.String(), `"error_code":"REPORT_NOT_FOUND"`)
}

func TestReportHandler_ListReports(t *testing.T) {
	router, _ := newReportRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/inventory/reports", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"reports":["stock","low-stock","transactions"]}`, rr.Body.String())
}

func TestReportHandler_ServeReportPage(t *testing.T) {
	router, _ := newReportRouter(t)

	for _, name := range []string{"stock", "low-stock", "transactions"} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/reports/"+name, nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
			assert.Contains(t, rr.Body.String(), `<table id="`+name+`-table"`)
		})
	}
}

func TestReportHandler_RootRedirects(t *testing.T) {
	router, _ := newReportRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	assert.Equal(t, "/reports/stock", rr.Header().Get("Location"))
}

func TestReportHandler_ImportProducts(t *testing.T) {
	router, catalog := newReportRouter(t)
	csv := "sku,name,category,supplier,purchase_price,selling_price,stock_quantity,minimum_stock\n" +
		"NEW001,Kabel HDMI,Elektronik,,25000,40000,30,10\n" +
		"ELK001,Laptop ASUS ROG,Elektronik,PT Elektronik Jaya,8000000,10000000,2,5\n" +
		",Tanpa SKU,Lainnya,,1,1,1,1\n"

	req := httptest.NewRequest(http.MethodPost, "/api/inventory/products/import", strings.NewReader(csv))
	req.Header.Set("Content-Type", "text/csv")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var res inventory.ImportResult
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Updated)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 4, res.Skipped[0].Line)

	p, ok := catalog.Get("ELK001")
	require.True(t, ok)
	assert.Equal(t, 2, p.StockQuantity)
}

func TestReportHandler_ImportProductsMissingColumns(t *testing.T) {
	router, _ := newReportRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/inventory/products/import", strings.NewReader("sku,name\nA,B\n"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "missing columns")
}

func TestReportHandler_ListProducts(t *testing.T) {
	router, _ := newReportRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/inventory/products", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Products []inventory.Product `json:"products"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Len(t, body.Products, 13)
}

func TestReportHandler_ListTransactions(t *testing.T) {
	router, _ := newReportRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/inventory/transactions", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Stats        inventory.TransactionStats `json:"stats"`
		Transactions []inventory.Transaction    `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, inventory.TransactionStats{Total: 8, TotalIn: 55, TotalOut: 87}, body.Stats)
	require.Len(t, body.Transactions, 8)
	assert.Equal(t, "ATK002", body.Transactions[0].SKU)
}

func TestReportHandler_ProductTransactions(t *testing.T) {
	router, _ := newReportRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/inventory/products/ELK001/transactions", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Product      map[string]interface{}     `json:"product"`
		Stats        inventory.TransactionStats `json:"stats"`
		Transactions []inventory.Transaction    `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, float64(15), body.Product["current_stock"])
	assert.Equal(t, inventory.TransactionStats{Total: 2, TotalIn: 10, TotalOut: 3}, body.Stats)
	assert.Len(t, body.Transactions, 2)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/inventory/products/NOPE/transactions", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "product NOPE not found")
}

func TestReportHandler_AddTransaction(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "recorded", body: `{"sku":"KSH001","type":"IN","quantity":20,"notes":"restock"}`, wantStatus: http.StatusCreated},
		{name: "bad type", body: `{"sku":"KSH001","type":"MOVE","quantity":20}`, wantStatus: http.StatusBadRequest},
		{name: "unknown product", body: `{"sku":"NOPE","type":"IN","quantity":1}`, wantStatus: http.StatusNotFound},
		{name: "malformed", body: `{"sku":`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, catalog := newReportRouter(t)

			req := httptest.NewRequest(http.MethodPost, "/api/inventory/transactions", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			if tt.wantStatus == http.StatusCreated {
				assert.Equal(t, inventory.TransactionStats{Total: 2, TotalIn: 20, TotalOut: 12}, catalog.TransactionStats("KSH001"))
				assert.False(t, catalog.Transactions("KSH001")[0].CreatedAt.IsZero())
			}
		})
	}
}

func TestReportHandler_ImportTransactions(t *testing.T) {
	router, catalog := newReportRouter(t)
	csv := "sku,type,quantity,notes,created_by,created_at\n" +
		"OLG001,IN,12,,gudang,2024-05-01T09:00:00+07:00\n" +
		"NOPE,IN,1,,,2024-05-01T09:00:00+07:00\n"

	req := httptest.NewRequest(http.MethodPost, "/api/inventory/transactions/import", strings.NewReader(csv))
	req.Header.Set("Content-Type", "text/csv")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var res inventory.ImportResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, 1, res.Created)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "NOPE", res.Skipped[0].SKU)
	assert.Len(t, catalog.Transactions("OLG001"), 1)
}

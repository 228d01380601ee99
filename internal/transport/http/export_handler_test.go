package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "inventorypro/internal/errors"
	"inventorypro/internal/exporter"
	"inventorypro/internal/services"
)

// MockExportService implements ExportServiceInterface
type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) ExportRecords(ctx context.Context, sink exporter.Sink, req services.RecordsExport) (exporter.Outcome, error) {
	args := m.Called(ctx, sink, req)
	return args.Get(0).(exporter.Outcome), args.Error(1)
}

func (m *MockExportService) ExportTable(ctx context.Context, sink exporter.Sink, req services.TableExport) (exporter.Outcome, error) {
	args := m.Called(ctx, sink, req)
	return args.Get(0).(exporter.Outcome), args.Error(1)
}

func (m *MockExportService) ExportReport(ctx context.Context, sink exporter.Sink, req services.ReportExport) (exporter.Outcome, error) {
	args := m.Called(ctx, sink, req)
	return args.Get(0).(exporter.Outcome), args.Error(1)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
}

func newExportRouter(svc ExportServiceInterface) http.Handler {
	logger := quietLogger()
	h := NewExportHandler(svc, logger, apperrors.NewErrorHandler(logger, false))
	r := chi.NewRouter()
	r.Mount("/api/export", h.Routes())
	return r
}

// deliver makes the mocked service write a download to the sink it was given
func deliver(d exporter.Download) func(args mock.Arguments) {
	return func(args mock.Arguments) {
		sink := args.Get(1).(exporter.Sink)
		_ = sink.Deliver(context.Background(), d)
	}
}

func decodeProblem(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestExportHandler_ExportRecords(t *testing.T) {
	svc := &MockExportService{}
	want := services.RecordsExport{
		Filename: "stock_{timestamp}.csv",
		Headers:  []string{"SKU", "Stock"},
		Records:  []exporter.Record{exporter.NewRecord("sku", "ELK001", "stock", json.Number("15"))},
	}
	svc.On("ExportRecords", mock.Anything, mock.Anything, want).
		Run(deliver(exporter.Download{
			Filename:    "stock_2024-05-01.csv",
			ContentType: exporter.ContentTypeCSV,
			Body:        []byte("SKU,Stock\nELK001,15\n"),
		})).
		Return(exporter.OutcomeSuccess, nil)

	body := `{"filename":"stock_{timestamp}.csv","headers":["SKU","Stock"],"records":[{"sku":"ELK001","stock":15}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/export/records", strings.NewReader(body))
	rr := httptest.NewRecorder()

	newExportRouter(svc).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, exporter.ContentTypeCSV, rr.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=stock_2024-05-01.csv", rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "SKU,Stock\nELK001,15\n", rr.Body.String())
	svc.AssertExpectations(t)
}

func TestExportHandler_ExportRecordsOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		outcome    exporter.Outcome
		wantStatus int
		wantType   string
	}{
		{name: "empty", outcome: exporter.OutcomeEmpty, wantStatus: http.StatusUnprocessableEntity, wantType: apperrors.TypeEmptyDataset},
		{name: "invalid", outcome: exporter.OutcomeInvalid, wantStatus: http.StatusBadRequest, wantType: apperrors.TypeValidation},
		{name: "failed", outcome: exporter.OutcomeFailed, wantStatus: http.StatusInternalServerError, wantType: apperrors.TypeExportFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockExportService{}
			svc.On("ExportRecords", mock.Anything, mock.Anything, mock.Anything).Return(tt.outcome, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/export/records", strings.NewReader(`{"records":[]}`))
			rr := httptest.NewRecorder()
			newExportRouter(svc).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			body := decodeProblem(t, rr)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, "/api/export/records", body["instance"])
		})
	}
}

func TestExportHandler_ExportRecordsBadJSON(t *testing.T) {
	svc := &MockExportService{}

	for _, body := range []string{`{`, `{"records":[{"a":{"nested":true}}]}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/export/records", strings.NewReader(body))
		rr := httptest.NewRecorder()
		newExportRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
		assert.Equal(t, "INVALID_REQUEST", decodeProblem(t, rr)["error_code"])
	}
	svc.AssertNotCalled(t, "ExportRecords", mock.Anything, mock.Anything, mock.Anything)
}

func TestExportHandler_ExportRecordsValidationError(t *testing.T) {
	svc := &MockExportService{}
	svc.On("ExportRecords", mock.Anything, mock.Anything, mock.Anything).
		Return(exporter.Outcome(""), apperrors.NewValidationErrors([]apperrors.ValidationError{
			{Field: "format", Message: "Must be one of: csv, xlsx"},
		}))

	req := httptest.NewRequest(http.MethodPost, "/api/export/records", strings.NewReader(`{"format":"pdf"}`))
	rr := httptest.NewRecorder()
	newExportRouter(svc).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	body := decodeProblem(t, rr)
	assert.Equal(t, "VALIDATION_FAILED", body["error_code"])
	assert.Contains(t, rr.Body.String(), "Must be one of: csv, xlsx")
}

func TestExportHandler_ExportTable(t *testing.T) {
	svc := &MockExportService{}
	svc.On("ExportTable", mock.Anything, mock.Anything, services.TableExport{
		HTML:     "<table id=\"t\"></table>",
		TableID:  "t",
		Filename: "t.csv",
	}).Return(exporter.OutcomeNotFound, nil)

	body := `{"html":"<table id=\"t\"></table>","table_id":"t","filename":"t.csv"}`
	req := httptest.NewRequest(http.MethodPost, "/api/export/table", strings.NewReader(body))
	rr := httptest.NewRecorder()
	newExportRouter(svc).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	problem := decodeProblem(t, rr)
	assert.Equal(t, apperrors.TypeTableNotFound, problem["type"])
	assert.Equal(t, "Table not found", problem["detail"])
	svc.AssertExpectations(t)
}

func TestExportHandler_ExportReport(t *testing.T) {
	svc := &MockExportService{}
	svc.On("ExportReport", mock.Anything, mock.Anything, services.ReportExport{
		Report:   "low-stock",
		TableID:  "low-stock-table",
		Filename: "low_{timestamp}.csv",
	}).
		Run(deliver(exporter.Download{Filename: "low_2024-05-01.csv", ContentType: exporter.ContentTypeCSV, Body: []byte("x\n")})).
		Return(exporter.OutcomeSuccess, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/export/reports/low-stock/low-stock-table?filename=low_%7Btimestamp%7D.csv", nil)
	rr := httptest.NewRecorder()
	newExportRouter(svc).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "attachment; filename=low_2024-05-01.csv", rr.Header().Get("Content-Disposition"))
	svc.AssertExpectations(t)
}

func TestExportHandler_ExportReportUnknown(t *testing.T) {
	svc := &MockExportService{}
	svc.On("ExportReport", mock.Anything, mock.Anything, mock.Anything).
		Return(exporter.Outcome(""), fmt.Errorf("report %q: %w", "sales", apperrors.ErrReportUnknown))

	req := httptest.NewRequest(http.MethodGet, "/api/export/reports/sales/t", nil)
	rr := httptest.NewRecorder()
	newExportRouter(svc).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	problem := decodeProblem(t, rr)
	assert.Equal(t, apperrors.TypeReportNotFound, problem["type"])
	assert.Equal(t, "Report not found", problem["detail"])
}

func TestExportHandler_FailureAfterDownloadStarted(t *testing.T) {
	svc := &MockExportService{}
	svc.On("ExportRecords", mock.Anything, mock.Anything, mock.Anything).
		Run(deliver(exporter.Download{Filename: "a.csv", Body: []byte("a\n")})).
		Return(exporter.OutcomeFailed, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/export/records", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	newExportRouter(svc).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "a\n", rr.Body.String(), "no problem body is appended to a started download")
}

package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "inventorypro/internal/errors"
)

// DefaultSheetName names the only sheet of a record workbook.
const DefaultSheetName = "Export"

// ExportRecordsXLSX is ExportFromRecords producing a workbook instead of CSV.
func (e *TabularExporter) ExportRecordsXLSX(ctx context.Context, records []Record, filename string, headers ...string) Outcome {
	ctx, span := e.tracer.Start(ctx, "exporter.ExportRecordsXLSX",
		trace.WithAttributes(attribute.Int("records", len(records))))
	defer span.End()

	d, err := e.BuildRecordsXLSX(records, filename, headers...)
	if err != nil {
		return e.fail(ctx, span, sourceRecords, err)
	}
	return e.deliver(ctx, span, sourceRecords, d)
}

// BuildRecordsXLSX encodes records as a single-sheet workbook. Column order
// follows the same rules as BuildFromRecords; nil values leave the cell empty.
func (e *TabularExporter) BuildRecordsXLSX(records []Record, filename string, headers ...string) (Download, error) {
	if len(records) == 0 {
		return Download{}, apperrors.NewEmptyDatasetError()
	}
	if len(records) > e.maxRecords {
		return Download{}, apperrors.NewAppValidationError(
			fmt.Sprintf("too many records: %d exceeds limit of %d", len(records), e.maxRecords))
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), DefaultSheetName); err != nil {
		return Download{}, fmt.Errorf("failed to name sheet: %w", err)
	}

	row := 1
	if len(headers) > 0 {
		cells := make([]interface{}, len(headers))
		for i, h := range headers {
			cells[i] = h
		}
		if err := setRow(f, row, cells); err != nil {
			return Download{}, err
		}
		row++
	}

	columns := ColumnsFor(records[0], headers)
	for _, rec := range records {
		cells := make([]interface{}, len(columns))
		for i, col := range columns {
			cells[i] = cellValue(col.value(rec))
		}
		if err := setRow(f, row, cells); err != nil {
			return Download{}, err
		}
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return Download{}, fmt.Errorf("failed to encode workbook: %w", err)
	}

	return Download{
		Filename:    xlsxName(e.filename(filename)),
		ContentType: ContentTypeXLSX,
		Body:        buf.Bytes(),
		Rows:        row - 1,
	}, nil
}

func setRow(f *excelize.File, row int, cells []interface{}) error {
	axis, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(DefaultSheetName, axis, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

// cellValue keeps numbers, booleans and times as native cell types.
func cellValue(v any) interface{} {
	switch x := v.(type) {
	case nil:
		return nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if fl, err := x.Float64(); err == nil {
			return fl
		}
		return x.String()
	case *big.Int:
		if x == nil {
			return nil
		}
		if x.IsInt64() {
			return x.Int64()
		}
		return x.String()
	case string, bool, time.Time,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return x
	}
	s, ok := stringify(v)
	if !ok {
		return nil
	}
	return s
}

// xlsxName swaps a trailing .csv for .xlsx and appends .xlsx when there is no such suffix.
func xlsxName(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".xlsx"):
		return name
	case strings.HasSuffix(lower, ".csv"):
		return name[:len(name)-len(".csv")] + ".xlsx"
	}
	return name + ".xlsx"
}

package exporter

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "inventorypro/internal/errors"
	"inventorypro/internal/notify"
)

var frozen = time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC)

type fixture struct {
	exp  *TabularExporter
	rec  *notify.Recorder
	sink *MemorySink
}

func newFixture(t *testing.T, resolver TableResolver) *fixture {
	t.Helper()
	rec := notify.NewRecorder()
	sink := NewMemorySink(0)
	exp := New(rec, Options{
		Write:    DefaultWriteOptions(),
		Clock:    FixedClock(frozen),
		Resolver: resolver,
		Sink:     sink,
		Logger:   slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)),
	})
	return &fixture{exp: exp, rec: rec, sink: sink}
}

func staticTables(tables ...*Table) TableResolver {
	return TableResolverFunc(func(_ context.Context, id string) (*Table, error) {
		for _, t := range tables {
			if t.ID == id {
				return t, nil
			}
		}
		return nil, apperrors.NewSourceNotFoundError(id)
	})
}

func parseBody(t *testing.T, body []byte) [][]string {
	t.Helper()
	require.True(t, bytes.HasPrefix(body, UTF8BOM), "document must start with a BOM")
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(body, UTF8BOM)))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	require.NoError(t, err)
	return rows
}

func TestExportFromElement_RowsAndColumns(t *testing.T) {
	tests := []struct {
		rows, cols int
	}{
		{1, 1},
		{3, 4},
		{10, 2},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dx%d", tt.rows, tt.cols), func(t *testing.T) {
			data := make([][]string, tt.rows)
			for i := range data {
				data[i] = make([]string, tt.cols)
				for j := range data[i] {
					data[i][j] = fmt.Sprintf("  r%dc%d  ", i, j)
				}
			}
			f := newFixture(t, staticTables(NewTable("stock-table", data)))

			outcome := f.exp.ExportFromElement(context.Background(), "stock-table", "stock.csv")
			require.Equal(t, OutcomeSuccess, outcome)

			d, ok := f.sink.Last()
			require.True(t, ok)
			body := string(bytes.TrimPrefix(d.Body, UTF8BOM))
			assert.Equal(t, tt.rows, strings.Count(body, "\n"))
			assert.Equal(t, tt.rows, d.Rows)

			rows := parseBody(t, d.Body)
			require.Len(t, rows, tt.rows)
			for i, row := range rows {
				require.Len(t, row, tt.cols)
				assert.Equal(t, fmt.Sprintf("r%dc%d", i, 0), row[0])
			}
			assert.Equal(t, 1, f.rec.Count(notify.Success))
		})
	}
}

func TestExportFromElement_EscapesCells(t *testing.T) {
	table := NewTable("t", [][]string{
		{"Name", "Note"},
		{"Kabel, USB", `2" panjang`},
		{"Mouse", "a\r\nb"},
	})
	f := newFixture(t, staticTables(table))

	require.Equal(t, OutcomeSuccess, f.exp.ExportFromElement(context.Background(), "t", "t.csv"))

	d, _ := f.sink.Last()
	assert.Equal(t, [][]string{
		{"Name", "Note"},
		{"Kabel, USB", `2" panjang`},
		{"Mouse", "a \nb"},
	}, parseBody(t, d.Body))
	assert.Equal(t, ContentTypeCSV, d.ContentType)
}

func TestExportFromElement_TableNotFound(t *testing.T) {
	f := newFixture(t, staticTables())

	outcome := f.exp.ExportFromElement(context.Background(), "missing", "x.csv")

	assert.Equal(t, OutcomeNotFound, outcome)
	assert.Empty(t, f.sink.Downloads())
	notes := f.rec.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, notify.Error, notes[0].Severity)
	assert.Equal(t, "Table not found", notes[0].Message)
}

func TestExportFromElement_NoResolver(t *testing.T) {
	f := newFixture(t, nil)

	assert.Equal(t, OutcomeNotFound, f.exp.ExportFromElement(context.Background(), "any", ""))
	assert.Equal(t, 1, f.rec.Count(notify.Error))
}

func TestExportFromRecords_Empty(t *testing.T) {
	f := newFixture(t, nil)

	outcome := f.exp.ExportFromRecords(context.Background(), nil, "f.csv")

	assert.Equal(t, OutcomeEmpty, outcome)
	assert.Empty(t, f.sink.Downloads())
	notes := f.rec.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, notify.Warning, notes[0].Severity)
	assert.Equal(t, "No data to export", notes[0].Message)
}

func TestExportFromRecords_Columns(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		headers []string
		want    string
	}{
		{
			name:    "headers are display labels",
			records: []Record{NewRecord("a", 1, "b", 2)},
			headers: []string{"A", "B"},
			want:    "A,B\n1,2\n",
		},
		{
			name:    "no headers uses first record key order",
			records: []Record{NewRecord("b", 2, "a", 1), NewRecord("a", 3, "b", 4)},
			want:    "2,1\n4,3\n",
		},
		{
			name:    "headers naming keys select by name",
			records: []Record{NewRecord("sku", "ELK001", "name", "Laptop", "stock", 15)},
			headers: []string{"stock", "sku"},
			want:    "stock,sku\n15,ELK001\n",
		},
		{
			name:    "missing keys in later records are empty",
			records: []Record{NewRecord("a", 1, "b", 2), NewRecord("a", 3)},
			want:    "1,2\n3,\n",
		},
		{
			name:    "extra headers are empty fields",
			records: []Record{NewRecord("a", 1)},
			headers: []string{"A", "B"},
			want:    "A,B\n1,\n",
		},
		{
			name:    "nil values",
			records: []Record{NewRecord("a", nil, "b", "x")},
			want:    ",x\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)

			outcome := f.exp.ExportFromRecords(context.Background(), tt.records, "r.csv", tt.headers...)
			require.Equal(t, OutcomeSuccess, outcome)

			d, ok := f.sink.Last()
			require.True(t, ok)
			assert.Equal(t, tt.want, string(bytes.TrimPrefix(d.Body, UTF8BOM)))
		})
	}
}

func TestExportFromRecords_FilenameTemplate(t *testing.T) {
	f := newFixture(t, nil)

	f.exp.ExportFromRecords(context.Background(), []Record{NewRecord("a", 1)}, "report_{timestamp}.csv")

	d, ok := f.sink.Last()
	require.True(t, ok)
	assert.Equal(t, "report_2024-05-01.csv", d.Filename)
}

func TestExportFromRecords_DefaultFilename(t *testing.T) {
	f := newFixture(t, nil)

	f.exp.ExportFromRecords(context.Background(), []Record{NewRecord("a", 1)}, "")

	d, _ := f.sink.Last()
	assert.Equal(t, "export_2024-05-01.csv", d.Filename)
}

func TestExport_Idempotent(t *testing.T) {
	records := []Record{
		NewRecord("sku", "ELK001", "name", "Laptop ASUS ROG", "price", 10000000),
		NewRecord("sku", "ELK002", "name", `Monitor "27"`, "price", 3500000.5),
	}
	f := newFixture(t, staticTables(NewTable("t", [][]string{{"a", "b,c"}})))
	ctx := context.Background()

	f.exp.ExportFromRecords(ctx, records, "r_{timestamp}.csv", "SKU", "Name", "Price")
	f.exp.ExportFromRecords(ctx, records, "r_{timestamp}.csv", "SKU", "Name", "Price")
	f.exp.ExportFromElement(ctx, "t", "t.csv")
	f.exp.ExportFromElement(ctx, "t", "t.csv")

	downloads := f.sink.Downloads()
	require.Len(t, downloads, 4)
	assert.Equal(t, downloads[0], downloads[1])
	assert.Equal(t, downloads[2], downloads[3])
}

func TestExportFromRecords_TooMany(t *testing.T) {
	rec := notify.NewRecorder()
	exp := New(rec, Options{MaxRecords: 2, Sink: NewMemorySink(0),
		Logger: slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))})

	records := []Record{NewRecord("a", 1), NewRecord("a", 2), NewRecord("a", 3)}
	outcome := exp.ExportFromRecords(context.Background(), records, "x.csv")

	assert.Equal(t, OutcomeInvalid, outcome)
	notes := rec.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, notify.Warning, notes[0].Severity)
	assert.Contains(t, notes[0].Message, "too many records")
}

func TestExport_SinkFailure(t *testing.T) {
	rec := notify.NewRecorder()
	failing := SinkFunc(func(context.Context, Download) error { return errors.New("disk full") })
	exp := New(rec, Options{Sink: failing, Logger: slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))})

	outcome := exp.ExportFromRecords(context.Background(), []Record{NewRecord("a", 1)}, "x.csv")

	assert.Equal(t, OutcomeFailed, outcome)
	notes := rec.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, notify.Error, notes[0].Severity)
	assert.Equal(t, "Export failed", notes[0].Message)
}

func TestExport_NoSink(t *testing.T) {
	rec := notify.NewRecorder()
	exp := New(rec, Options{Logger: slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))})

	assert.Equal(t, OutcomeFailed, exp.ExportFromRecords(context.Background(), []Record{NewRecord("a", 1)}, "x.csv"))
}

func TestWithSink_DoesNotMutateOriginal(t *testing.T) {
	f := newFixture(t, nil)
	other := NewMemorySink(0)

	f.exp.WithSink(other).ExportFromRecords(context.Background(), []Record{NewRecord("a", 1)}, "x.csv")

	assert.Len(t, other.Downloads(), 1)
	assert.Empty(t, f.sink.Downloads())
}

func TestBuildFromRecords_CRLF(t *testing.T) {
	exp := New(nil, Options{Write: WriteOptions{LineTerminator: CRLF}, Clock: FixedClock(frozen)})

	d, err := exp.BuildFromRecords([]Record{NewRecord("a", 1), NewRecord("a", 2)}, "x.csv", "A")

	require.NoError(t, err)
	assert.Equal(t, "A\r\n1\r\n2\r\n", string(d.Body))
	assert.Equal(t, 3, d.Rows)
}

func TestBuildFromRecords_EmptyError(t *testing.T) {
	exp := New(nil, Options{})

	_, err := exp.BuildFromRecords(nil, "x.csv")

	assert.ErrorIs(t, err, apperrors.ErrNoData)
}

func TestColumnsFor(t *testing.T) {
	first := NewRecord("a", 1, "b", 2)

	assert.Equal(t, []Column{{Key: "a"}, {Key: "b"}}, ColumnsFor(first, nil))
	assert.Equal(t, []Column{{Key: "b"}, {Key: "a"}}, ColumnsFor(first, []string{"b", "a"}))
	assert.Equal(t, []Column{{Key: "a"}, {Key: "b"}, {Absent: true}}, ColumnsFor(first, []string{"X", "Y", "Z"}))
}

func TestResolveFilename(t *testing.T) {
	tests := []struct {
		template string
		want     string
	}{
		{"report_{timestamp}.csv", "report_2024-05-01.csv"},
		{"{timestamp}_{timestamp}.csv", "2024-05-01_2024-05-01.csv"},
		{"plain.csv", "plain.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveFilename(tt.template, frozen))
		})
	}
}

package page

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"inventorypro/internal/config"
	"inventorypro/internal/exporter"
	"inventorypro/internal/format"
	"inventorypro/internal/inventory"
)

//go:embed templates/*.html
var templateFS embed.FS

// Cell is one rendered table cell.
type Cell struct {
	Text  string
	Class string
}

// ReportView is the data behind a report page.
type ReportView struct {
	AppName   string
	Name      string
	Title     string
	TableID   string
	Generated time.Time
	Headers   []string
	Rows      [][]Cell
	Count     int
	Total     float64
}

// Renderer renders report pages from embedded templates.
type Renderer struct {
	templates *template.Template
	clock     func() time.Time
}

// NewRenderer parses the embedded templates. clock may be nil.
func NewRenderer(clock func() time.Time) (*Renderer, error) {
	if clock == nil {
		clock = time.Now
	}
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"currency":     format.FormatCurrency,
		"currencyMini": format.FormatCurrencyMini,
		"number":       format.FormatNumber,
		"compact":      format.FormatCompact,
		"date":         format.FormatDate,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{templates: tmpl, clock: clock}, nil
}

// View converts a report into display rows. Money columns are shown as
// Rupiah, counts with digit grouping.
func (r *Renderer) View(report inventory.Report) ReportView {
	view := ReportView{
		AppName:   config.AppName,
		Name:      report.Name,
		Title:     report.Title,
		TableID:   report.TableID,
		Generated: r.clock(),
		Headers:   report.Headers,
		Count:     len(report.Records),
	}

	for _, rec := range report.Records {
		keys := rec.Keys()
		row := make([]Cell, len(keys))
		for i, key := range keys {
			v, _ := rec.Get(key)
			row[i] = formatCell(key, v)
		}
		view.Rows = append(view.Rows, row)

		if v, ok := rec.Get("stock_value"); ok {
			if f, ok := v.(float64); ok {
				view.Total += f
			}
		}
	}
	return view
}

// RenderReport writes the HTML page for report.
func (r *Renderer) RenderReport(w io.Writer, report inventory.Report) error {
	return r.templates.ExecuteTemplate(w, "report.html", r.View(report))
}

// Document renders report and parses the result, so its table can be
// resolved by id exactly as a browser would see it.
func (r *Renderer) Document(report inventory.Report) (*Document, error) {
	var buf bytes.Buffer
	if err := r.RenderReport(&buf, report); err != nil {
		return nil, err
	}
	return Parse(&buf)
}

// Resolver renders the report on each lookup.
func (r *Renderer) Resolver(report inventory.Report) exporter.TableResolver {
	return exporter.TableResolverFunc(func(ctx context.Context, id string) (*exporter.Table, error) {
		doc, err := r.Document(report)
		if err != nil {
			return nil, err
		}
		return doc.ResolveTable(ctx, id)
	})
}

func formatCell(key string, v any) Cell {
	switch {
	case v == nil:
		return Cell{Text: "-", Class: "empty"}
	case strings.HasSuffix(key, "_price") || strings.HasSuffix(key, "_value"):
		return Cell{Text: format.FormatCurrency(v), Class: "currency"}
	}
	switch v.(type) {
	case int, int64, float64:
		return Cell{Text: format.FormatNumber(v), Class: "number"}
	}
	return Cell{Text: fmt.Sprint(v)}
}

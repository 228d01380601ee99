package inventory

import (
	"fmt"

	apperrors "inventorypro/internal/errors"
	"inventorypro/internal/exporter"
)

// Report names
const (
	ReportStock        = "stock"
	ReportLowStock     = "low-stock"
	ReportTransactions = "transactions"
)

const transactionTimeLayout = "2006-01-02 15:04"

// Report is a titled list of records with display headers. Headers map
// positionally onto the record keys.
type Report struct {
	Name    string            `json:"name"`
	Title   string            `json:"title"`
	TableID string            `json:"table_id"`
	Headers []string          `json:"headers"`
	Records []exporter.Record `json:"records"`
}

// ReportNames lists the reports a catalog can produce.
func ReportNames() []string {
	return []string{ReportStock, ReportLowStock, ReportTransactions}
}

// Report builds the named report.
func (c *Catalog) Report(name string) (Report, error) {
	switch name {
	case ReportStock:
		return c.StockReport(), nil
	case ReportLowStock:
		return c.LowStockReport(), nil
	case ReportTransactions:
		return c.TransactionReport(), nil
	}
	return Report{}, fmt.Errorf("report %q: %w", name, apperrors.ErrReportUnknown)
}

// StockReport lists every product with its stock value.
func (c *Catalog) StockReport() Report {
	products := c.List()
	records := make([]exporter.Record, len(products))
	for i, p := range products {
		records[i] = exporter.NewRecord(
			"sku", p.SKU,
			"name", p.Name,
			"category", p.Category,
			"supplier", nullable(p.Supplier),
			"stock_quantity", p.StockQuantity,
			"purchase_price", p.PurchasePrice,
			"stock_value", p.StockValue(),
		)
	}
	return Report{
		Name:    ReportStock,
		Title:   "Stock Report",
		TableID: "stock-table",
		Headers: []string{"SKU", "Name", "Category", "Supplier", "Stock", "Purchase Price", "Stock Value"},
		Records: records,
	}
}

// LowStockReport lists products at or below minimum stock, lowest stock first.
func (c *Catalog) LowStockReport() Report {
	products := c.LowStock()
	records := make([]exporter.Record, len(products))
	for i, p := range products {
		records[i] = exporter.NewRecord(
			"sku", p.SKU,
			"name", p.Name,
			"category", p.Category,
			"stock_quantity", p.StockQuantity,
			"minimum_stock", p.MinimumStock,
			"restock", p.RestockQuantity(),
		)
	}
	return Report{
		Name:    ReportLowStock,
		Title:   "Low Stock Report",
		TableID: "low-stock-table",
		Headers: []string{"SKU", "Name", "Category", "Stock", "Minimum", "Restock"},
		Records: records,
	}
}

// TransactionReport lists every stock transaction, newest first. Times keep
// the offset they were recorded with.
func (c *Catalog) TransactionReport() Report {
	transactions := c.Transactions("")
	records := make([]exporter.Record, len(transactions))
	for i, t := range transactions {
		var name any
		if p, ok := c.Get(t.SKU); ok {
			name = p.Name
		}
		records[i] = exporter.NewRecord(
			"created_at", t.CreatedAt.Format(transactionTimeLayout),
			"sku", t.SKU,
			"product", name,
			"type", t.TypeLabel(),
			"quantity", t.Quantity,
			"notes", nullable(t.Notes),
			"created_by", nullable(t.CreatedBy),
		)
	}
	return Report{
		Name:    ReportTransactions,
		Title:   "Transaction Report",
		TableID: "transactions-table",
		Headers: []string{"Date", "SKU", "Product", "Type", "Quantity", "Notes", "Created By"},
		Records: records,
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

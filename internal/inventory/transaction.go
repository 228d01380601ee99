package inventory

import (
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jszwec/csvutil"

	apperrors "inventorypro/internal/errors"
	"inventorypro/internal/validation"
)

// Transaction types
const (
	TransactionIn  = "IN"
	TransactionOut = "OUT"
)

// Transaction is one recorded stock movement. Recording a transaction does
// not change the product's stock quantity.
type Transaction struct {
	SKU       string    `csv:"sku" json:"sku" validate:"required,max=50"`
	Type      string    `csv:"type" json:"type" validate:"required,oneof=IN OUT"`
	Quantity  int       `csv:"quantity" json:"quantity" validate:"gte=1"`
	Notes     string    `csv:"notes,omitempty" json:"notes,omitempty"`
	CreatedBy string    `csv:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt time.Time `csv:"created_at" json:"created_at" validate:"required"`
}

// TypeLabel is the display name of the transaction type.
func (t Transaction) TypeLabel() string {
	switch t.Type {
	case TransactionIn:
		return "Stock In"
	case TransactionOut:
		return "Stock Out"
	}
	return t.Type
}

// TransactionStats totals the quantities moved in each direction.
type TransactionStats struct {
	Total    int `json:"total_transactions"`
	TotalIn  int `json:"total_in"`
	TotalOut int `json:"total_out"`
}

var transactionColumns = []string{"sku", "type", "quantity", "created_at"}

// AddTransaction validates t and records it. The SKU must name a known product.
func (c *Catalog) AddTransaction(t Transaction) error {
	t.SKU = strings.TrimSpace(t.SKU)
	t.Type = strings.ToUpper(strings.TrimSpace(t.Type))

	if fields := c.validator.Struct(t); len(fields) > 0 {
		return apperrors.NewAppValidationError(fmt.Sprintf("%s: %s", fields[0].Field, fields[0].Message))
	}
	if _, ok := c.Get(t.SKU); !ok {
		return apperrors.NewNotFoundError("product " + t.SKU)
	}

	c.mu.Lock()
	c.transactions = append(c.transactions, t)
	c.mu.Unlock()
	return nil
}

// ImportTransactionsCSV records every valid row of r. Rows that fail to
// decode, fail validation or name an unknown SKU are skipped and reported.
// Only created is counted; transactions are never updated.
func (c *Catalog) ImportTransactionsCSV(r io.Reader) (ImportResult, error) {
	var res ImportResult

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	dec, err := csvutil.NewDecoder(reader)
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			return res, apperrors.NewParsingError("transaction CSV is empty", err)
		}
		return res, apperrors.NewParsingError("cannot read transaction CSV header", err)
	}
	if missing := missingColumns(dec.Header(), transactionColumns); len(missing) > 0 {
		return res, apperrors.NewParsingError(
			fmt.Sprintf("transaction CSV is missing columns: %s", strings.Join(missing, ", ")), nil)
	}

	line := 1
	for {
		var t Transaction
		err := dec.Decode(&t)
		if stderrors.Is(err, io.EOF) {
			break
		}
		line++

		if err != nil {
			var perr *csv.ParseError
			if stderrors.As(err, &perr) {
				return res, apperrors.NewParsingError("malformed transaction CSV", err)
			}
			res.Skipped = append(res.Skipped, RowError{
				Line:   line,
				Errors: []validation.FieldError{{Message: err.Error()}},
			})
			continue
		}

		t.SKU = strings.TrimSpace(t.SKU)
		t.Type = strings.ToUpper(strings.TrimSpace(t.Type))
		if fields := c.validator.Struct(t); len(fields) > 0 {
			res.Skipped = append(res.Skipped, RowError{Line: line, SKU: t.SKU, Errors: fields})
			continue
		}
		if _, ok := c.Get(t.SKU); !ok {
			res.Skipped = append(res.Skipped, RowError{
				Line:   line,
				SKU:    t.SKU,
				Errors: []validation.FieldError{{Field: "sku", Message: "Unknown product"}},
			})
			continue
		}

		c.mu.Lock()
		c.transactions = append(c.transactions, t)
		c.mu.Unlock()
		res.Created++
	}

	c.logger.Info("transactions imported",
		slog.Int("created", res.Created),
		slog.Int("skipped", len(res.Skipped)))
	return res, nil
}

// Transactions returns the transactions of sku, or all of them when sku is
// empty, newest first.
func (c *Catalog) Transactions(sku string) []Transaction {
	c.mu.RLock()
	out := make([]Transaction, 0, len(c.transactions))
	for _, t := range c.transactions {
		if sku == "" || t.SKU == sku {
			out = append(out, t)
		}
	}
	c.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// TransactionStats totals the transactions of sku, or all of them when sku is empty.
func (c *Catalog) TransactionStats(sku string) TransactionStats {
	var stats TransactionStats
	for _, t := range c.Transactions(sku) {
		stats.Total++
		switch t.Type {
		case TransactionIn:
			stats.TotalIn += t.Quantity
		case TransactionOut:
			stats.TotalOut += t.Quantity
		}
	}
	return stats
}

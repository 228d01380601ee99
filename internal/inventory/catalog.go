package inventory

import (
	"embed"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/jszwec/csvutil"

	apperrors "inventorypro/internal/errors"
	"inventorypro/internal/validation"
)

//go:embed seed/products.csv seed/transactions.csv
var seedFS embed.FS

// RowError describes one CSV row that was not imported. Line counts the
// header as line 1.
type RowError struct {
	Line   int                     `json:"line"`
	SKU    string                  `json:"sku,omitempty"`
	Errors []validation.FieldError `json:"errors"`
}

// ImportResult summarises an import.
type ImportResult struct {
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Skipped []RowError `json:"skipped,omitempty"`
}

// Catalog is an in-memory product store keyed by SKU, plus the stock
// transactions recorded against those products. It is safe for concurrent use.
type Catalog struct {
	mu           sync.RWMutex
	products     map[string]Product
	transactions []Transaction
	validator    *validation.Validator
	logger       *slog.Logger
}

// NewCatalog creates an empty catalog.
func NewCatalog(logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		products:  make(map[string]Product),
		validator: validation.New(),
		logger:    logger.With(slog.String("component", "inventory")),
	}
}

// NewSeededCatalog creates a catalog holding the bundled sample products
// and their transaction history.
func NewSeededCatalog(logger *slog.Logger) (*Catalog, error) {
	c := NewCatalog(logger)
	if err := c.seed("seed/products.csv", c.ImportCSV); err != nil {
		return nil, err
	}
	if err := c.seed("seed/transactions.csv", c.ImportTransactionsCSV); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) seed(name string, load func(io.Reader) (ImportResult, error)) error {
	f, err := seedFS.Open(name)
	if err != nil {
		return fmt.Errorf("open seed data %s: %w", name, err)
	}
	defer f.Close()

	res, err := load(f)
	if err != nil {
		return fmt.Errorf("import seed data %s: %w", name, err)
	}
	if len(res.Skipped) > 0 {
		return fmt.Errorf("seed data %s has %d invalid rows", name, len(res.Skipped))
	}
	return nil
}

// LoadFile imports products from a CSV file on disk.
func (c *Catalog) LoadFile(path string) (ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImportResult{}, apperrors.NewConfigError("cannot open inventory file", err).WithContext("path", path)
	}
	defer f.Close()
	return c.ImportCSV(f)
}

// ImportCSV decodes products from r and upserts every valid row. Rows that
// fail to decode or validate are reported in the result and skipped. A
// missing or unreadable header is an error.
func (c *Catalog) ImportCSV(r io.Reader) (ImportResult, error) {
	var res ImportResult

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	dec, err := csvutil.NewDecoder(reader)
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			return res, apperrors.NewParsingError("inventory CSV is empty", err)
		}
		return res, apperrors.NewParsingError("cannot read inventory CSV header", err)
	}
	if missing := missingColumns(dec.Header(), productColumns); len(missing) > 0 {
		return res, apperrors.NewParsingError(
			fmt.Sprintf("inventory CSV is missing columns: %s", strings.Join(missing, ", ")), nil)
	}

	line := 1
	for {
		var p Product
		err := dec.Decode(&p)
		if stderrors.Is(err, io.EOF) {
			break
		}
		line++

		if err != nil {
			var perr *csv.ParseError
			if stderrors.As(err, &perr) {
				return res, apperrors.NewParsingError("malformed inventory CSV", err)
			}
			res.Skipped = append(res.Skipped, RowError{
				Line:   line,
				Errors: []validation.FieldError{{Message: err.Error()}},
			})
			continue
		}

		p.SKU = strings.TrimSpace(p.SKU)
		p.Name = strings.TrimSpace(p.Name)
		if fields := c.validator.Struct(p); len(fields) > 0 {
			res.Skipped = append(res.Skipped, RowError{Line: line, SKU: p.SKU, Errors: fields})
			continue
		}

		if c.Upsert(p) {
			res.Created++
		} else {
			res.Updated++
		}
	}

	c.logger.Info("inventory imported",
		slog.Int("created", res.Created),
		slog.Int("updated", res.Updated),
		slog.Int("skipped", len(res.Skipped)))
	return res, nil
}

// Upsert stores p and reports whether it was new.
func (c *Catalog) Upsert(p Product) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, exists := c.products[p.SKU]
	c.products[p.SKU] = p
	return !exists
}

// Get returns the product with the given SKU.
func (c *Catalog) Get(sku string) (Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[sku]
	return p, ok
}

// Len is the number of products.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

// List returns all products ordered by SKU.
func (c *Catalog) List() []Product {
	c.mu.RLock()
	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}

// LowStock returns products at or below their minimum, lowest stock first.
// Equal stock is ordered by SKU.
func (c *Catalog) LowStock() []Product {
	var out []Product
	for _, p := range c.List() {
		if p.IsLowStock() {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StockQuantity < out[j].StockQuantity })
	return out
}

var productColumns = []string{
	"sku", "name", "category", "purchase_price", "selling_price", "stock_quantity", "minimum_stock",
}

func missingColumns(header, required []string) []string {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[strings.TrimSpace(h)] = true
	}
	var missing []string
	for _, col := range required {
		if !have[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

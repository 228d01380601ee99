package exporter

import (
	"context"
	"strings"
)

// Table is a rendered table read as rows of cell text, in document order.
type Table struct {
	ID   string
	Rows [][]string
}

// TableResolver looks a table up by its element id. Implementations return
// an error matching errors.ErrSourceNotFound when the id does not resolve.
type TableResolver interface {
	ResolveTable(ctx context.Context, id string) (*Table, error)
}

// TableResolverFunc adapts a function to TableResolver
type TableResolverFunc func(ctx context.Context, id string) (*Table, error)

// ResolveTable calls f
func (f TableResolverFunc) ResolveTable(ctx context.Context, id string) (*Table, error) {
	return f(ctx, id)
}

// NewTable trims every cell, the way cell text is read from markup.
func NewTable(id string, rows [][]string) *Table {
	out := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = strings.TrimSpace(c)
		}
		out[i] = cells
	}
	return &Table{ID: id, Rows: out}
}

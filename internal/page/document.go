// Package page reads tables out of rendered HTML and renders the inventory
// report pages those tables come from.
package page

import (
	"context"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	apperrors "inventorypro/internal/errors"
	"inventorypro/internal/exporter"
)

// Document is a parsed HTML page.
type Document struct {
	doc *goquery.Document
}

// Parse reads an HTML document from r.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, apperrors.NewParsingError("cannot parse HTML document", err)
	}
	return &Document{doc: doc}, nil
}

// ParseString is Parse for an in-memory page.
func ParseString(html string) (*Document, error) {
	return Parse(strings.NewReader(html))
}

// ResolveTable finds the element with the given id. It must be a <table>.
// Every <tr> below it becomes a row, in document order, and each row's
// <td> and <th> children become its trimmed cell texts.
func (d *Document) ResolveTable(ctx context.Context, id string) (*exporter.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if id == "" {
		return nil, apperrors.NewSourceNotFoundError(id)
	}

	sel := d.elementByID(id)
	if sel.Length() == 0 || goquery.NodeName(sel) != "table" {
		return nil, apperrors.NewSourceNotFoundError(id)
	}

	var rows [][]string
	sel.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.ChildrenFiltered("td, th")
		row := make([]string, 0, cells.Length())
		cells.Each(func(_ int, cell *goquery.Selection) {
			row = append(row, cell.Text())
		})
		rows = append(rows, row)
	})

	return exporter.NewTable(id, rows), nil
}

// TableIDs lists the ids of every table in the document.
func (d *Document) TableIDs() []string {
	var ids []string
	d.doc.Find("table[id]").Each(func(_ int, s *goquery.Selection) {
		if id, ok := s.Attr("id"); ok && id != "" {
			ids = append(ids, id)
		}
	})
	return ids
}

// elementByID matches the id attribute literally, so ids that are not valid
// CSS identifiers still resolve.
func (d *Document) elementByID(id string) *goquery.Selection {
	return d.doc.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("id")
		return v == id
	}).First()
}

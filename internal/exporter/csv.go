package exporter

import (
	"bytes"
	"strings"
)

// UTF8BOM is prepended to documents so spreadsheet tools detect UTF-8.
var UTF8BOM = []byte{0xEF, 0xBB, 0xBF}

// LineTerminator separates (and ends) document lines.
type LineTerminator string

const (
	LF   LineTerminator = "\n"
	CRLF LineTerminator = "\r\n"
)

// ParseLineTerminator maps the config names "lf" and "crlf".
func ParseLineTerminator(name string) LineTerminator {
	if strings.EqualFold(name, "crlf") {
		return CRLF
	}
	return LF
}

// WriteOptions configures document encoding
type WriteOptions struct {
	BOMPrefix      bool
	LineTerminator LineTerminator
	// QuoteAll wraps every non-nil field in quotes, not only those that need it.
	QuoteAll bool
}

// DefaultWriteOptions is BOM on, LF terminated, minimal quoting.
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{
		BOMPrefix:      true,
		LineTerminator: LF,
	}
}

// EscapeField renders a single value as a CSV field.
//
// nil becomes an empty unquoted field. Carriage returns are replaced by a
// space; line feeds are kept. Fields containing a comma, a double quote or a
// line feed are quoted with inner quotes doubled.
func EscapeField(v any, quoteAll bool) string {
	s, ok := stringify(v)
	if !ok {
		return ""
	}
	return escapeString(s, quoteAll)
}

func escapeString(s string, quoteAll bool) string {
	if strings.IndexByte(s, '\r') >= 0 {
		s = strings.ReplaceAll(s, "\r", " ")
	}
	if !quoteAll && !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// CSVWriter accumulates an in-memory CSV document.
type CSVWriter struct {
	opts WriteOptions
	buf  bytes.Buffer
	rows int
}

// NewCSVWriter creates a writer; the BOM, if enabled, is written immediately.
func NewCSVWriter(opts WriteOptions) *CSVWriter {
	if opts.LineTerminator == "" {
		opts.LineTerminator = LF
	}
	w := &CSVWriter{opts: opts}
	if opts.BOMPrefix {
		w.buf.Write(UTF8BOM)
	}
	return w
}

// WriteStrings writes one line of already-stringified fields.
func (w *CSVWriter) WriteStrings(fields []string) {
	for i, f := range fields {
		if i > 0 {
			w.buf.WriteByte(',')
		}
		w.buf.WriteString(escapeString(f, w.opts.QuoteAll))
	}
	w.buf.WriteString(string(w.opts.LineTerminator))
	w.rows++
}

// WriteValues writes one line of scalar values.
func (w *CSVWriter) WriteValues(values []any) {
	for i, v := range values {
		if i > 0 {
			w.buf.WriteByte(',')
		}
		w.buf.WriteString(EscapeField(v, w.opts.QuoteAll))
	}
	w.buf.WriteString(string(w.opts.LineTerminator))
	w.rows++
}

// Lines returns how many lines have been written.
func (w *CSVWriter) Lines() int {
	return w.rows
}

// Bytes returns a copy of the document so far.
func (w *CSVWriter) Bytes() []byte {
	return bytes.Clone(w.buf.Bytes())
}

package exporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeField(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		quoteAll bool
		want     string
	}{
		{name: "nil", value: nil, want: ""},
		{name: "nil with quote all", value: nil, quoteAll: true, want: ""},
		{name: "plain", value: "Laptop", want: "Laptop"},
		{name: "comma", value: "a,b", want: `"a,b"`},
		{name: "quote", value: `say "hi"`, want: `"say ""hi"""`},
		{name: "line feed", value: "line1\nline2", want: "\"line1\nline2\""},
		{name: "carriage return", value: "a\rb", want: "a b"},
		{name: "crlf keeps lf", value: "a\r\nb", want: "\"a \nb\""},
		{name: "int", value: 42, want: "42"},
		{name: "negative int64", value: int64(-7), want: "-7"},
		{name: "float", value: 1.5, want: "1.5"},
		{name: "large float no exponent", value: 8000000.0, want: "8000000"},
		{name: "bool", value: true, want: "true"},
		{name: "json number", value: json.Number("1.50"), want: "1.50"},
		{name: "big int", value: big.NewInt(123456789), want: "123456789"},
		{name: "nil big int", value: (*big.Int)(nil), want: ""},
		{name: "time", value: time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC), want: "2024-05-01T08:30:00Z"},
		{name: "quote all plain", value: "x", quoteAll: true, want: `"x"`},
		{name: "quote all empty string", value: "", quoteAll: true, want: `""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeField(tt.value, tt.quoteAll))
		})
	}
}

func TestEscapeField_RoundTrip(t *testing.T) {
	values := []string{
		"plain",
		"a,b",
		`"`,
		`""`,
		`he said "no, thanks"`,
		"multi\nline",
		"trailing,\n",
		",leading",
		" spaced ",
		"",
		"Rp 1.500.000",
		"日本語,テキスト",
	}

	for _, quoteAll := range []bool{false, true} {
		for _, v := range values {
			line := EscapeField(v, quoteAll) + ",end\n"

			r := csv.NewReader(strings.NewReader(line))
			record, err := r.Read()
			require.NoError(t, err, "value %q", v)
			require.Len(t, record, 2)
			assert.Equal(t, v, record[0], "quoteAll=%v", quoteAll)
		}
	}
}

func TestParseLineTerminator(t *testing.T) {
	assert.Equal(t, CRLF, ParseLineTerminator("crlf"))
	assert.Equal(t, CRLF, ParseLineTerminator("CRLF"))
	assert.Equal(t, LF, ParseLineTerminator("lf"))
	assert.Equal(t, LF, ParseLineTerminator(""))
}

func TestCSVWriter(t *testing.T) {
	tests := []struct {
		name string
		opts WriteOptions
		want string
	}{
		{
			name: "bom and lf",
			opts: DefaultWriteOptions(),
			want: "\ufeffSKU,Name\nELK001,\"Laptop, 15\"\"\"\n",
		},
		{
			name: "no bom crlf",
			opts: WriteOptions{LineTerminator: CRLF},
			want: "SKU,Name\r\nELK001,\"Laptop, 15\"\"\"\r\n",
		},
		{
			name: "quote all",
			opts: WriteOptions{QuoteAll: true},
			want: "\"SKU\",\"Name\"\n\"ELK001\",\"Laptop, 15\"\"\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewCSVWriter(tt.opts)
			w.WriteStrings([]string{"SKU", "Name"})
			w.WriteValues([]any{"ELK001", `Laptop, 15"`})

			assert.Equal(t, tt.want, string(w.Bytes()))
			assert.Equal(t, 2, w.Lines())
		})
	}
}

func TestCSVWriter_BytesIsCopy(t *testing.T) {
	w := NewCSVWriter(WriteOptions{})
	w.WriteStrings([]string{"a"})
	first := w.Bytes()
	w.WriteStrings([]string{"b"})

	assert.Equal(t, "a\n", string(first))
	assert.Equal(t, "a\nb\n", string(w.Bytes()))
}

func TestCSVWriter_ParsesWithStandardReader(t *testing.T) {
	w := NewCSVWriter(DefaultWriteOptions())
	rows := [][]any{
		{"Name", "Note", "Price"},
		{"Kabel, USB", "2\" panjang", 25000},
		{"Mouse", "baris\nkedua", nil},
	}
	for _, row := range rows {
		w.WriteValues(row)
	}

	body := bytes.TrimPrefix(w.Bytes(), UTF8BOM)
	records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"Name", "Note", "Price"},
		{"Kabel, USB", "2\" panjang", "25000"},
		{"Mouse", "baris\nkedua", ""},
	}, records)
}

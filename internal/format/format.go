// Package format renders numbers, money and dates for display the way the
// inventory pages show them: Indonesian digit grouping, Rupiah amounts
// without decimals and Indonesian month names.
package format

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// CurrencyPrefix precedes every Rupiah amount.
const CurrencyPrefix = "Rp "

var printer = message.NewPrinter(language.Indonesian)

var months = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// FormatCurrency renders v as whole Rupiah, e.g. "Rp 1.500.000". nil and
// values that are not numbers render as "Rp 0".
func FormatCurrency(v any) string {
	f, ok := toFloat(v)
	if !ok {
		return CurrencyPrefix + "0"
	}
	n := int64(math.Round(f))
	if n < 0 {
		return "-" + CurrencyPrefix + printer.Sprintf("%d", -n)
	}
	return CurrencyPrefix + printer.Sprintf("%d", n)
}

// FormatCurrencyMini abbreviates large amounts: "Rp 1.5B", "Rp 2.3M",
// "Rp 150K". Amounts under a thousand fall back to FormatCurrency.
func FormatCurrencyMini(v any) string {
	f, ok := toFloat(v)
	if !ok {
		return CurrencyPrefix + "0"
	}
	switch {
	case f >= 1e9:
		return CurrencyPrefix + strconv.FormatFloat(f/1e9, 'f', 1, 64) + "B"
	case f >= 1e6:
		return CurrencyPrefix + strconv.FormatFloat(f/1e6, 'f', 1, 64) + "M"
	case f >= 1e3:
		return CurrencyPrefix + strconv.FormatFloat(f/1e3, 'f', 0, 64) + "K"
	}
	return FormatCurrency(f)
}

// FormatCompact abbreviates millions and thousands without a currency
// prefix; smaller values are grouped like FormatNumber.
func FormatCompact(v any) string {
	f, ok := toFloat(v)
	if !ok {
		return "0"
	}
	switch {
	case f >= 1e6:
		return strconv.FormatFloat(f/1e6, 'f', 1, 64) + "M"
	case f >= 1e3:
		return strconv.FormatFloat(f/1e3, 'f', 0, 64) + "K"
	}
	return FormatNumber(f)
}

// FormatNumber groups digits with dots and uses a decimal comma, keeping
// at most three fraction digits: 1234.5 renders as "1.234,5".
func FormatNumber(v any) string {
	f, ok := toFloat(v)
	if !ok {
		return "0"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return printer.Sprintf("%d", int64(f))
	}
	return printer.Sprint(number.Decimal(f, number.MaxFractionDigits(3)))
}

// FormatDate renders t as day, Indonesian month name and year: "1 Mei 2024".
func FormatDate(t time.Time) string {
	return strconv.Itoa(t.Day()) + " " + MonthName(t.Month()) + " " + strconv.Itoa(t.Year())
}

// MonthName returns the Indonesian name of m.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return months[m-1]
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

package insider

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AcquiredDisposed is the (A)/(D) column of a transaction row
type AcquiredDisposed string

const (
	Acquired AcquiredDisposed = "Acquired"
	Disposed AcquiredDisposed = "Disposed"
)

// OwnershipForm is the direct (D) or indirect (I) ownership column
type OwnershipForm string

const (
	Direct   OwnershipForm = "Direct"
	Indirect OwnershipForm = "Indirect"
)

var (
	// A value that is entirely one parenthesised number is an accounting negative: "(1,234)", "($5.00)"
	reAccountingNegative = regexp.MustCompile(`^\(\s*(\$?\s*\d[\d,]*(?:\.\d+)?)\s*\)$`)

	// Any other parenthetical is a footnote marker: "$28.0407(1)", "500 (2)(3)"
	reParenthetical = regexp.MustCompile(`\([^()]*\)`)
)

// dateLayouts are tried in order by ParseDate
var dateLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
}

// stripFootnotes removes footnote parentheticals from cell text.
// It reports whether the text was an accounting negative, in which case the
// returned text is the bare magnitude. A bare integer such as "(1)" is a
// footnote marker; negation needs a "$", a thousands separator or decimals.
func stripFootnotes(text string) (string, bool) {
	text = NormalizeCellText(text)
	if m := reAccountingNegative.FindStringSubmatch(text); m != nil && strings.ContainsAny(m[1], "$,.") {
		return m[1], true
	}
	return strings.TrimSpace(reParenthetical.ReplaceAllString(text, "")), false
}

// ParseCurrency converts cell content to a float.
//
// Numeric input is returned unchanged. String input may carry a dollar sign,
// thousands separators, footnote markers ("$28.0407(1)") or accounting
// negation ("(1,234)" = -1234, while "(1)" alone is a footnote). Blank text yields 0 when zeroOnBlank is set,
// otherwise ErrMalformedValue.
func ParseCurrency(v any, zeroOnBlank bool) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case string:
		return parseCurrencyText(n, zeroOnBlank)
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrMalformedValue, v)
	}
}

func parseCurrencyText(text string, zeroOnBlank bool) (float64, error) {
	stripped, negative := stripFootnotes(text)

	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(stripped)
	if cleaned == "" {
		if zeroOnBlank {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: blank value", ErrMalformedValue)
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q is not a number", ErrMalformedValue, text)
	}

	if negative {
		f = -f
	}
	return f, nil
}

// ParseNumber parses a share count or other plain quantity. Blank is malformed.
func ParseNumber(text string) (float64, error) {
	return ParseCurrency(text, false)
}

// FormatPrice renders a price cell for display: footnotes stripped, two
// decimals, "$" prefix. "$28.0407(1)" → "$28.04". Blank renders as "$0.00".
func FormatPrice(v any) (string, error) {
	f, err := ParseCurrency(v, true)
	if err != nil {
		return "", err
	}
	return FormatUSD(f), nil
}

// FormatUSD renders an amount as dollars with exactly two decimals
func FormatUSD(f float64) string {
	d := decimal.NewFromFloat(f)
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// roundTo rounds half away from zero to the given number of decimal places
func roundTo(f float64, places int32) float64 {
	return decimal.NewFromFloat(f).Round(places).InexactFloat64()
}

// ReformatPersonName turns the filing's "Surname First Middle" order into
// "First Middle Surname". Names with fewer than two tokens are only trimmed.
func ReformatPersonName(name string) string {
	parts := strings.Fields(name)
	if len(parts) < 2 {
		return strings.TrimSpace(name)
	}
	return strings.Join(append(parts[1:], parts[0]), " ")
}

// ParseDate parses a transaction date cell and returns ISO-8601 (YYYY-MM-DD)
func ParseDate(text string) (string, error) {
	raw, _ := stripFootnotes(text)
	if raw == "" {
		return "", fmt.Errorf("%w: blank date", ErrMalformedValue)
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}

	return "", fmt.Errorf("%w: unrecognized date %q", ErrMalformedValue, text)
}

// cellCode returns a single-token code cell ("P", "A", "D") without footnotes
func cellCode(text string) string {
	code, _ := stripFootnotes(text)
	return code
}

// ParseAcquiredDisposed parses the (A) or (D) column
func ParseAcquiredDisposed(text string) (AcquiredDisposed, error) {
	switch cellCode(text) {
	case "A":
		return Acquired, nil
	case "D":
		return Disposed, nil
	}
	return "", fmt.Errorf("%w: acquired/disposed flag %q", ErrMalformedValue, text)
}

// ParseOwnershipForm parses the direct (D) or indirect (I) column
func ParseOwnershipForm(text string) (OwnershipForm, error) {
	switch cellCode(text) {
	case "D":
		return Direct, nil
	case "I":
		return Indirect, nil
	}
	return "", fmt.Errorf("%w: ownership form %q", ErrMalformedValue, text)
}

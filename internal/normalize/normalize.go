// Package normalize canonicalizes the textual date, amount, and ledger
// representations that appear in statements, rule files, and ledger exports,
// so that semantically equal values compare equal as keys.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dateFormats are tried in order. Statements mix numeric and abbreviated-month
// day-first forms with ISO dates, and slash-separated dates appear with both
// 4- and 2-digit years.
var dateFormats = []string{
	"2-1-2006",
	"2-Jan-06",
	"2-Jan-2006",
	"2006-1-2",
	"2/1/2006",
	"2/1/06",
}

// Date parses value against the known statement date formats and returns the
// first successful parse. ok is false for empty input or when no format
// matches. There is no timezone concept; dates are calendar dates.
func Date(value string) (time.Time, bool) {
	text := strings.TrimSpace(value)
	if text == "" {
		return time.Time{}, false
	}

	for _, format := range dateFormats {
		if t, err := time.Parse(format, text); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// DateKey returns the canonical comparison form of a date (ISO yyyy-mm-dd).
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Ledger canonicalizes a ledger name: lowercased and trimmed.
func Ledger(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// Amount parses a monetary string into its absolute value. Thousands
// separators are stripped and parenthesized negatives are treated as a
// leading minus. ok is false for empty input or a parse failure.
func Amount(value string) (float64, bool) {
	text := strings.ReplaceAll(value, ",", "")
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "(", "-")
	text = strings.ReplaceAll(text, ")", "")
	if text == "" {
		return 0, false
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	if f < 0 {
		f = -f
	}
	return f, true
}

// CoerceAmount is the lenient variant used when reading statement cells:
// missing or unparseable values coerce to zero instead of failing, so a bad
// cell never aborts the pipeline.
func CoerceAmount(value string) float64 {
	f, ok := Amount(value)
	if !ok {
		return 0
	}
	return f
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// CleanText collapses embedded newlines, carriage returns, and run-on
// whitespace into single spaces and trims the result.
func CleanText(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", "")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(value, " "))
}

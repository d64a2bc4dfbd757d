package extractor

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/voucher-importer/internal/models"
	"github.com/insightdelivered/voucher-importer/internal/normalize"
)

// The text fallback handles statements whose tables never survive column
// reconstruction. It is strictly line-oriented: a line opening with a
// DD-MON-YYYY date starts a new record, and any other non-header line
// extends the current record's description.

const fallbackDate = `\d{2}-[A-Za-z]{3}-\d{4}`

var (
	recordStart = regexp.MustCompile(`^` + fallbackDate)

	// Two dates, free-text description, then withdrawal, deposit, and
	// balance amounts at end of line.
	recordLine = regexp.MustCompile(
		`^(` + fallbackDate + `)\s+(` + fallbackDate + `)\s+(.*?)\s+` +
			`(-?\d[\d,]*\.\d{2})\s+(-?\d[\d,]*\.\d{2})\s+(-?\d[\d,]*\.\d{2})\s*$`,
	)

	// A long embedded numeric token is taken as the reference number.
	referenceToken = regexp.MustCompile(`\b\d{6,}\b`)
)

// isColumnHeaderLine detects a repeated table header inside the page text so
// it is not appended to a description.
func isColumnHeaderLine(line string) bool {
	text := strings.ToUpper(normalize.CleanText(line))
	return strings.Contains(text, "TXN DATE") &&
		strings.Contains(text, "VALUE DATE") &&
		strings.Contains(text, "DESCRIPTION") &&
		(strings.Contains(text, "DEBITS") || strings.Contains(text, "WITHDRAWALS")) &&
		(strings.Contains(text, "CREDITS") || strings.Contains(text, "DEPOSITS")) &&
		strings.Contains(text, "BALANCE")
}

// parseRecordLine parses one complete transaction line, or returns ok=false.
func parseRecordLine(line string) (models.StatementRow, bool) {
	m := recordLine.FindStringSubmatch(normalize.CleanText(line))
	if m == nil {
		return models.StatementRow{}, false
	}

	description := normalize.CleanText(m[3])
	return models.StatementRow{
		TransactionDate: strings.ToUpper(m[1]),
		ValueDate:       strings.ToUpper(m[2]),
		Description:     description,
		ReferenceNumber: referenceToken.FindString(description),
		Withdrawals:     m[4],
		Deposits:        m[5],
		RunningBalance:  m[6],
	}, true
}

// parseTextStatement runs the line-oriented fallback over the page texts.
func parseTextStatement(pages []string) []models.StatementRow {
	var rows []models.StatementRow
	var current *models.StatementRow

	for _, page := range pages {
		for _, rawLine := range strings.Split(page, "\n") {
			line := normalize.CleanText(rawLine)
			if line == "" || isColumnHeaderLine(line) {
				continue
			}

			if recordStart.MatchString(line) {
				row, ok := parseRecordLine(line)
				if !ok {
					continue
				}
				if current != nil {
					rows = append(rows, *current)
				}
				current = &row
				continue
			}

			if current != nil {
				// Spillover description line.
				current.Description = normalize.CleanText(current.Description + " " + line)
			}
		}
	}

	if current != nil {
		rows = append(rows, *current)
	}

	return rows
}

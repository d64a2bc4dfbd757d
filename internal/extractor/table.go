package extractor

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/voucher-importer/internal/models"
	"github.com/insightdelivered/voucher-importer/internal/normalize"
)

// field identifies one of the seven standard statement columns.
type field int

const (
	fieldNone field = iota
	fieldTransactionDate
	fieldValueDate
	fieldDescription
	fieldReference
	fieldWithdrawals
	fieldDeposits
	fieldBalance
)

// headerRules map header cell text to standard fields. Evaluated top to
// bottom per cell; the first rule with any matching keyword wins. "value"
// must precede the bare date keywords so "Value Date" does not land on
// Transaction Date.
var headerRules = []struct {
	field    field
	keywords []string
}{
	{fieldValueDate, []string{"value"}},
	{fieldTransactionDate, []string{"transaction", "txn", "tran date"}},
	{fieldDescription, []string{"description", "particular", "narration", "details"}},
	{fieldReference, []string{"reference", "cheque", "chq", "ref"}},
	{fieldWithdrawals, []string{"withdraw", "debit"}},
	{fieldDeposits, []string{"deposit", "credit"}},
	{fieldBalance, []string{"balance"}},
}

// mapHeaderCell resolves one header cell to a standard field, or fieldNone.
func mapHeaderCell(cell string) field {
	text := strings.ToLower(strings.ReplaceAll(cell, "/", " "))
	text = normalize.CleanText(text)
	if text == "" {
		return fieldNone
	}
	for _, rule := range headerRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(text, keyword) {
				return rule.field
			}
		}
	}
	return fieldNone
}

// requiredFields must all be supplied by a table for it to be accepted.
var requiredFields = []field{
	fieldTransactionDate,
	fieldValueDate,
	fieldDescription,
	fieldWithdrawals,
	fieldDeposits,
}

// cellBoundary splits a reconstructed line into cells: tabs or runs of two
// or more spaces mark column boundaries.
var cellBoundary = regexp.MustCompile(`\t+| {2,}`)

// gridFromPage turns one page of reconstructed text into a raw cell grid.
func gridFromPage(page string) [][]string {
	var grid [][]string
	for _, line := range strings.Split(page, "\n") {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			continue
		}
		cells := cellBoundary.Split(line, -1)
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}
		grid = append(grid, cells)
	}
	return grid
}

// headerColumns maps a candidate header row's cells to fields. The first
// cell claiming a field wins; later duplicates are ignored.
func headerColumns(row []string) map[field]int {
	cols := make(map[field]int)
	for i, cell := range row {
		f := mapHeaderCell(cell)
		if f == fieldNone {
			continue
		}
		if _, taken := cols[f]; !taken {
			cols[f] = i
		}
	}
	return cols
}

func hasRequiredFields(cols map[field]int) bool {
	for _, f := range requiredFields {
		if _, ok := cols[f]; !ok {
			return false
		}
	}
	return true
}

// rowsFromGrid locates the tabular region in a page grid: the first row
// whose cells map to all required fields becomes the header, and every row
// after it is read through that column mapping. Returns nil when the grid
// holds no acceptable table.
func rowsFromGrid(grid [][]string) []models.StatementRow {
	headerIdx := -1
	var cols map[field]int
	for i, row := range grid {
		candidate := headerColumns(row)
		if hasRequiredFields(candidate) {
			headerIdx = i
			cols = candidate
			break
		}
	}
	if headerIdx < 0 {
		return nil
	}

	cellAt := func(row []string, f field) string {
		idx, ok := cols[f]
		if !ok || idx >= len(row) {
			return ""
		}
		return normalize.CleanText(row[idx])
	}

	var rows []models.StatementRow
	for _, row := range grid[headerIdx+1:] {
		rec := models.StatementRow{
			TransactionDate: cellAt(row, fieldTransactionDate),
			ValueDate:       cellAt(row, fieldValueDate),
			Description:     cellAt(row, fieldDescription),
			ReferenceNumber: cellAt(row, fieldReference),
			Withdrawals:     cellAt(row, fieldWithdrawals),
			Deposits:        cellAt(row, fieldDeposits),
			RunningBalance:  cellAt(row, fieldBalance),
		}
		if rec == (models.StatementRow{}) {
			// Nothing landed in a mapped column. An indented line with a
			// single run of text is a description continuation; a line at
			// the left margin is page furniture.
			text := continuationText(row)
			if text == "" {
				continue
			}
			rec.Description = text
		}
		rows = append(rows, rec)
	}
	return rows
}

// continuationText returns the sole text run of an indented line, or "" when
// the line starts at the left margin or carries more than one run.
func continuationText(row []string) string {
	if len(row) < 2 || row[0] != "" {
		return ""
	}
	var text string
	for _, cell := range row[1:] {
		if cell == "" {
			continue
		}
		if text != "" {
			return ""
		}
		text = cell
	}
	return text
}

// twinAmounts matches a cell holding two decimal amounts separated by
// whitespace, the signature of a merged Deposits/Running Balance cell.
var twinAmounts = regexp.MustCompile(`^\s*([\d,]+\.\d{2})\s+([\d,]+\.\d{2})\s*$`)

// repairMergedAmounts splits a Deposits or Running Balance cell that
// captured both values, provided the sibling cell is empty.
func repairMergedAmounts(rows []models.StatementRow) {
	for i := range rows {
		if m := twinAmounts.FindStringSubmatch(rows[i].Deposits); m != nil && rows[i].RunningBalance == "" {
			rows[i].Deposits = m[1]
			rows[i].RunningBalance = m[2]
			continue
		}
		if m := twinAmounts.FindStringSubmatch(rows[i].RunningBalance); m != nil && rows[i].Deposits == "" {
			rows[i].Deposits = m[1]
			rows[i].RunningBalance = m[2]
		}
	}
}

// mergeSpilloverRows folds continuation lines into the preceding row: a row
// with a description but no dates and no amounts is the tail of a multiline
// description. Must run after repairMergedAmounts so a repaired amount stops
// a row being mistaken for spillover. Operates on adjacent pairs in source
// order.
func mergeSpilloverRows(rows []models.StatementRow) []models.StatementRow {
	if len(rows) == 0 {
		return rows
	}
	merged := make([]models.StatementRow, 0, len(rows))
	merged = append(merged, rows[0])
	for _, row := range rows[1:] {
		if row.Description != "" &&
			row.TransactionDate == "" &&
			row.ValueDate == "" &&
			row.Withdrawals == "" &&
			row.Deposits == "" {
			prev := &merged[len(merged)-1]
			prev.Description = normalize.CleanText(prev.Description + " " + row.Description)
			continue
		}
		merged = append(merged, row)
	}
	return merged
}

// isValidRow reports whether a row represents a complete transaction: a
// description, a positive movement on either side, and parseable dates.
func isValidRow(row models.StatementRow) bool {
	if normalize.CleanText(row.Description) == "" {
		return false
	}
	if normalize.CoerceAmount(row.Withdrawals) <= 0 && normalize.CoerceAmount(row.Deposits) <= 0 {
		return false
	}
	if _, ok := normalize.Date(row.TransactionDate); !ok {
		return false
	}
	if _, ok := normalize.Date(row.ValueDate); !ok {
		return false
	}
	return true
}

// hasValidRows reports whether at least one row is a complete transaction.
// It is a gate only: extraction keeps every row, and incomplete ones surface
// downstream as unclassified transactions.
func hasValidRows(rows []models.StatementRow) bool {
	for _, row := range rows {
		if isValidRow(row) {
			return true
		}
	}
	return false
}

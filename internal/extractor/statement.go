package extractor

import (
	"errors"
	"fmt"

	"github.com/insightdelivered/voucher-importer/internal/models"
)

// ErrNoTransactions is returned when neither the table pipeline nor the text
// fallback yields a single valid transaction row.
var ErrNoTransactions = errors.New("no valid transaction rows found in statement")

// Stats records what the extraction pipeline did, for diagnostics.
type Stats struct {
	TablesDetected int
	TablesAccepted int
	TablesIgnored  int
	UsedFallback   bool
}

// ExtractStatement runs the full extraction pipeline against a statement
// PDF: per-page cell grids, header mapping, cell cleanup, merged-cell
// repair, spillover merge, and the line-oriented text fallback when the
// table route produces nothing valid. Output order follows document order;
// the same document always yields the same rows.
func ExtractStatement(filePath string) ([]models.StatementRow, Stats, error) {
	pages, err := ExtractPages(filePath)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("statement extraction: %w", err)
	}
	return statementFromPages(pages)
}

// statementFromPages runs the table stage and, when it yields no valid
// transaction at all, the text fallback. The validity check is a gate only:
// whichever stage wins contributes every row it extracted, complete or not.
func statementFromPages(pages []string) ([]models.StatementRow, Stats, error) {
	rows, stats := RowsFromPages(pages)

	if !hasValidRows(rows) {
		rows = parseTextStatement(pages)
		stats.UsedFallback = true
	}

	if !hasValidRows(rows) {
		return nil, stats, ErrNoTransactions
	}

	return rows, stats, nil
}

// RowsFromPages runs the table stage alone: each page grid that supplies the
// required header fields contributes its rows; the combined rows then go
// through merged-cell repair and spillover merging.
func RowsFromPages(pages []string) ([]models.StatementRow, Stats) {
	var stats Stats
	var rows []models.StatementRow

	for _, page := range pages {
		grid := gridFromPage(page)
		if len(grid) < 2 {
			continue
		}
		stats.TablesDetected++

		tableRows := rowsFromGrid(grid)
		if tableRows == nil {
			stats.TablesIgnored++
			continue
		}
		stats.TablesAccepted++
		rows = append(rows, tableRows...)
	}

	repairMergedAmounts(rows)
	rows = mergeSpilloverRows(rows)

	return rows, stats
}

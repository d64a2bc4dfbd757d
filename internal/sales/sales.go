// Package sales converts a sales workbook into Journal vouchers for the
// accounting import.
package sales

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/voucher-importer/internal/models"
	"github.com/insightdelivered/voucher-importer/internal/normalize"
)

// requiredColumns must all be present in the sales sheet header.
var requiredColumns = []string{
	"DATE",
	"INVOICE NO",
	"PARTICULARS",
	"GROSS VALUE",
}

// Options carries the fixed ledgers Journal vouchers are posted against.
type Options struct {
	CrLedger string
	DrLedger string
}

// DefaultOptions returns the ledgers used by the standard sales import.
func DefaultOptions() Options {
	return Options{
		CrLedger: "Contract Receipts",
		DrLedger: "S.C.Rly",
	}
}

// BuildVouchers reads the first worksheet of a sales workbook and produces
// one Journal voucher per usable row. Rows with an unparseable date, empty
// particulars, or a non-positive gross value are skipped. The invoice number
// becomes the voucher narration.
func BuildVouchers(path string, opts Options) ([]models.Voucher, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening sales workbook %q: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("sales workbook %q has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}

	headerIdx, cols, missing := locateHeader(rows)
	if headerIdx < 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	cellAt := func(row []string, name string) string {
		idx := cols[name]
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var vouchers []models.Voucher
	for _, row := range rows[headerIdx+1:] {
		date, ok := normalize.Date(cellAt(row, "DATE"))
		if !ok {
			continue
		}

		description := cellAt(row, "PARTICULARS")
		if description == "" {
			continue
		}

		amount := normalize.CoerceAmount(cellAt(row, "GROSS VALUE"))
		if amount <= 0 {
			continue
		}

		vouchers = append(vouchers, models.Voucher{
			VoucherType: models.VoucherJournal,
			Date:        date.Format(models.DateDisplayFormat),
			Description: description,
			Narration:   cellAt(row, "INVOICE NO"),
			CrLedger:    opts.CrLedger,
			Amount:      amount,
			CrMarker:    "CR",
			DrLedger:    opts.DrLedger,
			DrAmount:    amount,
			DrMarker:    "DR",
		})
	}

	return vouchers, nil
}

// locateHeader finds the first row containing every required column and
// returns its index and a column-name → index map. When no row qualifies it
// returns -1 and the columns missing from the best candidate row.
func locateHeader(rows [][]string) (int, map[string]int, []string) {
	var bestMissing []string

	for i, row := range rows {
		cols := make(map[string]int)
		for j, cell := range row {
			name := normalizeColumn(cell)
			if name == "" {
				continue
			}
			if _, taken := cols[name]; !taken {
				cols[name] = j
			}
		}

		var missing []string
		for _, name := range requiredColumns {
			if _, ok := cols[name]; !ok {
				missing = append(missing, name)
			}
		}
		if len(missing) == 0 {
			return i, cols, nil
		}
		if bestMissing == nil || len(missing) < len(bestMissing) {
			bestMissing = missing
		}
	}

	if bestMissing == nil {
		bestMissing = append([]string(nil), requiredColumns...)
	}
	return -1, nil, bestMissing
}

func normalizeColumn(cell string) string {
	return strings.Join(strings.Fields(strings.ToUpper(cell)), " ")
}

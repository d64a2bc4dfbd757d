// Package writer persists generated vouchers and the supporting exports as
// import-ready workbooks.
package writer

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/voucher-importer/internal/models"
)

// sheetOrder fixes the sheet sequence of the voucher import workbook.
var sheetOrder = []models.VoucherType{
	models.VoucherPayment,
	models.VoucherReceipt,
	models.VoucherContra,
	models.VoucherJournal,
}

// WriteVouchers writes the voucher import workbook: one sheet per voucher
// type present, each with its own Voucher_Num sequence starting at 1.
func WriteVouchers(path string, vouchers []models.Voucher) error {
	groups := make(map[models.VoucherType][]models.Voucher)
	for _, v := range vouchers {
		groups[v.VoucherType] = append(groups[v.VoucherType], v)
	}

	f := excelize.NewFile()
	defer f.Close()

	wroteFirst := false
	for _, vtype := range sheetOrder {
		group := groups[vtype]
		if len(group) == 0 {
			continue
		}

		sheet := string(vtype)
		if !wroteFirst {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return fmt.Errorf("naming sheet %q: %w", sheet, err)
			}
			wroteFirst = true
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return fmt.Errorf("adding sheet %q: %w", sheet, err)
			}
		}

		if err := writeVoucherSheet(f, sheet, group); err != nil {
			return err
		}
	}

	if !wroteFirst {
		return fmt.Errorf("no vouchers to write")
	}

	return SafeWrite(path, func() error { return f.SaveAs(path) })
}

// WriteDuplicates writes skipped duplicate contra vouchers to their own
// workbook for operator review.
func WriteDuplicates(path string, duplicates []models.Voucher) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := writeVoucherSheet(f, sheet, duplicates); err != nil {
		return err
	}

	return SafeWrite(path, func() error { return f.SaveAs(path) })
}

func writeVoucherSheet(f *excelize.File, sheet string, group []models.Voucher) error {
	header := append([]interface{}{"Voucher_Num"}, toAny(models.VoucherColumns)...)
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header on %q: %w", sheet, err)
	}

	for i, v := range group {
		row := []interface{}{
			i + 1,
			string(v.VoucherType),
			v.Date,
			v.Description,
			v.Narration,
			v.CrLedger,
			v.Amount,
			v.CrMarker,
			v.DrLedger,
			v.DrAmount,
			v.DrMarker,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d on %q: %w", i+1, sheet, err)
		}
	}

	return nil
}

// WriteUnclassified exports transactions no rule could route, one row each.
func WriteUnclassified(path string, transactions []models.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := []interface{}{"Value Date", "Description", "Withdrawal", "Deposit", "Reference"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, txn := range transactions {
		row := []interface{}{txn.Date, txn.Description, txn.Withdrawal, txn.Deposit, txn.Reference}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	return SafeWrite(path, func() error { return f.SaveAs(path) })
}

// WriteStatement writes the standardized statement rows to the review
// workbook, in the standard column order.
func WriteStatement(path string, rows []models.StatementRow) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := toAny(models.StandardColumns)
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, row := range rows {
		values := toAny(row.Values())
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	return SafeWrite(path, func() error { return f.SaveAs(path) })
}

func toAny(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

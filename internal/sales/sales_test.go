package sales

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/voucher-importer/internal/models"
)

// writeWorkbook builds a single-sheet xlsx fixture from string rows.
func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("writing row %d: %v", i, err)
		}
	}

	path := filepath.Join(t.TempDir(), "sales.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("saving fixture: %v", err)
	}
	return path
}

func TestBuildVouchers(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"MONTHLY SALES REGISTER"},
		{"Date", "Invoice No", "Particulars", "Gross Value"},
		{"01-04-2025", "INV/2025/001", "Freight charges April", "1,25,000.50"},
		{"not a date", "INV/2025/002", "Bad date row", "500.00"},
		{"03-04-2025", "INV/2025/003", "", "750.00"},
		{"04-04-2025", "INV/2025/004", "Zero value row", "0.00"},
		{"05-04-2025", "", "Siding charges", "2,000.00"},
	})

	vouchers, err := BuildVouchers(path, DefaultOptions())
	if err != nil {
		t.Fatalf("BuildVouchers: %v", err)
	}

	if len(vouchers) != 2 {
		t.Fatalf("vouchers = %d, want 2: %+v", len(vouchers), vouchers)
	}

	first := vouchers[0]
	if first.VoucherType != models.VoucherJournal {
		t.Errorf("VoucherType = %q", first.VoucherType)
	}
	if first.Date != "01-04-2025" {
		t.Errorf("Date = %q", first.Date)
	}
	if first.Description != "Freight charges April" {
		t.Errorf("Description = %q", first.Description)
	}
	if first.Narration != "INV/2025/001" {
		t.Errorf("Narration = %q", first.Narration)
	}
	if first.CrLedger != "Contract Receipts" || first.DrLedger != "S.C.Rly" {
		t.Errorf("ledgers = %q / %q", first.CrLedger, first.DrLedger)
	}
	if first.Amount != 125000.50 || first.DrAmount != 125000.50 {
		t.Errorf("amounts = %v / %v", first.Amount, first.DrAmount)
	}
	if first.CrMarker != "CR" || first.DrMarker != "DR" {
		t.Errorf("markers = %q / %q", first.CrMarker, first.DrMarker)
	}

	// A missing invoice number leaves the narration empty but keeps
	// the voucher.
	second := vouchers[1]
	if second.Description != "Siding charges" || second.Narration != "" {
		t.Errorf("second voucher = %+v", second)
	}
}

func TestBuildVouchersCustomLedgers(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Date", "Invoice No", "Particulars", "Gross Value"},
		{"01-04-2025", "INV-1", "Consulting", "100.00"},
	})

	vouchers, err := BuildVouchers(path, Options{CrLedger: "Service Income", DrLedger: "Western Rly"})
	if err != nil {
		t.Fatalf("BuildVouchers: %v", err)
	}
	if len(vouchers) != 1 {
		t.Fatalf("vouchers = %d, want 1", len(vouchers))
	}
	if vouchers[0].CrLedger != "Service Income" || vouchers[0].DrLedger != "Western Rly" {
		t.Errorf("ledgers = %q / %q", vouchers[0].CrLedger, vouchers[0].DrLedger)
	}
}

func TestBuildVouchersMissingColumns(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Date", "Invoice No", "Particulars"},
		{"01-04-2025", "INV-1", "Consulting"},
	})

	_, err := BuildVouchers(path, DefaultOptions())
	if err == nil {
		t.Fatal("expected error for missing columns")
	}
	if want := "GROSS VALUE"; !strings.Contains(err.Error(), want) {
		t.Errorf("error %q does not name %q", err, want)
	}
}

func TestBuildVouchersMissingFile(t *testing.T) {
	if _, err := BuildVouchers(filepath.Join(t.TempDir(), "absent.xlsx"), DefaultOptions()); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLocateHeader(t *testing.T) {
	tests := []struct {
		name    string
		rows    [][]string
		wantIdx int
	}{
		{
			name: "header after title rows",
			rows: [][]string{
				{"SALES"},
				{},
				{"DATE", "INVOICE NO", "PARTICULARS", "GROSS VALUE"},
			},
			wantIdx: 2,
		},
		{
			name: "mixed case and padding",
			rows: [][]string{
				{"  date ", "invoice  no", "Particulars", "gross value"},
			},
			wantIdx: 0,
		},
		{
			name:    "no header",
			rows:    [][]string{{"one", "two"}},
			wantIdx: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, _, _ := locateHeader(tt.rows)
			if idx != tt.wantIdx {
				t.Errorf("header index = %d, want %d", idx, tt.wantIdx)
			}
		})
	}
}

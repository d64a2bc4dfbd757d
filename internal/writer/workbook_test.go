package writer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/voucher-importer/internal/models"
)

func voucher(vtype models.VoucherType, date, description, crLedger, drLedger string, amount float64) models.Voucher {
	return models.Voucher{
		VoucherType: vtype,
		Date:        date,
		Description: description,
		CrLedger:    crLedger,
		Amount:      amount,
		CrMarker:    "CR",
		DrLedger:    drLedger,
		DrAmount:    amount,
		DrMarker:    "DR",
	}
}

func readSheet(t *testing.T, path, sheet string) [][]string {
	t.Helper()

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("opening %q: %v", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("reading sheet %q: %v", sheet, err)
	}
	return rows
}

func TestWriteVouchers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statement_import_ready.xlsx")

	vouchers := []models.Voucher{
		voucher(models.VoucherContra, "01-11-2025", "OWN TRANSFER", "494", "Savings", 1000.5),
		voucher(models.VoucherPayment, "02-11-2025", "RENT NOVEMBER", "Rent", "494", 25000.5),
		voucher(models.VoucherPayment, "03-11-2025", "ELECTRICITY", "Utilities", "494", 3200.5),
		voucher(models.VoucherReceipt, "04-11-2025", "SALARY", "494", "Salary", 50000.5),
	}

	if err := WriteVouchers(path, vouchers); err != nil {
		t.Fatalf("WriteVouchers: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("opening output: %v", err)
	}
	sheets := f.GetSheetList()
	f.Close()

	want := []string{"Payment", "Receipt", "Contra"}
	if len(sheets) != len(want) {
		t.Fatalf("sheets = %v, want %v", sheets, want)
	}
	for i, name := range want {
		if sheets[i] != name {
			t.Errorf("sheet[%d] = %q, want %q", i, sheets[i], name)
		}
	}

	payments := readSheet(t, path, "Payment")
	if len(payments) != 3 {
		t.Fatalf("payment rows = %d, want 3", len(payments))
	}
	wantHeader := append([]string{"Voucher_Num"}, models.VoucherColumns...)
	for i, col := range wantHeader {
		if payments[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, payments[0][i], col)
		}
	}
	if payments[1][0] != "1" || payments[2][0] != "2" {
		t.Errorf("payment numbering = %q, %q", payments[1][0], payments[2][0])
	}
	if payments[1][3] != "RENT NOVEMBER" || payments[1][6] != "25000.5" {
		t.Errorf("payment row = %v", payments[1])
	}

	// Each sheet numbers from 1 independently.
	contras := readSheet(t, path, "Contra")
	if len(contras) != 2 || contras[1][0] != "1" {
		t.Errorf("contra rows = %v", contras)
	}
}

func TestWriteVouchersEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	if err := WriteVouchers(path, nil); err == nil {
		t.Fatal("expected error for empty voucher set")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("workbook should not be created, stat err = %v", err)
	}
}

func TestWriteDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "duplicate_entries.xlsx")

	dups := []models.Voucher{
		voucher(models.VoucherContra, "01-11-2025", "OWN TRANSFER", "494", "Savings", 1000.5),
	}
	if err := WriteDuplicates(path, dups); err != nil {
		t.Fatalf("WriteDuplicates: %v", err)
	}

	rows := readSheet(t, path, "Sheet1")
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[1][1] != "Contra" || rows[1][2] != "01-11-2025" {
		t.Errorf("row = %v", rows[1])
	}
}

func TestWriteUnclassified(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unclassified.xlsx")

	txns := []models.Transaction{
		{Date: "05-11-2025", Description: "MYSTERY PAYMENT", Reference: "987654321", Withdrawal: 118.5},
	}
	if err := WriteUnclassified(path, txns); err != nil {
		t.Fatalf("WriteUnclassified: %v", err)
	}

	rows := readSheet(t, path, "Sheet1")
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0][0] != "Value Date" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][1] != "MYSTERY PAYMENT" || rows[1][2] != "118.5" {
		t.Errorf("row = %v", rows[1])
	}
}

func TestWriteStatement(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank_statement.xlsx")

	rows := []models.StatementRow{
		{
			TransactionDate: "01-11-2025",
			ValueDate:       "01-11-2025",
			Description:     "NEFT TRANSFER",
			ReferenceNumber: "123456789",
			Withdrawals:     "1,000.00",
			RunningBalance:  "9,000.00",
		},
	}
	if err := WriteStatement(path, rows); err != nil {
		t.Fatalf("WriteStatement: %v", err)
	}

	got := readSheet(t, path, "Sheet1")
	if len(got) != 2 {
		t.Fatalf("rows = %d, want 2", len(got))
	}
	for i, col := range models.StandardColumns {
		if got[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, got[0][i], col)
		}
	}
	if got[1][2] != "NEFT TRANSFER" || got[1][4] != "1,000.00" {
		t.Errorf("row = %v", got[1])
	}
}

func TestSafeWriteFailsFastOnOtherErrors(t *testing.T) {
	attempts := 0
	err := SafeWrite("out.xlsx", func() error {
		attempts++
		return errors.New("disk full")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestSafeWriteSuccess(t *testing.T) {
	if err := SafeWrite("out.xlsx", func() error { return nil }); err != nil {
		t.Fatalf("SafeWrite: %v", err)
	}
}

func TestIsFileLocked(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"permission wrapper", os.ErrPermission, true},
		{"windows share message", errors.New("The process cannot access the file because it is being used by another process."), true},
		{"sharing violation", errors.New("sharing violation"), true},
		{"unrelated", errors.New("no space left on device"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isFileLocked(tt.err); got != tt.want {
				t.Errorf("isFileLocked(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

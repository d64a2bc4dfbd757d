package dedup

import (
	"testing"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

const sampleExport = `{
	"lvbody": {
		"dspvchdetail": [
			{
				"dspvchtype": "CNTRA",
				"dspvchdate": "15-11-2025",
				"dspvchledaccount": "SBI Savings",
				"dspvchcramt": "7,500.00"
			},
			{
				"dspvchtype": "CTRA",
				"dspvchdate": "2025-11-16",
				"dspvchledaccount": "ICICI Savings",
				"dspvchdramt": 1200.5
			},
			{
				"dspvchtype": "PYMT",
				"dspvchdate": "17-11-2025",
				"dspvchledaccount": "Rent Expense",
				"dspvchcramt": "9,000.00"
			},
			{
				"dspvchtype": "CNTRA",
				"dspvchdate": "not a date",
				"dspvchledaccount": "Broken Entry",
				"dspvchcramt": "1.00"
			}
		]
	}
}`

func TestParseExport(t *testing.T) {
	set, err := ParseExport([]byte(sampleExport))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Two contra entries survive: the payment entry and the entry with an
	// unparseable date are skipped.
	if len(set) != 2 {
		t.Fatalf("len(set) = %d, want 2", len(set))
	}

	key, ok := NewKey("15-11-2025", "SBI Savings", "7500")
	if !ok {
		t.Fatal("building key")
	}
	if !set.Contains(key) {
		t.Errorf("missing CNTRA key %+v", key)
	}

	// Debit amount is used when no credit amount is present, and numeric
	// JSON amounts are accepted.
	key2, ok := NewKey("16-11-2025", "icici savings", "1200.50")
	if !ok {
		t.Fatal("building second key")
	}
	if !set.Contains(key2) {
		t.Errorf("missing CTRA key %+v", key2)
	}
}

func TestParseExport_CreditPreferredOverDebit(t *testing.T) {
	data := `{"lvbody": {"dspvchdetail": [{
		"dspvchtype": "CNTRA",
		"dspvchdate": "01-01-2025",
		"dspvchledaccount": "X",
		"dspvchcramt": "100",
		"dspvchdramt": "999"
	}]}}`

	set, err := ParseExport([]byte(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	credit, _ := NewKey("01-01-2025", "x", "100")
	debit, _ := NewKey("01-01-2025", "x", "999")
	if !set.Contains(credit) {
		t.Error("credit amount should build the key")
	}
	if set.Contains(debit) {
		t.Error("debit amount must not be used when credit is present")
	}
}

func TestParseExport_SingleObjectDetail(t *testing.T) {
	// A one-voucher export collapses the detail array to a bare object.
	data := `{"lvbody": {"dspvchdetail": {
		"dspvchtype": "CNTRA",
		"dspvchdate": "02-02-2025",
		"dspvchledaccount": "Solo",
		"dspvchcramt": "50"
	}}}`

	set, err := ParseExport([]byte(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(set) != 1 {
		t.Errorf("len(set) = %d, want 1", len(set))
	}
}

func TestParseExport_Encodings(t *testing.T) {
	encoders := []struct {
		name string
		enc  encoding.Encoding
	}{
		{"utf-8 with BOM", unicode.UTF8BOM},
		{"utf-16-le with BOM", unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)},
		{"utf-16-be with BOM", unicode.UTF16(unicode.BigEndian, unicode.UseBOM)},
		{"utf-16-le without BOM", unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
		{"utf-16-be without BOM", unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)},
		{"latin-1", charmap.ISO8859_1},
	}

	for _, tt := range encoders {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := tt.enc.NewEncoder().Bytes([]byte(sampleExport))
			if err != nil {
				t.Fatalf("encoding sample: %v", err)
			}

			set, err := ParseExport(raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(set) != 2 {
				t.Errorf("len(set) = %d, want 2", len(set))
			}
		})
	}
}

func TestParseExport_NotJSON(t *testing.T) {
	if _, err := ParseExport([]byte("definitely not json")); err == nil {
		t.Error("expected error for non-JSON input")
	}
}

func TestParseExport_EmptyDetail(t *testing.T) {
	set, err := ParseExport([]byte(`{"lvbody": {}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(set) != 0 {
		t.Errorf("len(set) = %d, want 0", len(set))
	}
}

func TestNewKey(t *testing.T) {
	tests := []struct {
		name   string
		date   string
		ledger string
		amount string
		ok     bool
	}{
		{"valid", "15-11-2025", "SBI Savings", "7,500.00", true},
		{"bad date", "xx", "SBI Savings", "7500", false},
		{"empty ledger", "15-11-2025", "  ", "7500", false},
		{"bad amount", "15-11-2025", "SBI Savings", "??", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := NewKey(tt.date, tt.ledger, tt.amount)
			if ok != tt.ok {
				t.Errorf("ok = %v, want %v", ok, tt.ok)
			}
		})
	}
}

func TestKeySymmetry(t *testing.T) {
	// A key built from a generated voucher equals the key built from the
	// equivalent export entry, despite textual differences.
	fromExport, ok := NewKey("15-11-2025", "  SBI SAVINGS ", "7,500.00")
	if !ok {
		t.Fatal("export key")
	}
	fromVoucher, ok := KeyFor("15-11-2025", "SBI Savings", 7500)
	if !ok {
		t.Fatal("voucher key")
	}
	if fromExport != fromVoucher {
		t.Errorf("keys differ: %+v vs %+v", fromExport, fromVoucher)
	}
}

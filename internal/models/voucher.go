package models

import "regexp"

// VoucherType identifies the accounting voucher variant. The set is closed;
// rule files naming anything else route their transactions to unclassified.
type VoucherType string

const (
	VoucherContra  VoucherType = "Contra"
	VoucherPayment VoucherType = "Payment"
	VoucherReceipt VoucherType = "Receipt"
	VoucherJournal VoucherType = "Journal"
)

// Rule is one classification directive: if any pattern matches a
// transaction's description, the transaction becomes a voucher of the given
// type against the given counter ledger. The rule set is immutable after
// load.
type Rule struct {
	Patterns    []*regexp.Regexp
	VoucherType VoucherType
	Ledger      string
	Priority    int
}

// Voucher is one generated double-entry record. Debit and credit amounts are
// always equal; the Cr/Dr marker columns are fixed tags required by the
// import format.
type Voucher struct {
	VoucherType VoucherType `json:"Voucher_Type"`
	Date        string      `json:"Date"`
	Description string      `json:"Description"`
	Narration   string      `json:"Narration"`
	CrLedger    string      `json:"Cr_Ledger"`
	Amount      float64     `json:"Amount"`
	CrMarker    string      `json:"Cr"`
	DrLedger    string      `json:"Dr_Ledger"`
	DrAmount    float64     `json:"Dr_Amount"`
	DrMarker    string      `json:"Dr"`
}

// VoucherColumns is the column order of the voucher import sheets, after the
// externally assigned Voucher_Num.
var VoucherColumns = []string{
	"Voucher_Type",
	"Date",
	"Description",
	"Narration",
	"Cr_Ledger",
	"Amount",
	"Cr",
	"Dr_Ledger",
	"Dr_Amount",
	"Dr",
}

// Partition is the complete, disjoint outcome of one classification run.
// Every input transaction lands in exactly one of the three collections,
// in input order.
type Partition struct {
	Vouchers     []Voucher     `json:"vouchers"`
	Duplicates   []Voucher     `json:"duplicates"`
	Unclassified []Transaction `json:"unclassified"`
}

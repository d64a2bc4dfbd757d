package models

// StatementRow is one extracted statement line with the seven standard
// fields. Values stay as raw text at this stage; coercion happens when the
// row becomes a Transaction.
type StatementRow struct {
	TransactionDate string
	ValueDate       string
	Description     string
	ReferenceNumber string
	Withdrawals     string
	Deposits        string
	RunningBalance  string
}

// StandardColumns is the column order used by the statement review workbook.
var StandardColumns = []string{
	"Transaction Date",
	"Value Date",
	"Description",
	"Reference Number",
	"Withdrawals",
	"Deposits",
	"Running Balance",
}

// Values returns the row's cells in StandardColumns order.
func (r StatementRow) Values() []string {
	return []string{
		r.TransactionDate,
		r.ValueDate,
		r.Description,
		r.ReferenceNumber,
		r.Withdrawals,
		r.Deposits,
		r.RunningBalance,
	}
}

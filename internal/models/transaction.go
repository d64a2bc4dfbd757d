package models

import (
	"github.com/insightdelivered/voucher-importer/internal/normalize"
)

// Direction classifies which way money moved relative to the bank account.
type Direction string

const (
	Inflow  Direction = "IN"
	Outflow Direction = "OUT"
	// DirectionUnknown is used when neither a withdrawal nor a deposit was
	// recorded for the row.
	DirectionUnknown Direction = ""
)

// DateDisplayFormat is the display form used for voucher and export dates.
const DateDisplayFormat = "02-01-2006"

// Transaction is one normalized bank movement, built once from a statement
// row and immutable thereafter.
type Transaction struct {
	Date        string    `json:"date"` // DD-MM-YYYY, empty if the value date did not parse
	Description string    `json:"description"`
	Reference   string    `json:"reference,omitempty"`
	Withdrawal  float64   `json:"withdrawal"`
	Deposit     float64   `json:"deposit"`
	Amount      float64   `json:"amount"`
	Direction   Direction `json:"direction"`
}

// NewTransaction converts one standardized statement row into a Transaction.
// Withdrawal and deposit cells coerce to zero when missing or unparseable.
// Exactly one side contributes the amount; a row with neither yields
// DirectionUnknown and a zero amount.
func NewTransaction(row StatementRow) Transaction {
	txn := Transaction{
		Description: normalize.CleanText(row.Description),
		Reference:   normalize.CleanText(row.ReferenceNumber),
		Withdrawal:  normalize.CoerceAmount(row.Withdrawals),
		Deposit:     normalize.CoerceAmount(row.Deposits),
	}

	if t, ok := normalize.Date(row.ValueDate); ok {
		txn.Date = t.Format(DateDisplayFormat)
	}

	switch {
	case txn.Deposit > 0:
		txn.Amount = txn.Deposit
		txn.Direction = Inflow
	case txn.Withdrawal > 0:
		txn.Amount = txn.Withdrawal
		txn.Direction = Outflow
	default:
		txn.Amount = 0
		txn.Direction = DirectionUnknown
	}

	return txn
}

// Package voucher turns rule-matched transactions into balanced double-entry
// vouchers and partitions a statement into vouchers, duplicates, and
// unclassified transactions.
package voucher

import (
	"github.com/insightdelivered/voucher-importer/internal/models"
)

// Builder produces vouchers against a fixed bank ledger. Each voucher type
// accepts only compatible transaction directions; an incompatible pairing is
// a failed build, not an error, and the caller routes the transaction to
// unclassified.
type Builder struct {
	BankLedger string
}

// Build dispatches on the rule's voucher type. The type set is closed: an
// unrecognized type fails the build the same way an incompatible direction
// does.
func (b Builder) Build(txn models.Transaction, rule models.Rule) (models.Voucher, bool) {
	switch rule.VoucherType {
	case models.VoucherContra:
		return b.buildContra(txn, rule)
	case models.VoucherPayment:
		return b.buildPayment(txn, rule)
	case models.VoucherReceipt:
		return b.buildReceipt(txn, rule)
	default:
		return models.Voucher{}, false
	}
}

// buildContra handles transfers between own accounts, so both directions are
// valid: money in debits the bank, money out credits it.
func (b Builder) buildContra(txn models.Transaction, rule models.Rule) (models.Voucher, bool) {
	switch txn.Direction {
	case models.Inflow:
		return b.format(txn, models.VoucherContra, b.BankLedger, rule.Ledger), true
	case models.Outflow:
		return b.format(txn, models.VoucherContra, rule.Ledger, b.BankLedger), true
	default:
		return models.Voucher{}, false
	}
}

func (b Builder) buildPayment(txn models.Transaction, rule models.Rule) (models.Voucher, bool) {
	if txn.Direction != models.Outflow {
		return models.Voucher{}, false
	}
	return b.format(txn, models.VoucherPayment, rule.Ledger, b.BankLedger), true
}

func (b Builder) buildReceipt(txn models.Transaction, rule models.Rule) (models.Voucher, bool) {
	if txn.Direction != models.Inflow {
		return models.Voucher{}, false
	}
	return b.format(txn, models.VoucherReceipt, b.BankLedger, rule.Ledger), true
}

// format fills the common voucher shape. Debit and credit amounts are both
// the transaction amount, keeping every voucher balanced by construction.
func (b Builder) format(txn models.Transaction, vtype models.VoucherType, drLedger, crLedger string) models.Voucher {
	return models.Voucher{
		VoucherType: vtype,
		Date:        txn.Date,
		Description: txn.Description,
		Narration:   "",
		CrLedger:    crLedger,
		Amount:      txn.Amount,
		CrMarker:    "CR",
		DrLedger:    drLedger,
		DrAmount:    txn.Amount,
		DrMarker:    "DR",
	}
}

package voucher

import (
	"github.com/insightdelivered/voucher-importer/internal/dedup"
	"github.com/insightdelivered/voucher-importer/internal/models"
	"github.com/insightdelivered/voucher-importer/internal/rules"
)

// Engine classifies transactions into a Partition. It holds only read-only
// state (rules, builder, preloaded duplicate keys) and performs no I/O, so
// Process is a pure fold over its input.
type Engine struct {
	rules    *rules.Engine
	builder  Builder
	existing dedup.Set // nil when no dedup source was supplied
}

// NewEngine wires a rule engine and bank ledger. existing may be nil to
// disable contra deduplication.
func NewEngine(ruleEngine *rules.Engine, bankLedger string, existing dedup.Set) *Engine {
	return &Engine{
		rules:    ruleEngine,
		builder:  Builder{BankLedger: bankLedger},
		existing: existing,
	}
}

// Process classifies every transaction, in input order, into exactly one of
// the partition's three collections. Order is preserved in each collection.
func (e *Engine) Process(transactions []models.Transaction) models.Partition {
	var part models.Partition

	for _, txn := range transactions {
		rule := e.rules.Match(txn)
		if rule == nil {
			part.Unclassified = append(part.Unclassified, txn)
			continue
		}

		v, ok := e.builder.Build(txn, *rule)
		if !ok {
			part.Unclassified = append(part.Unclassified, txn)
			continue
		}

		if v.VoucherType == models.VoucherContra && e.isDuplicate(v, *rule) {
			part.Duplicates = append(part.Duplicates, v)
			continue
		}

		part.Vouchers = append(part.Vouchers, v)
	}

	return part
}

// isDuplicate checks a contra voucher against the preloaded keys. The key is
// built from the counter ledger (the non-bank side); a key with any invalid
// component never matches.
func (e *Engine) isDuplicate(v models.Voucher, rule models.Rule) bool {
	if e.existing == nil {
		return false
	}
	key, ok := dedup.KeyFor(v.Date, rule.Ledger, v.Amount)
	if !ok {
		return false
	}
	return e.existing.Contains(key)
}

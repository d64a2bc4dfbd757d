// Package dedup loads contra entries from a previously exported ledger
// extract and turns them into comparison keys, so that the same physical
// bank-to-bank transfer is not imported twice across runs.
package dedup

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/insightdelivered/voucher-importer/internal/normalize"
)

// Key is the 3-tuple a contra voucher is compared on. Equality is exact
// tuple equality after normalization; there is no fuzzy matching.
type Key struct {
	Date   string // canonical yyyy-mm-dd
	Ledger string // lowercased, trimmed
	Amount float64
}

// Set holds the keys of previously exported contra vouchers.
type Set map[Key]struct{}

// Contains reports whether the key is present. A nil Set contains nothing.
func (s Set) Contains(k Key) bool {
	if s == nil {
		return false
	}
	_, ok := s[k]
	return ok
}

// NewKey normalizes the three components into a Key. ok is false when any
// component fails to normalize; such keys never match anything.
func NewKey(date, ledger, amount string) (Key, bool) {
	d, ok := normalize.Date(date)
	if !ok {
		return Key{}, false
	}
	l := normalize.Ledger(ledger)
	if l == "" {
		return Key{}, false
	}
	a, ok := normalize.Amount(amount)
	if !ok {
		return Key{}, false
	}
	return Key{Date: normalize.DateKey(d), Ledger: l, Amount: a}, true
}

// KeyFor builds the key for a freshly generated contra voucher, whose amount
// is already numeric. ok is false when the date or ledger fails to
// normalize.
func KeyFor(date, ledger string, amount float64) (Key, bool) {
	d, ok := normalize.Date(date)
	if !ok {
		return Key{}, false
	}
	l := normalize.Ledger(ledger)
	if l == "" {
		return Key{}, false
	}
	if amount < 0 {
		amount = -amount
	}
	return Key{Date: normalize.DateKey(d), Ledger: l, Amount: amount}, true
}

// exportPayload mirrors the relevant slice of the ledger export schema:
// voucher-detail entries nested under lvbody.dspvchdetail.
type exportPayload struct {
	LvBody struct {
		Details detailList `json:"dspvchdetail"`
	} `json:"lvbody"`
}

type voucherDetail struct {
	Type       string      `json:"dspvchtype"`
	Date       string      `json:"dspvchdate"`
	LedAccount string      `json:"dspvchledaccount"`
	CrAmount   *flexString `json:"dspvchcramt"`
	DrAmount   *flexString `json:"dspvchdramt"`
}

// detailList tolerates the export emitting a single object where a list is
// expected (a one-voucher export collapses the array).
type detailList []voucherDetail

func (d *detailList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var single voucherDetail
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*d = detailList{single}
		return nil
	}
	var many []voucherDetail
	if err := json.Unmarshal(data, &many); err != nil {
		*d = nil
		return nil
	}
	*d = detailList(many)
	return nil
}

// flexString accepts either a JSON string or a bare number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// contraTypeTags are the voucher-type codes the export uses for contra
// entries.
var contraTypeTags = map[string]bool{
	"CNTRA": true,
	"CTRA":  true,
}

// LoadExisting reads a ledger export file and returns the contra keys it
// contains.
func LoadExisting(path string) (Set, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ledger export %q: %w", path, err)
	}
	set, err := ParseExport(raw)
	if err != nil {
		return nil, fmt.Errorf("ledger export %q: %w", path, err)
	}
	return set, nil
}

// ParseExport decodes the export bytes (trying the known encodings in order)
// and collects a key for every contra-typed voucher detail. Entries with an
// unparseable date, empty ledger, or unparseable amount are skipped. The
// credit amount is preferred; the debit amount is used only when no credit
// amount is present.
func ParseExport(raw []byte) (Set, error) {
	payload, err := decodePayload(raw)
	if err != nil {
		return nil, err
	}

	existing := make(Set)
	for _, entry := range payload.LvBody.Details {
		tag := strings.ToUpper(strings.TrimSpace(entry.Type))
		if !contraTypeTags[tag] {
			continue
		}

		amount := entry.CrAmount
		if amount == nil {
			amount = entry.DrAmount
		}
		if amount == nil {
			continue
		}

		key, ok := NewKey(entry.Date, entry.LedAccount, string(*amount))
		if !ok {
			continue
		}
		existing[key] = struct{}{}
	}

	return existing, nil
}

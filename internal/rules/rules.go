// Package rules loads the classification rule file and matches transaction
// descriptions against it.
package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/insightdelivered/voucher-importer/internal/models"
)

// ruleSpec mirrors one entry of the JSON rule file. "pattern" accepts either
// a single string or a list of strings; "priority" defaults to 0.
type ruleSpec struct {
	Pattern     patternList `json:"pattern"`
	VoucherType string      `json:"voucher_type"`
	Ledger      string      `json:"ledger"`
	Priority    int         `json:"priority"`
}

type patternList []string

func (p *patternList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*p = patternList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("pattern must be a string or a list of strings")
	}
	*p = patternList(many)
	return nil
}

// Engine holds the loaded rule set, sorted by priority descending. Ties keep
// their listed order. The engine is read-only after construction and safe to
// share.
type Engine struct {
	rules []models.Rule
}

// Load reads and compiles a rule file.
func Load(path string) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule file %q: %w", path, err)
	}
	engine, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rule file %q: %w", path, err)
	}
	return engine, nil
}

// Parse compiles a JSON rule document into an Engine.
func Parse(data []byte) (*Engine, error) {
	var specs []ruleSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}

	rules := make([]models.Rule, 0, len(specs))
	for i, spec := range specs {
		if len(spec.Pattern) == 0 {
			return nil, fmt.Errorf("rule %d: missing pattern", i)
		}
		if spec.Ledger == "" {
			return nil, fmt.Errorf("rule %d: missing ledger", i)
		}

		rule := models.Rule{
			VoucherType: models.VoucherType(spec.VoucherType),
			Ledger:      spec.Ledger,
			Priority:    spec.Priority,
		}
		for _, pattern := range spec.Pattern {
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				return nil, fmt.Errorf("rule %d: bad pattern %q: %w", i, pattern, err)
			}
			rule.Patterns = append(rule.Patterns, re)
		}
		rules = append(rules, rule)
	}

	// Highest priority first; stable so ties keep file order.
	sort.SliceStable(rules, func(a, b int) bool {
		return rules[a].Priority > rules[b].Priority
	})

	return &Engine{rules: rules}, nil
}

// Len returns the number of loaded rules.
func (e *Engine) Len() int {
	return len(e.rules)
}

// Match returns the first rule (highest priority, then listed order) with
// any pattern matching the transaction's trimmed description, or nil when
// nothing matches. Patterns are unanchored, case-insensitive searches.
func (e *Engine) Match(txn models.Transaction) *models.Rule {
	description := strings.TrimSpace(txn.Description)

	for i := range e.rules {
		for _, pattern := range e.rules[i].Patterns {
			if pattern.MatchString(description) {
				return &e.rules[i]
			}
		}
	}

	return nil
}

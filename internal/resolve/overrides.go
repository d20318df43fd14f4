package resolve

import (
	"sort"

	"github.com/sells-group/recon-cli/internal/model"
)

// OverrideTable is the frozen curated-mapping table: normalized raw-name
// key to canonical roster name. Built and validated once per run, read-only
// afterwards. Override hits always beat fuzzy scoring.
type OverrideTable struct {
	targets map[string]string
	keys    []string
}

// NewOverrideTable validates and freezes a rule list. Rules whose raw sides
// normalize to the same key must agree on the target; disagreement is a
// configuration error, as is a raw side that normalizes to nothing.
// Identical duplicate rules collapse to one.
func NewOverrideTable(rules []model.OverrideRule) (*OverrideTable, error) {
	t := &OverrideTable{targets: make(map[string]string, len(rules))}
	for _, rule := range rules {
		key := Normalize(rule.Raw)
		if key == "" {
			return nil, configErrorf("override rule %q: key normalizes to empty", rule.Raw)
		}
		if existing, ok := t.targets[key]; ok {
			if existing != rule.Canonical {
				return nil, configErrorf("duplicate override key %q maps to both %q and %q", key, existing, rule.Canonical)
			}
			continue
		}
		t.targets[key] = rule.Canonical
		t.keys = append(t.keys, key)
	}
	sort.Strings(t.keys)
	return t, nil
}

// Resolve returns the canonical target for a raw name, if a rule covers it.
func (t *OverrideTable) Resolve(raw string) (string, bool) {
	target, ok := t.targets[Normalize(raw)]
	return target, ok
}

// Target returns the canonical target for an already-normalized key.
func (t *OverrideTable) Target(key string) (string, bool) {
	target, ok := t.targets[key]
	return target, ok
}

// Keys returns the normalized keys in lexicographic order.
func (t *OverrideTable) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// RedundantKeys returns, in lexicographic order, the keys that normalize to
// the same string as their canonical target. Exact matching would land such
// records on the same member without a rule, unless the roster holds the
// name twice.
func (t *OverrideTable) RedundantKeys() []string {
	var out []string
	for _, key := range t.keys {
		if Normalize(t.targets[key]) == key {
			out = append(out, key)
		}
	}
	return out
}

// Len returns the number of distinct rules.
func (t *OverrideTable) Len() int { return len(t.targets) }

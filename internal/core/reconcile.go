package core

import (
	"strings"

	"github.com/jlfwebstudio/tabela-node-backend/internal/schema"
)

// MinFuzzyLength is the shortest normalized string allowed on the contained
// side of a fuzzy match. It keeps headers like "ID" or "OS" from matching
// every column that happens to contain those letters.
const MinFuzzyLength = 4

// MatchRule records which rule bound a header to a canonical column.
type MatchRule string

const (
	RuleExact MatchRule = "exact"
	RuleAlias MatchRule = "alias"
	RuleFuzzy MatchRule = "fuzzy"
)

// Binding ties one canonical column to a source header.
type Binding struct {
	Column string    `json:"column"`
	Header string    `json:"header"`
	Index  int       `json:"index"`
	Rule   MatchRule `json:"rule"`
}

// Mapping is the reconciled header layout of one file: for every canonical
// column, which source header (if any) supplies its values.
type Mapping struct {
	columns  []string
	bindings []*Binding // aligned with columns; nil when unbound
}

// Binding returns the binding of a canonical column.
func (m *Mapping) Binding(column string) (Binding, bool) {
	for i, c := range m.columns {
		if c == column && m.bindings[i] != nil {
			return *m.bindings[i], true
		}
	}
	return Binding{}, false
}

// Bindings returns the bound columns in schema order.
func (m *Mapping) Bindings() []Binding {
	var out []Binding
	for _, b := range m.bindings {
		if b != nil {
			out = append(out, *b)
		}
	}
	return out
}

// Unmatched returns canonical columns no header was bound to.
func (m *Mapping) Unmatched() []string {
	var out []string
	for i, b := range m.bindings {
		if b == nil {
			out = append(out, m.columns[i])
		}
	}
	return out
}

// sourceIndex returns the header position feeding schema column i, or -1.
func (m *Mapping) sourceIndex(i int) int {
	if b := m.bindings[i]; b != nil {
		return b.Index
	}
	return -1
}

// Reconcile binds the headers of a file to the columns of s.
//
// Each column takes the first header, in file order, matched by the strongest
// rule available to it: an exact match, then an alias-table match on the
// normalized header, then a fuzzy containment match. Exact and alias matches
// are settled for every column before any fuzzy match is attempted. Columns
// are reconciled independently, so one header may feed several columns.
// The result depends only on headers and s.
func Reconcile(headers []string, s *schema.Schema) *Mapping {
	names := s.Names()
	m := &Mapping{
		columns:  names,
		bindings: make([]*Binding, len(names)),
	}

	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = schema.Normalize(h)
	}

	bind := func(col, idx int, rule MatchRule) {
		m.bindings[col] = &Binding{
			Column: names[col],
			Header: headers[idx],
			Index:  idx,
			Rule:   rule,
		}
	}

	for col, name := range names {
		for idx, h := range headers {
			if strings.TrimSpace(h) == name {
				bind(col, idx, RuleExact)
				break
			}
		}
	}

	for col, name := range names {
		if m.bindings[col] != nil {
			continue
		}
		for idx, key := range normalized {
			if target, ok := s.Lookup(key); ok && target == name {
				bind(col, idx, RuleAlias)
				break
			}
		}
	}

	for col, name := range names {
		if m.bindings[col] != nil {
			continue
		}
		want := schema.Normalize(name)
		for idx, key := range normalized {
			if fuzzyMatch(key, want) {
				bind(col, idx, RuleFuzzy)
				break
			}
		}
	}

	return m
}

// fuzzyMatch reports whether one normalized string contains the other and the
// contained side is long enough to be meaningful.
func fuzzyMatch(header, column string) bool {
	if header == "" || column == "" {
		return false
	}
	switch {
	case strings.Contains(header, column):
		return len(column) >= MinFuzzyLength
	case strings.Contains(column, header):
		return len(header) >= MinFuzzyLength
	}
	return false
}

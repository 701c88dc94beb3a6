// Package schema defines the canonical column sets that uploaded CSV exports
// are reconciled against.
//
// A Schema is immutable once built: the ordered column list and the alias
// table are fixed by New and only read afterwards, so one value can be shared
// by every request without locking.
package schema

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CleanFunc is an optional per-column value transformation applied after trimming.
type CleanFunc func(string) string

// Column describes one canonical output field.
type Column struct {
	Name    string    // Output key, exactly as the frontend expects it
	Aliases []string  // Alternative header spellings found in exports
	Clean   CleanFunc // Optional field-specific cleanup
}

// Schema is an ordered set of canonical columns plus the alias table derived from them.
type Schema struct {
	columns []Column
	names   []string
	index   map[string]int
	aliases map[string]string // normalized header -> canonical column name
}

// New builds a Schema from columns in output order.
// It fails when two columns share a name or when one normalized alias would
// resolve to two different columns.
func New(columns ...Column) (*Schema, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("schema: no columns")
	}

	s := &Schema{
		columns: make([]Column, len(columns)),
		names:   make([]string, len(columns)),
		index:   make(map[string]int, len(columns)),
		aliases: make(map[string]string),
	}

	var errs []string
	for i, col := range columns {
		name := strings.TrimSpace(col.Name)
		if name == "" {
			errs = append(errs, fmt.Sprintf("column %d has an empty name", i))
			continue
		}
		if _, dup := s.index[name]; dup {
			errs = append(errs, fmt.Sprintf("duplicate column %q", name))
			continue
		}

		col.Name = name
		col.Aliases = append([]string(nil), col.Aliases...)
		s.columns[i] = col
		s.names[i] = name
		s.index[name] = i

		for _, alias := range append([]string{name}, col.Aliases...) {
			key := Normalize(alias)
			if key == "" {
				errs = append(errs, fmt.Sprintf("alias %q of %q normalizes to nothing", alias, name))
				continue
			}
			if owner, taken := s.aliases[key]; taken && owner != name {
				errs = append(errs, fmt.Sprintf("alias %q maps to both %q and %q", alias, owner, name))
				continue
			}
			s.aliases[key] = name
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("schema: %s", strings.Join(errs, "; "))
	}
	return s, nil
}

// MustNew is New for package-level schemas; it panics on a bad definition.
func MustNew(columns ...Column) *Schema {
	s, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of canonical columns.
func (s *Schema) Len() int { return len(s.columns) }

// Names returns the canonical column names in output order.
// The returned slice is a copy.
func (s *Schema) Names() []string {
	return append([]string(nil), s.names...)
}

// Column returns the i-th column.
func (s *Schema) Column(i int) Column { return s.columns[i] }

// Index returns the position of a canonical column, or -1.
func (s *Schema) Index(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// Lookup resolves an already-normalized header through the alias table.
func (s *Schema) Lookup(normalized string) (string, bool) {
	name, ok := s.aliases[normalized]
	return name, ok
}

// AliasCount returns the number of entries in the alias table.
func (s *Schema) AliasCount() int { return len(s.aliases) }

// Normalize folds a header for comparison: diacritics are removed, everything
// that is not an ASCII letter or digit is dropped and the result is upper-cased.
//
//	Normalize("Técnico")    == "TECNICO"
//	Normalize("CNPJ / CPF") == "CNPJCPF"
func Normalize(s string) string {
	// transform.Chain keeps internal buffers, so each call gets its own.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}

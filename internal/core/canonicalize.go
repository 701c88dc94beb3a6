package core

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/jlfwebstudio/tabela-node-backend/internal/schema"
)

// Row is one canonical record: a value for every schema column, in schema
// order. Missing values are empty strings, never absent.
type Row struct {
	columns []string
	values  []string
}

// NewRow builds a Row from parallel column and value slices.
func NewRow(columns, values []string) Row {
	return Row{columns: columns, values: values}
}

// Get returns the value of a canonical column, or "" if the column is unknown.
func (r Row) Get(column string) string {
	for i, c := range r.columns {
		if c == column {
			return r.values[i]
		}
	}
	return ""
}

// Values returns the values in schema order.
func (r Row) Values() []string { return append([]string(nil), r.values...) }

// Map returns the row as a column-keyed map.
func (r Row) Map() map[string]string {
	m := make(map[string]string, len(r.columns))
	for i, c := range r.columns {
		m[c] = r.values[i]
	}
	return m
}

// MarshalJSON writes the row as an object whose keys follow schema order,
// so the output matches the column order of the table the frontend renders.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a row object. Keys keep the order they appear in.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}
	r.columns, r.values = nil, nil
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var val string
		if err := dec.Decode(&val); err != nil {
			return err
		}
		r.columns = append(r.columns, key)
		r.values = append(r.values, val)
	}
	_, err := dec.Token()
	return err
}

// Canonicalize projects a raw row onto the schema through m.
// Every value is trimmed and then passed through its column's Clean func.
// Applying Canonicalize to a row that is already canonical changes nothing.
func Canonicalize(raw RawRow, m *Mapping, s *schema.Schema) Row {
	n := s.Len()
	values := make([]string, n)
	for i := 0; i < n; i++ {
		idx := m.sourceIndex(i)
		if idx < 0 || idx >= len(raw.Values) {
			continue
		}
		v := strings.TrimSpace(raw.Values[idx])
		if clean := s.Column(i).Clean; clean != nil {
			v = clean(v)
		}
		values[i] = v
	}
	return Row{columns: m.columns, values: values}
}

package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Aliases maps a canonical column name to extra header spellings.
//
// In YAML:
//
//	Cliente:
//	  - Nome Fantasia
//	Técnico:
//	  - Executor
//
// In TOML:
//
//	Cliente = ["Nome Fantasia"]
//	"Técnico" = ["Executor"]
type Aliases map[string][]string

// ParseAliases decodes alias data. format is "yaml" or "toml".
func ParseAliases(data []byte, format string) (Aliases, error) {
	var a Aliases
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("parse yaml aliases: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("parse toml aliases: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported alias format %q (want yaml or toml)", format)
	}
	return a, nil
}

// LoadAliasFile reads an alias file, picking the format from its extension.
func LoadAliasFile(path string) (Aliases, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alias file: %w", err)
	}
	return ParseAliases(data, strings.TrimPrefix(filepath.Ext(path), "."))
}

// WithAliases returns a new Schema with extra aliases appended to the named
// columns. The receiver is left untouched. Unknown columns and aliases that
// collide with another column's spellings are errors.
func (s *Schema) WithAliases(extra Aliases) (*Schema, error) {
	var unknown []string
	for name := range extra {
		if s.Index(name) < 0 {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("schema: aliases for unknown columns %q", unknown)
	}

	columns := make([]Column, len(s.columns))
	for i, col := range s.columns {
		col.Aliases = append(append([]string(nil), col.Aliases...), extra[col.Name]...)
		columns[i] = col
	}
	return New(columns...)
}

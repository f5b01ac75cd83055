package duckdb

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds DuckDB-specific configuration.
// Parsed from core.AdapterConfig.Params using mapstructure.
type Params struct {
	// ReadOnly opens the database file with access_mode=read_only.
	ReadOnly bool `mapstructure:"read_only"`

	// Extensions to load on every connection (e.g. "json", "icu").
	Extensions []string `mapstructure:"extensions"`

	// Settings applied with SET on every connection (e.g. memory_limit, threads).
	Settings map[string]string `mapstructure:"settings"`
}

// parseParams decodes the free-form params map of a target.
func parseParams(raw map[string]any) (*Params, error) {
	p := &Params{}
	if len(raw) == 0 {
		return p, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           p,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create params decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid duckdb params: %w", err)
	}
	return p, nil
}

// initStatements returns the statements run when a connection opens.
// Settings are sorted so the order is stable.
func (p *Params) initStatements() []string {
	var stmts []string
	for _, ext := range p.Extensions {
		stmts = append(stmts, fmt.Sprintf("LOAD %s", ext))
	}

	keys := make([]string, 0, len(p.Settings))
	for k := range p.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := strings.ReplaceAll(p.Settings[k], "'", "''")
		stmts = append(stmts, fmt.Sprintf("SET %s = '%s'", k, v))
	}
	return stmts
}

// dsn builds the connection string for path.
func (p *Params) dsn(path string) string {
	if p.ReadOnly && path != ":memory:" {
		return path + "?access_mode=read_only"
	}
	return path
}

package config

import (
	"strings"
	"time"

	"github.com/dbsee/dbsee/pkg/core"
)

// Default configuration values.
const (
	DefaultIdentifierColumn    = "cig"
	DefaultPrimaryTable        = "aggiudicatari_data"
	DefaultPrimaryNameColumn   = "denominazione"
	DefaultPrimaryRowCap       = 10
	DefaultPriorityRowCap      = 5
	DefaultOtherRowCap         = 3
	DefaultDirectMatchCap      = 50
	DefaultDirectIdentifierCap = 20
	DefaultMinYear             = 1900
	DefaultMaxYear             = 2100
	DefaultMinNameLength       = 2
	DefaultPageSize            = 20
	DefaultMaxPageSize         = 100

	DefaultPort              = 8000
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultShutdownTimeout   = 5 * time.Second
	DefaultSessionMaxAge     = 24 * time.Hour
)

// DefaultSearchConfig returns the search settings used when nothing is configured.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		IdentifierColumn:  DefaultIdentifierColumn,
		PrimaryTable:      DefaultPrimaryTable,
		PrimaryNameColumn: DefaultPrimaryNameColumn,
		PriorityTables: []string{
			"aggiudicatari_data",
			"cig_data",
			"stazioni_appaltanti_data",
			"centri_di_costo_data",
			"partecipanti_data",
		},
		NameTerms: []string{
			"denominazione", "ragione_sociale", "nome", "ditta", "azienda",
			"societa", "impresa", "company", "denominacion", "operatore", "name",
		},
		YearTokens:     []string{"anno", "year"},
		DateTokens:     []string{"data", "date"},
		PrimaryRowCap:  DefaultPrimaryRowCap,
		PriorityRowCap: DefaultPriorityRowCap,
		OtherRowCap:    DefaultOtherRowCap,
		DirectColumns: []string{
			"cig", "denominazione", "codice_fiscale", "tipo_soggetto", "ruolo", "id_aggiudicazione",
		},
		DirectMatchCap:      DefaultDirectMatchCap,
		DirectIdentifierCap: DefaultDirectIdentifierCap,
		MinYear:             DefaultMinYear,
		MaxYear:             DefaultMaxYear,
		MinNameLength:       DefaultMinNameLength,
		DefaultPageSize:     DefaultPageSize,
		MaxPageSize:         DefaultMaxPageSize,
		Group: GroupRule{
			MarkerColumn:    "tipo_soggetto",
			MarkerPatterns:  []string{"%ATI%", "%RAGGRUPPAMENT%"},
			AggregateFields: []string{"denominazione", "codice_fiscale"},
		},
	}
}

// DefaultServerConfig returns the HTTP server defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:              DefaultPort,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		ShutdownTimeout:   DefaultShutdownTimeout,
	}
}

// ApplySearchDefaults fills zero-valued numeric and string settings. Lists
// left empty stay empty, except the ones the engine cannot work without.
func ApplySearchDefaults(s *SearchConfig) {
	if s == nil {
		return
	}
	d := DefaultSearchConfig()
	setString(&s.IdentifierColumn, d.IdentifierColumn)
	setString(&s.PrimaryTable, d.PrimaryTable)
	setString(&s.PrimaryNameColumn, d.PrimaryNameColumn)
	setInt(&s.PrimaryRowCap, d.PrimaryRowCap)
	setInt(&s.PriorityRowCap, d.PriorityRowCap)
	setInt(&s.OtherRowCap, d.OtherRowCap)
	setInt(&s.DirectMatchCap, d.DirectMatchCap)
	setInt(&s.DirectIdentifierCap, d.DirectIdentifierCap)
	setInt(&s.MinYear, d.MinYear)
	setInt(&s.MaxYear, d.MaxYear)
	setInt(&s.MinNameLength, d.MinNameLength)
	setInt(&s.DefaultPageSize, d.DefaultPageSize)
	setInt(&s.MaxPageSize, d.MaxPageSize)
	if len(s.NameTerms) == 0 {
		s.NameTerms = d.NameTerms
	}
	if len(s.YearTokens) == 0 && len(s.DateTokens) == 0 {
		s.YearTokens = d.YearTokens
		s.DateTokens = d.DateTokens
	}
	if len(s.DirectColumns) == 0 {
		s.DirectColumns = d.DirectColumns
	}
	for i, t := range s.NameTerms {
		s.NameTerms[i] = strings.ToLower(t)
	}
}

// ApplyServerDefaults fills zero-valued server settings.
func ApplyServerDefaults(s *ServerConfig) {
	if s == nil {
		return
	}
	setInt(&s.Port, DefaultPort)
	if s.ReadHeaderTimeout <= 0 {
		s.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if s.ShutdownTimeout <= 0 {
		s.ShutdownTimeout = DefaultShutdownTimeout
	}
}

// ApplyAuthDefaults fills zero-valued auth settings.
func ApplyAuthDefaults(a *AuthConfig) {
	if a == nil {
		return
	}
	if a.SessionMaxAge <= 0 {
		a.SessionMaxAge = DefaultSessionMaxAge
	}
}

// ApplyTargetDefaults applies default values to a TargetConfig based on the target type.
func ApplyTargetDefaults(t *core.TargetConfig) {
	if t == nil {
		return
	}

	// MySQL introspects the connection database unless a schema is set.
	if t.Schema == "" && t.Type != "mysql" {
		t.Schema = DefaultSchemaForType(t.Type)
	}

	switch t.Type {
	case "postgres":
		if t.Port == 0 {
			t.Port = 5432
		}
	case "mysql":
		if t.Port == 0 {
			t.Port = 3306
		}
	}
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func setInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

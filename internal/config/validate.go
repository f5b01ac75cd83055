package config

import "fmt"

// Validate checks the search settings for values the engine cannot honor.
func (s *SearchConfig) Validate() error {
	if s.MinYear > s.MaxYear {
		return fmt.Errorf("search.min_year (%d) is after search.max_year (%d)", s.MinYear, s.MaxYear)
	}
	if s.DefaultPageSize > s.MaxPageSize {
		return fmt.Errorf("search.default_page_size (%d) exceeds search.max_page_size (%d)", s.DefaultPageSize, s.MaxPageSize)
	}
	for name, v := range map[string]int{
		"primary_row_cap":       s.PrimaryRowCap,
		"priority_row_cap":      s.PriorityRowCap,
		"other_row_cap":         s.OtherRowCap,
		"direct_match_cap":      s.DirectMatchCap,
		"direct_identifier_cap": s.DirectIdentifierCap,
		"min_name_length":       s.MinNameLength,
	} {
		if v < 0 {
			return fmt.Errorf("search.%s must not be negative", name)
		}
	}
	return nil
}

// Validate checks the auth settings.
func (a *AuthConfig) Validate() error {
	for token, user := range a.Tokens {
		if token == "" {
			return fmt.Errorf("auth.tokens contains an empty token")
		}
		if user == "" {
			return fmt.Errorf("auth.tokens entry has no username")
		}
	}
	if a.SessionSecret != "" && len(a.SessionSecret) < 32 {
		return fmt.Errorf("auth.session_secret must be at least 32 bytes")
	}
	return nil
}

package services

import (
	"strings"

	"github.com/dashlytics/insight-engine/pkg/models"
)

// maxEntitySuggestions caps the "did you mean" list on a failed lookup.
const maxEntitySuggestions = 5

// EntityMatch is the outcome of resolving a free-text entity hint against a
// column's values. Exact is empty when nothing matched; Suggestions then
// carries up to maxEntitySuggestions near misses.
type EntityMatch struct {
	Exact       string
	Suggestions []string
}

// Found reports whether the hint resolved to a concrete value.
func (m EntityMatch) Found() bool { return m.Exact != "" }

// ResolveEntity matches a hint against the distinct values of a column by
// case-insensitive bidirectional substring, taking the first match in
// value-appearance order. Missing-style cells are never candidates (the
// distinct list excludes them). When nothing matches, the suggestions are
// the distinct values sharing at least one whitespace-delimited token with
// the hint.
func ResolveEntity(hint string, column *models.ColumnDescriptor, dataset *models.Dataset) EntityMatch {
	hint = strings.TrimSpace(hint)
	if hint == "" || column == nil || dataset == nil {
		return EntityMatch{}
	}
	lowerHint := strings.ToLower(hint)
	values := column.DistinctValues(dataset)

	for _, v := range values {
		lv := strings.ToLower(v)
		if strings.Contains(lv, lowerHint) || strings.Contains(lowerHint, lv) {
			return EntityMatch{Exact: v}
		}
	}

	hintTokens := tokenSet(lowerHint)
	var suggestions []string
	for _, v := range values {
		if sharesToken(strings.ToLower(v), hintTokens) {
			suggestions = append(suggestions, v)
			if len(suggestions) == maxEntitySuggestions {
				break
			}
		}
	}
	return EntityMatch{Suggestions: suggestions}
}

// ResolveEntityAcross tries the candidate columns in order and returns the
// first exact match together with the column it came from. When no column
// has an exact match, suggestions pool across all columns, deduplicated, up
// to the usual cap, and the returned column is nil.
func ResolveEntityAcross(hint string, columns []*models.ColumnDescriptor, dataset *models.Dataset) (EntityMatch, *models.ColumnDescriptor) {
	for _, col := range columns {
		if m := ResolveEntity(hint, col, dataset); m.Found() {
			return m, col
		}
	}

	var pooled []string
	seen := make(map[string]struct{})
	for _, col := range columns {
		for _, s := range ResolveEntity(hint, col, dataset).Suggestions {
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			pooled = append(pooled, s)
			if len(pooled) == maxEntitySuggestions {
				return EntityMatch{Suggestions: pooled}, nil
			}
		}
	}
	return EntityMatch{Suggestions: pooled}, nil
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}

func sharesToken(value string, tokens map[string]struct{}) bool {
	for _, tok := range strings.Fields(value) {
		if _, ok := tokens[tok]; ok {
			return true
		}
	}
	return false
}

package services

import (
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/dashlytics/insight-engine/pkg/models"
)

// columnNameNormalizer strips the punctuation that separates header text from
// unit or code suffixes, so "Project Status (R/G/Y)" and "status" compare on
// the same footing.
var columnNameNormalizer = strings.NewReplacer("(", "", ")", "", "/", "", "-", "", " ", "")

// NormalizeColumnName lower-cases a header or hint and removes parentheses,
// slashes, hyphens, and spaces.
func NormalizeColumnName(name string) string {
	return columnNameNormalizer.Replace(strings.ToLower(strings.TrimSpace(name)))
}

// ResolveColumn maps a free-text hint from a user question to a schema
// column. Matching runs over normalized names in two passes: first a
// bidirectional substring test, then, for multi-word hints only, a pass that
// accepts a candidate containing every hint word longer than two characters.
// Both passes scan in declaration order and take the first hit, so the same
// hint against the same schema always lands on the same column. Returns nil
// when nothing matches; callers report that rather than guessing.
func ResolveColumn(hint string, schema []models.ColumnDescriptor) *models.ColumnDescriptor {
	normalized := NormalizeColumnName(hint)
	if normalized == "" {
		return nil
	}

	for i := range schema {
		candidate := NormalizeColumnName(schema[i].Name)
		if candidate == "" {
			continue
		}
		if strings.Contains(candidate, normalized) || strings.Contains(normalized, candidate) {
			return &schema[i]
		}
	}

	if len(strings.Fields(hint)) < 2 {
		return nil
	}
	words := significantWords(hint)
	if len(words) == 0 {
		return nil
	}
	for i := range schema {
		candidate := NormalizeColumnName(schema[i].Name)
		if candidate == "" {
			continue
		}
		if containsAllWords(candidate, words) {
			return &schema[i]
		}
	}
	return nil
}

// significantWords returns the normalized hint words longer than two
// characters. Connectives like "of" and "by" are too short to anchor a
// match on.
func significantWords(hint string) []string {
	var words []string
	for _, w := range strings.Fields(hint) {
		w = columnNameNormalizer.Replace(strings.ToLower(w))
		if len(w) > 2 {
			words = append(words, w)
		}
	}
	return words
}

func containsAllWords(candidate string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(candidate, w) {
			return false
		}
	}
	return true
}

// resolveColumnHint resolves a hint, retrying with its singular form so
// plural phrasing ("customers", "project statuses") still lands on a
// column.
func resolveColumnHint(hint string, schema []models.ColumnDescriptor) *models.ColumnDescriptor {
	if col := ResolveColumn(hint, schema); col != nil {
		return col
	}
	if singular := inflection.Singular(hint); singular != hint {
		return ResolveColumn(singular, schema)
	}
	return nil
}

// FindColumnByKeywords returns the first column, in declaration order, whose
// normalized name contains any of the keywords. A non-empty role restricts
// candidates to that role.
func FindColumnByKeywords(schema []models.ColumnDescriptor, role models.ColumnRole, keywords ...string) *models.ColumnDescriptor {
	for i := range schema {
		if role != "" && schema[i].Role != role {
			continue
		}
		name := NormalizeColumnName(schema[i].Name)
		for _, kw := range keywords {
			if kw = NormalizeColumnName(kw); kw != "" && strings.Contains(name, kw) {
				return &schema[i]
			}
		}
	}
	return nil
}

// Keyword tables for the domain columns the question rules lean on.
// "exective" is a misspelling that ships in real status sheets; dropping it
// breaks resolution against those exports.
var (
	statusColumnKeywords    = []string{"status", "health", "rag"}
	revenueColumnKeywords   = []string{"revenue", "sales", "income", "amount", "price", "cost"}
	locationColumnKeywords  = []string{"location", "city", "country", "region", "site", "office"}
	executiveColumnKeywords = []string{"executive", "exective", "owner", "manager", "lead"}
	entityColumnKeywords    = []string{"customer", "client", "name", "project", "account", "company"}
)

// StatusColumn returns the dataset's traffic-light status column, or nil.
func StatusColumn(schema []models.ColumnDescriptor) *models.ColumnDescriptor {
	return FindColumnByKeywords(schema, models.ColumnRoleCategorical, statusColumnKeywords...)
}

// RevenueColumn returns the primary money column, or nil. Only numeric
// columns qualify: a categorical "Revenue Band" column cannot be summed.
func RevenueColumn(schema []models.ColumnDescriptor) *models.ColumnDescriptor {
	return FindColumnByKeywords(schema, models.ColumnRoleNumeric, revenueColumnKeywords...)
}

// LocationColumn returns the column describing where an entity sits, or nil.
func LocationColumn(schema []models.ColumnDescriptor) *models.ColumnDescriptor {
	return FindColumnByKeywords(schema, models.ColumnRoleCategorical, locationColumnKeywords...)
}

// ExecutiveColumn returns the owner/executive column, or nil.
func ExecutiveColumn(schema []models.ColumnDescriptor) *models.ColumnDescriptor {
	return FindColumnByKeywords(schema, models.ColumnRoleCategorical, executiveColumnKeywords...)
}

// EntityColumns returns the categorical columns likely to hold entity names
// (customers, projects, owners), in declaration order. Status columns never
// qualify even when their header mentions "project". When no column name
// matches the keyword table, every non-status categorical column is a
// candidate; person lookups then scan them all.
func EntityColumns(schema []models.ColumnDescriptor) []*models.ColumnDescriptor {
	var named, all []*models.ColumnDescriptor
	for i := range schema {
		if schema[i].Role != models.ColumnRoleCategorical {
			continue
		}
		name := NormalizeColumnName(schema[i].Name)
		if containsAnyKeyword(name, statusColumnKeywords) {
			continue
		}
		all = append(all, &schema[i])
		if containsAnyKeyword(name, entityColumnKeywords) {
			named = append(named, &schema[i])
		}
	}
	if len(named) > 0 {
		return named
	}
	return all
}

func containsAnyKeyword(name string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// TemporalColumns returns the temporal columns in declaration order.
func TemporalColumns(schema []models.ColumnDescriptor) []*models.ColumnDescriptor {
	var cols []*models.ColumnDescriptor
	for i := range schema {
		if schema[i].Role == models.ColumnRoleTemporal {
			cols = append(cols, &schema[i])
		}
	}
	return cols
}

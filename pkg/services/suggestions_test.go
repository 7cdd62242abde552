package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashlytics/insight-engine/pkg/models"
)

func TestSuggestQuestions_EmptyDataset(t *testing.T) {
	got := SuggestQuestions(&models.Dataset{}, nil)
	assert.Equal(t, emptyDataSuggestions, got)
}

func TestSuggestQuestions_FullSchema(t *testing.T) {
	dataset := &models.Dataset{
		Columns: []string{"Customer Name", "Project Status (R/G/Y)", "Total Revenue", "Start Date", "Exective"},
		Rows:    []models.Row{{"Customer Name": "Aramco Digital"}},
	}
	schema := []models.ColumnDescriptor{
		{Name: "Customer Name", Role: models.ColumnRoleCategorical},
		{Name: "Project Status (R/G/Y)", Role: models.ColumnRoleCategorical},
		{Name: "Total Revenue", Role: models.ColumnRoleNumeric},
		{Name: "Start Date", Role: models.ColumnRoleTemporal},
		{Name: "Exective", Role: models.ColumnRoleCategorical},
	}

	got := SuggestQuestions(dataset, schema)
	require.Len(t, got, maxSuggestions)
	assert.Equal(t, []string{
		"What's the distribution of project statuses?",
		"How many projects have status Red?",
		"What is the total revenue?",
		"List all customers",
		"Which executive has the most projects?",
		"What's the trend over time?",
	}, got)
}

func TestSuggestQuestions_SparseSchema(t *testing.T) {
	dataset := &models.Dataset{
		Columns: []string{"Widget", "Score"},
		Rows:    []models.Row{{"Widget": "A", "Score": "1"}},
	}
	schema := []models.ColumnDescriptor{
		{Name: "Widget", Role: models.ColumnRoleCategorical},
		{Name: "Score", Role: models.ColumnRoleNumeric},
	}

	got := SuggestQuestions(dataset, schema)
	assert.Equal(t, []string{
		"List all widgets",
		"Give me a summary of the data",
		"What columns are available?",
	}, got)
}

// Every dataset-backed suggestion must classify to a concrete intent, not
// the fallback, so the chips work without an AI provider.
func TestSuggestQuestions_AnswerableLocally(t *testing.T) {
	dataset := &models.Dataset{
		Columns: []string{"Customer Name", "Project Status (R/G/Y)", "Total Revenue", "Start Date", "Exective"},
		Rows: []models.Row{
			{"Customer Name": "Aramco Digital", "Project Status (R/G/Y)": "Red", "Total Revenue": "100", "Start Date": "2024-01-15", "Exective": "Bhavana Rao"},
		},
	}
	schema := []models.ColumnDescriptor{
		{Name: "Customer Name", Role: models.ColumnRoleCategorical},
		{Name: "Project Status (R/G/Y)", Role: models.ColumnRoleCategorical},
		{Name: "Total Revenue", Role: models.ColumnRoleNumeric},
		{Name: "Start Date", Role: models.ColumnRoleTemporal},
		{Name: "Exective", Role: models.ColumnRoleCategorical},
	}

	for _, q := range SuggestQuestions(dataset, schema) {
		intent := ClassifyQuestion(q, schema, dataset)
		assert.NotEqual(t, models.IntentFallback, intent.Kind, "suggestion %q fell through to fallback", q)
	}
}

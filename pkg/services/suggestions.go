package services

import (
	"fmt"
	"strings"

	"github.com/dashlytics/insight-engine/pkg/models"
)

// maxSuggestions caps the suggestion chips shown above the chat input.
const maxSuggestions = 6

// emptyDataSuggestions are shown before any data is loaded.
var emptyDataSuggestions = []string{
	"What kind of data analysis can you help me with?",
	"What insights can you provide once I load data?",
	"What features are available in this analytics platform?",
}

// SuggestQuestions proposes questions the loaded columns can actually
// answer. Every suggestion is phrased so the local interpreter resolves it
// even when no AI provider is configured.
func SuggestQuestions(dataset *models.Dataset, schema []models.ColumnDescriptor) []string {
	if dataset.IsEmpty() {
		return emptyDataSuggestions
	}

	var out []string
	if StatusColumn(schema) != nil {
		out = append(out,
			"What's the distribution of project statuses?",
			"How many projects have status Red?")
	}
	if RevenueColumn(schema) != nil {
		out = append(out, "What is the total revenue?")
	}
	if entity := EntityColumns(schema); len(entity) > 0 {
		out = append(out, fmt.Sprintf("List all %s", strings.ToLower(groupNoun(entity[0].Name))))
	}
	if ExecutiveColumn(schema) != nil {
		out = append(out, "Which executive has the most projects?")
	}
	if len(TemporalColumns(schema)) > 0 {
		out = append(out, "What's the trend over time?")
	}
	out = append(out,
		"Give me a summary of the data",
		"What columns are available?")

	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

// Package prompts builds the prompt strings sent to AI providers. Keeping
// them here, assembled from plain context structs, makes the exact wording
// testable without touching provider clients.
package prompts

import (
	"fmt"
	"strings"
)

// ColumnContext describes one column for the analysis prompt.
type ColumnContext struct {
	Name    string
	Kind    string // numeric, categorical, temporal
	NonNull int
	Unique  int

	// Samples carries up to three example values for categorical columns.
	Samples []string

	// Min/Max are the numeric range, valid when HasRange is set.
	Min      float64
	Max      float64
	HasRange bool
}

// StatusShare is one status value's row count.
type StatusShare struct {
	Value string
	Count int
}

// DatasetContext is the bounded dataset description embedded in analysis
// prompts. It never contains raw rows.
type DatasetContext struct {
	Rows    int
	Columns []ColumnContext

	// StatusDistribution holds the top status values when a status column
	// exists.
	StatusDistribution []StatusShare

	// TotalRevenue is set when a revenue column exists.
	TotalRevenue *float64
}

// BuildDatasetContext renders the dataset description shared by every
// analysis prompt.
func BuildDatasetContext(ctx DatasetContext) string {
	if ctx.Rows == 0 || len(ctx.Columns) == 0 {
		return "No data available"
	}

	var b strings.Builder
	b.WriteString("Dataset Overview:\n")
	fmt.Fprintf(&b, "- Rows: %d\n", ctx.Rows)
	fmt.Fprintf(&b, "- Columns: %d\n", len(ctx.Columns))
	b.WriteString("\nColumn Information:\n")

	for _, col := range ctx.Columns {
		switch {
		case col.HasRange:
			fmt.Fprintf(&b, "- %s (%s): %d non-null, range: %.2f to %.2f\n",
				col.Name, col.Kind, col.NonNull, col.Min, col.Max)
		case len(col.Samples) > 0:
			fmt.Fprintf(&b, "- %s (%s): %d non-null, %d unique. Sample: [%s]\n",
				col.Name, col.Kind, col.NonNull, col.Unique, strings.Join(col.Samples, ", "))
		default:
			fmt.Fprintf(&b, "- %s (%s): %d non-null, %d unique\n",
				col.Name, col.Kind, col.NonNull, col.Unique)
		}
	}

	if len(ctx.StatusDistribution) > 0 || ctx.TotalRevenue != nil {
		b.WriteString("\nKey Insights:\n")
		if len(ctx.StatusDistribution) > 0 {
			parts := make([]string, 0, len(ctx.StatusDistribution))
			for _, s := range ctx.StatusDistribution {
				parts = append(parts, fmt.Sprintf("%s: %d", s.Value, s.Count))
			}
			fmt.Fprintf(&b, "- Status distribution: %s\n", strings.Join(parts, ", "))
		}
		if ctx.TotalRevenue != nil {
			fmt.Fprintf(&b, "- Total revenue: $%s\n", formatThousands(*ctx.TotalRevenue))
		}
	}
	return b.String()
}

// BuildAnalysisSystemPrompt creates the system prompt for AI-delegated
// analysis, embedding the dataset context and the visualization directive
// grammar the response parser understands.
func BuildAnalysisSystemPrompt(datasetContext string) string {
	var b strings.Builder
	b.WriteString("You are an expert data analyst helping analyze business data. ")
	b.WriteString("You have access to a dataset with the following structure:\n\n")
	b.WriteString(datasetContext)
	b.WriteString("\n\nYour role is to:\n")
	b.WriteString("1. Provide insightful analysis based on the data\n")
	b.WriteString("2. Identify trends, patterns, and anomalies\n")
	b.WriteString("3. Give actionable recommendations\n")
	b.WriteString("4. Suggest specific visualizations when relevant\n")
	b.WriteString("5. Be concise but comprehensive\n\n")
	b.WriteString("When suggesting visualizations, use this format:\n")
	b.WriteString("VISUALIZATION: [chart_type]|[x_column]|[y_column]|[color_column]|[title]\n\n")
	b.WriteString("Available chart types: bar, pie, line, scatter, box, histogram")
	return b.String()
}

// BuildAnalysisUserPrompt creates the user prompt carrying the question.
func BuildAnalysisUserPrompt(question string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\n", question)
	b.WriteString("Please analyze this question in the context of the provided dataset and give me:\n")
	b.WriteString("1. Direct answer to the question\n")
	b.WriteString("2. Key insights and patterns\n")
	b.WriteString("3. Actionable recommendations\n")
	b.WriteString("4. Suggested visualization if relevant\n\n")
	b.WriteString("Be specific and reference actual data points when possible.")
	return b.String()
}

// BuildSimplifiedPrompt is the stripped-down retry prompt used after a
// failed provider call.
func BuildSimplifiedPrompt(question string) string {
	return "Analyze this data question: " + question
}

// formatThousands renders a rounded amount with comma separators, so
// 1250.4 becomes "1,250".
func formatThousands(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%.0f", v)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		return "-" + s
	}
	return s
}

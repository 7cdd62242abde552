package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/dashlytics/insight-engine/pkg/models"
)

// ============================================================================
// Response Formatting
// ============================================================================
//
// Formatters turn executor results into the exact answer the dashboard
// shows. Templates are literal and deterministic so the same question on the
// same data always renders the same text.

const (
	// maxTableRows caps row-subset tables in answers.
	maxTableRows = 15

	// EmptyDatasetMessage is the answer to any question asked before data is
	// loaded.
	EmptyDatasetMessage = "I need data to answer questions. Please load or adjust filters on other pages."
)

// Status chart colors, keyed by bucket. Unknown values render gray.
const (
	colorRed    = "#d62728"
	colorGreen  = "#2ca02c"
	colorYellow = "#ff7f0e"
	colorOther  = "#7f7f7f"
)

// FormatEmptyDataset is the standard no-data answer.
func FormatEmptyDataset() models.Answer {
	return models.Answer{Text: EmptyDatasetMessage, Source: models.AnswerSourceRules}
}

// FormatError renders an internal fault as a recoverable chat answer.
func FormatError(err error) models.Answer {
	return models.Answer{
		Text: fmt.Sprintf("I encountered an error analyzing the data: %v\n\n"+
			"Try asking a different question or check if the columns you're asking about exist in the data.", err),
		Source: models.AnswerSourceRules,
	}
}

// ----------------------------------------------------------------------------
// Status answers
// ----------------------------------------------------------------------------

// FormatStatusCount renders a status count. Count questions never get a
// chart; the number is the answer.
func FormatStatusCount(res *StatusCountResult) models.Answer {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d %s with %s status.", res.Total, countNoun(res.Total, "project"), res.Bucket.Display())
	if len(res.Matches) > 0 {
		label := "Breakdown"
		if res.Widened {
			label = "Breakdown (partial matches)"
		}
		fmt.Fprintf(&b, "\n\n%s: %s", label, joinValueCounts(res.Matches))
	}
	return models.Answer{Text: b.String(), Source: models.AnswerSourceRules}
}

// FormatStatusList renders the rows in a status bucket as a capped table.
func FormatStatusList(res *StatusListResult) models.Answer {
	if len(res.Rows) == 0 {
		return models.Answer{
			Text:   fmt.Sprintf("Found 0 projects with %s status.", res.Bucket.Display()),
			Source: models.AnswerSourceRules,
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**%d %s with %s status:**\n\n", len(res.Rows), countNoun(len(res.Rows), "project"), res.Bucket.Display())
	writeTable(&b, res.Columns, res.Rows)
	return models.Answer{Text: b.String(), Source: models.AnswerSourceRules}
}

// ----------------------------------------------------------------------------
// Entity answers
// ----------------------------------------------------------------------------

// FormatEntityLookup renders an entity answer for the requested aspect.
func FormatEntityLookup(res *EntityLookupResult) models.Answer {
	if !res.Found {
		msg := fmt.Sprintf("I couldn't find %q in the data.", res.Hint)
		if len(res.Suggestions) > 0 {
			msg += " Did you mean: " + strings.Join(res.Suggestions, ", ") + "?"
		}
		return models.Answer{Text: msg, Source: models.AnswerSourceRules}
	}

	switch res.Aspect {
	case models.AspectStatus:
		return formatEntityStatus(res)
	case models.AspectLocation:
		return formatEntityLocation(res)
	case models.AspectRevenue:
		return formatEntityRevenue(res)
	default:
		return formatEntityGeneral(res)
	}
}

func formatEntityStatus(res *EntityLookupResult) models.Answer {
	var text string
	switch len(res.StatusCounts) {
	case 0:
		text = fmt.Sprintf("No status recorded for %s.", res.Entity)
	case 1:
		text = fmt.Sprintf("%s's status is %s.", res.Entity, res.StatusCounts[0].Value)
	default:
		text = fmt.Sprintf("Status for %s: %s.", res.Entity, joinValueCounts(res.StatusCounts))
	}
	return models.Answer{Text: text, Source: models.AnswerSourceRules}
}

func formatEntityLocation(res *EntityLookupResult) models.Answer {
	var text string
	switch len(res.Locations) {
	case 0:
		text = fmt.Sprintf("No location recorded for %s.", res.Entity)
	case 1:
		text = fmt.Sprintf("%s is located in %s.", res.Entity, res.Locations[0].Value)
	default:
		text = fmt.Sprintf("Locations for %s: %s.", res.Entity, joinValueCounts(res.Locations))
	}
	return models.Answer{Text: text, Source: models.AnswerSourceRules}
}

func formatEntityRevenue(res *EntityLookupResult) models.Answer {
	text := fmt.Sprintf("The total revenue for %s is %s across %d %s.",
		res.Entity, money(res.Revenue), res.MatchedRows, countNoun(res.MatchedRows, "project"))
	answer := models.Answer{Text: text, Source: models.AnswerSourceRules}
	// A single row is just the number; more than one is worth comparing
	// against the other entities.
	if res.MatchedRows > 1 {
		answer.Chart = &models.ChartDescriptor{
			Kind:  models.ChartKindBar,
			X:     res.EntityColumn,
			Y:     res.RevenueColumn,
			Title: fmt.Sprintf("%s by %s", res.RevenueColumn, res.EntityColumn),
		}
	}
	return answer
}

func formatEntityGeneral(res *EntityLookupResult) models.Answer {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d %s for %s:\n\n", res.MatchedRows, countNoun(res.MatchedRows, "row"), res.Entity)
	writeTable(&b, res.Columns, res.Rows)
	return models.Answer{Text: b.String(), Source: models.AnswerSourceRules}
}

// ----------------------------------------------------------------------------
// Grouped aggregates
// ----------------------------------------------------------------------------

// FormatTopN renders ranked group aggregates with a bar chart.
func FormatTopN(res *TopNResult) models.Answer {
	noun := groupNoun(res.GroupColumn)
	var b strings.Builder

	switch {
	case res.CountOnly:
		fmt.Fprintf(&b, "**%s by project count:**\n", noun)
	case res.N > 0:
		fmt.Fprintf(&b, "**Top %d %s by %s:**\n", res.N, noun, res.MetricColumn)
	default:
		fmt.Fprintf(&b, "Total %s: %s\n\n**By %s:**\n", res.MetricColumn, metricValue(res.MetricColumn, res.Total), noun)
	}

	for i, g := range res.Groups {
		if res.CountOnly {
			fmt.Fprintf(&b, "%d. %s: %d %s\n", i+1, g.Label, g.Rows, countNoun(g.Rows, "project"))
		} else {
			fmt.Fprintf(&b, "%d. %s: %s\n", i+1, g.Label, metricValue(res.MetricColumn, g.Value))
		}
	}
	if !res.CountOnly && res.N > 0 {
		fmt.Fprintf(&b, "\nTotal across all %s: %s", strings.ToLower(noun), metricValue(res.MetricColumn, res.Total))
	}

	chart := &models.ChartDescriptor{
		Kind: models.ChartKindBar,
		X:    res.GroupColumn,
		Y:    res.MetricColumn,
	}
	if res.CountOnly {
		chart.Title = fmt.Sprintf("Project Count by %s", res.GroupColumn)
	} else {
		chart.Title = fmt.Sprintf("%s by %s", res.MetricColumn, res.GroupColumn)
	}
	return models.Answer{Text: strings.TrimRight(b.String(), "\n"), Chart: chart, Source: models.AnswerSourceRules}
}

// ----------------------------------------------------------------------------
// Trends
// ----------------------------------------------------------------------------

// FormatTrend renders monthly buckets with a line chart.
func FormatTrend(res *TrendResult) models.Answer {
	if len(res.Points) == 0 {
		return models.Answer{
			Text:   fmt.Sprintf("No parseable dates found in %s, so there is no trend to report.", res.TemporalColumn),
			Source: models.AnswerSourceRules,
		}
	}

	var b strings.Builder
	if res.CountOnly {
		b.WriteString("**Monthly project volume:**\n")
	} else {
		fmt.Fprintf(&b, "**Monthly %s trend:**\n", res.MetricColumn)
	}
	for _, p := range res.Points {
		if res.CountOnly {
			fmt.Fprintf(&b, "- %s: %d %s\n", p.Month.Format("Jan 2006"), p.Rows, countNoun(p.Rows, "project"))
		} else {
			fmt.Fprintf(&b, "- %s: %s\n", p.Month.Format("Jan 2006"), metricValue(res.MetricColumn, p.Value))
		}
	}

	chart := &models.ChartDescriptor{
		Kind: models.ChartKindLine,
		X:    res.TemporalColumn,
		Y:    res.MetricColumn,
	}
	if res.CountOnly {
		chart.Title = "Project Volume Trend Over Time"
	} else {
		chart.Title = fmt.Sprintf("%s Trend Over Time", res.MetricColumn)
	}
	return models.Answer{Text: strings.TrimRight(b.String(), "\n"), Chart: chart, Source: models.AnswerSourceRules}
}

// ----------------------------------------------------------------------------
// Summaries
// ----------------------------------------------------------------------------

// FormatSummary renders summary statistics for a column or the whole
// dataset. Numeric columns get a box chart, categorical ones a pie.
func FormatSummary(res *SummaryResult) models.Answer {
	var b strings.Builder
	if res.Entity != "" {
		fmt.Fprintf(&b, "Showing %d %s for %s.\n\n", res.RowCount, countNoun(res.RowCount, "row"), res.Entity)
	}
	if res.Filter != nil {
		fmt.Fprintf(&b, "Showing %d %s where %s is %s.\n\n", res.RowCount, countNoun(res.RowCount, "row"), res.Filter.Column, res.Filter.Value)
	}

	switch {
	case res.Dataset != nil:
		writeDatasetOverview(&b, res.Dataset)
		return models.Answer{Text: b.String(), Source: models.AnswerSourceRules}
	case res.Numeric != nil:
		writeNumericSummary(&b, res.Column, res.Numeric)
		chart := &models.ChartDescriptor{
			Kind:  models.ChartKindBox,
			Y:     res.Column,
			Title: fmt.Sprintf("Distribution of %s", res.Column),
		}
		return models.Answer{Text: b.String(), Chart: chart, Source: models.AnswerSourceRules}
	case res.Temporal != nil:
		writeTemporalSummary(&b, res.Column, res.Temporal)
		return models.Answer{Text: b.String(), Source: models.AnswerSourceRules}
	default:
		writeCategoricalSummary(&b, res.Column, res.Categorical)
		chart := &models.ChartDescriptor{
			Kind:  models.ChartKindPie,
			X:     res.Column,
			Title: fmt.Sprintf("Distribution of %s", res.Column),
		}
		if isStatusColumn(res.Column) {
			chart.Colors = statusColorSequence(res.Categorical.Counts)
		}
		return models.Answer{Text: b.String(), Chart: chart, Source: models.AnswerSourceRules}
	}
}

func writeNumericSummary(b *strings.Builder, column string, ns *NumericSummary) {
	fmt.Fprintf(b, "**Summary statistics for %s:**\n", column)
	fmt.Fprintf(b, "Count: %d\n", ns.Count)
	fmt.Fprintf(b, "Mean: %.2f\n", ns.Mean)
	fmt.Fprintf(b, "Std Dev: %.2f\n", ns.StdDev)
	fmt.Fprintf(b, "Min: %.2f\n", ns.Min)
	fmt.Fprintf(b, "25%%: %.2f\n", ns.P25)
	fmt.Fprintf(b, "Median: %.2f\n", ns.Median)
	fmt.Fprintf(b, "75%%: %.2f\n", ns.P75)
	fmt.Fprintf(b, "Max: %.2f", ns.Max)
}

func writeCategoricalSummary(b *strings.Builder, column string, cs *CategoricalSummary) {
	fmt.Fprintf(b, "**Value counts for %s:**\n", column)
	for _, vc := range cs.Counts {
		pct := 0.0
		if cs.NonMissing > 0 {
			pct = float64(vc.Count) / float64(cs.NonMissing) * 100
		}
		fmt.Fprintf(b, "\n- %s: %d (%.1f%%)", vc.Value, vc.Count, pct)
	}
	if cs.Truncated {
		fmt.Fprintf(b, "\n\n_Showing top %d of %d values._", len(cs.Counts), cs.Distinct)
	}
}

func writeTemporalSummary(b *strings.Builder, column string, ts *TemporalSummary) {
	fmt.Fprintf(b, "**Date range for %s:**\n", column)
	if ts.Count == 0 {
		b.WriteString("No parseable dates found.")
		return
	}
	fmt.Fprintf(b, "Earliest: %s\n", ts.Min.Format("2006-01-02"))
	fmt.Fprintf(b, "Latest: %s\n", ts.Max.Format("2006-01-02"))
	fmt.Fprintf(b, "Span: %d %s", ts.SpanDays, countNoun(ts.SpanDays, "day"))
}

func writeDatasetOverview(b *strings.Builder, ov *DatasetOverview) {
	fmt.Fprintf(b, "**Dataset Summary:**\n")
	fmt.Fprintf(b, "Total rows: %d\n", ov.Rows)
	fmt.Fprintf(b, "Total columns: %d", ov.Columns)
	for _, col := range ov.Numeric {
		fmt.Fprintf(b, "\n\n**%s:** count %d, mean %.2f, min %.2f, max %.2f",
			col.Name, col.Count, col.Mean, col.Min, col.Max)
	}
}

// ----------------------------------------------------------------------------
// Value listings
// ----------------------------------------------------------------------------

// FormatListAll renders a column's distinct values, capped when the column
// has too many to enumerate.
func FormatListAll(res *ListAllResult) models.Answer {
	if len(res.Values) == 0 {
		return models.Answer{
			Text:   fmt.Sprintf("No values found in %s.", res.Column),
			Source: models.AnswerSourceRules,
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**%d unique %s in %s:**\n", len(res.Values), countNoun(len(res.Values), "value"), res.Column)
	shown := res.Values
	if res.Summarized {
		shown = shown[:maxEnumeratedValues]
	}
	for _, v := range shown {
		fmt.Fprintf(&b, "\n- %s", v)
	}
	if res.Summarized {
		fmt.Fprintf(&b, "\n\n_Showing first %d of %d values._", maxEnumeratedValues, len(res.Values))
	}
	return models.Answer{Text: b.String(), Source: models.AnswerSourceRules}
}

// ----------------------------------------------------------------------------
// Schema-shaped answers
// ----------------------------------------------------------------------------

// FormatGreeting introduces the assistant and suggests questions the loaded
// columns can actually answer.
func FormatGreeting(schema []models.ColumnDescriptor) models.Answer {
	names := columnNames(schema)
	numeric, categorical, temporal := partitionByRole(schema)

	info := fmt.Sprintf("Your data has %d columns including: %s", len(names), strings.Join(firstN(names, 5), ", "))
	if len(names) > 5 {
		info += fmt.Sprintf(" and %d more.", len(names)-5)
	}

	var s strings.Builder
	s.WriteString("Try asking about:\n")
	if anyNameContains(numeric, "revenue") {
		s.WriteString("- Revenue analysis\n")
	}
	if anyNameContains(categorical, "customer") {
		s.WriteString("- Customer information\n")
	}
	if anyNameContains(categorical, "project") {
		s.WriteString("- Project statistics\n")
	}
	if anyNameContains(categorical, "status") {
		s.WriteString("- Status distributions\n")
	}
	if len(temporal) > 0 {
		s.WriteString("- Time-based trends\n")
	}
	s.WriteString("- Summary statistics for any column\n")
	s.WriteString("- 'What columns are available?'")

	text := fmt.Sprintf("Hello! I can analyze your data based on the columns available.\n\n%s\n\n%s", info, s.String())
	return models.Answer{Text: text, Source: models.AnswerSourceRules}
}

// FormatColumnDiscovery lists the columns grouped by role.
func FormatColumnDiscovery(schema []models.ColumnDescriptor) models.Answer {
	numeric, categorical, temporal := partitionByRole(schema)

	var b strings.Builder
	b.WriteString("**Available columns in your data:**\n\n")
	for _, group := range []struct {
		label string
		cols  []string
	}{
		{"Numeric", numeric},
		{"Categorical", categorical},
		{"Date", temporal},
	} {
		if len(group.cols) == 0 {
			continue
		}
		fmt.Fprintf(&b, "*%s columns:*\n- %s\n\n", group.label, strings.Join(group.cols, "\n- "))
	}
	return models.Answer{Text: b.String(), Source: models.AnswerSourceRules}
}

// FormatFallback is the answer for questions no rule could classify.
func FormatFallback(schema []models.ColumnDescriptor) models.Answer {
	numeric, categorical, temporal := partitionByRole(schema)

	var s strings.Builder
	if len(numeric) > 0 {
		fmt.Fprintf(&s, "\n- Numeric data: %s", strings.Join(firstN(numeric, 3), ", "))
		if len(numeric) > 3 {
			fmt.Fprintf(&s, " and %d more", len(numeric)-3)
		}
	}
	if len(categorical) > 0 {
		fmt.Fprintf(&s, "\n- Categories: %s", strings.Join(firstN(categorical, 3), ", "))
		if len(categorical) > 3 {
			fmt.Fprintf(&s, " and %d more", len(categorical)-3)
		}
	}
	if len(temporal) > 0 {
		fmt.Fprintf(&s, "\n- Time data: %s", strings.Join(temporal, ", "))
	}

	text := "I'm not sure how to answer that specific question. Try asking about:" +
		"\n- 'What columns are available?'" +
		"\n- Summary statistics for a specific column" +
		"\n- Distribution of categorical data" +
		"\n- Trends over time (if date data available)" +
		"\n\nYour data includes:" + s.String()
	return models.Answer{Text: text, Source: models.AnswerSourceRules}
}

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

// money renders a currency amount the way the dashboard shows it.
func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

// metricValue renders an aggregate, as currency when the column reads like a
// money column.
func metricValue(column string, v float64) string {
	if containsAnyKeyword(NormalizeColumnName(column), revenueColumnKeywords) {
		return money(v)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// countNoun pluralizes a row noun to match its count.
func countNoun(n int, noun string) string {
	if n == 1 {
		return inflection.Singular(noun)
	}
	return inflection.Plural(noun)
}

// groupNoun turns a group column name into a plural noun for headlines,
// so "Customer Name" reads as "Customers".
func groupNoun(column string) string {
	fields := strings.Fields(column)
	if len(fields) == 0 {
		return "Groups"
	}
	if len(fields) > 1 && strings.EqualFold(fields[len(fields)-1], "name") {
		fields = fields[:len(fields)-1]
	}
	fields[len(fields)-1] = inflection.Plural(fields[len(fields)-1])
	return strings.Join(fields, " ")
}

func joinValueCounts(counts []ValueCount) string {
	parts := make([]string, 0, len(counts))
	for _, vc := range counts {
		parts = append(parts, fmt.Sprintf("%s: %d", vc.Value, vc.Count))
	}
	return strings.Join(parts, ", ")
}

// writeTable renders rows as a markdown table capped at maxTableRows.
func writeTable(b *strings.Builder, columns []string, rows []models.Row) {
	b.WriteString("| " + strings.Join(columns, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(columns)) + "\n")

	shown := rows
	if len(shown) > maxTableRows {
		shown = shown[:maxTableRows]
	}
	for _, row := range shown {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = row[col].String()
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	if len(rows) > maxTableRows {
		fmt.Fprintf(b, "\n_Showing first %d of %d rows._", maxTableRows, len(rows))
	}
}

// isStatusColumn reports whether a column name reads like a status column.
func isStatusColumn(name string) bool {
	return containsAnyKeyword(NormalizeColumnName(name), statusColumnKeywords)
}

// statusColor maps a status cell value to its chart color. Values that are
// not recognizable status tokens render gray.
func statusColor(value string) string {
	bucket, ok := models.ParseStatusToken(value)
	if !ok {
		return colorOther
	}
	switch bucket {
	case models.StatusBucketRed:
		return colorRed
	case models.StatusBucketGreen:
		return colorGreen
	default:
		return colorYellow
	}
}

// statusColorSequence builds the discrete color sequence for a status
// distribution, in the same order as the counts.
func statusColorSequence(counts []ValueCount) []string {
	colors := make([]string, len(counts))
	for i, vc := range counts {
		colors[i] = statusColor(vc.Value)
	}
	return colors
}

func columnNames(schema []models.ColumnDescriptor) []string {
	names := make([]string, len(schema))
	for i := range schema {
		names[i] = schema[i].Name
	}
	return names
}

func partitionByRole(schema []models.ColumnDescriptor) (numeric, categorical, temporal []string) {
	for i := range schema {
		switch schema[i].Role {
		case models.ColumnRoleNumeric:
			numeric = append(numeric, schema[i].Name)
		case models.ColumnRoleTemporal:
			temporal = append(temporal, schema[i].Name)
		default:
			categorical = append(categorical, schema[i].Name)
		}
	}
	return numeric, categorical, temporal
}

func firstN(values []string, n int) []string {
	if len(values) <= n {
		return values
	}
	return values[:n]
}

func anyNameContains(names []string, keyword string) bool {
	for _, name := range names {
		if strings.Contains(strings.ToLower(name), keyword) {
			return true
		}
	}
	return false
}

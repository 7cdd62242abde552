package services

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dashlytics/insight-engine/pkg/models"
)

// ============================================================================
// Query Execution
// ============================================================================
//
// Executors run a classified intent against the dataset and return typed
// results for the formatter. They re-resolve the intent's hints themselves,
// so callers other than the classifier (the MCP tools, tests) get identical
// behavior.

// QueryError is a user-facing explanation of why a query could not run
// against the current dataset. The interpreter renders it verbatim instead
// of treating the turn as failed.
type QueryError struct {
	Message string
}

func (e *QueryError) Error() string { return e.Message }

// maxEnumeratedValues is the point past which a value listing is summarized
// instead of enumerated.
const maxEnumeratedValues = 30

// ValueCount pairs a distinct cell value with its row count.
type ValueCount struct {
	Value string
	Count int
}

// ----------------------------------------------------------------------------
// Status queries
// ----------------------------------------------------------------------------

// StatusCountResult reports how many rows fall in a status bucket. Matches
// lists the cell spellings counted into Total; Breakdown is the full column
// distribution. When no cell matched the bucket's literal forms exactly,
// matching widens to case-insensitive substrings of the full color words and
// Widened is set.
type StatusCountResult struct {
	Column    string
	Bucket    models.StatusBucket
	Total     int
	Matches   []ValueCount
	Breakdown []ValueCount
	Widened   bool
}

// ExecuteStatusCount counts rows in the given status bucket.
func ExecuteStatusCount(dataset *models.Dataset, schema []models.ColumnDescriptor, bucket models.StatusBucket) (*StatusCountResult, error) {
	col := StatusColumn(schema)
	if col == nil {
		return nil, &QueryError{Message: "No status column found in the data."}
	}

	breakdown := valueCounts(dataset.Rows, col.Name)
	res := &StatusCountResult{Column: col.Name, Bucket: bucket, Breakdown: breakdown}

	for _, vc := range breakdown {
		if bucket.MatchesCell(models.Cell(vc.Value)) {
			res.Matches = append(res.Matches, vc)
			res.Total += vc.Count
		}
	}
	if res.Total > 0 {
		return res, nil
	}

	// Nothing matched the literal spellings; fall back to substring matching
	// on the full color words so values like "Dark Red" still count.
	res.Widened = true
	for _, vc := range breakdown {
		lower := strings.ToLower(vc.Value)
		for _, lit := range bucket.Literals() {
			if len(lit) > 1 && strings.Contains(lower, lit) {
				res.Matches = append(res.Matches, vc)
				res.Total += vc.Count
				break
			}
		}
	}
	return res, nil
}

// StatusListResult carries the rows whose status cell matches a bucket.
type StatusListResult struct {
	Column  string
	Bucket  models.StatusBucket
	Columns []string
	Rows    []models.Row
}

// ExecuteStatusList returns the rows in the given status bucket.
func ExecuteStatusList(dataset *models.Dataset, schema []models.ColumnDescriptor, bucket models.StatusBucket) (*StatusListResult, error) {
	col := StatusColumn(schema)
	if col == nil {
		return nil, &QueryError{Message: "No status column found in the data."}
	}
	res := &StatusListResult{Column: col.Name, Bucket: bucket, Columns: dataset.Columns}
	for _, row := range dataset.Rows {
		if bucket.MatchesCell(row[col.Name]) {
			res.Rows = append(res.Rows, row)
		}
	}
	return res, nil
}

// ----------------------------------------------------------------------------
// Entity lookups
// ----------------------------------------------------------------------------

// EntityLookupResult is an answer about one named entity. When Found is
// false only Hint, Aspect, and Suggestions are populated; otherwise the
// aspect decides which payload fields are set.
type EntityLookupResult struct {
	Hint        string
	Aspect      models.EntityAspect
	Found       bool
	Suggestions []string

	Entity       string
	EntityColumn string
	MatchedRows  int

	StatusColumn string
	StatusCounts []ValueCount

	LocationColumn string
	Locations      []ValueCount

	RevenueColumn string
	Revenue       float64

	Columns []string
	Rows    []models.Row
}

// ExecuteEntityLookup resolves the entity hint and answers the requested
// aspect about it.
func ExecuteEntityLookup(dataset *models.Dataset, schema []models.ColumnDescriptor, intent models.Intent) (*EntityLookupResult, error) {
	match, col := ResolveEntityAcross(intent.EntityHint, EntityColumns(schema), dataset)
	if !match.Found() {
		return &EntityLookupResult{Hint: intent.EntityHint, Aspect: intent.Aspect, Suggestions: match.Suggestions}, nil
	}

	rows := rowsMatching(dataset.Rows, col.Name, match.Exact)
	res := &EntityLookupResult{
		Hint:         intent.EntityHint,
		Aspect:       intent.Aspect,
		Found:        true,
		Entity:       match.Exact,
		EntityColumn: col.Name,
		MatchedRows:  len(rows),
	}

	switch intent.Aspect {
	case models.AspectStatus:
		statusCol := StatusColumn(schema)
		if statusCol == nil {
			return nil, &QueryError{Message: "No status column found in the data."}
		}
		res.StatusColumn = statusCol.Name
		res.StatusCounts = valueCounts(rows, statusCol.Name)
	case models.AspectLocation:
		locCol := LocationColumn(schema)
		if locCol == nil {
			return nil, &QueryError{Message: "No location column found in the data."}
		}
		res.LocationColumn = locCol.Name
		res.Locations = valueCounts(rows, locCol.Name)
	case models.AspectRevenue:
		revCol := RevenueColumn(schema)
		if revCol == nil {
			return nil, &QueryError{Message: "No revenue column found in the data."}
		}
		res.RevenueColumn = revCol.Name
		for _, row := range rows {
			if v, ok := row[revCol.Name].Float(); ok {
				res.Revenue += v
			}
		}
	default:
		res.Columns = dataset.Columns
		res.Rows = rows
	}
	return res, nil
}

// ----------------------------------------------------------------------------
// Grouped aggregation
// ----------------------------------------------------------------------------

// GroupMetric is one group's aggregate in a TopN result.
type GroupMetric struct {
	Label string
	Value float64
	Rows  int
}

// TopNResult holds per-group aggregates ordered largest first. N echoes the
// request, zero meaning all groups; Total is the grand total across every
// group, not just the returned ones.
type TopNResult struct {
	GroupColumn  string
	MetricColumn string
	CountOnly    bool
	N            int
	Groups       []GroupMetric
	Total        float64
	TotalRows    int
}

// ExecuteTopN sums a numeric metric (or counts rows when the intent has no
// metric hint) per group and returns the n largest groups, ties broken by
// label ascending. Cells that fail to parse as numbers contribute zero.
func ExecuteTopN(dataset *models.Dataset, schema []models.ColumnDescriptor, intent models.Intent) (*TopNResult, error) {
	countOnly := intent.MetricHint == ""
	var metricCol *models.ColumnDescriptor
	if !countOnly {
		metricCol = resolveColumnHint(intent.MetricHint, schema)
		if metricCol == nil || metricCol.Role != models.ColumnRoleNumeric {
			return nil, columnNotFoundError(intent.MetricHint, schema)
		}
	}

	var groupCol *models.ColumnDescriptor
	if intent.GroupHint != "" {
		groupCol = resolveColumnHint(intent.GroupHint, schema)
		if groupCol == nil {
			return nil, columnNotFoundError(intent.GroupHint, schema)
		}
	} else if entity := EntityColumns(schema); len(entity) > 0 {
		groupCol = entity[0]
	}
	if groupCol == nil {
		return nil, &QueryError{Message: "I couldn't find a column to group by."}
	}

	res := &TopNResult{GroupColumn: groupCol.Name, CountOnly: countOnly, N: intent.N}
	if metricCol != nil {
		res.MetricColumn = metricCol.Name
	}

	agg := make(map[string]*GroupMetric)
	var order []string
	for _, row := range dataset.Rows {
		label := row[groupCol.Name]
		if label.IsMissing() {
			continue
		}
		key := label.String()
		g, seen := agg[key]
		if !seen {
			g = &GroupMetric{Label: key}
			agg[key] = g
			order = append(order, key)
		}
		g.Rows++
		res.TotalRows++
		if countOnly {
			g.Value++
			res.Total++
			continue
		}
		if v, ok := row[metricCol.Name].Float(); ok {
			g.Value += v
			res.Total += v
		}
	}

	groups := make([]GroupMetric, 0, len(order))
	for _, key := range order {
		groups = append(groups, *agg[key])
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Value != groups[j].Value {
			return groups[i].Value > groups[j].Value
		}
		return groups[i].Label < groups[j].Label
	})
	if intent.N > 0 && len(groups) > intent.N {
		groups = groups[:intent.N]
	}
	res.Groups = groups
	return res, nil
}

// ----------------------------------------------------------------------------
// Trends
// ----------------------------------------------------------------------------

// TrendPoint is one month's aggregate.
type TrendPoint struct {
	Month time.Time
	Value float64
	Rows  int
}

// TrendResult holds monthly buckets in chronological order.
type TrendResult struct {
	TemporalColumn string
	MetricColumn   string
	CountOnly      bool
	Points         []TrendPoint
}

// ExecuteTrend buckets rows by calendar month over the first temporal
// column, summing the metric hint when present and counting rows otherwise.
// Rows whose date cell does not parse are skipped.
func ExecuteTrend(dataset *models.Dataset, schema []models.ColumnDescriptor, intent models.Intent) (*TrendResult, error) {
	temporal := TemporalColumns(schema)
	if len(temporal) == 0 {
		return nil, &QueryError{Message: "No date column found in the data."}
	}
	tcol := temporal[0]

	countOnly := intent.MetricHint == ""
	var metricCol *models.ColumnDescriptor
	if !countOnly {
		metricCol = resolveColumnHint(intent.MetricHint, schema)
		if metricCol == nil || metricCol.Role != models.ColumnRoleNumeric {
			return nil, columnNotFoundError(intent.MetricHint, schema)
		}
	}

	res := &TrendResult{TemporalColumn: tcol.Name, CountOnly: countOnly}
	if metricCol != nil {
		res.MetricColumn = metricCol.Name
	}

	buckets := make(map[time.Time]*TrendPoint)
	for _, row := range dataset.Rows {
		t, ok := row[tcol.Name].Time()
		if !ok {
			continue
		}
		month := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		p, seen := buckets[month]
		if !seen {
			p = &TrendPoint{Month: month}
			buckets[month] = p
		}
		p.Rows++
		if countOnly {
			p.Value++
			continue
		}
		if v, ok := row[metricCol.Name].Float(); ok {
			p.Value += v
		}
	}

	points := make([]TrendPoint, 0, len(buckets))
	for _, p := range buckets {
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Month.Before(points[j].Month) })
	res.Points = points
	return res, nil
}

// ----------------------------------------------------------------------------
// Summary statistics
// ----------------------------------------------------------------------------

// NumericSummary is the describe-style profile of a numeric column. Only
// cells that parse as numbers participate.
type NumericSummary struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	P25    float64
	Median float64
	P75    float64
	Max    float64
}

// CategoricalSummary is the value-count profile of a categorical column.
// Counts holds at most maxCategoricalCounts entries; Distinct is the full
// distinct count and NonMissing the rows that contributed.
type CategoricalSummary struct {
	Counts     []ValueCount
	Distinct   int
	NonMissing int
	Truncated  bool
}

const maxCategoricalCounts = 15

// TemporalSummary is the range profile of a temporal column.
type TemporalSummary struct {
	Count    int
	Min      time.Time
	Max      time.Time
	SpanDays int
}

// NumericColumnSummary names a NumericSummary for dataset-wide overviews.
type NumericColumnSummary struct {
	Name string
	NumericSummary
}

// DatasetOverview profiles the whole dataset when no target column is named.
type DatasetOverview struct {
	Rows    int
	Columns int
	Numeric []NumericColumnSummary
}

// AppliedFilter records a "where column is value" clause after resolution.
type AppliedFilter struct {
	Column string
	Value  string
}

// SummaryResult is the output of a summary-statistics query. Exactly one of
// Numeric, Categorical, Temporal, or Dataset is set, matching the resolved
// target's role.
type SummaryResult struct {
	Entity       string
	EntityColumn string
	Filter       *AppliedFilter
	RowCount     int

	Column      string
	Role        models.ColumnRole
	Numeric     *NumericSummary
	Categorical *CategoricalSummary
	Temporal    *TemporalSummary
	Dataset     *DatasetOverview
}

// ExecuteSummaryStats profiles a column, or the whole dataset, optionally
// scoped to one entity's rows and/or filtered by an embedded where-clause.
// An unresolvable filter column or value fails the query rather than
// silently summarizing the wrong rows.
func ExecuteSummaryStats(dataset *models.Dataset, schema []models.ColumnDescriptor, intent models.Intent) (*SummaryResult, error) {
	rows := dataset.Rows
	res := &SummaryResult{}

	if intent.EntityHint != "" {
		match, col := ResolveEntityAcross(intent.EntityHint, EntityColumns(schema), dataset)
		if !match.Found() {
			return nil, entityNotFoundError(intent.EntityHint, "", match.Suggestions)
		}
		rows = rowsMatching(rows, col.Name, match.Exact)
		res.Entity = match.Exact
		res.EntityColumn = col.Name
	}

	if intent.FilterColumnHint != "" {
		fcol := resolveColumnHint(intent.FilterColumnHint, schema)
		if fcol == nil {
			return nil, columnNotFoundError(intent.FilterColumnHint, schema)
		}
		fmatch := ResolveEntity(intent.FilterValueHint, fcol, dataset)
		if !fmatch.Found() {
			return nil, entityNotFoundError(intent.FilterValueHint, fcol.Name, fmatch.Suggestions)
		}
		rows = rowsMatching(rows, fcol.Name, fmatch.Exact)
		res.Filter = &AppliedFilter{Column: fcol.Name, Value: fmatch.Exact}
	}
	res.RowCount = len(rows)

	if intent.ColumnHint == "" {
		overview := &DatasetOverview{Rows: len(rows), Columns: len(dataset.Columns)}
		for i := range schema {
			if schema[i].Role != models.ColumnRoleNumeric {
				continue
			}
			overview.Numeric = append(overview.Numeric, NumericColumnSummary{
				Name:           schema[i].Name,
				NumericSummary: numericSummary(rows, schema[i].Name),
			})
		}
		res.Dataset = overview
		return res, nil
	}

	col := resolveColumnHint(intent.ColumnHint, schema)
	if col == nil {
		return nil, columnNotFoundError(intent.ColumnHint, schema)
	}
	res.Column = col.Name
	res.Role = col.Role

	switch col.Role {
	case models.ColumnRoleNumeric:
		ns := numericSummary(rows, col.Name)
		res.Numeric = &ns
	case models.ColumnRoleTemporal:
		ts := temporalSummary(rows, col.Name)
		res.Temporal = &ts
	default:
		cs := categoricalSummary(rows, col.Name)
		res.Categorical = &cs
	}
	return res, nil
}

// ----------------------------------------------------------------------------
// Value listings
// ----------------------------------------------------------------------------

// ListAllResult enumerates a column's distinct values. Summarized is set
// when there are too many to print in full.
type ListAllResult struct {
	Column     string
	Values     []string
	Summarized bool
}

// ExecuteListAll lists the distinct non-missing values of the hinted column.
func ExecuteListAll(dataset *models.Dataset, schema []models.ColumnDescriptor, intent models.Intent) (*ListAllResult, error) {
	col := resolveColumnHint(intent.ColumnHint, schema)
	if col == nil {
		return nil, columnNotFoundError(intent.ColumnHint, schema)
	}
	values := col.DistinctValues(dataset)
	return &ListAllResult{Column: col.Name, Values: values, Summarized: len(values) > maxEnumeratedValues}, nil
}

// ----------------------------------------------------------------------------
// Shared helpers
// ----------------------------------------------------------------------------

func columnNotFoundError(hint string, schema []models.ColumnDescriptor) *QueryError {
	names := make([]string, 0, len(schema))
	for i := range schema {
		names = append(names, schema[i].Name)
	}
	return &QueryError{Message: fmt.Sprintf(
		"I couldn't find a column matching %q. Available columns: %s.",
		hint, strings.Join(names, ", "))}
}

func entityNotFoundError(hint, column string, suggestions []string) *QueryError {
	var msg string
	if column != "" {
		msg = fmt.Sprintf("I couldn't find %q in %s.", hint, column)
	} else {
		msg = fmt.Sprintf("I couldn't find %q in the data.", hint)
	}
	if len(suggestions) > 0 {
		msg += " Did you mean: " + strings.Join(suggestions, ", ") + "?"
	}
	return &QueryError{Message: msg}
}

// rowsMatching returns the rows whose cell in column equals value, ignoring
// case. Missing cells never match.
func rowsMatching(rows []models.Row, column, value string) []models.Row {
	var out []models.Row
	for _, row := range rows {
		cell := row[column]
		if cell.IsMissing() {
			continue
		}
		if strings.EqualFold(cell.String(), value) {
			out = append(out, row)
		}
	}
	return out
}

// valueCounts tallies the non-missing values of a column, ordered by count
// descending with ties broken by value ascending.
func valueCounts(rows []models.Row, column string) []ValueCount {
	counts := make(map[string]int)
	var order []string
	for _, row := range rows {
		cell := row[column]
		if cell.IsMissing() {
			continue
		}
		v := cell.String()
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}
	out := make([]ValueCount, 0, len(order))
	for _, v := range order {
		out = append(out, ValueCount{Value: v, Count: counts[v]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

func numericSummary(rows []models.Row, column string) NumericSummary {
	var values []float64
	for _, row := range rows {
		if v, ok := row[column].Float(); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return NumericSummary{}
	}
	sort.Float64s(values)

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	return NumericSummary{
		Count:  len(values),
		Mean:   mean,
		StdDev: sampleStdDev(values, mean),
		Min:    values[0],
		P25:    percentile(values, 0.25),
		Median: percentile(values, 0.5),
		P75:    percentile(values, 0.75),
		Max:    values[len(values)-1],
	}
}

func categoricalSummary(rows []models.Row, column string) CategoricalSummary {
	counts := valueCounts(rows, column)
	cs := CategoricalSummary{Distinct: len(counts)}
	for _, vc := range counts {
		cs.NonMissing += vc.Count
	}
	if len(counts) > maxCategoricalCounts {
		cs.Counts = counts[:maxCategoricalCounts]
		cs.Truncated = true
	} else {
		cs.Counts = counts
	}
	return cs
}

func temporalSummary(rows []models.Row, column string) TemporalSummary {
	var ts TemporalSummary
	for _, row := range rows {
		t, ok := row[column].Time()
		if !ok {
			continue
		}
		if ts.Count == 0 || t.Before(ts.Min) {
			ts.Min = t
		}
		if ts.Count == 0 || t.After(ts.Max) {
			ts.Max = t
		}
		ts.Count++
	}
	if ts.Count > 0 {
		ts.SpanDays = int(ts.Max.Sub(ts.Min).Hours() / 24)
	}
	return ts
}

// percentile is linearly interpolated over the sorted sample.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// sampleStdDev is the n-1 standard deviation; a single observation has no
// spread.
func sampleStdDev(sorted []float64, mean float64) float64 {
	if len(sorted) < 2 {
		return 0
	}
	var ss float64
	for _, v := range sorted {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(sorted)-1))
}

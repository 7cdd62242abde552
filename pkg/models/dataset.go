package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/dashlytics/insight-engine/pkg/jsonutil"
)

// ============================================================================
// Cells
// ============================================================================

// Cell is a single dataset value as received from the hosting dashboard.
// Cells are stored as text; numeric and temporal interpretation happens on
// demand so an irregular column never fails to load.
type Cell string

// UnmarshalJSON accepts string, number, boolean, or null cells.
func (c *Cell) UnmarshalJSON(data []byte) error {
	*c = Cell(jsonutil.FlexibleStringValue(data))
	return nil
}

// missingMarkers are the trimmed, lower-cased cell values treated as absent.
// Covers the NaN/None spellings that spreadsheet and dataframe exports emit.
var missingMarkers = map[string]bool{
	"":     true,
	"nan":  true,
	"null": true,
	"none": true,
	"n/a":  true,
	"na":   true,
	"#n/a": true,
}

// IsMissing reports whether the cell holds no usable value.
func (c Cell) IsMissing() bool {
	return missingMarkers[strings.ToLower(strings.TrimSpace(string(c)))]
}

// String returns the trimmed display form of the cell.
func (c Cell) String() string {
	return strings.TrimSpace(string(c))
}

// Float interprets the cell as a number, tolerating currency symbols,
// thousands separators, and percent signs ("$1,200.50" parses as 1200.5).
func (c Cell) Float() (float64, bool) {
	if c.IsMissing() {
		return 0, false
	}
	s := strings.TrimSpace(string(c))
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// cellTimeLayouts are the date/timestamp formats accepted from dashboard
// exports, tried in order.
var cellTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02-Jan-2006",
	"2-Jan-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2006",
	"January 2006",
}

// Time interprets the cell as a date or timestamp.
func (c Cell) Time() (time.Time, bool) {
	if c.IsMissing() {
		return time.Time{}, false
	}
	s := strings.TrimSpace(string(c))
	for _, layout := range cellTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ============================================================================
// Rows and Datasets
// ============================================================================

// Row maps column name to cell value. Columns absent from a row read as
// missing cells.
type Row map[string]Cell

// Dataset is the tabular snapshot a session operates on. The hosting
// dashboard loads and filters the data; the engine never mutates it.
// Columns carries the declaration order, which JSON objects cannot.
type Dataset struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`

	// DeclaredTemporal lists columns the loader already knows are
	// dates/timestamps, overriding inference.
	DeclaredTemporal []string `json:"temporal_columns,omitempty"`
}

// RowCount returns the number of rows.
func (d *Dataset) RowCount() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// ColumnCount returns the number of columns.
func (d *Dataset) ColumnCount() int {
	if d == nil {
		return 0
	}
	return len(d.Columns)
}

// IsEmpty reports whether the dataset has no usable data.
func (d *Dataset) IsEmpty() bool {
	return d == nil || len(d.Rows) == 0 || len(d.Columns) == 0
}

// Cell returns the value at the given row index and column, or a missing
// cell when either is absent.
func (d *Dataset) Cell(row int, column string) Cell {
	if d == nil || row < 0 || row >= len(d.Rows) {
		return Cell("")
	}
	return d.Rows[row][column]
}

// ColumnCells returns every cell of a column in row order.
func (d *Dataset) ColumnCells(column string) []Cell {
	if d == nil {
		return nil
	}
	cells := make([]Cell, len(d.Rows))
	for i, row := range d.Rows {
		cells[i] = row[column]
	}
	return cells
}

// HasColumn reports whether the named column is declared.
func (d *Dataset) HasColumn(column string) bool {
	if d == nil {
		return false
	}
	for _, c := range d.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// IsDeclaredTemporal reports whether the loader flagged the column temporal.
func (d *Dataset) IsDeclaredTemporal(column string) bool {
	if d == nil {
		return false
	}
	for _, c := range d.DeclaredTemporal {
		if c == column {
			return true
		}
	}
	return false
}

// ============================================================================
// Column Descriptors
// ============================================================================

// ColumnRole is the semantic role inferred for a column.
type ColumnRole string

const (
	ColumnRoleNumeric     ColumnRole = "numeric"
	ColumnRoleCategorical ColumnRole = "categorical"
	ColumnRoleTemporal    ColumnRole = "temporal"
)

// ValidColumnRoles contains all valid column role values.
var ValidColumnRoles = []ColumnRole{
	ColumnRoleNumeric,
	ColumnRoleCategorical,
	ColumnRoleTemporal,
}

// IsValidColumnRole checks if the given role is valid.
func IsValidColumnRole(r ColumnRole) bool {
	for _, v := range ValidColumnRoles {
		if v == r {
			return true
		}
	}
	return false
}

// ColumnDescriptor is a column plus its inferred role. Distinct values are
// cached lazily since only categorical lookups need them.
type ColumnDescriptor struct {
	Name string     `json:"name"`
	Role ColumnRole `json:"role"`

	distinct       []string
	distinctLoaded bool
}

// DistinctValues returns the column's distinct non-missing values in
// first-appearance order, computing and caching them on first use.
func (c *ColumnDescriptor) DistinctValues(d *Dataset) []string {
	if c.distinctLoaded {
		return c.distinct
	}
	seen := make(map[string]bool)
	var values []string
	for _, row := range d.Rows {
		cell := row[c.Name]
		if cell.IsMissing() {
			continue
		}
		v := cell.String()
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	c.distinct = values
	c.distinctLoaded = true
	return values
}

// ColumnProfile summarizes a column for schema inspection and AI context.
type ColumnProfile struct {
	Name         string     `json:"name"`
	Role         ColumnRole `json:"role"`
	NonNullCount int        `json:"non_null"`
	UniqueCount  int        `json:"unique"`
	SampleValues []string   `json:"samples,omitempty"`
}

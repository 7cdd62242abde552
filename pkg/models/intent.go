package models

// ============================================================================
// Intents
// ============================================================================

// IntentKind is the classified category of a user question. Classification
// is total: every question maps to exactly one kind, with IntentFallback as
// the catch-all.
type IntentKind string

const (
	IntentGreeting        IntentKind = "greeting"
	IntentColumnDiscovery IntentKind = "column_discovery"
	IntentSummaryStats    IntentKind = "summary_stats"
	IntentStatusCount     IntentKind = "status_count"
	IntentStatusList      IntentKind = "status_list"
	IntentEntityLookup    IntentKind = "entity_lookup"
	IntentTopN            IntentKind = "top_n"
	IntentTrendOverTime   IntentKind = "trend_over_time"
	IntentListAll         IntentKind = "list_all"
	IntentFallback        IntentKind = "fallback"
)

// ValidIntentKinds contains all valid intent kind values.
var ValidIntentKinds = []IntentKind{
	IntentGreeting,
	IntentColumnDiscovery,
	IntentSummaryStats,
	IntentStatusCount,
	IntentStatusList,
	IntentEntityLookup,
	IntentTopN,
	IntentTrendOverTime,
	IntentListAll,
	IntentFallback,
}

// IsValidIntentKind checks if the given kind is valid.
func IsValidIntentKind(k IntentKind) bool {
	for _, v := range ValidIntentKinds {
		if v == k {
			return true
		}
	}
	return false
}

// EntityAspect is what an entity lookup asks about.
type EntityAspect string

const (
	AspectStatus   EntityAspect = "status"
	AspectLocation EntityAspect = "location"
	AspectRevenue  EntityAspect = "revenue"
	AspectGeneral  EntityAspect = "general"
)

// Intent is the classifier's output: one kind plus the raw parameter
// fragments the matching rule captured. Hints are unresolved text; the
// executor resolves them against the dataset.
type Intent struct {
	Kind IntentKind

	// Status is set for status_count and status_list.
	Status StatusBucket

	// EntityHint and Aspect are set for entity_lookup, and EntityHint also
	// scopes an entity-specific summary_stats request.
	EntityHint string
	Aspect     EntityAspect

	// ColumnHint targets summary_stats and list_all at a column.
	ColumnHint string

	// FilterColumnHint/FilterValueHint carry an embedded
	// "where <column> is <value>" clause on summary_stats.
	FilterColumnHint string
	FilterValueHint  string

	// N, MetricHint, and GroupHint parameterize top_n; MetricHint alone
	// parameterizes trend_over_time.
	N          int
	MetricHint string
	GroupHint  string
}

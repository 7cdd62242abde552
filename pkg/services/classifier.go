package services

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dashlytics/insight-engine/pkg/models"
)

// ============================================================================
// Question Classification
// ============================================================================
//
// Classification is a deterministic walk over an ordered rule table: the
// first rule whose matcher returns an intent wins, and the final fallback
// rule always matches. Rules may consult the column and entity resolvers to
// gate on what the dataset actually contains, but they only ever capture raw
// hint text; the executor re-resolves hints when it runs the query.

type questionContext struct {
	// lower is the trimmed, lower-cased question; clean additionally drops
	// trailing punctuation so end-anchored captures stay tidy.
	lower   string
	clean   string
	schema  []models.ColumnDescriptor
	dataset *models.Dataset
}

type classifierRule struct {
	name  string
	match func(*questionContext) *models.Intent
}

// classifierRules is ordered most-specific first. Reordering changes which
// rule claims overlapping phrasings, so additions belong at the position
// their specificity earns, not at the end.
var classifierRules = []classifierRule{
	{"entity_summary", matchEntitySummary},
	{"status_count", matchStatusCount},
	{"status_list", matchStatusList},
	{"person_lookup", matchPersonLookup},
	{"greeting", matchGreeting},
	{"column_discovery", matchColumnDiscovery},
	{"summary_stats", matchSummaryStats},
	{"top_n", matchTopN},
	{"trend_over_time", matchTrend},
	{"executive_workload", matchExecutiveWorkload},
	{"status_breakdown", matchStatusBreakdown},
	{"revenue", matchRevenue},
	{"list_all", matchListAll},
}

// ClassifyQuestion maps a raw user question to exactly one intent. The walk
// is total: questions no rule claims become IntentFallback.
func ClassifyQuestion(question string, schema []models.ColumnDescriptor, dataset *models.Dataset) models.Intent {
	lower := strings.ToLower(strings.TrimSpace(question))
	q := &questionContext{
		lower:   lower,
		clean:   strings.TrimRight(lower, " ?!."),
		schema:  schema,
		dataset: dataset,
	}
	for _, rule := range classifierRules {
		if intent := rule.match(q); intent != nil {
			return *intent
		}
	}
	return models.Intent{Kind: models.IntentFallback}
}

// ----------------------------------------------------------------------------
// Patterns
// ----------------------------------------------------------------------------

var (
	entitySummaryPattern = regexp.MustCompile(`\b(?:summary|overview|statistics|stats)\b(?:\s+\w+)*\s+for\s+(.+)$`)

	statusCountPattern = regexp.MustCompile(`\bhow many\b.*?\bstatus\b.*?\b(red|green|yellow|amber|r|g|y|a)\b`)

	statusListTokenAfterPattern  = regexp.MustCompile(`\b(?:list|show|display|which|what)\b.*?\bstatus\b.*?\b(red|green|yellow|amber|r|g|y|a)\b`)
	statusListTokenBeforePattern = regexp.MustCompile(`\b(?:list|show|display|which|what)\b.*?\b(red|green|yellow|amber)\b.*?\bstatus\b`)

	locationOfPattern     = regexp.MustCompile(`\b(?:location|located)\s+of\s+(.+)$`)
	locationWherePattern  = regexp.MustCompile(`\bwhere\s+(?:is|are)\s+(.+?)(?:\s+(?:located|based))?$`)
	locationSuffixPattern = regexp.MustCompile(`(.+?)(?:'s)?\s+location$`)
	statusOfPattern       = regexp.MustCompile(`\bstatus\s+(?:of|for)\s+(.+)$`)
	statusPossessive      = regexp.MustCompile(`(\S+)'s\s+(?:project\s+)?status\b`)
	whoIsPattern          = regexp.MustCompile(`\bwho\s+is\s+(.+)$`)
	tellMeAboutPattern    = regexp.MustCompile(`\btell\s+me\s+about\s+(.+)$`)
	informationOnPattern  = regexp.MustCompile(`\binformation\s+(?:about|on)\s+(.+)$`)

	greetingWordPattern = regexp.MustCompile(`\b(?:hello|hi|hey|help)\b`)

	summaryWordPattern   = regexp.MustCompile(`\b(?:summary|statistics|stats|describe)\b`)
	summaryFilterPattern = regexp.MustCompile(`\bfor\s+(.+?)\s+where\s+(.+?)\s+(?:is|=|equals)\s+(.+)$`)
	summaryOfPattern     = regexp.MustCompile(`\b(?:of|for)\s+(.+)$`)
	summaryTargetPattern = regexp.MustCompile(`\b(?:summary|statistics|stats|describe)\b\s+(.+)$`)

	topNPattern = regexp.MustCompile(`\btop\s+(\d+)?\s*(.+?)\s+by\s+(.+)$`)

	trendWordPattern = regexp.MustCompile(`\b(?:trend|trends|monthly|timeline)\b`)
	metricWord       = regexp.MustCompile(`\b(revenue|sales|income|amount|cost|price)\b`)

	revenueWordPattern = regexp.MustCompile(`\b(revenue|sales|income)\b`)
	revenueForPattern  = regexp.MustCompile(`\b(?:revenue|sales|income)\s+(?:for|of|from)\s+(.+)$`)

	statusMentionPattern   = regexp.MustCompile(`\bstatus(?:es)?\b`)
	breakdownWordPattern   = regexp.MustCompile(`\b(?:distribution|breakdown|split|overall|current)\b`)
	statusTrailingPattern  = regexp.MustCompile(`\bstatus(?:es)?$`)
	executiveWordPattern   = regexp.MustCompile(`\b(?:executive|executives|exective|exectives|owner|owners)\b`)
	mostWordPattern        = regexp.MustCompile(`\bmost\b`)
	listAllPattern         = regexp.MustCompile(`\b(?:list|show)\s+(?:me\s+)?all\s+(?:the\s+)?(.+)$`)
	whatAreThePattern      = regexp.MustCompile(`\bwhat\s+are\s+the\s+(?:different\s+|unique\s+|distinct\s+)?(.+?)(?:\s+values)?$`)
	distinctValuesPattern  = regexp.MustCompile(`\b(?:unique|distinct)\s+(?:values\s+)?(?:of|in|for)\s+(.+)$`)
	columnDiscoveryPhrases = []string{"what columns", "available columns", "what data", "show columns", "list columns", "which columns"}
)

// ----------------------------------------------------------------------------
// Rule matchers
// ----------------------------------------------------------------------------

// matchEntitySummary claims "summary for <entity>" when the target resolves
// to a concrete entity value. Targets with a filter clause or that only name
// a column fall through to the plain summary rule.
func matchEntitySummary(q *questionContext) *models.Intent {
	m := entitySummaryPattern.FindStringSubmatch(q.clean)
	if m == nil {
		return nil
	}
	hint := cleanEntityHint(m[1])
	if hint == "" || strings.Contains(hint, " where ") {
		return nil
	}
	match, _ := ResolveEntityAcross(hint, EntityColumns(q.schema), q.dataset)
	if !match.Found() {
		return nil
	}
	return &models.Intent{Kind: models.IntentSummaryStats, EntityHint: hint}
}

func matchStatusCount(q *questionContext) *models.Intent {
	m := statusCountPattern.FindStringSubmatch(q.lower)
	if m == nil {
		return nil
	}
	bucket, ok := models.ParseStatusToken(m[1])
	if !ok {
		return nil
	}
	return &models.Intent{Kind: models.IntentStatusCount, Status: bucket}
}

func matchStatusList(q *questionContext) *models.Intent {
	// Summary questions carrying a status filter ("summary for X where
	// status is red") belong to the summary rule, not to listing.
	if summaryWordPattern.MatchString(q.lower) {
		return nil
	}
	var token string
	if m := statusListTokenAfterPattern.FindStringSubmatch(q.lower); m != nil {
		token = m[1]
	} else if m := statusListTokenBeforePattern.FindStringSubmatch(q.lower); m != nil {
		token = m[1]
	}
	if token == "" {
		return nil
	}
	bucket, ok := models.ParseStatusToken(token)
	if !ok {
		return nil
	}
	return &models.Intent{Kind: models.IntentStatusList, Status: bucket}
}

// matchPersonLookup claims questions about a named entity: where it is, how
// its projects are doing, or who it is at all. Patterns are tried
// location-first so "where is X located" never reads as a general lookup.
func matchPersonLookup(q *questionContext) *models.Intent {
	type aspectPattern struct {
		pattern *regexp.Regexp
		aspect  models.EntityAspect
	}
	patterns := []aspectPattern{
		{locationOfPattern, models.AspectLocation},
		{locationWherePattern, models.AspectLocation},
		{locationSuffixPattern, models.AspectLocation},
		{statusOfPattern, models.AspectStatus},
		{statusPossessive, models.AspectStatus},
		{whoIsPattern, models.AspectGeneral},
		{tellMeAboutPattern, models.AspectGeneral},
		{informationOnPattern, models.AspectGeneral},
	}
	for _, ap := range patterns {
		m := ap.pattern.FindStringSubmatch(q.clean)
		if m == nil {
			continue
		}
		hint := cleanEntityHint(m[1])
		if hint == "" {
			continue
		}
		return &models.Intent{Kind: models.IntentEntityLookup, EntityHint: hint, Aspect: ap.aspect}
	}
	return nil
}

func matchGreeting(q *questionContext) *models.Intent {
	if greetingWordPattern.MatchString(q.lower) || strings.Contains(q.lower, "what can you do") {
		return &models.Intent{Kind: models.IntentGreeting}
	}
	return nil
}

func matchColumnDiscovery(q *questionContext) *models.Intent {
	for _, phrase := range columnDiscoveryPhrases {
		if strings.Contains(q.lower, phrase) {
			return &models.Intent{Kind: models.IntentColumnDiscovery}
		}
	}
	return nil
}

// matchSummaryStats claims summary/statistics/describe questions, with an
// optional "for <target> where <column> is <value>" filter clause and an
// optional column target. With neither, the intent is a whole-dataset
// summary.
func matchSummaryStats(q *questionContext) *models.Intent {
	if !summaryWordPattern.MatchString(q.lower) {
		return nil
	}
	intent := &models.Intent{Kind: models.IntentSummaryStats}

	if m := summaryFilterPattern.FindStringSubmatch(q.clean); m != nil {
		intent.ColumnHint = strings.TrimSpace(m[1])
		intent.FilterColumnHint = strings.TrimSpace(m[2])
		intent.FilterValueHint = cleanEntityHint(m[3])
		return intent
	}

	// A column name quoted verbatim in the question wins over fuzzier
	// resolution of a trailing target.
	for i := range q.schema {
		name := strings.ToLower(q.schema[i].Name)
		if name != "" && strings.Contains(q.lower, name) {
			intent.ColumnHint = q.schema[i].Name
			return intent
		}
	}
	for _, p := range []*regexp.Regexp{summaryOfPattern, summaryTargetPattern} {
		m := p.FindStringSubmatch(q.clean)
		if m == nil {
			continue
		}
		hint := strings.TrimSpace(m[1])
		if resolveColumnHint(hint, q.schema) != nil {
			intent.ColumnHint = hint
			return intent
		}
	}
	return intent
}

func matchTopN(q *questionContext) *models.Intent {
	m := topNPattern.FindStringSubmatch(q.clean)
	if m == nil {
		return nil
	}
	n := 5
	if m[1] != "" {
		if parsed, err := strconv.Atoi(m[1]); err == nil && parsed > 0 {
			n = parsed
		}
	}
	groupHint := strings.TrimSpace(m[2])
	metricHint := strings.TrimSpace(m[3])
	group := resolveColumnHint(groupHint, q.schema)
	metric := resolveColumnHint(metricHint, q.schema)
	if group == nil || group.Role != models.ColumnRoleCategorical {
		return nil
	}
	if metric == nil || metric.Role != models.ColumnRoleNumeric {
		return nil
	}
	return &models.Intent{Kind: models.IntentTopN, N: n, GroupHint: groupHint, MetricHint: metricHint}
}

func matchTrend(q *questionContext) *models.Intent {
	if !trendWordPattern.MatchString(q.lower) && !strings.Contains(q.lower, "over time") {
		return nil
	}
	if len(TemporalColumns(q.schema)) == 0 {
		return nil
	}
	intent := &models.Intent{Kind: models.IntentTrendOverTime}
	if m := metricWord.FindStringSubmatch(q.lower); m != nil {
		intent.MetricHint = m[1]
	}
	return intent
}

// matchRevenue claims money questions once a numeric money column exists:
// "revenue for <entity>" becomes an entity lookup, anything else a grand
// total with a per-group breakdown.
func matchRevenue(q *questionContext) *models.Intent {
	m := revenueWordPattern.FindStringSubmatch(q.lower)
	if m == nil || RevenueColumn(q.schema) == nil {
		return nil
	}
	if fm := revenueForPattern.FindStringSubmatch(q.clean); fm != nil {
		if hint := cleanEntityHint(fm[1]); hint != "" {
			return &models.Intent{Kind: models.IntentEntityLookup, EntityHint: hint, Aspect: models.AspectRevenue}
		}
	}
	return &models.Intent{Kind: models.IntentTopN, N: 0, MetricHint: m[1]}
}

func matchStatusBreakdown(q *questionContext) *models.Intent {
	if !statusMentionPattern.MatchString(q.lower) {
		return nil
	}
	if !breakdownWordPattern.MatchString(q.lower) && !statusTrailingPattern.MatchString(q.clean) {
		return nil
	}
	col := StatusColumn(q.schema)
	if col == nil {
		return nil
	}
	return &models.Intent{Kind: models.IntentSummaryStats, ColumnHint: col.Name}
}

func matchExecutiveWorkload(q *questionContext) *models.Intent {
	if !executiveWordPattern.MatchString(q.lower) {
		return nil
	}
	col := ExecutiveColumn(q.schema)
	if col == nil {
		return nil
	}
	intent := &models.Intent{Kind: models.IntentTopN, GroupHint: col.Name}
	if mostWordPattern.MatchString(q.lower) {
		intent.N = 1
	}
	if m := metricWord.FindStringSubmatch(q.lower); m != nil && RevenueColumn(q.schema) != nil {
		intent.MetricHint = m[1]
	}
	return intent
}

func matchListAll(q *questionContext) *models.Intent {
	var hint string
	if m := listAllPattern.FindStringSubmatch(q.clean); m != nil {
		hint = m[1]
	} else if m := distinctValuesPattern.FindStringSubmatch(q.clean); m != nil {
		hint = m[1]
	} else if m := whatAreThePattern.FindStringSubmatch(q.clean); m != nil {
		hint = m[1]
	}
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return nil
	}
	if resolveColumnHint(hint, q.schema) == nil {
		return nil
	}
	return &models.Intent{Kind: models.IntentListAll, ColumnHint: hint}
}

// cleanEntityHint trims punctuation, a possessive, and leading articles off
// a captured entity fragment ("the Aramco's projects?" becomes "Aramco").
func cleanEntityHint(s string) string {
	s = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), "?!."))
	for _, suffix := range []string{" projects", " project"} {
		s = strings.TrimSuffix(s, suffix)
	}
	s = strings.TrimSuffix(s, "'s")
	for _, article := range []string{"the ", "an ", "a ", "our ", "my "} {
		if strings.HasPrefix(s, article) {
			s = strings.TrimPrefix(s, article)
			break
		}
	}
	return strings.TrimSpace(s)
}

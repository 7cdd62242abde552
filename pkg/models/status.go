package models

import "strings"

// ============================================================================
// Status Buckets
// ============================================================================

// StatusBucket is one of the three traffic-light health categories used in
// project/customer status columns. Yellow and Amber are a single logical
// bucket: the upstream datasets mix R/G/Y and R/A/G schemes for the same
// middle state.
type StatusBucket string

const (
	StatusBucketRed    StatusBucket = "red"
	StatusBucketGreen  StatusBucket = "green"
	StatusBucketYellow StatusBucket = "yellow"
)

// ValidStatusBuckets contains all valid status bucket values.
var ValidStatusBuckets = []StatusBucket{
	StatusBucketRed,
	StatusBucketGreen,
	StatusBucketYellow,
}

// statusTokens maps every accepted question token (lower-cased) to its
// bucket: full color words plus the single-letter codes.
var statusTokens = map[string]StatusBucket{
	"red":    StatusBucketRed,
	"r":      StatusBucketRed,
	"green":  StatusBucketGreen,
	"g":      StatusBucketGreen,
	"yellow": StatusBucketYellow,
	"y":      StatusBucketYellow,
	"amber":  StatusBucketYellow,
	"a":      StatusBucketYellow,
}

// ParseStatusToken maps a question token ("red", "R", "amber", ...) to its
// bucket. Matching is case-insensitive.
func ParseStatusToken(token string) (StatusBucket, bool) {
	b, ok := statusTokens[strings.ToLower(strings.TrimSpace(token))]
	return b, ok
}

// Display returns the label used in answers.
func (b StatusBucket) Display() string {
	switch b {
	case StatusBucketRed:
		return "Red"
	case StatusBucketGreen:
		return "Green"
	case StatusBucketYellow:
		return "Yellow/Amber"
	default:
		return string(b)
	}
}

// Literals returns the cell values (lower-cased) counted as exact matches
// for the bucket.
func (b StatusBucket) Literals() []string {
	switch b {
	case StatusBucketRed:
		return []string{"red", "r"}
	case StatusBucketGreen:
		return []string{"green", "g"}
	case StatusBucketYellow:
		return []string{"yellow", "y", "amber", "a"}
	default:
		return nil
	}
}

// MatchesCell reports whether a status cell belongs to the bucket, by
// case-insensitive equality against the bucket's literal forms.
func (b StatusBucket) MatchesCell(cell Cell) bool {
	if cell.IsMissing() {
		return false
	}
	v := strings.ToLower(cell.String())
	for _, lit := range b.Literals() {
		if v == lit {
			return true
		}
	}
	return false
}

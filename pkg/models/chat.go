package models

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Chat Roles
// ============================================================================

// ChatRole represents the role of a chat message sender.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ValidChatRoles contains all valid chat role values.
var ValidChatRoles = []ChatRole{
	ChatRoleUser,
	ChatRoleAssistant,
}

// IsValidChatRole checks if the given role is valid.
func IsValidChatRole(r ChatRole) bool {
	for _, v := range ValidChatRoles {
		if v == r {
			return true
		}
	}
	return false
}

// ============================================================================
// Chart Descriptors
// ============================================================================

// ChartKind identifies the renderer-agnostic chart family. The dashboard's
// chart widget consumes the descriptor and draws it.
type ChartKind string

const (
	ChartKindBar       ChartKind = "bar"
	ChartKindPie       ChartKind = "pie"
	ChartKindLine      ChartKind = "line"
	ChartKindScatter   ChartKind = "scatter"
	ChartKindBox       ChartKind = "box"
	ChartKindHistogram ChartKind = "histogram"
)

// ValidChartKinds contains all valid chart kind values.
var ValidChartKinds = []ChartKind{
	ChartKindBar,
	ChartKindPie,
	ChartKindLine,
	ChartKindScatter,
	ChartKindBox,
	ChartKindHistogram,
}

// IsValidChartKind checks if the given kind is valid.
func IsValidChartKind(k ChartKind) bool {
	for _, v := range ValidChartKinds {
		if v == k {
			return true
		}
	}
	return false
}

// ChartDescriptor specifies a chart abstractly: kind plus encodings. It is
// never the rendered chart itself; the host draws it from the current
// dataset. An empty Y on bar/line charts means "count rows per X". Colors,
// when present, pins the discrete color sequence, aligned with X's
// categories in descending count order.
type ChartDescriptor struct {
	Kind   ChartKind `json:"kind"`
	X      string    `json:"x"`
	Y      string    `json:"y"`
	Color  string    `json:"color,omitempty"`
	Colors []string  `json:"colors,omitempty"`
	Title  string    `json:"title"`
}

// ============================================================================
// Answers
// ============================================================================

// AnswerSource tells the host which path produced the answer.
type AnswerSource string

const (
	AnswerSourceRules AnswerSource = "rules"
	AnswerSourceAI    AnswerSource = "ai"
)

// Answer is one completed chat turn's result: text, an optional chart, and
// an optional non-fatal warning (e.g. the AI provider failed and the local
// interpreter answered instead).
type Answer struct {
	Text    string           `json:"text"`
	Chart   *ChartDescriptor `json:"chart,omitempty"`
	Warning string           `json:"warning,omitempty"`
	Source  AnswerSource     `json:"source"`
}

// ============================================================================
// Chat Messages and Sessions
// ============================================================================

// ChatMessage is one transcript entry. Source is set on assistant messages
// only.
type ChatMessage struct {
	ID        uuid.UUID        `json:"id"`
	SessionID uuid.UUID        `json:"session_id"`
	Role      ChatRole         `json:"role"`
	Content   string           `json:"content"`
	Chart     *ChartDescriptor `json:"chart,omitempty"`
	Warning   string           `json:"warning,omitempty"`
	Source    AnswerSource     `json:"source,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// IsFromUser returns true if the message is from a user.
func (m *ChatMessage) IsFromUser() bool {
	return m.Role == ChatRoleUser
}

// IsFromAssistant returns true if the message is from the assistant.
func (m *ChatMessage) IsFromAssistant() bool {
	return m.Role == ChatRoleAssistant
}

// ChatSession owns one user's transcript and dataset snapshot. Transcripts
// live for the process lifetime; replacing the dataset resets them.
type ChatSession struct {
	ID        uuid.UUID          `json:"id"`
	Dataset   *Dataset           `json:"-"`
	Schema    []ColumnDescriptor `json:"schema,omitempty"`
	Messages  []*ChatMessage     `json:"messages"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// HasDataset reports whether a dataset is loaded for the session.
func (s *ChatSession) HasDataset() bool {
	return s != nil && s.Dataset != nil && !s.Dataset.IsEmpty()
}

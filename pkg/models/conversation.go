package models

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Message senders
// ============================================================================

// Sender identifies which side of the conversation produced a message.
type Sender string

const (
	SenderUser  Sender = "user"
	SenderAgent Sender = "agent"
)

// ============================================================================
// Chart tags
// ============================================================================

// ChartType is a presentation hint derived from the shape of a query result.
// It guides how the consumer renders the rows; it is a heuristic, not a
// guarantee.
type ChartType string

const (
	ChartText   ChartType = "text"
	ChartTable  ChartType = "table"
	ChartMetric ChartType = "metric"
	ChartBar    ChartType = "bar"
	ChartLine   ChartType = "line"
	ChartError  ChartType = "error"
)

// ============================================================================
// Conversation
// ============================================================================

// TitleMaxLength is the truncation limit for conversation titles derived
// from the first question.
const TitleMaxLength = 50

// Conversation is owned by exactly one user. Its updated_at moves to "now"
// on every new turn.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TitleFromQuestion derives a conversation title from the first question:
// the question itself if it fits, otherwise the first 50 characters plus an
// ellipsis.
func TitleFromQuestion(question string) string {
	runes := []rune(question)
	if len(runes) <= TitleMaxLength {
		return question
	}
	return string(runes[:TitleMaxLength]) + "..."
}

// ============================================================================
// Message
// ============================================================================

// Message belongs to one conversation. Agent messages carry the generated
// SQL and the result rows alongside the answer text; error-typed messages
// carry only the localized apology.
type Message struct {
	ID             uuid.UUID        `json:"id"`
	ConversationID uuid.UUID        `json:"conversation_id"`
	Sender         Sender           `json:"sender"`
	Text           string           `json:"text"`
	Type           ChartType        `json:"type"`
	SQL            string           `json:"sql,omitempty"`
	Data           []map[string]any `json:"data"`
	CreatedAt      time.Time        `json:"created_at"`
}

// IsFromUser returns true if the message is a user turn.
func (m *Message) IsFromUser() bool {
	return m.Sender == SenderUser
}

// IsError returns true if the message records a pipeline failure.
func (m *Message) IsError() bool {
	return m.Type == ChartError
}

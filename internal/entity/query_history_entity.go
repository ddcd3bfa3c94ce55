package entity

import (
	"time"

	"github.com/google/uuid"
)

// QueryHistory is the audit record of one question/answer turn.
type QueryHistory struct {
	Id               uuid.UUID
	QueryId          string
	ConversationId   string
	Question         string
	EnhancedQuestion string
	GeneratedSql     string
	Status           string
	ErrorMessage     string
	Clarification    bool
	TopicShift       bool
	RowCount         int
	ChartKinds       []string
	Metadata         map[string]any
	ProcessingMs     int64
	CreatedAt        time.Time
}

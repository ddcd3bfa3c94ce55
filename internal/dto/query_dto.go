package dto

import (
	"time"

	"medical-text2sql-be/pkg/chart"
)

type QueryRequest struct {
	Question       string `json:"question" validate:"required,max=2000"`
	ConversationId string `json:"conversation_id" validate:"omitempty,max=128"`
}

type QueryResponse struct {
	QueryId        string                `json:"query_id"`
	ConversationId string                `json:"conversation_id"`
	Sql            string                `json:"sql"`
	Message        string                `json:"message"`
	Error          string                `json:"error"`
	Clarification  bool                  `json:"clarification"`
	TopicShift     bool                  `json:"topic_shift"`
	RowCount       int                   `json:"row_count"`
	Charts         []chart.ChartSpec     `json:"charts"`
	Latest         []chart.MetricReading `json:"latest,omitempty"`
	Rows           []map[string]any      `json:"rows"`
	Metadata       map[string]any        `json:"metadata,omitempty"`
}

type EntityDTO struct {
	Name    string   `json:"name"`
	Count   int      `json:"count"`
	Columns []string `json:"columns"`
}

type HistoryEntryDTO struct {
	Timestamp time.Time `json:"timestamp"`
	Question  string    `json:"user_query"`
	Sql       string    `json:"generated_sql"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
}

type SessionContextResponse struct {
	ConversationId string            `json:"conversation_id"`
	Summary        string            `json:"summary"`
	Entities       []EntityDTO       `json:"entities"`
	History        []HistoryEntryDTO `json:"history"`
	CreatedAt      time.Time         `json:"created_at"`
	LastActivity   time.Time         `json:"last_activity"`
}

type UploadSchemaResponse struct {
	Path  string `json:"path"`
	Bytes int    `json:"bytes"`
}

type GetHistoryRequest struct {
	ConversationId string `validate:"required,max=128"`
	Limit          int    `validate:"gte=0,lte=100"`
	Offset         int    `validate:"gte=0"`
}

type QueryHistoryResponse struct {
	QueryId       string         `json:"query_id"`
	Question      string         `json:"question"`
	Sql           string         `json:"sql"`
	Status        string         `json:"status"`
	Error         string         `json:"error,omitempty"`
	Clarification bool           `json:"clarification"`
	TopicShift    bool           `json:"topic_shift"`
	RowCount      int            `json:"row_count"`
	ChartKinds    []string       `json:"chart_kinds"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

type QueryHistoryPageResponse struct {
	Total int64                  `json:"total"`
	Items []QueryHistoryResponse `json:"items"`
}

// PublishQueryHistoryMessage travels over the in-process bus from the query path to the audit writer.
type PublishQueryHistoryMessage struct {
	QueryId          string         `json:"query_id"`
	ConversationId   string         `json:"conversation_id"`
	Question         string         `json:"question"`
	EnhancedQuestion string         `json:"enhanced_question"`
	Sql              string         `json:"sql"`
	Status           string         `json:"status"`
	Error            string         `json:"error,omitempty"`
	Clarification    bool           `json:"clarification"`
	TopicShift       bool           `json:"topic_shift"`
	RowCount         int            `json:"row_count"`
	ChartKinds       []string       `json:"chart_kinds"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	ProcessingMs     int64          `json:"processing_ms"`
	OccurredAt       time.Time      `json:"occurred_at"`
}

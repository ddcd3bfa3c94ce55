package events

import "time"

const (
	TypeQueryTurn     = "QUERY_TURN"
	TypeSessionReset  = "SESSION_RESET"
	TypeSchemaUpdated = "SCHEMA_UPDATED"
)

// QueryTurn describes one finished question/answer turn.
type QueryTurn struct {
	QueryID        string
	ConversationID string
	Question       string
	SQL            string
	Status         string
	Error          string
	Clarification  bool
	TopicShift     bool
	RowCount       int
	ChartKinds     []string
	ProcessingMs   int64
	OccurredAt     time.Time
}

func (e QueryTurn) EventType() string {
	return TypeQueryTurn
}

func (e QueryTurn) Timestamp() time.Time {
	return e.OccurredAt
}

func (e QueryTurn) Payload() map[string]interface{} {
	kinds := e.ChartKinds
	if kinds == nil {
		kinds = []string{}
	}
	return map[string]interface{}{
		"query_id":        e.QueryID,
		"conversation_id": e.ConversationID,
		"question":        e.Question,
		"sql":             e.SQL,
		"status":          e.Status,
		"error":           e.Error,
		"clarification":   e.Clarification,
		"topic_shift":     e.TopicShift,
		"row_count":       e.RowCount,
		"chart_kinds":     kinds,
		"processing_ms":   e.ProcessingMs,
	}
}

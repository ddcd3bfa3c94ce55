// Package events defines what the pipeline announces to outside consumers.
package events

import "time"

type Event interface {
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

// BaseEvent carries a free-form payload for events without their own type.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

// Payload is never nil so the wire form always has a data object.
func (e BaseEvent) Payload() map[string]interface{} {
	if e.Data == nil {
		return map[string]interface{}{}
	}
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewSessionReset is emitted when a conversation is cleared on request.
func NewSessionReset(conversationID string, at time.Time) BaseEvent {
	return BaseEvent{
		Type:       TypeSessionReset,
		Data:       map[string]interface{}{"conversation_id": conversationID},
		OccurredAt: at,
	}
}

// NewSchemaUpdated is emitted after the schema file was replaced.
func NewSchemaUpdated(path string, size int, at time.Time) BaseEvent {
	return BaseEvent{
		Type:       TypeSchemaUpdated,
		Data:       map[string]interface{}{"path": path, "bytes": size},
		OccurredAt: at,
	}
}

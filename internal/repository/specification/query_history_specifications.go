package specification

import (
	"time"

	"gorm.io/gorm"
)

type ByConversationID struct {
	ConversationID string
}

func (s ByConversationID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("conversation_id = ?", s.ConversationID)
}

type ByQueryID struct {
	QueryID string
}

func (s ByQueryID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("query_id = ?", s.QueryID)
}

type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// CreatedBefore keeps rows older than Time, used for retention cleanup.
type CreatedBefore struct {
	Time time.Time
}

func (s CreatedBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("created_at < ?", s.Time)
}

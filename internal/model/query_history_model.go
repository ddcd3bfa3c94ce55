package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type QueryHistory struct {
	Id               uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	QueryId          string                      `gorm:"type:varchar(64);not null;uniqueIndex"`
	ConversationId   string                      `gorm:"type:varchar(128);not null;index:idx_query_histories_conversation"`
	Question         string                      `gorm:"type:text;not null"`
	EnhancedQuestion string                      `gorm:"type:text"`
	GeneratedSql     string                      `gorm:"type:text"`
	Status           string                      `gorm:"type:varchar(16);not null"`
	ErrorMessage     string                      `gorm:"type:text"`
	Clarification    bool                        `gorm:"not null;default:false"`
	TopicShift       bool                        `gorm:"not null;default:false"`
	RowCount         int                         `gorm:"not null;default:0"`
	ChartKinds       datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Metadata         datatypes.JSON              `gorm:"type:jsonb"`
	ProcessingMs     int64                       `gorm:"not null;default:0"`
	CreatedAt        time.Time                   `gorm:"autoCreateTime;index:idx_query_histories_conversation"`
}

func (QueryHistory) TableName() string {
	return "query_histories"
}

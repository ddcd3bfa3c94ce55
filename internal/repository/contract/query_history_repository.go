package contract

import (
	"context"
	"time"

	"medical-text2sql-be/internal/entity"
)

// HistoryPage selects one conversation's turns, newest first.
type HistoryPage struct {
	ConversationID string
	Limit          int
	Offset         int
}

type QueryHistoryRepository interface {
	Create(ctx context.Context, history *entity.QueryHistory) error
	FindByQueryID(ctx context.Context, queryID string) (*entity.QueryHistory, error)
	FindByConversation(ctx context.Context, page HistoryPage) ([]*entity.QueryHistory, error)
	CountByConversation(ctx context.Context, conversationID string) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"medical-text2sql-be/internal/entity"
	"medical-text2sql-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// QueryHistoryRepository keeps audit rows in process when no history database is configured.
// Rows expire after the retention window.
type QueryHistoryRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
	now   func() time.Time
}

var _ contract.QueryHistoryRepository = &QueryHistoryRepository{}

func NewQueryHistoryRepository(retention time.Duration) *QueryHistoryRepository {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &QueryHistoryRepository{
		cache: cache.New(retention, 10*time.Minute),
		now:   time.Now,
	}
}

func (r *QueryHistoryRepository) Create(_ context.Context, history *entity.QueryHistory) error {
	if history.Id == uuid.Nil {
		history.Id = uuid.New()
	}
	if history.CreatedAt.IsZero() {
		history.CreatedAt = r.now()
	}

	stored := *history
	r.cache.Set(history.QueryId, &stored, cache.DefaultExpiration)
	return nil
}

func (r *QueryHistoryRepository) FindByQueryID(_ context.Context, queryID string) (*entity.QueryHistory, error) {
	if x, found := r.cache.Get(queryID); found {
		h := *x.(*entity.QueryHistory)
		return &h, nil
	}
	return nil, nil
}

func (r *QueryHistoryRepository) FindByConversation(_ context.Context, page contract.HistoryPage) ([]*entity.QueryHistory, error) {
	rows := r.conversation(page.ConversationID)

	if page.Offset >= len(rows) {
		return []*entity.QueryHistory{}, nil
	}
	rows = rows[page.Offset:]
	if page.Limit > 0 && page.Limit < len(rows) {
		rows = rows[:page.Limit]
	}
	return rows, nil
}

func (r *QueryHistoryRepository) CountByConversation(_ context.Context, conversationID string) (int64, error) {
	return int64(len(r.conversation(conversationID))), nil
}

func (r *QueryHistoryRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for key, item := range r.cache.Items() {
		if item.Object.(*entity.QueryHistory).CreatedAt.Before(cutoff) {
			r.cache.Delete(key)
			n++
		}
	}
	return n, nil
}

// conversation returns copies of one conversation's rows, newest first.
func (r *QueryHistoryRepository) conversation(id string) []*entity.QueryHistory {
	var rows []*entity.QueryHistory
	for _, item := range r.cache.Items() {
		h := item.Object.(*entity.QueryHistory)
		if h.ConversationId == id {
			c := *h
			rows = append(rows, &c)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].QueryId > rows[j].QueryId
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	return rows
}

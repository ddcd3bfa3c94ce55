package implementation

import (
	"context"
	"errors"
	"time"

	"medical-text2sql-be/internal/entity"
	"medical-text2sql-be/internal/mapper"
	"medical-text2sql-be/internal/model"
	"medical-text2sql-be/internal/repository/contract"
	"medical-text2sql-be/internal/repository/specification"

	"gorm.io/gorm"
)

type QueryHistoryRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.QueryHistoryMapper
}

func NewQueryHistoryRepository(db *gorm.DB) contract.QueryHistoryRepository {
	return &QueryHistoryRepositoryImpl{
		db:     db,
		mapper: mapper.NewQueryHistoryMapper(),
	}
}

func (r *QueryHistoryRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *QueryHistoryRepositoryImpl) Create(ctx context.Context, history *entity.QueryHistory) error {
	m, err := r.mapper.ToModel(history)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*history = *r.mapper.ToEntity(m)
	return nil
}

func (r *QueryHistoryRepositoryImpl) FindByQueryID(ctx context.Context, queryID string) (*entity.QueryHistory, error) {
	var m model.QueryHistory
	query := r.applySpecifications(r.db.WithContext(ctx), specification.ByQueryID{QueryID: queryID})
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *QueryHistoryRepositoryImpl) FindByConversation(ctx context.Context, page contract.HistoryPage) ([]*entity.QueryHistory, error) {
	var models []*model.QueryHistory
	query := r.applySpecifications(r.db.WithContext(ctx),
		specification.ByConversationID{ConversationID: page.ConversationID},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: page.Limit, Offset: page.Offset},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *QueryHistoryRepositoryImpl) CountByConversation(ctx context.Context, conversationID string) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.QueryHistory{}),
		specification.ByConversationID{ConversationID: conversationID})
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *QueryHistoryRepositoryImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := r.applySpecifications(r.db.WithContext(ctx), specification.CreatedBefore{Time: cutoff})
	res := query.Delete(&model.QueryHistory{})
	return res.RowsAffected, res.Error
}

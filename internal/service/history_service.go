package service

import (
	"context"

	"medical-text2sql-be/internal/dto"
	"medical-text2sql-be/internal/repository/contract"
)

const defaultHistoryPageSize = 20

type IHistoryService interface {
	GetByConversation(ctx context.Context, req *dto.GetHistoryRequest) (*dto.QueryHistoryPageResponse, error)
}

type historyService struct {
	repo contract.QueryHistoryRepository
}

func NewHistoryService(repo contract.QueryHistoryRepository) IHistoryService {
	return &historyService{repo: repo}
}

func (s *historyService) GetByConversation(ctx context.Context, req *dto.GetHistoryRequest) (*dto.QueryHistoryPageResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultHistoryPageSize
	}

	total, err := s.repo.CountByConversation(ctx, req.ConversationId)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.FindByConversation(ctx, contract.HistoryPage{
		ConversationID: req.ConversationId,
		Limit:          limit,
		Offset:         req.Offset,
	})
	if err != nil {
		return nil, err
	}

	items := make([]dto.QueryHistoryResponse, 0, len(rows))
	for _, h := range rows {
		kinds := h.ChartKinds
		if kinds == nil {
			kinds = []string{}
		}
		items = append(items, dto.QueryHistoryResponse{
			QueryId:       h.QueryId,
			Question:      h.Question,
			Sql:           h.GeneratedSql,
			Status:        h.Status,
			Error:         h.ErrorMessage,
			Clarification: h.Clarification,
			TopicShift:    h.TopicShift,
			RowCount:      h.RowCount,
			ChartKinds:    kinds,
			Metadata:      h.Metadata,
			CreatedAt:     h.CreatedAt,
		})
	}

	return &dto.QueryHistoryPageResponse{Total: total, Items: items}, nil
}

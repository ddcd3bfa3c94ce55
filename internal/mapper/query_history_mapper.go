package mapper

import (
	"encoding/json"

	"medical-text2sql-be/internal/entity"
	"medical-text2sql-be/internal/model"

	"gorm.io/datatypes"
)

type QueryHistoryMapper struct{}

func NewQueryHistoryMapper() *QueryHistoryMapper {
	return &QueryHistoryMapper{}
}

func (m *QueryHistoryMapper) ToEntity(h *model.QueryHistory) *entity.QueryHistory {
	if h == nil {
		return nil
	}

	var metadata map[string]any
	if len(h.Metadata) > 0 {
		// A row written by hand with invalid JSON still maps; it just loses its metadata.
		_ = json.Unmarshal(h.Metadata, &metadata)
	}

	return &entity.QueryHistory{
		Id:               h.Id,
		QueryId:          h.QueryId,
		ConversationId:   h.ConversationId,
		Question:         h.Question,
		EnhancedQuestion: h.EnhancedQuestion,
		GeneratedSql:     h.GeneratedSql,
		Status:           h.Status,
		ErrorMessage:     h.ErrorMessage,
		Clarification:    h.Clarification,
		TopicShift:       h.TopicShift,
		RowCount:         h.RowCount,
		ChartKinds:       []string(h.ChartKinds),
		Metadata:         metadata,
		ProcessingMs:     h.ProcessingMs,
		CreatedAt:        h.CreatedAt,
	}
}

func (m *QueryHistoryMapper) ToModel(h *entity.QueryHistory) (*model.QueryHistory, error) {
	if h == nil {
		return nil, nil
	}

	var metadata datatypes.JSON
	if h.Metadata != nil {
		raw, err := json.Marshal(h.Metadata)
		if err != nil {
			return nil, err
		}
		metadata = datatypes.JSON(raw)
	}

	return &model.QueryHistory{
		Id:               h.Id,
		QueryId:          h.QueryId,
		ConversationId:   h.ConversationId,
		Question:         h.Question,
		EnhancedQuestion: h.EnhancedQuestion,
		GeneratedSql:     h.GeneratedSql,
		Status:           h.Status,
		ErrorMessage:     h.ErrorMessage,
		Clarification:    h.Clarification,
		TopicShift:       h.TopicShift,
		RowCount:         h.RowCount,
		ChartKinds:       datatypes.JSONSlice[string](h.ChartKinds),
		Metadata:         metadata,
		ProcessingMs:     h.ProcessingMs,
		CreatedAt:        h.CreatedAt,
	}, nil
}

func (m *QueryHistoryMapper) ToEntities(models []*model.QueryHistory) []*entity.QueryHistory {
	out := make([]*entity.QueryHistory, len(models))
	for i, h := range models {
		out[i] = m.ToEntity(h)
	}
	return out
}

package service

import (
	"context"
	"encoding/json"

	"medical-text2sql-be/internal/dto"
	"medical-text2sql-be/internal/entity"
	"medical-text2sql-be/internal/pkg/logger"
	"medical-text2sql-be/internal/repository/contract"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

type IHistoryConsumerService interface {
	Consume(ctx context.Context) error
}

type historyConsumerService struct {
	subscriber message.Subscriber
	topicName  string
	repo       contract.QueryHistoryRepository
	logger     logger.ILogger
}

func NewHistoryConsumerService(
	subscriber message.Subscriber,
	topicName string,
	repo contract.QueryHistoryRepository,
	log logger.ILogger,
) IHistoryConsumerService {
	return &historyConsumerService{
		subscriber: subscriber,
		topicName:  topicName,
		repo:       repo,
		logger:     log,
	}
}

func (cs *historyConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

// processMessage always acks. The audit trail is best effort and a redelivered
// message would spin while the database is down.
func (cs *historyConsumerService) processMessage(msg *message.Message) {
	defer msg.Ack()

	var payload dto.PublishQueryHistoryMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error(logger.ModuleHistory, "Failed to unmarshal history message", map[string]interface{}{"error": err.Error()})
		return
	}

	record := &entity.QueryHistory{
		Id:               uuid.New(),
		QueryId:          payload.QueryId,
		ConversationId:   payload.ConversationId,
		Question:         payload.Question,
		EnhancedQuestion: payload.EnhancedQuestion,
		GeneratedSql:     payload.Sql,
		Status:           payload.Status,
		ErrorMessage:     payload.Error,
		Clarification:    payload.Clarification,
		TopicShift:       payload.TopicShift,
		RowCount:         payload.RowCount,
		ChartKinds:       payload.ChartKinds,
		Metadata:         payload.Metadata,
		ProcessingMs:     payload.ProcessingMs,
		CreatedAt:        payload.OccurredAt,
	}

	if err := cs.repo.Create(msg.Context(), record); err != nil {
		cs.logger.Error(logger.ModuleHistory, "Failed to store query history", map[string]interface{}{
			"query_id": payload.QueryId,
			"error":    err.Error(),
		})
		return
	}

	cs.logger.Debug(logger.ModuleHistory, "Query history stored", map[string]interface{}{
		"query_id":        payload.QueryId,
		"conversation_id": payload.ConversationId,
	})
}

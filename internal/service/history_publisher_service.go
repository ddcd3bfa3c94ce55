package service

import (
	"context"
	"encoding/json"

	"medical-text2sql-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

type IHistoryPublisherService interface {
	Publish(ctx context.Context, msg *dto.PublishQueryHistoryMessage) error
}

type historyPublisherService struct {
	topicName string
	publisher message.Publisher
}

func NewHistoryPublisherService(topicName string, publisher message.Publisher) IHistoryPublisherService {
	return &historyPublisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

func (s *historyPublisherService) Publish(ctx context.Context, msg *dto.PublishQueryHistoryMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	m := message.NewMessage(watermill.NewUUID(), payload)
	m.SetContext(ctx)
	return s.publisher.Publish(s.topicName, m)
}

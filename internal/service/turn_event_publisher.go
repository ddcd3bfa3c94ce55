package service

import (
	"context"
	"time"

	"medical-text2sql-be/internal/pkg/logger"
	"medical-text2sql-be/pkg/events"
)

// EventPublisher is satisfied by pkg/nats.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// ITurnEventPublisher emits pipeline events to external consumers. Failures are logged, never returned.
type ITurnEventPublisher interface {
	PublishTurn(ctx context.Context, turn events.QueryTurn)
	PublishSessionReset(ctx context.Context, conversationId string)
	PublishSchemaUpdated(ctx context.Context, path string, size int)
}

type turnEventPublisher struct {
	publisher EventPublisher
	logger    logger.ILogger
}

// NewTurnEventPublisher accepts a nil publisher, in which case every call is a no-op.
func NewTurnEventPublisher(publisher EventPublisher, log logger.ILogger) ITurnEventPublisher {
	return &turnEventPublisher{
		publisher: publisher,
		logger:    log,
	}
}

func (p *turnEventPublisher) PublishTurn(ctx context.Context, turn events.QueryTurn) {
	p.publish(ctx, turn)
}

func (p *turnEventPublisher) PublishSessionReset(ctx context.Context, conversationId string) {
	p.publish(ctx, events.NewSessionReset(conversationId, time.Now()))
}

func (p *turnEventPublisher) PublishSchemaUpdated(ctx context.Context, path string, size int) {
	p.publish(ctx, events.NewSchemaUpdated(path, size, time.Now()))
}

func (p *turnEventPublisher) publish(ctx context.Context, evt events.Event) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, evt); err != nil {
		p.logger.Error(logger.ModuleEvents, "Failed to publish "+evt.EventType()+" event", map[string]interface{}{"error": err.Error()})
	}
}

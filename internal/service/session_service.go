package service

import (
	"context"
	"errors"

	"medical-text2sql-be/internal/dto"
	"medical-text2sql-be/internal/pkg/logger"
	"medical-text2sql-be/pkg/conversation"

	"github.com/gofiber/fiber/v2"
)

type ISessionService interface {
	Reset(ctx context.Context, conversationId string) error
	Context(ctx context.Context, conversationId string) (*dto.SessionContextResponse, error)

	// Restore and Persist move all sessions through the snapshot backend.
	Restore(ctx context.Context) error
	Persist(ctx context.Context) error
}

type sessionService struct {
	manager   *conversation.Manager
	backend   conversation.SnapshotBackend
	publisher ITurnEventPublisher
	logger    logger.ILogger
}

// NewSessionService accepts a nil backend, which disables snapshots.
func NewSessionService(
	manager *conversation.Manager,
	backend conversation.SnapshotBackend,
	publisher ITurnEventPublisher,
	log logger.ILogger,
) ISessionService {
	return &sessionService{
		manager:   manager,
		backend:   backend,
		publisher: publisher,
		logger:    log,
	}
}

func (s *sessionService) Reset(ctx context.Context, conversationId string) error {
	if _, ok := s.manager.Store().Get(conversationId); !ok {
		return fiber.NewError(fiber.StatusNotFound, "会话不存在或已过期")
	}

	release := s.manager.BeginTurn(conversationId)
	s.manager.Reset(conversationId)
	release()

	s.publisher.PublishSessionReset(ctx, conversationId)
	return nil
}

func (s *sessionService) Context(ctx context.Context, conversationId string) (*dto.SessionContextResponse, error) {
	sess, ok := s.manager.Store().Get(conversationId)
	if !ok {
		return nil, fiber.NewError(fiber.StatusNotFound, "会话不存在或已过期")
	}

	entities := sess.Entities()
	entityDTOs := make([]dto.EntityDTO, 0, len(entities))
	for _, e := range entities {
		entityDTOs = append(entityDTOs, dto.EntityDTO{Name: e.Name, Count: e.Count, Columns: e.Columns})
	}

	history := sess.History()
	historyDTOs := make([]dto.HistoryEntryDTO, 0, len(history))
	for _, h := range history {
		historyDTOs = append(historyDTOs, dto.HistoryEntryDTO{
			Timestamp: h.Timestamp,
			Question:  h.Utterance,
			Sql:       h.SQL,
			Status:    h.Outcome.Status,
			Error:     h.Outcome.Error,
		})
	}

	return &dto.SessionContextResponse{
		ConversationId: conversationId,
		Summary:        s.manager.Summary(conversationId),
		Entities:       entityDTOs,
		History:        historyDTOs,
		CreatedAt:      sess.CreatedAt(),
		LastActivity:   sess.LastActivity(),
	}, nil
}

func (s *sessionService) Restore(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}
	err := s.manager.Store().LoadFrom(ctx, s.backend)
	if errors.Is(err, conversation.ErrSnapshotNotFound) {
		return nil
	}
	return err
}

func (s *sessionService) Persist(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}
	return s.manager.Store().SaveTo(ctx, s.backend)
}

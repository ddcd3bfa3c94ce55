package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"medical-text2sql-be/internal/pkg/logger"
	"medical-text2sql-be/pkg/conversation"
	"medical-text2sql-be/pkg/events"
	"medical-text2sql-be/pkg/schema"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager() *conversation.Manager {
	log := logger.NewNopLogger()
	store := conversation.NewStore(conversation.StoreConfig{}, log)
	extractor := conversation.NewExtractor(conversation.NewVocabulary(schema.Vocabulary()), log)
	return conversation.NewManager(store, extractor, log)
}

func TestSessionResetUnknown(t *testing.T) {
	svc := NewSessionService(newManager(), nil, NewTurnEventPublisher(nil, logger.NewNopLogger()), logger.NewNopLogger())

	err := svc.Reset(context.Background(), "missing")

	var fe *fiber.Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, fiber.StatusNotFound, fe.Code)
}

func TestSessionResetAndContext(t *testing.T) {
	manager := newManager()
	evts := &capturedEvents{}
	svc := NewSessionService(manager, nil, NewTurnEventPublisher(evts, logger.NewNopLogger()), logger.NewNopLogger())

	manager.Record("c-1", "查看年龄", "SELECT age FROM medical_checkup", conversation.Outcome{Status: conversation.StatusSuccess})

	ctxResp, err := svc.Context(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, "c-1", ctxResp.ConversationId)
	require.Len(t, ctxResp.History, 1)
	assert.Equal(t, "SELECT age FROM medical_checkup", ctxResp.History[0].Sql)
	require.NotEmpty(t, ctxResp.Entities)
	assert.Equal(t, "medical_checkup", ctxResp.Entities[0].Name)
	assert.Equal(t, []string{"age"}, ctxResp.Entities[0].Columns)

	require.NoError(t, svc.Reset(context.Background(), "c-1"))

	_, ok := manager.Store().Get("c-1")
	assert.False(t, ok)
	require.Len(t, evts.other, 1)
	assert.Equal(t, events.TypeSessionReset, evts.other[0].EventType())

	_, err = svc.Context(context.Background(), "c-1")
	assert.Error(t, err)
}

func TestSessionPersistRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	backend := conversation.NewFileSnapshotBackend(path)
	publisher := NewTurnEventPublisher(nil, logger.NewNopLogger())

	first := newManager()
	first.Record("c-1", "查看年龄", "SELECT age FROM medical_checkup", conversation.Outcome{Status: conversation.StatusSuccess})
	require.NoError(t, NewSessionService(first, backend, publisher, logger.NewNopLogger()).Persist(context.Background()))

	second := newManager()
	require.NoError(t, NewSessionService(second, backend, publisher, logger.NewNopLogger()).Restore(context.Background()))

	sess, ok := second.Store().Get("c-1")
	require.True(t, ok)
	assert.Len(t, sess.History(), 1)
}

func TestSessionRestoreTolerance(t *testing.T) {
	dir := t.TempDir()
	publisher := NewTurnEventPublisher(nil, logger.NewNopLogger())

	missing := conversation.NewFileSnapshotBackend(filepath.Join(dir, "none.json"))
	assert.NoError(t, NewSessionService(newManager(), missing, publisher, logger.NewNopLogger()).Restore(context.Background()))

	brokenPath := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(brokenPath, []byte("{not json"), 0o644))
	manager := newManager()
	manager.Record("live", "查看年龄", "", conversation.Outcome{Status: conversation.StatusError})

	err := NewSessionService(manager, conversation.NewFileSnapshotBackend(brokenPath), publisher, logger.NewNopLogger()).Restore(context.Background())
	assert.ErrorIs(t, err, conversation.ErrMalformedSnapshot)

	_, ok := manager.Store().Get("live")
	assert.True(t, ok)

	assert.NoError(t, NewSessionService(newManager(), nil, publisher, logger.NewNopLogger()).Persist(context.Background()))
}

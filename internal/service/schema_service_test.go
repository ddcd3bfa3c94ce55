package service

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"medical-text2sql-be/internal/pkg/logger"
	"medical-text2sql-be/pkg/events"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaUploadAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "schema.sql")
	evts := &capturedEvents{}
	svc := NewSchemaService(path, NewTurnEventPublisher(evts, logger.NewNopLogger()), logger.NewNopLogger())

	assert.Equal(t, "", svc.Load())

	ddl := []byte("CREATE TABLE medical_checkup (id INT);")
	res, err := svc.Upload(context.Background(), ddl)
	require.NoError(t, err)
	assert.Equal(t, len(ddl), res.Bytes)
	assert.Equal(t, string(ddl), svc.Load())

	require.Len(t, evts.other, 1)
	assert.Equal(t, events.TypeSchemaUpdated, evts.other[0].EventType())
}

func TestSchemaUploadRejects(t *testing.T) {
	svc := NewSchemaService(filepath.Join(t.TempDir(), "schema.sql"), NewTurnEventPublisher(nil, logger.NewNopLogger()), logger.NewNopLogger())

	tests := []struct {
		name    string
		content []byte
		code    int
	}{
		{"empty", []byte("  \n"), fiber.StatusBadRequest},
		{"too large", bytes.Repeat([]byte("a"), MaxSchemaBytes+1), fiber.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), tt.content)
			var fe *fiber.Error
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.code, fe.Code)
		})
	}

	assert.Equal(t, "", svc.Load())
}

package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"medical-text2sql-be/internal/dto"
	"medical-text2sql-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

const MaxSchemaBytes = 1 << 20

var ErrEmptySchema = errors.New("schema file is empty")

type ISchemaService interface {
	// Load returns the current schema text, or "" when none was uploaded yet.
	Load() string
	Upload(ctx context.Context, content []byte) (*dto.UploadSchemaResponse, error)
}

type schemaService struct {
	mu        sync.RWMutex
	path      string
	publisher ITurnEventPublisher
	logger    logger.ILogger
}

func NewSchemaService(path string, publisher ITurnEventPublisher, log logger.ILogger) ISchemaService {
	return &schemaService{
		path:      path,
		publisher: publisher,
		logger:    log,
	}
}

func (s *schemaService) Load() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn(logger.ModuleSchema, "Failed to read schema file", map[string]interface{}{"path": s.path, "error": err.Error()})
		}
		return ""
	}
	return string(data)
}

func (s *schemaService) Upload(ctx context.Context, content []byte) (*dto.UploadSchemaResponse, error) {
	if len(strings.TrimSpace(string(content))) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, ErrEmptySchema.Error())
	}
	if len(content) > MaxSchemaBytes {
		return nil, fiber.NewError(fiber.StatusRequestEntityTooLarge, "schema file exceeds 1MB")
	}

	s.mu.Lock()
	err := writeFileAtomic(s.path, content)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("write schema: %w", err)
	}

	s.logger.Info(logger.ModuleSchema, "Schema replaced", map[string]interface{}{"path": s.path, "bytes": len(content)})
	s.publisher.PublishSchemaUpdated(ctx, s.path, len(content))

	return &dto.UploadSchemaResponse{Path: s.path, Bytes: len(content)}, nil
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".schema-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

package conversation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
)

// FileSnapshotBackend keeps the snapshot in a single JSON file.
type FileSnapshotBackend struct {
	Path string
}

func NewFileSnapshotBackend(path string) *FileSnapshotBackend {
	return &FileSnapshotBackend{Path: path}
}

// Save writes to a temp file next to Path and renames it into place.
func (b *FileSnapshotBackend) Save(_ context.Context, data []byte) error {
	dir := filepath.Dir(b.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".sessions-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	return os.Rename(tmp.Name(), b.Path)
}

func (b *FileSnapshotBackend) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(b.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}
	return data, nil
}

// RedisSnapshotBackend keeps the snapshot under one Redis key.
type RedisSnapshotBackend struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

// NewRedisSnapshotBackend stores under key. A zero ttl keeps the key forever.
func NewRedisSnapshotBackend(client redis.Cmdable, key string, ttl time.Duration) *RedisSnapshotBackend {
	return &RedisSnapshotBackend{client: client, key: key, ttl: ttl}
}

func (b *RedisSnapshotBackend) Save(ctx context.Context, data []byte) error {
	return b.client.Set(ctx, b.key, data, b.ttl).Err()
}

func (b *RedisSnapshotBackend) Load(ctx context.Context) ([]byte, error) {
	data, err := b.client.Get(ctx, b.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}
	return data, nil
}

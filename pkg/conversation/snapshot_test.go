package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(clock)
	m.Record("s1", "查询年龄", "SELECT age, bmi FROM medical_checkup", Outcome{
		Status:   StatusSuccess,
		Metadata: map[string]interface{}{"model": "deepseek-chat"},
	})
	m.Record("s1", "血压", "", Outcome{Status: StatusError, Error: "生成错误"})

	data, err := m.Store().Snapshot()
	require.NoError(t, err)

	restored := newTestStore(clock)
	require.NoError(t, restored.Restore(data))

	sess, ok := restored.Get("s1")
	require.True(t, ok)

	history := sess.History()
	require.Len(t, history, 2)
	assert.Equal(t, "查询年龄", history[0].Utterance)
	assert.Equal(t, "SELECT age, bmi FROM medical_checkup", history[0].SQL)
	assert.Equal(t, "deepseek-chat", history[0].Outcome.Metadata["model"])
	assert.Equal(t, StatusError, history[1].Outcome.Status)
	assert.True(t, history[0].Timestamp.Equal(clock.Now()))

	entities := sess.Entities()
	require.Len(t, entities, 3)
	assert.Equal(t, "medical_checkup", entities[0].Name)
	assert.Equal(t, []string{"age", "bmi"}, entities[0].Columns)
	assert.True(t, entities[0].Table)
	assert.Equal(t, "年龄", entities[1].Name)
	assert.False(t, entities[1].Table)
	assert.Equal(t, "血压", entities[2].Name)

	// Insertion order survives, so resolution still picks the same antecedent.
	assert.Equal(t, "血压的变化", NewResolver().Resolve(sess, "它的变化"))
}

func TestSnapshotDocumentShape(t *testing.T) {
	m := newTestManager(newFakeClock())
	m.Record("s1", "查询年龄", "SELECT age FROM medical_checkup", Outcome{Status: StatusSuccess})

	data, err := m.Store().Snapshot()
	require.NoError(t, err)

	var doc map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Contains(t, doc, "s1")

	var createdAt string
	require.NoError(t, json.Unmarshal(doc["s1"]["created_at"], &createdAt))
	_, err = time.Parse(time.RFC3339, createdAt)
	assert.NoError(t, err)

	var entities map[string]struct {
		Count   int      `json:"count"`
		Columns []string `json:"columns"`
	}
	require.NoError(t, json.Unmarshal(doc["s1"]["entities"], &entities))
	assert.Equal(t, 1, entities["medical_checkup"].Count)
	assert.Equal(t, []string{"age"}, entities["medical_checkup"].Columns)
}

func TestRestoreSkipsExpired(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(clock)
	m.Record("old", "查询年龄", "", Outcome{Status: StatusSuccess})
	clock.Advance(20 * time.Minute)
	m.Record("new", "查询年龄", "", Outcome{Status: StatusSuccess})

	data, err := m.Store().Snapshot()
	require.NoError(t, err)

	later := &fakeClock{now: clock.Now().Add(15 * time.Minute)}
	restored := newTestStore(later)
	require.NoError(t, restored.Restore(data))

	_, ok := restored.Get("old")
	assert.False(t, ok)
	_, ok = restored.Get("new")
	assert.True(t, ok)
}

func TestRestoreMalformedLeavesStateUntouched(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "{nope"},
		{name: "bad timestamp", data: `{"s9":{"history":[],"created_at":"yesterday","last_activity":"2024-05-01T09:00:00Z","entities":{}}}`},
		{name: "bad history timestamp", data: `{"s9":{"history":[{"timestamp":"x"}],"created_at":"2024-05-01T09:00:00Z","last_activity":"2024-05-01T09:00:00Z","entities":{}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			store := newTestStore(clock)
			store.GetOrCreate("live")

			err := store.Restore([]byte(tt.data))
			assert.True(t, errors.Is(err, ErrMalformedSnapshot))
			assert.Equal(t, 1, store.Len())
			_, ok := store.Get("s9")
			assert.False(t, ok)
		})
	}
}

func TestFileSnapshotBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "sessions.json")
	backend := NewFileSnapshotBackend(path)

	clock := newFakeClock()
	store := newTestStore(clock)

	err := store.LoadFrom(ctx, backend)
	assert.True(t, errors.Is(err, ErrSnapshotNotFound))
	assert.Equal(t, 0, store.Len())

	m := NewManager(store, newTestExtractor(), store.logger)
	m.Record("s1", "查询年龄", "SELECT age FROM medical_checkup", Outcome{Status: StatusSuccess})
	require.NoError(t, store.SaveTo(ctx, backend))

	other := newTestStore(clock)
	require.NoError(t, other.LoadFrom(ctx, backend))
	_, ok := other.Get("s1")
	assert.True(t, ok)

	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))
	err = other.LoadFrom(ctx, backend)
	assert.True(t, errors.Is(err, ErrMalformedSnapshot))
	_, ok = other.Get("s1")
	assert.True(t, ok)
}

func TestRedisSnapshotBackend(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("Skipping Redis test: REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	defer client.Close()

	ctx := context.Background()
	key := "test:sessions:" + time.Now().Format("150405.000000")
	defer client.Del(ctx, key)

	backend := NewRedisSnapshotBackend(client, key, time.Minute)
	_, err = backend.Load(ctx)
	assert.True(t, errors.Is(err, ErrSnapshotNotFound))

	require.NoError(t, backend.Save(ctx, []byte(`{}`)))
	data, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

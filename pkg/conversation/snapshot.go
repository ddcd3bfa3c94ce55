package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"medical-text2sql-be/internal/pkg/logger"

	"github.com/patrickmn/go-cache"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	ErrSnapshotNotFound  = errors.New("snapshot not found")
	ErrMalformedSnapshot = errors.New("malformed snapshot")
)

// SnapshotBackend stores one snapshot document.
type SnapshotBackend interface {
	Save(ctx context.Context, data []byte) error
	// Load returns ErrSnapshotNotFound when nothing was saved yet.
	Load(ctx context.Context) ([]byte, error)
}

type snapshotSession struct {
	History      []snapshotEntry                                `json:"history"`
	CreatedAt    string                                         `json:"created_at"`
	LastActivity string                                         `json:"last_activity"`
	Entities     *orderedmap.OrderedMap[string, snapshotEntity] `json:"entities"`
}

type snapshotEntry struct {
	Timestamp    string  `json:"timestamp"`
	UserQuery    string  `json:"user_query"`
	GeneratedSQL string  `json:"generated_sql"`
	Result       Outcome `json:"result"`
}

type snapshotEntity struct {
	Count   int      `json:"count"`
	Table   bool     `json:"table,omitempty"`
	Columns []string `json:"columns"`
}

// Snapshot serializes every session, expired or not.
func (s *Store) Snapshot() ([]byte, error) {
	s.mu.Lock()
	sessions := s.allLocked()
	s.mu.Unlock()

	doc := make(map[string]snapshotSession, len(sessions))
	for id, sess := range sessions {
		doc[id] = sess.snapshot()
	}
	return json.Marshal(doc)
}

func (s *Session) snapshot() snapshotSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := snapshotSession{
		History:      make([]snapshotEntry, 0, s.history.Len()),
		CreatedAt:    s.createdAt.Format(time.RFC3339Nano),
		LastActivity: s.lastActivity.Format(time.RFC3339Nano),
		Entities:     orderedmap.New[string, snapshotEntity](),
	}
	for _, e := range s.history.Entries() {
		out.History = append(out.History, snapshotEntry{
			Timestamp:    e.Timestamp.Format(time.RFC3339Nano),
			UserQuery:    e.Utterance,
			GeneratedSQL: e.SQL,
			Result:       e.Outcome,
		})
	}
	for pair := s.entities.Oldest(); pair != nil; pair = pair.Next() {
		out.Entities.Set(pair.Key, snapshotEntity{Count: pair.Value.Count, Table: pair.Value.table, Columns: pair.Value.Columns()})
	}
	return out
}

// Restore loads a document produced by Snapshot. Sessions that already
// expired are skipped. Nothing is installed unless the whole document parses;
// restored sessions replace live ones with the same id.
func (s *Store) Restore(data []byte) error {
	var doc map[string]snapshotSession
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	now := s.now()
	restored := make(map[string]*Session, len(doc))
	for id, snap := range doc {
		sess, err := s.sessionFromSnapshot(id, snap)
		if err != nil {
			return fmt.Errorf("%w: session %s: %v", ErrMalformedSnapshot, id, err)
		}
		if now.Sub(sess.lastActivity) > s.timeout {
			s.logger.Warn(logger.ModuleSnapshot, "Skipping expired session", map[string]interface{}{
				"session_id":    id,
				"last_activity": snap.LastActivity,
			})
			continue
		}
		restored[id] = sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range restored {
		s.sessions.Set(id, sess, cache.NoExpiration)
	}
	return nil
}

func (s *Store) sessionFromSnapshot(id string, snap snapshotSession) (*Session, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, snap.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	lastActivity, err := time.Parse(time.RFC3339Nano, snap.LastActivity)
	if err != nil {
		return nil, fmt.Errorf("last_activity: %w", err)
	}

	sess := newSession(id, s.capacity, createdAt)
	sess.lastActivity = lastActivity

	for i, e := range snap.History {
		ts, err := time.Parse(time.RFC3339Nano, e.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("history[%d].timestamp: %w", i, err)
		}
		sess.history.Push(HistoryEntry{Timestamp: ts, Utterance: e.UserQuery, SQL: e.GeneratedSQL, Outcome: e.Result})
	}

	if snap.Entities != nil {
		for pair := snap.Entities.Oldest(); pair != nil; pair = pair.Next() {
			rec := newEntityRecord()
			rec.Count = pair.Value.Count
			rec.table = pair.Value.Table
			for _, c := range pair.Value.Columns {
				rec.columns[c] = struct{}{}
			}
			sess.entities.Set(pair.Key, rec)
		}
	}
	return sess, nil
}

// SaveTo writes a snapshot through backend.
func (s *Store) SaveTo(ctx context.Context, backend SnapshotBackend) error {
	data, err := s.Snapshot()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := backend.Save(ctx, data); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	s.logger.Info(logger.ModuleSnapshot, "Sessions saved", map[string]interface{}{"sessions": s.Len(), "bytes": len(data)})
	return nil
}

// LoadFrom restores from backend. Failures are logged and returned, and the
// in-memory sessions are left as they were.
func (s *Store) LoadFrom(ctx context.Context, backend SnapshotBackend) error {
	data, err := backend.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrSnapshotNotFound) {
			s.logger.Info(logger.ModuleSnapshot, "No snapshot to restore", nil)
		} else {
			s.logger.Warn(logger.ModuleSnapshot, "Failed to read snapshot", map[string]interface{}{"error": err.Error()})
		}
		return err
	}
	if err := s.Restore(data); err != nil {
		s.logger.Warn(logger.ModuleSnapshot, "Snapshot rejected", map[string]interface{}{"error": err.Error()})
		return err
	}
	s.logger.Info(logger.ModuleSnapshot, "Sessions restored", map[string]interface{}{"sessions": s.Len()})
	return nil
}

package conversation

import (
	"sort"
	"strings"
	"sync"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	DefaultHistoryCapacity = 5
	DefaultSessionTimeout  = 30 * time.Minute
)

// Outcome statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Outcome is what SQL generation reported for a turn.
type Outcome struct {
	Status   string                 `json:"status"`
	Error    string                 `json:"error,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// HistoryEntry records one finished turn. SQL is empty when generation failed.
type HistoryEntry struct {
	Timestamp time.Time
	Utterance string
	SQL       string
	Outcome   Outcome
}

// EntityRecord counts mentions of an entity and accumulates the columns seen with it.
type EntityRecord struct {
	Count   int
	table   bool
	columns map[string]struct{}
}

func newEntityRecord() *EntityRecord {
	return &EntityRecord{columns: make(map[string]struct{})}
}

// Columns returns the accumulated column names, sorted.
func (e *EntityRecord) Columns() []string {
	cols := make([]string, 0, len(e.columns))
	for c := range e.columns {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// Entity is a read-only view of an EntityRecord. Table is set once the name
// was seen as a table in generated SQL.
type Entity struct {
	Name    string
	Count   int
	Table   bool
	Columns []string
}

// Session is the per-conversation state. All fields are guarded by mu.
type Session struct {
	ID string

	mu           sync.Mutex
	history      *HistoryRing
	createdAt    time.Time
	lastActivity time.Time
	entities     *orderedmap.OrderedMap[string, *EntityRecord]
}

func newSession(id string, capacity int, now time.Time) *Session {
	return &Session{
		ID:           id,
		history:      NewHistoryRing(capacity),
		createdAt:    now,
		lastActivity: now,
		entities:     orderedmap.New[string, *EntityRecord](),
	}
}

func (s *Session) CreatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createdAt
}

func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// History returns the entries oldest first.
func (s *Session) History() []HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Entries()
}

// LastSQL returns the SQL of the newest turn, if any.
func (s *Session) LastSQL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.history.Last(); ok {
		return e.SQL
	}
	return ""
}

// Entities returns the entity table in insertion order.
func (s *Session) Entities() []Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entitiesLocked()
}

func (s *Session) entitiesLocked() []Entity {
	out := make([]Entity, 0, s.entities.Len())
	for pair := s.entities.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, Entity{Name: pair.Key, Count: pair.Value.Count, Table: pair.Value.table, Columns: pair.Value.Columns()})
	}
	return out
}

// Entity looks up one record.
func (s *Session) Entity(name string) (Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.entities.Get(name)
	if !ok {
		return Entity{}, false
	}
	return Entity{Name: name, Count: rec.Count, Table: rec.table, Columns: rec.Columns()}, true
}

// isTableLocked reports whether name, ignoring case, is a known table entity.
func (s *Session) isTableLocked(name string) bool {
	for pair := s.entities.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.table && strings.EqualFold(pair.Key, name) {
			return true
		}
	}
	return false
}

// lastEntityLocked is the most recently inserted key. Incrementing an existing
// entity does not move it.
func (s *Session) lastEntityLocked() (string, bool) {
	pair := s.entities.Newest()
	if pair == nil {
		return "", false
	}
	return pair.Key, true
}

// touch moves last-activity forward, never backward.
func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.After(s.lastActivity) {
		s.lastActivity = now
	}
}

func (s *Session) expired(now time.Time, timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastActivity) > timeout
}

func (s *Session) mentionLocked(name string) *EntityRecord {
	rec, ok := s.entities.Get(name)
	if ok {
		rec.Count++
		return rec
	}
	rec = newEntityRecord()
	rec.Count = 1
	s.entities.Set(name, rec)
	return rec
}

func (s *Session) appendLocked(e HistoryEntry) {
	s.history.Push(e)
}

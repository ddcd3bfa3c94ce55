package conversation

import (
	"medical-text2sql-be/internal/pkg/logger"
)

// Manager is the entry point the request layer uses for multi-turn context.
//
// A turn is Enhance, SQL generation, then Record. Callers wrap the three in
// BeginTurn so turns of the same session never interleave; different
// sessions proceed in parallel.
type Manager struct {
	store     *Store
	extractor *Extractor
	resolver  *Resolver
	composer  *Composer
	turns     *turnLocks
	logger    logger.ILogger
}

func NewManager(store *Store, extractor *Extractor, log logger.ILogger) *Manager {
	return &Manager{
		store:     store,
		extractor: extractor,
		resolver:  NewResolver(),
		composer:  NewComposer(),
		turns:     newTurnLocks(),
		logger:    log,
	}
}

func (m *Manager) Store() *Store {
	return m.store
}

// BeginTurn blocks until no other turn of sessionID is running.
func (m *Manager) BeginTurn(sessionID string) (release func()) {
	return m.turns.acquire(sessionID)
}

// Enhance resolves pronouns and prefixes the conversation summary.
func (m *Manager) Enhance(sessionID, utterance string) string {
	sess := m.store.GetOrCreate(sessionID)
	resolved := m.resolver.Resolve(sess, utterance)
	if resolved != utterance {
		m.logger.Debug(logger.ModuleConversation, "Pronouns resolved", map[string]interface{}{
			"session_id": sessionID,
			"original":   utterance,
			"resolved":   resolved,
		})
	}
	summary := m.composer.Summarize(sess)
	return m.composer.Compose(resolved, summary)
}

// Record folds the turn into the entity table and appends it to history.
// sql may be empty when generation failed.
func (m *Manager) Record(sessionID, utterance, sql string, outcome Outcome) {
	sess := m.store.GetOrCreate(sessionID)
	ex := m.extractor.Extract(sess, utterance, sql)

	sess.mu.Lock()
	sess.appendLocked(HistoryEntry{
		Timestamp: m.store.now(),
		Utterance: utterance,
		SQL:       sql,
		Outcome:   outcome,
	})
	sess.mu.Unlock()

	m.logger.Debug(logger.ModuleConversation, "Turn recorded", map[string]interface{}{
		"session_id": sessionID,
		"tables":     ex.Tables,
		"columns":    ex.Columns,
		"nouns":      ex.Nouns,
		"status":     outcome.Status,
	})
}

// DetectTopicShift compares utterance with the previous turn. It needs at
// least two recorded turns and only reports; nothing is pruned.
func (m *Manager) DetectTopicShift(sessionID, utterance string) bool {
	sess := m.store.GetOrCreate(sessionID)

	sess.mu.Lock()
	n := sess.history.Len()
	last, _ := sess.history.Last()
	sess.mu.Unlock()

	if n < 2 {
		return false
	}
	return topicShifted(last.Utterance, utterance)
}

// Summary renders the current context of a session.
func (m *Manager) Summary(sessionID string) string {
	return m.composer.Summarize(m.store.GetOrCreate(sessionID))
}

// PreviousSQL is the SQL of the newest recorded turn, used for follow-up refinement.
func (m *Manager) PreviousSQL(sessionID string) string {
	return m.store.GetOrCreate(sessionID).LastSQL()
}

// Reset forgets the session entirely.
func (m *Manager) Reset(sessionID string) {
	m.store.Delete(sessionID)
	m.logger.Info(logger.ModuleConversation, "Session reset", map[string]interface{}{"session_id": sessionID})
}

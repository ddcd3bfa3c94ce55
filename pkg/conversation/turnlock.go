package conversation

import "sync"

// turnLocks hands out one mutex per session id and forgets it once no turn
// holds or waits for it.
type turnLocks struct {
	mu    sync.Mutex
	locks map[string]*turnLock
}

type turnLock struct {
	mu   sync.Mutex
	refs int
}

func newTurnLocks() *turnLocks {
	return &turnLocks{locks: make(map[string]*turnLock)}
}

// acquire blocks until id is free and returns the release func.
func (t *turnLocks) acquire(id string) func() {
	t.mu.Lock()
	l, ok := t.locks[id]
	if !ok {
		l = &turnLock{}
		t.locks[id] = l
	}
	l.refs++
	t.mu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			t.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(t.locks, id)
			}
			t.mu.Unlock()
		})
	}
}

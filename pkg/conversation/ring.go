package conversation

// HistoryRing is a fixed-size FIFO of history entries. Once full, each push
// overwrites the oldest entry. It is not synchronized; Session guards it.
type HistoryRing struct {
	buf  []HistoryEntry
	size int
	head int // write position
	len  int
}

// NewHistoryRing creates a ring holding at most size entries.
func NewHistoryRing(size int) *HistoryRing {
	if size <= 0 {
		size = DefaultHistoryCapacity
	}
	return &HistoryRing{
		buf:  make([]HistoryEntry, size),
		size: size,
	}
}

// Push appends e, evicting the oldest entry when the ring is full.
func (r *HistoryRing) Push(e HistoryEntry) {
	r.buf[r.head] = e
	r.head = (r.head + 1) % r.size
	if r.len < r.size {
		r.len++
	}
}

// Entries returns a copy ordered oldest first.
func (r *HistoryRing) Entries() []HistoryEntry {
	out := make([]HistoryEntry, 0, r.len)
	tail := (r.head - r.len + r.size) % r.size
	for i := 0; i < r.len; i++ {
		out = append(out, r.buf[(tail+i)%r.size])
	}
	return out
}

// Last returns the newest entry.
func (r *HistoryRing) Last() (HistoryEntry, bool) {
	if r.len == 0 {
		return HistoryEntry{}, false
	}
	return r.buf[(r.head-1+r.size)%r.size], true
}

func (r *HistoryRing) Len() int {
	return r.len
}

func (r *HistoryRing) Capacity() int {
	return r.size
}

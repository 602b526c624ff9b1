// Package activitylog keeps a bounded, in-memory record of recent service
// activity for the diagnostics endpoints.
package activitylog

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity is used when a non-positive capacity is requested.
const DefaultCapacity = 100

// Entry is a single diagnostic log line.
type Entry struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Buffer is a fixed-capacity FIFO ring of entries. Once full, each append
// evicts the oldest entry. It is safe for concurrent use.
type Buffer struct {
	mu       sync.Mutex
	entries  []Entry
	start    int
	size     int
	appended uint64
}

// New creates a Buffer holding at most capacity entries.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{entries: make([]Entry, capacity)}
}

// Append adds an entry, assigning an ID and timestamp when missing.
func (b *Buffer) Append(entry Entry) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	capacity := len(b.entries)
	if b.size < capacity {
		b.entries[(b.start+b.size)%capacity] = entry
		b.size++
	} else {
		b.entries[b.start] = entry
		b.start = (b.start + 1) % capacity
	}
	b.appended++
}

// Snapshot returns a copy of the newest n entries, oldest first. A
// non-positive n returns everything currently retained.
func (b *Buffer) Snapshot(n int) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n <= 0 || n > b.size {
		n = b.size
	}
	out := make([]Entry, n)
	capacity := len(b.entries)
	skip := b.size - n
	for i := 0; i < n; i++ {
		out[i] = b.entries[(b.start+skip+i)%capacity]
	}
	return out
}

// Len reports how many entries are currently retained.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Total reports how many entries have ever been appended.
func (b *Buffer) Total() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.appended
}

// Evicted reports how many entries have been dropped to respect capacity.
func (b *Buffer) Evicted() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.appended - uint64(b.size)
}

// Capacity returns the fixed maximum number of retained entries.
func (b *Buffer) Capacity() int {
	return len(b.entries)
}

package activitylog

import (
	"sync"
	"time"
)

// DefaultCapacity bounds how many entries the log retains.
const DefaultCapacity = 200

// Entry is a single diagnostic record.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Subject   string    `json:"subject,omitempty"`
	Step      int       `json:"step,omitempty"`
	Err       string    `json:"error,omitempty"`
}

// Log is a bounded, concurrency-safe ring buffer of diagnostic entries.
// Once capacity is reached the oldest entries are dropped.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	start   int
	count   int
	now     func() time.Time
}

// New constructs a Log with the given capacity (DefaultCapacity if <= 0).
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		entries: make([]Entry, capacity),
		now:     time.Now,
	}
}

// Record appends an entry, evicting the oldest when full. The subject
// reference is truncated so the log never carries a full identifier.
func (l *Log) Record(message, subjectID string, step int, err error) {
	entry := Entry{
		Timestamp: l.nowUTC(),
		Message:   message,
		Subject:   TruncateSubject(subjectID),
		Step:      step,
	}
	if err != nil {
		entry.Err = err.Error()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.count < len(l.entries) {
		l.entries[(l.start+l.count)%len(l.entries)] = entry
		l.count++
		return
	}
	l.entries[l.start] = entry
	l.start = (l.start + 1) % len(l.entries)
}

// Snapshot returns the retained entries, oldest first.
func (l *Log) Snapshot() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, 0, l.count)
	for i := 0; i < l.count; i++ {
		out = append(out, l.entries[(l.start+i)%len(l.entries)])
	}
	return out
}

// Clear drops all retained entries.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.start = 0
	l.count = 0
}

// Len reports how many entries are retained.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

func (l *Log) nowUTC() time.Time {
	if l.now != nil {
		return l.now().UTC()
	}
	return time.Now().UTC()
}

// TruncateSubject shortens a subject identifier for diagnostics.
func TruncateSubject(subjectID string) string {
	if len(subjectID) <= 12 {
		return subjectID
	}
	return subjectID[:12] + "..."
}

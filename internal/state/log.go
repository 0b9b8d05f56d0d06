package state

import (
	"context"
	"sync"
	"time"
)

// StampLayout is the display format of log entry timestamps.
const StampLayout = "2006-01-02 15:04:05"

// Entry is one controller log line. Entries are never modified.
type Entry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// Stamp returns the entry time in StampLayout.
func (e Entry) Stamp() string {
	return e.Time.Format(StampLayout)
}

// LogSink persists every entry without a bound.
type LogSink interface {
	AppendLog(ctx context.Context, unit string, e Entry) error
	ReadLog(ctx context.Context, unit string) ([]Entry, error)
}

// Log is the bounded in-memory controller log. When it exceeds its limit
// the oldest entries are dropped.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	limit   int
}

// NewLog creates a log holding at most limit entries (minimum 1).
func NewLog(limit int) *Log {
	if limit < 1 {
		limit = 1
	}
	return &Log{limit: limit}
}

// Append adds e at the end and drops entries from the front past the limit.
func (l *Log) Append(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
	l.truncate()
}

// SetLimit changes the bound and truncates immediately.
func (l *Log) SetLimit(limit int) {
	if limit < 1 {
		limit = 1
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limit = limit
	l.truncate()
	if cap(l.entries) > 2*l.limit {
		l.entries = append(make([]Entry, 0, l.limit), l.entries...)
	}
}

// truncate drops entries from the front by reslicing. The backing array
// is replaced by append once its tail is used up, so dropped entries are
// released at most one reallocation later.
func (l *Log) truncate() {
	if over := len(l.entries) - l.limit; over > 0 {
		clear(l.entries[:over])
		l.entries = l.entries[over:]
	}
}

// Entries returns a copy of the retained entries, oldest first.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Entry(nil), l.entries...)
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

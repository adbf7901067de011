package monitor

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// FlaggedTranscript is a transcript judged disagreeable.
type FlaggedTranscript struct {
	ID     string    `json:"id"`
	At     time.Time `json:"at"`
	Text   string    `json:"text"`
	Reason string    `json:"reason,omitempty"`
}

// FlaggedLog keeps the most recent flagged transcripts in memory.
type FlaggedLog struct {
	mu    sync.RWMutex
	items []FlaggedTranscript
	limit int
}

// NewFlaggedLog creates a log holding at most limit entries. A non-positive
// limit disables the log.
func NewFlaggedLog(limit int) *FlaggedLog {
	return &FlaggedLog{limit: limit}
}

// Add appends an entry, evicting the oldest when full.
func (l *FlaggedLog) Add(text, reason string, at time.Time) FlaggedTranscript {
	ft := FlaggedTranscript{
		ID:     uuid.NewString(),
		At:     at,
		Text:   text,
		Reason: reason,
	}
	if l.limit <= 0 {
		return ft
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.items) >= l.limit {
		l.items = append(l.items[:0], l.items[len(l.items)-l.limit+1:]...)
	}
	l.items = append(l.items, ft)
	return ft
}

// List returns the entries, oldest first.
func (l *FlaggedLog) List() []FlaggedTranscript {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]FlaggedTranscript, len(l.items))
	copy(out, l.items)
	return out
}

// Clear removes every entry and returns how many there were.
func (l *FlaggedLog) Clear() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.items)
	l.items = nil
	return n
}

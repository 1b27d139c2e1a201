package errors

import (
	"sync"
	"time"
)

// Tracker counts error occurrences by category for engine stats.
type Tracker struct {
	mu             sync.RWMutex
	counts         map[ErrorCategory]uint64
	lastOccurrence map[ErrorCategory]time.Time
}

// NewTracker creates an empty error tracker.
func NewTracker() *Tracker {
	return &Tracker{
		counts:         make(map[ErrorCategory]uint64),
		lastOccurrence: make(map[ErrorCategory]time.Time),
	}
}

// Record classifies and counts one error occurrence.
func (t *Tracker) Record(err error) {
	if err == nil {
		return
	}
	cat := Classify(err)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[cat]++
	t.lastOccurrence[cat] = time.Now()
}

// Count returns the number of recorded errors for a category.
func (t *Tracker) Count(cat ErrorCategory) uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.counts[cat]
}

// LastOccurrence returns when an error of the category was last seen.
func (t *Tracker) LastOccurrence(cat ErrorCategory) time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastOccurrence[cat]
}

// Reset clears all tracked data.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts = make(map[ErrorCategory]uint64)
	t.lastOccurrence = make(map[ErrorCategory]time.Time)
}

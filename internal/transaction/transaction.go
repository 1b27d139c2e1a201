// Package transaction implements the transaction monitor: transaction
// lifecycle, per-collection lock-moded snapshots and the cooperative
// safepoint polled during long query iterations.
package transaction

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kaan-kaya/litedb/internal/errors"
	"github.com/kaan-kaya/litedb/internal/metrics"
)

type State int

const (
	StateOpen State = iota
	StateCommitted
	StateRolledBack
	StateAborted
)

// Transaction is one unit of work. A transaction may span several
// queries; each query owns exactly one snapshot for its enumeration.
type Transaction struct {
	id        uuid.UUID
	monitor   *Monitor
	startedAt time.Time

	aborted atomic.Bool

	mu         sync.Mutex
	state      State
	snapshots  []*Snapshot
	safepoints int
}

func (t *Transaction) ID() uuid.UUID       { return t.id }
func (t *Transaction) StartedAt() time.Time { return t.startedAt }

// Safepoint is the cooperative checkpoint invoked once per produced
// document. It fails when the transaction was aborted externally or the
// context was cancelled, and periodically yields the scheduler so long
// scans do not starve other work.
func (t *Transaction) Safepoint(ctx context.Context) error {
	metrics.Safepoints.Inc()

	if t.aborted.Load() {
		return errors.ErrTransactionAborted
	}
	if ctx != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	t.mu.Lock()
	t.safepoints++
	yield := t.monitor.safepointInterval > 0 && t.safepoints%t.monitor.safepointInterval == 0
	t.mu.Unlock()

	if yield {
		runtime.Gosched()
	}
	return nil
}

// SafepointCount returns how many safepoints this transaction has taken.
func (t *Transaction) SafepointCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.safepoints
}

// Abort marks the transaction aborted. Running enumerations observe the
// abort at their next safepoint.
func (t *Transaction) Abort() {
	if t.aborted.CompareAndSwap(false, true) {
		t.end(StateAborted)
	}
}

// Commit finishes the transaction and releases any snapshot still held.
func (t *Transaction) Commit() error {
	if t.aborted.Load() {
		return errors.ErrTransactionAborted
	}
	t.end(StateCommitted)
	return nil
}

// Rollback finishes the transaction and releases any snapshot still held.
func (t *Transaction) Rollback() error {
	t.end(StateRolledBack)
	return nil
}

func (t *Transaction) end(state State) {
	t.mu.Lock()
	if t.state != StateOpen {
		t.mu.Unlock()
		return
	}
	t.state = state
	snaps := t.snapshots
	t.snapshots = nil
	t.mu.Unlock()

	for _, s := range snaps {
		s.Release()
	}
	t.monitor.forget(t)
	metrics.OpenTransactions.Dec()
}

func (t *Transaction) track(s *Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snapshots = append(t.snapshots, s)
}

func (t *Transaction) untrack(s *Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, held := range t.snapshots {
		if held == s {
			t.snapshots = append(t.snapshots[:i], t.snapshots[i+1:]...)
			return
		}
	}
}

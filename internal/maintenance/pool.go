// Package maintenance runs background index upkeep. Compaction jobs are
// submitted when an index accumulates enough tombstones and run on a
// shared goroutine pool, off the query path.
package maintenance

import (
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/kaan-kaya/litedb/internal/errors"
	"github.com/kaan-kaya/litedb/internal/index"
	"github.com/kaan-kaya/litedb/internal/logger"
	"github.com/kaan-kaya/litedb/internal/metrics"
)

// Pool schedules maintenance jobs on a bounded worker pool.
type Pool struct {
	mu        sync.Mutex
	workers   *ants.Pool
	threshold int
	log       *logger.Logger
	stopped   bool

	// inFlight dedupes compaction jobs per index so a hot index does
	// not pile up redundant work.
	inFlight map[*index.Index]bool
}

// NewPool creates the maintenance pool with the given worker count and
// per-index tombstone threshold.
func NewPool(workers, threshold int, log *logger.Logger) (*Pool, error) {
	if workers <= 0 {
		workers = 1
	}
	p, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	return &Pool{
		workers:   p,
		threshold: threshold,
		log:       log,
		inFlight:  make(map[*index.Index]bool),
	}, nil
}

// MaybeCompact submits a background compaction for the index when its
// tombstone count crosses the threshold. Safe to call on every delete;
// submission is deduped while a job for the same index is pending.
func (p *Pool) MaybeCompact(collection string, ix *index.Index) {
	if ix.Tombstones() < p.threshold {
		return
	}

	p.mu.Lock()
	if p.stopped || p.inFlight[ix] {
		p.mu.Unlock()
		return
	}
	p.inFlight[ix] = true
	p.mu.Unlock()

	err := p.workers.Submit(func() {
		defer func() {
			p.mu.Lock()
			delete(p.inFlight, ix)
			p.mu.Unlock()
		}()
		reclaimed := ix.Compact()
		metrics.CompactionsTotal.Inc()
		p.log.Debug("compacted index %q on %q, reclaimed %d entries", ix.Name(), collection, reclaimed)
	})
	if err != nil {
		p.mu.Lock()
		delete(p.inFlight, ix)
		p.mu.Unlock()
		p.log.Warn("compaction for %q.%q not scheduled: %v", collection, ix.Name(), err)
	}
}

// Submit runs an arbitrary job on the pool.
func (p *Pool) Submit(job func()) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return errors.ErrPoolStopped
	}
	p.mu.Unlock()
	return p.workers.Submit(job)
}

// Stop drains the pool. Jobs already running finish; new submissions
// are rejected.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()
	p.workers.Release()
}

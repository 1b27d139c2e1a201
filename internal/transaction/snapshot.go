package transaction

import (
	"sync"
	"sync/atomic"

	"github.com/kaan-kaya/litedb/internal/index"
)

// Snapshot is a lock-moded view over one collection, owned by exactly
// one enumeration. It is released when the enumeration completes, is
// abandoned early, or the owning transaction ends - whichever happens
// first. Release is idempotent.
type Snapshot struct {
	mode       LockMode
	collection string
	coll       *index.Collection // nil when the collection does not exist
	tx         *Transaction

	release  sync.Once
	released atomic.Bool
	unlock   func()
}

// CreateSnapshot acquires a snapshot over the named collection under the
// given lock mode, scoped to the transaction.
func (m *Monitor) CreateSnapshot(tx *Transaction, mode LockMode, collection string) *Snapshot {
	l := m.lockFor(collection)
	if mode == LockWrite {
		l.Lock()
	} else {
		l.RLock()
	}

	coll, ok := m.source.Lookup(collection)
	if !ok {
		coll = nil
	}

	s := &Snapshot{
		mode:       mode,
		collection: collection,
		coll:       coll,
		tx:         tx,
	}
	if mode == LockWrite {
		s.unlock = l.Unlock
	} else {
		s.unlock = l.RUnlock
	}

	tx.track(s)
	m.log.Debug("snapshot %s lock on %q acquired", mode, collection)
	return s
}

func (s *Snapshot) Mode() LockMode { return s.mode }

// CollectionName returns the name the snapshot is scoped to.
func (s *Snapshot) CollectionName() string { return s.collection }

// CollectionExists reports whether the collection existed at acquisition.
func (s *Snapshot) CollectionExists() bool { return s.coll != nil }

// Collection returns the index view of the collection (nil if missing).
func (s *Snapshot) Collection() *index.Collection { return s.coll }

// Transaction returns the owning transaction.
func (s *Snapshot) Transaction() *Transaction { return s.tx }

// Released reports whether the snapshot's lock has been dropped. An
// enumeration that observes this must stop reading the collection view.
func (s *Snapshot) Released() bool { return s.released.Load() }

// Release drops the collection lock. Runs at most once no matter how
// many exit paths reach it.
func (s *Snapshot) Release() {
	s.release.Do(func() {
		s.released.Store(true)
		s.tx.untrack(s)
		s.unlock()
	})
}

package transaction

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kaan-kaya/litedb/internal/index"
	"github.com/kaan-kaya/litedb/internal/logger"
	"github.com/kaan-kaya/litedb/internal/metrics"
)

type LockMode int

const (
	LockRead LockMode = iota
	LockWrite
)

func (m LockMode) String() string {
	if m == LockWrite {
		return "write"
	}
	return "read"
}

// CollectionSource resolves a collection name to its index view, or
// reports that the collection does not exist.
type CollectionSource interface {
	Lookup(name string) (*index.Collection, bool)
}

// Monitor owns transaction lifecycle and per-collection locks.
// Concurrent read snapshots on one collection proceed in parallel;
// write snapshots serialize against everything on that collection.
type Monitor struct {
	mu                sync.Mutex
	locks             map[string]*sync.RWMutex
	open              map[uuid.UUID]*Transaction
	source            CollectionSource
	safepointInterval int
	log               *logger.Logger
}

// NewMonitor creates a monitor over the given collection source.
func NewMonitor(source CollectionSource, safepointInterval int, log *logger.Logger) *Monitor {
	return &Monitor{
		locks:             make(map[string]*sync.RWMutex),
		open:              make(map[uuid.UUID]*Transaction),
		source:            source,
		safepointInterval: safepointInterval,
		log:               log,
	}
}

// Begin opens a new transaction.
func (m *Monitor) Begin() *Transaction {
	tx := &Transaction{
		id:        uuid.New(),
		monitor:   m,
		startedAt: time.Now(),
		state:     StateOpen,
	}

	m.mu.Lock()
	m.open[tx.id] = tx
	m.mu.Unlock()

	metrics.OpenTransactions.Inc()
	m.log.Debug("transaction %s started", tx.id)
	return tx
}

// OpenCount returns the number of open transactions.
func (m *Monitor) OpenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.open)
}

func (m *Monitor) forget(tx *Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.open, tx.id)
}

func (m *Monitor) lockFor(collection string) *sync.RWMutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[collection]
	if !ok {
		l = &sync.RWMutex{}
		m.locks[collection] = l
	}
	return l
}

// Package index implements ordered collection indexes and the traversal
// strategies that drive query execution.
//
// Entries are kept sorted by key. Mutation is copy-on-write: inserts and
// deletes publish a fresh slice, so a running iterator keeps the slice it
// started with and never observes concurrent writes.
package index

import (
	"sort"
	"sync"

	"github.com/kaan-kaya/litedb/internal/bson"
	"github.com/kaan-kaya/litedb/internal/storage"
)

// Traversal order for strategies and ORDER BY.
const (
	OrderAscending  = 1
	OrderDescending = -1
)

// PrimaryIndex is the name of the implicit _id index on every collection.
const PrimaryIndex = "_id"

// Node is one index entry handed to the query core: the indexed key and
// the opaque location of the full document.
type Node struct {
	Key      any
	Location storage.Location
}

type entry struct {
	key  any
	loc  storage.Location
	dead bool
}

// Index is one named index over a single path expression.
type Index struct {
	mu         sync.RWMutex
	name       string
	fields     []string // path the key is extracted from
	entries    []entry
	tombstones int
}

// New creates an empty index over the given path.
func New(name string, fields []string) *Index {
	return &Index{name: name, fields: fields}
}

func (ix *Index) Name() string { return ix.name }

// Fields returns the path components the index key is extracted from.
func (ix *Index) Fields() []string { return ix.fields }

// Insert adds a key/location pair, keeping entries sorted by key.
func (ix *Index) Insert(key any, loc storage.Location) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	pos := sort.Search(len(ix.entries), func(i int) bool {
		return bson.Compare(ix.entries[i].key, key) > 0
	})

	next := make([]entry, 0, len(ix.entries)+1)
	next = append(next, ix.entries[:pos]...)
	next = append(next, entry{key: key, loc: loc})
	next = append(next, ix.entries[pos:]...)
	ix.entries = next
}

// Delete tombstones the entry matching key and location.
func (ix *Index) Delete(key any, loc storage.Location) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	next := make([]entry, len(ix.entries))
	copy(next, ix.entries)
	for i := range next {
		if !next[i].dead && next[i].loc == loc && bson.Compare(next[i].key, key) == 0 {
			next[i].dead = true
			ix.tombstones++
			break
		}
	}
	ix.entries = next
}

// Compact drops tombstoned entries. Returns the number reclaimed.
func (ix *Index) Compact() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.tombstones == 0 {
		return 0
	}
	next := make([]entry, 0, len(ix.entries)-ix.tombstones)
	for _, e := range ix.entries {
		if !e.dead {
			next = append(next, e)
		}
	}
	reclaimed := ix.tombstones
	ix.entries = next
	ix.tombstones = 0
	return reclaimed
}

// Tombstones returns the current tombstone count.
func (ix *Index) Tombstones() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.tombstones
}

// Len returns the number of live entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries) - ix.tombstones
}

// snapshot returns the current immutable entries slice.
func (ix *Index) snapshot() []entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.entries
}

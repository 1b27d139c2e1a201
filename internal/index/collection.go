package index

import (
	"fmt"
	"sync"

	"github.com/kaan-kaya/litedb/internal/errors"
)

// Collection is the index view of one collection: the implicit primary
// key index plus any secondary indexes.
type Collection struct {
	mu      sync.RWMutex
	name    string
	indexes map[string]*Index
}

// NewCollection creates the index set for a collection, including the
// primary key index.
func NewCollection(name string) *Collection {
	c := &Collection{
		name:    name,
		indexes: make(map[string]*Index),
	}
	c.indexes[PrimaryIndex] = New(PrimaryIndex, []string{PrimaryIndex})
	return c
}

func (c *Collection) Name() string { return c.name }

// Index returns a named index.
func (c *Collection) Index(name string) (*Index, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ix, ok := c.indexes[name]
	return ix, ok
}

// Primary returns the _id index.
func (c *Collection) Primary() *Index {
	ix, _ := c.Index(PrimaryIndex)
	return ix
}

// Ensure creates a secondary index over the path if it does not exist.
func (c *Collection) Ensure(name string, fields []string) (*Index, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.indexes[name]; ok {
		return nil, fmt.Errorf("index %q on %q: %w", name, c.name, errors.ErrIndexExists)
	}
	ix := New(name, fields)
	c.indexes[name] = ix
	return ix, nil
}

// ByField returns the index whose key path matches the given path.
func (c *Collection) ByField(fields []string) (*Index, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, ix := range c.indexes {
		if pathEqual(ix.fields, fields) {
			return ix, true
		}
	}
	return nil, false
}

// All returns every index on the collection.
func (c *Collection) All() []*Index {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Index, 0, len(c.indexes))
	for _, ix := range c.indexes {
		out = append(out, ix)
	}
	return out
}

func pathEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

package storage

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kaan-kaya/litedb/internal/bson"
	"github.com/kaan-kaya/litedb/internal/metrics"
)

// Loader resolves data locations to decoded documents. Decoded documents
// are cached; Load hands out a copy of the cached entry so caller
// mutations never reach the cache.
type Loader struct {
	store *Store
	cache *lru.Cache[Location, bson.Document]
}

// NewLoader creates a loader over the store with an LRU decode cache of
// the given size.
func NewLoader(store *Store, cacheSize int) (*Loader, error) {
	cache, err := lru.New[Location, bson.Document](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create loader cache: %w", err)
	}
	return &Loader{store: store, cache: cache}, nil
}

// Load returns the document stored at the location.
func (l *Loader) Load(loc Location) (bson.Document, error) {
	if doc, ok := l.cache.Get(loc); ok {
		metrics.DocumentsLoaded.Inc()
		return doc.Copy(), nil
	}

	raw, err := l.store.Read(loc)
	if err != nil {
		return nil, err
	}
	doc, err := bson.Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", loc, err)
	}

	l.cache.Add(loc, doc)
	metrics.DocumentsLoaded.Inc()
	return doc.Copy(), nil
}

// CacheLen returns the number of cached decoded documents.
func (l *Loader) CacheLen() int {
	return l.cache.Len()
}

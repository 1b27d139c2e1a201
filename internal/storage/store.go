// Package storage implements the append-only document store and the
// loader that resolves data locations back into documents.
//
// Records are appended to fixed-capacity in-memory pages; a Location
// (page number + byte offset) is the opaque reference kept by indexes.
// Physical durability (files, WAL) lives behind this boundary and is
// intentionally not part of the query core.
package storage

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/kaan-kaya/litedb/internal/errors"
)

const (
	recordHeaderSize = 4
	// MaxPayloadSize bounds one serialized document.
	MaxPayloadSize = 16 * 1024 * 1024
	// DefaultPageSize is the page capacity used when none is configured.
	DefaultPageSize = 4 * 1024 * 1024
)

// Location is an opaque reference to one stored record.
type Location struct {
	Page   uint32
	Offset uint32
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Page, l.Offset)
}

// Store is an append-only page store. Records are immutable once
// written; updates append a new record and leave the old one to be
// reclaimed by compaction.
type Store struct {
	mu       sync.RWMutex
	pageSize int
	pages    [][]byte
}

// NewStore creates a store with the given page capacity in bytes.
// Records larger than one page get a page of their own.
func NewStore(pageSize int) *Store {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Store{pageSize: pageSize}
}

// Append writes one serialized document and returns its location.
func (s *Store) Append(payload []byte) (Location, error) {
	if len(payload) > MaxPayloadSize {
		return Location{}, fmt.Errorf("append: payload of %d bytes exceeds maximum", len(payload))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	need := recordHeaderSize + len(payload)
	if len(s.pages) == 0 || len(s.pages[len(s.pages)-1])+need > cap(s.pages[len(s.pages)-1]) {
		capacity := s.pageSize
		if need > capacity {
			capacity = need
		}
		s.pages = append(s.pages, make([]byte, 0, capacity))
	}

	pageNo := uint32(len(s.pages) - 1)
	page := s.pages[pageNo]
	offset := uint32(len(page))

	var header [recordHeaderSize]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(payload)))
	page = append(page, header[:]...)
	page = append(page, payload...)
	s.pages[pageNo] = page

	return Location{Page: pageNo, Offset: offset}, nil
}

// Read returns the payload stored at the location.
func (s *Store) Read(loc Location) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if int(loc.Page) >= len(s.pages) {
		return nil, fmt.Errorf("read %s: %w", loc, errors.ErrInvalidLocation)
	}
	page := s.pages[loc.Page]
	if int(loc.Offset)+recordHeaderSize > len(page) {
		return nil, fmt.Errorf("read %s: %w", loc, errors.ErrInvalidLocation)
	}

	length := binary.LittleEndian.Uint32(page[loc.Offset:])
	start := int(loc.Offset) + recordHeaderSize
	end := start + int(length)
	if end > len(page) {
		return nil, fmt.Errorf("read %s: %w", loc, errors.ErrInvalidLocation)
	}
	return page[start:end], nil
}

// Size returns the total number of stored bytes.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, p := range s.pages {
		total += len(p)
	}
	return total
}

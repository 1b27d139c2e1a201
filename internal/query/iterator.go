// Package query implements the fluent query builder and the lazy
// execution orchestrator over index-backed collections.
//
// Fluent calls mutate builder state only; no work happens until a
// terminal operation pulls the first document. Execution opens one
// snapshot scoped to the whole enumeration, runs the analyzer once and
// drives index iteration, document loading and pipe processing one
// element at a time.
package query

import (
	"io"

	"github.com/kaan-kaya/litedb/internal/bson"
)

// Iterator is a lazy document sequence. Next returns io.EOF when
// exhausted. Callers must Close when abandoning the sequence early;
// Close is idempotent.
type Iterator interface {
	Next() (bson.Document, error)
	Close() error
}

/***** trivial iterators *****/

type emptyIterator struct{}

func (emptyIterator) Next() (bson.Document, error) { return nil, io.EOF }
func (emptyIterator) Close() error                 { return nil }

// Empty returns an iterator that yields nothing.
func Empty() Iterator { return emptyIterator{} }

type errorIterator struct{ err error }

func (it errorIterator) Next() (bson.Document, error) { return nil, it.err }
func (it errorIterator) Close() error                 { return nil }

// Failed returns an iterator that fails with err on every pull.
func Failed(err error) Iterator { return errorIterator{err: err} }

type sliceIterator struct {
	docs []bson.Document
	pos  int
}

// FromSlice returns an iterator over an in-memory document slice.
// Buffering pipe stages (ordering) use it to re-enter the lazy chain.
func FromSlice(docs []bson.Document) Iterator {
	return &sliceIterator{docs: docs}
}

func (it *sliceIterator) Next() (bson.Document, error) {
	if it.pos >= len(it.docs) {
		return nil, io.EOF
	}
	doc := it.docs[it.pos]
	it.pos++
	return doc, nil
}

func (it *sliceIterator) Close() error {
	it.pos = len(it.docs)
	return nil
}

// Drain pulls the iterator to exhaustion and closes it.
func Drain(it Iterator) ([]bson.Document, error) {
	defer it.Close()

	var out []bson.Document
	for {
		doc, err := it.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
}

package query

import (
	"context"
	"fmt"
	"io"

	"github.com/kaan-kaya/litedb/internal/bson"
	"github.com/kaan-kaya/litedb/internal/errors"
	"github.com/kaan-kaya/litedb/internal/index"
)

// Terminal operations. All are thin adapters over Run that force (part
// of) the lazy sequence.

// Iterator returns the lazy result sequence for manual consumption.
func (b *Builder) Iterator(ctx context.Context) Iterator {
	return b.Run(ctx, false)
}

// All drains the full result into a slice.
func (b *Builder) All(ctx context.Context) ([]bson.Document, error) {
	return Drain(b.Run(ctx, false))
}

// First returns the first document. It pulls exactly once; the rest of
// the index is never iterated.
func (b *Builder) First(ctx context.Context) (bson.Document, error) {
	doc, err := b.FirstOrDefault(ctx)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.ErrNoElements
	}
	return doc, nil
}

// FirstOrDefault returns the first document, or nil for an empty result.
func (b *Builder) FirstOrDefault(ctx context.Context) (bson.Document, error) {
	it := b.Run(ctx, false)
	defer it.Close()

	doc, err := it.Next()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Single returns the only document; zero or more than one is an error.
func (b *Builder) Single(ctx context.Context) (bson.Document, error) {
	doc, err := b.SingleOrDefault(ctx)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.ErrNoElements
	}
	return doc, nil
}

// SingleOrDefault returns the only document, nil for an empty result,
// and fails when a second element exists.
func (b *Builder) SingleOrDefault(ctx context.Context) (bson.Document, error) {
	it := b.Run(ctx, false)
	defer it.Close()

	doc, err := it.Next()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := it.Next(); err != io.EOF {
		if err != nil {
			return nil, err
		}
		return nil, errors.ErrMoreThanOne
	}
	return doc, nil
}

// SingleByID forces an equality seek on the primary key index, then
// applies Single semantics.
func (b *Builder) SingleByID(ctx context.Context, id any) (bson.Document, error) {
	if id == nil {
		return nil, fmt.Errorf("single by id: %w", errors.ErrMissingID)
	}
	b.Index(index.Equals(index.PrimaryIndex, id))
	return b.Single(ctx)
}

// Count consumes the whole sequence on the count-only path and counts
// produced elements (residual filters, offset and limit still apply, so
// this is not the raw index cardinality).
func (b *Builder) Count(ctx context.Context) (int, error) {
	it := b.Run(ctx, true)
	defer it.Close()

	count := 0
	for {
		_, err := it.Next()
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return 0, err
		}
		count++
	}
}

// Exists stops after the first observed element on the count-only path.
func (b *Builder) Exists(ctx context.Context) (bool, error) {
	it := b.Run(ctx, true)
	defer it.Close()

	_, err := it.Next()
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

package pipe

import (
	"fmt"
	"io"
	"strings"

	"github.com/kaan-kaya/litedb/internal/bson"
	"github.com/kaan-kaya/litedb/internal/errors"
	"github.com/kaan-kaya/litedb/internal/query"
	"github.com/kaan-kaya/litedb/internal/transaction"
)

const (
	refCollectionField = "$ref"
	refIDField         = "$id"
)

// includeStage replaces document references found at one path with the
// referenced documents, loaded through the resolver inside the query's
// transaction. Documents are copied before mutation so index-backed
// pages are never written through.
type includeStage struct {
	pipe   *Pipe
	inner  query.Iterator
	fields []string
	tx     *transaction.Transaction
}

func (p *Pipe) newIncludeStage(inner query.Iterator, fields []string, tx *transaction.Transaction) query.Iterator {
	return &includeStage{pipe: p, inner: inner, fields: fields, tx: tx}
}

func (s *includeStage) Next() (bson.Document, error) {
	if len(s.fields) > s.pipe.maxIncludeDepth {
		return nil, fmt.Errorf("include %s: depth %d exceeds limit %d: %w",
			strings.Join(s.fields, "."), len(s.fields), s.pipe.maxIncludeDepth, errors.ErrInvalidIncludeKind)
	}
	doc, err := s.inner.Next()
	if err != nil {
		return nil, err
	}
	out := doc.Copy()
	if err := s.expand(out, s.fields); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *includeStage) Close() error { return s.inner.Close() }

// expand walks the path into doc, descending through intermediate
// sub-documents, and swaps the leaf reference in place. A missing
// segment ends the walk without error; includes are best effort on
// documents that do not carry the field.
func (s *includeStage) expand(doc bson.Document, fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	head, rest := fields[0], fields[1:]
	value, ok := doc[head]
	if !ok {
		return nil
	}

	if len(rest) > 0 {
		sub, ok := bson.AsDocument(value)
		if !ok {
			return nil
		}
		child := sub.Copy()
		doc[head] = child
		return s.expand(child, rest)
	}

	resolved, err := s.resolveValue(value)
	if err != nil {
		return err
	}
	doc[head] = resolved
	return nil
}

// resolveValue turns a reference, or an array of references, into the
// referenced documents. Anything that is not a reference passes through
// unchanged.
func (s *includeStage) resolveValue(value any) (any, error) {
	if arr, ok := value.([]any); ok {
		out := make([]any, len(arr))
		for i, item := range arr {
			r, err := s.resolveValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	}

	ref, ok := bson.AsDocument(value)
	if !ok {
		return value, nil
	}
	collection, hasColl := ref[refCollectionField].(string)
	id, hasID := ref[refIDField]
	if !hasColl || !hasID {
		return value, nil
	}

	target, err := s.pipe.resolver.ResolveRef(collection, id, s.tx)
	if err != nil {
		if err == io.EOF {
			return value, nil
		}
		return nil, err
	}
	if target == nil {
		return value, nil
	}
	// Plain map form so callers see the same shape as stored documents.
	return map[string]any(target), nil
}

package pipe

import (
	"io"
	"sort"

	"github.com/kaan-kaya/litedb/internal/bson"
	"github.com/kaan-kaya/litedb/internal/expr"
	"github.com/kaan-kaya/litedb/internal/index"
	"github.com/kaan-kaya/litedb/internal/query"
)

/***** residual filter *****/

type filterStage struct {
	inner query.Iterator
	plan  *query.Plan
}

func (s *filterStage) Next() (bson.Document, error) {
	for {
		doc, err := s.inner.Next()
		if err != nil {
			return nil, err
		}
		match := true
		for _, f := range s.plan.Filters {
			ok, err := expr.Matches(f, doc, s.plan.Params)
			if err != nil {
				return nil, err
			}
			if !ok {
				match = false
				break
			}
		}
		if match {
			return doc, nil
		}
	}
}

func (s *filterStage) Close() error { return s.inner.Close() }

/***** order by (buffering) *****/

// sortStage buffers the whole upstream on first pull, sorts by the
// order expression and replays. Only used when the index traversal did
// not already satisfy the requested order.
type sortStage struct {
	inner  query.Iterator
	plan   *query.Plan
	sorted query.Iterator
}

func (s *sortStage) Next() (bson.Document, error) {
	if s.sorted == nil {
		docs, err := query.Drain(s.inner)
		if err != nil {
			return nil, err
		}
		type keyed struct {
			key any
			doc bson.Document
		}
		items := make([]keyed, len(docs))
		for i, d := range docs {
			k, err := expr.Evaluate(s.plan.OrderExpr, d, s.plan.Params)
			if err != nil {
				return nil, err
			}
			items[i] = keyed{key: k, doc: d}
		}
		order := s.plan.Order
		sort.SliceStable(items, func(i, j int) bool {
			c := bson.Compare(items[i].key, items[j].key)
			if order == index.OrderDescending {
				return c > 0
			}
			return c < 0
		})
		for i := range items {
			docs[i] = items[i].doc
		}
		s.sorted = query.FromSlice(docs)
	}
	return s.sorted.Next()
}

func (s *sortStage) Close() error {
	if s.sorted != nil {
		return s.sorted.Close()
	}
	return s.inner.Close()
}

/***** offset / limit *****/

type offsetStage struct {
	inner   query.Iterator
	skip    int
	skipped bool
}

func (s *offsetStage) Next() (bson.Document, error) {
	if !s.skipped {
		s.skipped = true
		for i := 0; i < s.skip; i++ {
			if _, err := s.inner.Next(); err != nil {
				return nil, err
			}
		}
	}
	return s.inner.Next()
}

func (s *offsetStage) Close() error { return s.inner.Close() }

type limitStage struct {
	inner     query.Iterator
	remaining int
}

func (s *limitStage) Next() (bson.Document, error) {
	if s.remaining <= 0 {
		return nil, io.EOF
	}
	doc, err := s.inner.Next()
	if err != nil {
		return nil, err
	}
	s.remaining--
	return doc, nil
}

func (s *limitStage) Close() error { return s.inner.Close() }

/***** projection *****/

type selectStage struct {
	inner query.Iterator
	plan  *query.Plan
}

func (s *selectStage) Next() (bson.Document, error) {
	doc, err := s.inner.Next()
	if err != nil {
		return nil, err
	}
	v, err := expr.Evaluate(s.plan.SelectExpr, doc, s.plan.Params)
	if err != nil {
		return nil, err
	}
	if projected, ok := bson.AsDocument(v); ok {
		return projected, nil
	}
	// Scalar projection: wrap under the trailing path segment.
	field := "expr"
	if s.plan.SelectExpr.IsPath() {
		fields := s.plan.SelectExpr.Fields()
		field = fields[len(fields)-1]
	}
	return bson.Document{field: v}, nil
}

func (s *selectStage) Close() error { return s.inner.Close() }

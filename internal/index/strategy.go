package index

import (
	"fmt"
	"sort"

	"github.com/kaan-kaya/litedb/internal/bson"
	"github.com/kaan-kaya/litedb/internal/errors"
)

// Strategy describes how an index is traversed to produce candidate
// nodes. The analyzer chooses or synthesizes one per query; callers may
// force one through the builder's Index directive.
type Strategy interface {
	// IndexName is the index the strategy traverses.
	IndexName() string
	// Order is the traversal direction.
	Order() int
	// Run opens a lazy node iterator over the collection's index.
	Run(c *Collection) (*NodeIterator, error)

	fmt.Stringer
}

/***** full scan *****/

type allStrategy struct {
	index string
	order int
}

// All scans every entry of an index in the given order.
func All(indexName string, order int) Strategy {
	return &allStrategy{index: indexName, order: order}
}

func (s *allStrategy) IndexName() string { return s.index }
func (s *allStrategy) Order() int        { return s.order }

func (s *allStrategy) Run(c *Collection) (*NodeIterator, error) {
	ix, ok := c.Index(s.index)
	if !ok {
		return nil, fmt.Errorf("strategy %s: %w", s, errors.ErrIndexNotFound)
	}
	entries := ix.snapshot()
	return newNodeIterator(entries, 0, len(entries), s.order), nil
}

func (s *allStrategy) String() string {
	if s.order == OrderDescending {
		return fmt.Sprintf("scan(%s desc)", s.index)
	}
	return fmt.Sprintf("scan(%s)", s.index)
}

/***** equality seek *****/

type equalsStrategy struct {
	index string
	value any
}

// Equals seeks entries whose key equals the value.
func Equals(indexName string, value any) Strategy {
	return &equalsStrategy{index: indexName, value: value}
}

func (s *equalsStrategy) IndexName() string { return s.index }
func (s *equalsStrategy) Order() int        { return OrderAscending }

func (s *equalsStrategy) Run(c *Collection) (*NodeIterator, error) {
	ix, ok := c.Index(s.index)
	if !ok {
		return nil, fmt.Errorf("strategy %s: %w", s, errors.ErrIndexNotFound)
	}
	entries := ix.snapshot()
	lo := sort.Search(len(entries), func(i int) bool {
		return bson.Compare(entries[i].key, s.value) >= 0
	})
	hi := sort.Search(len(entries), func(i int) bool {
		return bson.Compare(entries[i].key, s.value) > 0
	})
	return newNodeIterator(entries, lo, hi, OrderAscending), nil
}

func (s *equalsStrategy) String() string {
	return fmt.Sprintf("seek(%s = %v)", s.index, s.value)
}

/***** range scan *****/

type rangeStrategy struct {
	index        string
	min, max     any
	minSet       bool
	maxSet       bool
	minInclusive bool
	maxInclusive bool
	order        int
}

// Range scans entries between the bounds. Unset bounds are open.
func Range(indexName string, min, max any, minInclusive, maxInclusive bool, order int) Strategy {
	return &rangeStrategy{
		index:        indexName,
		min:          min,
		max:          max,
		minSet:       min != nil,
		maxSet:       max != nil,
		minInclusive: minInclusive,
		maxInclusive: maxInclusive,
		order:        order,
	}
}

func (s *rangeStrategy) IndexName() string { return s.index }
func (s *rangeStrategy) Order() int        { return s.order }

func (s *rangeStrategy) Run(c *Collection) (*NodeIterator, error) {
	ix, ok := c.Index(s.index)
	if !ok {
		return nil, fmt.Errorf("strategy %s: %w", s, errors.ErrIndexNotFound)
	}
	entries := ix.snapshot()

	lo := 0
	if s.minSet {
		lo = sort.Search(len(entries), func(i int) bool {
			if s.minInclusive {
				return bson.Compare(entries[i].key, s.min) >= 0
			}
			return bson.Compare(entries[i].key, s.min) > 0
		})
	}
	hi := len(entries)
	if s.maxSet {
		hi = sort.Search(len(entries), func(i int) bool {
			if s.maxInclusive {
				return bson.Compare(entries[i].key, s.max) > 0
			}
			return bson.Compare(entries[i].key, s.max) >= 0
		})
	}
	if hi < lo {
		hi = lo
	}
	return newNodeIterator(entries, lo, hi, s.order), nil
}

func (s *rangeStrategy) String() string {
	return fmt.Sprintf("range(%s [%v..%v])", s.index, s.min, s.max)
}

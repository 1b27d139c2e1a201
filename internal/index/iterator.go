package index

import "io"

// NodeIterator lazily walks a contiguous range of index entries. Next
// returns io.EOF when the range is exhausted. The iterator works on the
// immutable entries snapshot taken when it was created.
type NodeIterator struct {
	entries []entry
	pos     int
	end     int // exclusive for ascending, inclusive lower bound-1 for descending
	step    int
	closed  bool
}

func newNodeIterator(entries []entry, lo, hi, order int) *NodeIterator {
	it := &NodeIterator{entries: entries}
	if order == OrderDescending {
		it.pos = hi - 1
		it.end = lo - 1
		it.step = -1
	} else {
		it.pos = lo
		it.end = hi
		it.step = 1
	}
	return it
}

// Next returns the next live node, or io.EOF.
func (it *NodeIterator) Next() (Node, error) {
	if it.closed {
		return Node{}, io.EOF
	}
	for it.pos != it.end {
		e := it.entries[it.pos]
		it.pos += it.step
		if e.dead {
			continue
		}
		return Node{Key: e.key, Location: e.loc}, nil
	}
	return Node{}, io.EOF
}

// Close marks the iterator exhausted. Safe to call multiple times.
func (it *NodeIterator) Close() error {
	it.closed = true
	return nil
}

// Exhausted reports whether the iterator has walked its full range.
func (it *NodeIterator) Exhausted() bool {
	return it.closed || it.pos == it.end
}

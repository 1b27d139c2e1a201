package index

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kaan-kaya/litedb/internal/storage"
)

func loc(n uint32) storage.Location { return storage.Location{Page: 0, Offset: n} }

func drainKeys(t *testing.T, it *NodeIterator) []any {
	t.Helper()
	var keys []any
	for {
		n, err := it.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		keys = append(keys, n.Key)
	}
	return keys
}

func TestInsertKeepsEntriesSorted(t *testing.T) {
	ix := New("age", []string{"age"})
	for i, k := range []any{float64(30), float64(17), float64(45)} {
		ix.Insert(k, loc(uint32(i)))
	}

	c := NewCollection("users")
	c.indexes["age"] = ix

	it, err := All("age", OrderAscending).Run(c)
	require.NoError(t, err)
	require.Equal(t, []any{float64(17), float64(30), float64(45)}, drainKeys(t, it))
}

func TestDescendingScan(t *testing.T) {
	c := NewCollection("users")
	for i, k := range []any{float64(1), float64(2), float64(3)} {
		c.Primary().Insert(k, loc(uint32(i)))
	}

	it, err := All(PrimaryIndex, OrderDescending).Run(c)
	require.NoError(t, err)
	require.Equal(t, []any{float64(3), float64(2), float64(1)}, drainKeys(t, it))
}

func TestEqualsStrategy(t *testing.T) {
	c := NewCollection("users")
	for i, k := range []any{"a", "b", "b", "c"} {
		c.Primary().Insert(k, loc(uint32(i)))
	}

	it, err := Equals(PrimaryIndex, "b").Run(c)
	require.NoError(t, err)
	require.Equal(t, []any{"b", "b"}, drainKeys(t, it))

	it, err = Equals(PrimaryIndex, "missing").Run(c)
	require.NoError(t, err)
	require.Empty(t, drainKeys(t, it))
}

func TestRangeStrategy(t *testing.T) {
	c := NewCollection("users")
	for i, k := range []any{float64(10), float64(20), float64(30), float64(40)} {
		c.Primary().Insert(k, loc(uint32(i)))
	}

	it, err := Range(PrimaryIndex, float64(20), nil, true, false, OrderAscending).Run(c)
	require.NoError(t, err)
	require.Equal(t, []any{float64(20), float64(30), float64(40)}, drainKeys(t, it))

	it, err = Range(PrimaryIndex, float64(20), nil, false, false, OrderAscending).Run(c)
	require.NoError(t, err)
	require.Equal(t, []any{float64(30), float64(40)}, drainKeys(t, it))

	it, err = Range(PrimaryIndex, nil, float64(30), false, true, OrderAscending).Run(c)
	require.NoError(t, err)
	require.Equal(t, []any{float64(10), float64(20), float64(30)}, drainKeys(t, it))

	it, err = Range(PrimaryIndex, float64(15), float64(35), true, true, OrderDescending).Run(c)
	require.NoError(t, err)
	require.Equal(t, []any{float64(30), float64(20)}, drainKeys(t, it))
}

func TestStrategyOnMissingIndex(t *testing.T) {
	c := NewCollection("users")
	_, err := All("nope", OrderAscending).Run(c)
	require.Error(t, err)
}

func TestDeleteTombstonesAndIteratorSkips(t *testing.T) {
	c := NewCollection("users")
	for i, k := range []any{float64(1), float64(2), float64(3)} {
		c.Primary().Insert(k, loc(uint32(i)))
	}
	c.Primary().Delete(float64(2), loc(1))

	require.Equal(t, 1, c.Primary().Tombstones())
	require.Equal(t, 2, c.Primary().Len())

	it, err := All(PrimaryIndex, OrderAscending).Run(c)
	require.NoError(t, err)
	require.Equal(t, []any{float64(1), float64(3)}, drainKeys(t, it))
}

func TestCompactReclaimsTombstones(t *testing.T) {
	ix := New("k", []string{"k"})
	ix.Insert(float64(1), loc(0))
	ix.Insert(float64(2), loc(1))
	ix.Delete(float64(1), loc(0))

	require.Equal(t, 1, ix.Compact())
	require.Zero(t, ix.Tombstones())
	require.Equal(t, 1, ix.Len())
	require.Zero(t, ix.Compact())
}

func TestIteratorHoldsSnapshotAcrossWrites(t *testing.T) {
	c := NewCollection("users")
	for i, k := range []any{float64(1), float64(2)} {
		c.Primary().Insert(k, loc(uint32(i)))
	}

	it, err := All(PrimaryIndex, OrderAscending).Run(c)
	require.NoError(t, err)

	// Writes after the iterator starts are not observed by it.
	c.Primary().Insert(float64(0), loc(9))
	c.Primary().Delete(float64(2), loc(1))

	require.Equal(t, []any{float64(1), float64(2)}, drainKeys(t, it))
}

func TestCollectionEnsureAndByField(t *testing.T) {
	c := NewCollection("users")
	_, err := c.Ensure("age", []string{"age"})
	require.NoError(t, err)
	_, err = c.Ensure("age", []string{"age"})
	require.Error(t, err)

	ix, ok := c.ByField([]string{"age"})
	require.True(t, ok)
	require.Equal(t, "age", ix.Name())

	_, ok = c.ByField([]string{"name"})
	require.False(t, ok)
}

func TestIteratorExhaustion(t *testing.T) {
	c := NewCollection("users")
	c.Primary().Insert(float64(1), loc(0))
	c.Primary().Insert(float64(2), loc(1))

	it, err := All(PrimaryIndex, OrderAscending).Run(c)
	require.NoError(t, err)
	require.False(t, it.Exhausted())

	// Stopping after the first node leaves the range unexhausted until
	// the iterator is closed.
	_, err = it.Next()
	require.NoError(t, err)
	require.False(t, it.Exhausted())
	require.NoError(t, it.Close())
	require.True(t, it.Exhausted())

	it, err = All(PrimaryIndex, OrderAscending).Run(c)
	require.NoError(t, err)
	require.Equal(t, []any{float64(1), float64(2)}, drainKeys(t, it))
	require.True(t, it.Exhausted())
}

func TestIteratorCloseIsIdempotent(t *testing.T) {
	c := NewCollection("users")
	c.Primary().Insert(float64(1), loc(0))

	it, err := All(PrimaryIndex, OrderAscending).Run(c)
	require.NoError(t, err)
	require.NoError(t, it.Close())
	require.NoError(t, it.Close())

	_, err = it.Next()
	require.Equal(t, io.EOF, err)
}

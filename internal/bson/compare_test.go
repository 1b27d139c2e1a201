package bson

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompareNumbersAcrossGoTypes(t *testing.T) {
	require.Zero(t, Compare(42, float64(42)))
	require.Zero(t, Compare(int64(7), 7))
	require.Negative(t, Compare(1, 2.5))
	require.Positive(t, Compare(3.5, 3))
}

func TestCompareStrings(t *testing.T) {
	require.Negative(t, Compare("alpha", "beta"))
	require.Zero(t, Compare("same", "same"))
	require.Positive(t, Compare("zeta", "alpha"))
}

func TestCompareTypeRanks(t *testing.T) {
	// null < bool < number < string < array < document
	require.Negative(t, Compare(nil, false))
	require.Negative(t, Compare(true, 0))
	require.Negative(t, Compare(99, "a"))
	require.Negative(t, Compare("z", []any{}))
	require.Negative(t, Compare([]any{1}, Document{}))
}

func TestCompareBools(t *testing.T) {
	require.Negative(t, Compare(false, true))
	require.Zero(t, Compare(true, true))
	require.Positive(t, Compare(true, false))
}

func TestCompareArrays(t *testing.T) {
	require.Zero(t, Compare([]any{1, 2}, []any{1, 2}))
	require.Negative(t, Compare([]any{1, 2}, []any{1, 3}))
	// Shorter prefix sorts first.
	require.Negative(t, Compare([]any{1}, []any{1, 0}))
}

func TestCompareDocuments(t *testing.T) {
	a := Document{"x": 1, "y": 2}
	b := Document{"y": 2, "x": 1}
	require.Zero(t, Compare(a, b))
	require.Negative(t, Compare(Document{"x": 1}, Document{"x": 2}))
}

func TestDocumentCopyIsIndependent(t *testing.T) {
	orig := Document{"_id": 1, "tags": []any{"a"}}
	cp := orig.Copy()
	cp["_id"] = 2
	require.Equal(t, 1, orig.ID())
	require.Equal(t, 2, cp.ID())
}

func TestAsDocument(t *testing.T) {
	d, ok := AsDocument(Document{"a": 1})
	require.True(t, ok)
	require.Equal(t, 1, d.Get("a"))

	d, ok = AsDocument(map[string]any{"b": 2})
	require.True(t, ok)
	require.Equal(t, 2, d.Get("b"))

	_, ok = AsDocument("not a document")
	require.False(t, ok)
}

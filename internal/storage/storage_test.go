package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kaan-kaya/litedb/internal/bson"
)

func TestAppendAndRead(t *testing.T) {
	s := NewStore(0)

	locA, err := s.Append([]byte("alpha"))
	require.NoError(t, err)
	locB, err := s.Append([]byte("beta"))
	require.NoError(t, err)
	require.NotEqual(t, locA, locB)

	got, err := s.Read(locA)
	require.NoError(t, err)
	require.Equal(t, []byte("alpha"), got)

	got, err = s.Read(locB)
	require.NoError(t, err)
	require.Equal(t, []byte("beta"), got)
}

func TestReadBadLocation(t *testing.T) {
	s := NewStore(0)
	_, err := s.Read(Location{Page: 9, Offset: 0})
	require.Error(t, err)

	_, err = s.Append([]byte("x"))
	require.NoError(t, err)
	_, err = s.Read(Location{Page: 0, Offset: 4096})
	require.Error(t, err)
}

func TestConfiguredPageSizeIsHonored(t *testing.T) {
	s := NewStore(64)
	require.Equal(t, 64, s.pageSize)

	// Three 40-byte records cannot share a 64-byte page.
	for i := 0; i < 3; i++ {
		_, err := s.Append(make([]byte, 40))
		require.NoError(t, err)
	}
	require.Len(t, s.pages, 3)
	for _, p := range s.pages {
		require.Equal(t, 64, cap(p))
	}
}

func TestRecordLargerThanPageGetsItsOwnPage(t *testing.T) {
	s := NewStore(64)

	small, err := s.Append([]byte("tiny"))
	require.NoError(t, err)
	big, err := s.Append(make([]byte, 200))
	require.NoError(t, err)
	require.NotEqual(t, small.Page, big.Page)

	got, err := s.Read(big)
	require.NoError(t, err)
	require.Len(t, got, 200)

	// The next small record starts a fresh normal page.
	next, err := s.Append([]byte("tiny"))
	require.NoError(t, err)
	require.NotEqual(t, big.Page, next.Page)
}

func TestAppendRejectsOversizedPayload(t *testing.T) {
	s := NewStore(0)
	_, err := s.Append(make([]byte, MaxPayloadSize+1))
	require.Error(t, err)
}

func TestLoaderRoundTrip(t *testing.T) {
	s := NewStore(0)
	l, err := NewLoader(s, 8)
	require.NoError(t, err)

	raw, err := bson.Marshal(bson.Document{"_id": float64(1), "name": "ada"})
	require.NoError(t, err)
	loc, err := s.Append(raw)
	require.NoError(t, err)

	doc, err := l.Load(loc)
	require.NoError(t, err)
	require.Equal(t, "ada", doc.Get("name"))

	// Second load is served from cache.
	require.Equal(t, 1, l.CacheLen())
	again, err := l.Load(loc)
	require.NoError(t, err)
	require.Equal(t, "ada", again.Get("name"))
	require.Equal(t, 1, l.CacheLen())
}

func TestLoaderResultsDoNotAliasTheCache(t *testing.T) {
	s := NewStore(0)
	l, err := NewLoader(s, 8)
	require.NoError(t, err)

	raw, err := bson.Marshal(bson.Document{"_id": float64(1), "age": float64(30)})
	require.NoError(t, err)
	loc, err := s.Append(raw)
	require.NoError(t, err)

	doc, err := l.Load(loc)
	require.NoError(t, err)
	doc.Set("age", float64(99))

	again, err := l.Load(loc)
	require.NoError(t, err)
	require.Equal(t, float64(30), again.Get("age"))
}

func TestLoaderCacheEviction(t *testing.T) {
	s := NewStore(0)
	l, err := NewLoader(s, 2)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		raw, err := bson.Marshal(bson.Document{"_id": float64(i)})
		require.NoError(t, err)
		loc, err := s.Append(raw)
		require.NoError(t, err)
		_, err = l.Load(loc)
		require.NoError(t, err)
	}
	require.Equal(t, 2, l.CacheLen())
}

package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := map[error]ErrorCategory{
		ErrUnsupportedFilter:  ErrorBuild,
		ErrInvalidIncludeKind: ErrorBuild,
		ErrInvalidLimit:       ErrorBuild,
		ErrInvalidOffset:      ErrorBuild,
		ErrNoElements:         ErrorCardinality,
		ErrMoreThanOne:        ErrorCardinality,
		ErrTransactionAborted: ErrorAborted,
		ErrEngineClosed:       ErrorEngine,
		ErrDocExists:          ErrorEngine,
		ErrDocNotFound:        ErrorEngine,
		fmt.Errorf("plain"):   ErrorUnknown,
		nil:                   ErrorUnknown,
	}
	for err, want := range cases {
		require.Equal(t, want, Classify(err), "%v", err)
	}
}

func TestClassifySeesThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("limit -3: %w", ErrInvalidLimit)
	require.Equal(t, ErrorBuild, Classify(wrapped))
	require.True(t, IsBuildTime(wrapped))
	require.False(t, IsBuildTime(ErrNoElements))
}

func TestTracker(t *testing.T) {
	tr := NewTracker()
	require.Zero(t, tr.Count(ErrorBuild))
	require.True(t, tr.LastOccurrence(ErrorBuild).IsZero())

	tr.Record(ErrInvalidLimit)
	tr.Record(fmt.Errorf("wrapped: %w", ErrInvalidOffset))
	tr.Record(ErrNoElements)
	tr.Record(nil)

	require.Equal(t, uint64(2), tr.Count(ErrorBuild))
	require.Equal(t, uint64(1), tr.Count(ErrorCardinality))
	require.False(t, tr.LastOccurrence(ErrorBuild).IsZero())

	tr.Reset()
	require.Zero(t, tr.Count(ErrorBuild))
}

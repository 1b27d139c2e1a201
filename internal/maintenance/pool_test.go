package maintenance

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kaan-kaya/litedb/internal/errors"
	"github.com/kaan-kaya/litedb/internal/index"
	"github.com/kaan-kaya/litedb/internal/logger"
	"github.com/kaan-kaya/litedb/internal/storage"
)

func quiet() *logger.Logger {
	return logger.New(io.Discard, logger.LevelError, "")
}

func TestSubmitRunsJobs(t *testing.T) {
	p, err := NewPool(2, 10, quiet())
	require.NoError(t, err)
	defer p.Stop()

	var wg sync.WaitGroup
	ran := 0
	var mu sync.Mutex
	for i := 0; i < 5; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(func() {
			defer wg.Done()
			mu.Lock()
			ran++
			mu.Unlock()
		}))
	}
	wg.Wait()
	require.Equal(t, 5, ran)
}

func TestStopRejectsNewJobs(t *testing.T) {
	p, err := NewPool(1, 10, quiet())
	require.NoError(t, err)
	p.Stop()
	p.Stop()
	require.ErrorIs(t, p.Submit(func() {}), errors.ErrPoolStopped)
}

func TestMaybeCompactHonorsThreshold(t *testing.T) {
	p, err := NewPool(1, 3, quiet())
	require.NoError(t, err)
	defer p.Stop()

	ix := index.New("k", []string{"k"})
	for i := 0; i < 4; i++ {
		ix.Insert(float64(i), storage.Location{Offset: uint32(i)})
	}
	ix.Delete(float64(0), storage.Location{Offset: 0})
	ix.Delete(float64(1), storage.Location{Offset: 1})

	// Below threshold: nothing scheduled.
	p.MaybeCompact("c", ix)
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 2, ix.Tombstones())

	ix.Delete(float64(2), storage.Location{Offset: 2})
	p.MaybeCompact("c", ix)

	require.Eventually(t, func() bool {
		return ix.Tombstones() == 0
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, 1, ix.Len())
}

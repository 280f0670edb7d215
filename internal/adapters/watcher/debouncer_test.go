package watcher_test

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stash/internal/adapters/watcher"
)

type batches struct {
	mu  sync.Mutex
	got [][]string
}

func (b *batches) record(paths []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.got = append(b.got, paths)
}

func (b *batches) snapshot() [][]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]string(nil), b.got...)
}

func TestDebouncer_CoalescesAndSorts(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var b batches
		d := watcher.NewDebouncer(100*time.Millisecond, b.record)

		d.Add("/project/c.txt")
		d.Add("/project/a.txt")
		d.Add("/project/b.txt")
		d.Add("/project/a.txt")
		assert.Equal(t, 3, d.Pending())

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		got := b.snapshot()
		require.Len(t, got, 1)
		assert.Equal(t, []string{"/project/a.txt", "/project/b.txt", "/project/c.txt"}, got[0])
		assert.Equal(t, 0, d.Pending())
	})
}

func TestDebouncer_TimerReset(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var b batches
		d := watcher.NewDebouncer(100*time.Millisecond, b.record)

		d.Add("/project/a.txt")
		time.Sleep(60 * time.Millisecond)
		d.Add("/project/b.txt")
		time.Sleep(60 * time.Millisecond)
		synctest.Wait()

		assert.Empty(t, b.snapshot(), "window restarts on every add")

		time.Sleep(60 * time.Millisecond)
		synctest.Wait()

		require.Len(t, b.snapshot(), 1)
	})
}

func TestDebouncer_Flush(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var b batches
		d := watcher.NewDebouncer(100*time.Millisecond, b.record)

		d.Flush()
		assert.Empty(t, b.snapshot(), "nothing pending")

		d.Add("/project/a.txt")
		d.Flush()
		require.Len(t, b.snapshot(), 1)

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()
		assert.Len(t, b.snapshot(), 1, "flushed timer must not fire again")
	})
}

func TestDebouncer_FlushAfterFire(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var b batches
		d := watcher.NewDebouncer(50*time.Millisecond, b.record)

		d.Add("/project/a.txt")
		time.Sleep(100 * time.Millisecond)
		synctest.Wait()
		require.Len(t, b.snapshot(), 1)

		d.Flush()
		assert.Len(t, b.snapshot(), 1)
	})
}

func TestDebouncer_FlushWaitsForRunningCallback(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var b batches
		release := make(chan struct{})
		d := watcher.NewDebouncer(50*time.Millisecond, func(paths []string) {
			<-release
			b.record(paths)
		})

		d.Add("/project/a.txt")
		time.Sleep(100 * time.Millisecond)
		synctest.Wait()

		flushed := make(chan struct{})
		go func() {
			d.Flush()
			close(flushed)
		}()
		synctest.Wait()

		select {
		case <-flushed:
			t.Fatal("flush returned while the callback was running")
		default:
		}

		close(release)
		synctest.Wait()

		<-flushed
		require.Len(t, b.snapshot(), 1)
	})
}

func TestDebouncer_Stop(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var b batches
		d := watcher.NewDebouncer(50*time.Millisecond, b.record)

		d.Add("/project/a.txt")
		d.Stop()
		d.Add("/project/b.txt")

		time.Sleep(100 * time.Millisecond)
		synctest.Wait()

		assert.Empty(t, b.snapshot())
		assert.Equal(t, 0, d.Pending())
	})
}

func TestDebouncer_NilCallback(t *testing.T) {
	synctest.Test(t, func(_ *testing.T) {
		d := watcher.NewDebouncer(50*time.Millisecond, nil)

		d.Add("/project/a.txt")
		time.Sleep(100 * time.Millisecond)
		synctest.Wait()

		d.Add("/project/b.txt")
		d.Flush()
	})
}

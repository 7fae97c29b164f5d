package shm

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sharedCounter struct {
	mu    Mutex
	cond  Cond
	value atomic.Int64
}

// twoMappings maps the same object twice, the way two processes would.
func twoMappings(t *testing.T) (*sharedCounter, *sharedCounter) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	a, err := Open(ctx, OpenOptions{Dir: dir, Name: "sync", Size: 4096, Create: true})
	require.NoError(t, err)
	b, err := Open(ctx, OpenOptions{Dir: dir, Name: "sync"})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = b.Close()
		_ = a.Destroy()
	})
	return (*sharedCounter)(unsafe.Pointer(&a.Bytes()[0])),
		(*sharedCounter)(unsafe.Pointer(&b.Bytes()[0]))
}

func TestMutexAcrossMappings(t *testing.T) {
	a, b := twoMappings(t)
	const workers, loops = 8, 2000

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		view := a
		if i%2 == 1 {
			view = b
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < loops; j++ {
				view.mu.Lock()
				// read-modify-write that only stays correct under the lock
				v := view.value.Load()
				view.value.Store(v + 1)
				view.mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(workers*loops), b.value.Load())
}

func TestMutexTryLock(t *testing.T) {
	a, b := twoMappings(t)
	require.True(t, a.mu.TryLock())
	assert.False(t, b.mu.TryLock())
	a.mu.Unlock()
	assert.True(t, b.mu.TryLock())
	b.mu.Unlock()
}

func TestCondBroadcastAcrossMappings(t *testing.T) {
	a, b := twoMappings(t)
	ctx := context.Background()

	var woke atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.mu.Lock()
			for b.value.Load() == 0 {
				_ = b.cond.Wait(ctx, &b.mu)
			}
			b.mu.Unlock()
			woke.Add(1)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	a.mu.Lock()
	a.value.Store(1)
	a.mu.Unlock()
	a.cond.Broadcast()

	wg.Wait()
	assert.Equal(t, int32(4), woke.Load())
}

func TestCondWaitCancelled(t *testing.T) {
	a, _ := twoMappings(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	a.mu.Lock()
	var err error
	for err == nil {
		err = a.cond.Wait(ctx, &a.mu)
	}
	a.mu.Unlock()
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

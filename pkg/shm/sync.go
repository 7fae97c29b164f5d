package shm

import (
	"context"
	"sync/atomic"
	"time"
	"unsafe"

	internalshm "github.com/srediag/tpc/internal/shm"
)

// WaitSlice bounds a single Cond wait so that context cancellation is
// noticed even when nobody signals.
var WaitSlice = 200 * time.Millisecond

// mutex states
const (
	unlocked  = 0
	locked    = 1
	contended = 2
)

// Mutex is a futex-based mutual exclusion lock usable across processes when
// placed in shared memory. The zero value is unlocked. It must not be copied.
type Mutex struct {
	state atomic.Uint32
}

// Lock acquires m, blocking without timeout.
func (m *Mutex) Lock() {
	if m.state.CompareAndSwap(unlocked, locked) {
		return
	}
	for m.state.Swap(contended) != unlocked {
		_ = internalshm.FutexWait(m.word(), contended, 0)
	}
}

// TryLock acquires m if it is free.
func (m *Mutex) TryLock() bool {
	return m.state.CompareAndSwap(unlocked, locked)
}

// Unlock releases m.
func (m *Mutex) Unlock() {
	if m.state.Swap(unlocked) == contended {
		internalshm.FutexWake(m.word(), 1)
	}
}

func (m *Mutex) word() *uint32 {
	return (*uint32)(unsafe.Pointer(&m.state))
}

// Cond is a sequence-counter condition variable usable across processes when
// placed in shared memory. The zero value is ready to use.
type Cond struct {
	seq atomic.Uint32
}

// Wait atomically unlocks m and suspends until Signal, Broadcast, ctx is done
// or one WaitSlice elapses. m is locked again on return. Like sync.Cond.Wait,
// the caller must re-check its condition in a loop. The returned error is
// ctx.Err().
func (c *Cond) Wait(ctx context.Context, m *Mutex) error {
	seq := c.seq.Load()
	m.Unlock()
	if ctx.Err() == nil {
		_ = internalshm.FutexWait(c.word(), seq, WaitSlice)
	}
	m.Lock()
	return ctx.Err()
}

// Signal wakes one waiter.
func (c *Cond) Signal() {
	c.seq.Add(1)
	internalshm.FutexWake(c.word(), 1)
}

// Broadcast wakes all waiters.
func (c *Cond) Broadcast() {
	c.seq.Add(1)
	internalshm.FutexWake(c.word(), 0)
}

func (c *Cond) word() *uint32 {
	return (*uint32)(unsafe.Pointer(&c.seq))
}

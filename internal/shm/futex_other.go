//go:build unix && !linux

package shm

import (
	"sync/atomic"
	"time"
)

const pollSlice = time.Millisecond

// FutexWait polls *addr until it differs from val or timeout elapses.
func FutexWait(addr *uint32, val uint32, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for atomic.LoadUint32(addr) == val {
		if timeout > 0 && time.Now().After(deadline) {
			return nil
		}
		time.Sleep(pollSlice)
	}
	return nil
}

// FutexWake is a no-op: pollers observe the changed word on their own.
func FutexWake(addr *uint32, n int) {}

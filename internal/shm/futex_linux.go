//go:build linux

package shm

import (
	"math"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Shared (not FUTEX_PRIVATE) operations, so waiters in other processes that
// map the same page are matched.
const (
	futexWait = 0
	futexWake = 1
)

// FutexWait blocks while *addr == val, until woken or until timeout elapses.
// A non-positive timeout waits indefinitely. Spurious returns are possible and
// callers must re-check their condition.
func FutexWait(addr *uint32, val uint32, timeout time.Duration) error {
	var ts *unix.Timespec
	if timeout > 0 {
		t := unix.NsecToTimespec(int64(timeout))
		ts = &t
	}
	_, _, errno := unix.Syscall6(unix.SYS_FUTEX, uintptr(unsafe.Pointer(addr)),
		futexWait, uintptr(val), uintptr(unsafe.Pointer(ts)), 0, 0)
	switch errno {
	case 0, unix.EAGAIN, unix.EINTR, unix.ETIMEDOUT:
		return nil
	default:
		return errno
	}
}

// FutexWake wakes up to n waiters blocked on addr.
func FutexWake(addr *uint32, n int) {
	if n <= 0 || n > math.MaxInt32 {
		n = math.MaxInt32
	}
	_, _, _ = unix.Syscall6(unix.SYS_FUTEX, uintptr(unsafe.Pointer(addr)),
		futexWake, uintptr(n), 0, 0, 0)
}

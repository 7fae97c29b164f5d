//go:build unix && !linux

package shm

import "os"

// DefaultDir is where named regions live.
var DefaultDir = os.TempDir()

// CanCreate always reports true off Linux.
func CanCreate(size uint64, dir string) bool {
	return true
}

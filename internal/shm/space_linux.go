//go:build linux

package shm

import (
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
)

// DefaultDir is where named regions live.
const DefaultDir = "/dev/shm"

// CanCreate reports whether dir has room for size more bytes. Only tmpfs under
// /dev/shm is checked, anything else is assumed to have room.
func CanCreate(size uint64, dir string) bool {
	if !strings.HasPrefix(dir, DefaultDir) {
		return true
	}
	stat, err := disk.Usage(DefaultDir)
	if err != nil {
		internalWarnf("could not read %s usage: %v", DefaultDir, err)
		return true
	}
	return stat.Free >= size
}

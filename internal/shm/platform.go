// Package shm contains platform-specific helpers for the shared table region.
package shm

import "errors"

// ErrNotSized is returned when a region exists but its creator has not sized it yet.
var ErrNotSized = errors.New("shared memory region not sized yet")

// MappedRegion represents a memory-mapped shared region.
type MappedRegion struct {
	Addr []byte
	Path string
}

// MapOptions defines options for mapping shared memory.
type MapOptions struct {
	Dir  string
	Name string
	// Size is required when Create is set. When attaching, the whole object
	// is mapped and Size is the minimum it must already have.
	Size   int
	Create bool
}

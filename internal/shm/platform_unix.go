//go:build unix

package shm

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// MapRegion maps or creates a shared memory region.
//
// With Create set the backing object is created exclusively, so an existing
// object surfaces as an error satisfying errors.Is(err, fs.ErrExist). Without
// it a missing object satisfies errors.Is(err, fs.ErrNotExist).
func MapRegion(ctx context.Context, opts MapOptions) (*MappedRegion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	shmPath := filepath.Join(opts.Dir, opts.Name)
	flags := unix.O_RDWR | unix.O_CLOEXEC
	if opts.Create {
		flags |= unix.O_CREAT | unix.O_EXCL
	}
	fd, err := unix.Open(shmPath, flags, 0600)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", shmPath, err)
	}
	defer func() {
		if cerr := unix.Close(fd); cerr != nil {
			internalWarnf("close %s: %v", shmPath, cerr)
		}
	}()

	size := opts.Size
	if opts.Create {
		if !CanCreate(uint64(size), opts.Dir) {
			_ = unix.Unlink(shmPath)
			return nil, fmt.Errorf("no space left for %d bytes on %s", size, opts.Dir)
		}
		if err := unix.Ftruncate(fd, int64(size)); err != nil {
			_ = unix.Unlink(shmPath)
			return nil, fmt.Errorf("ftruncate: %w", err)
		}
	} else {
		var st unix.Stat_t
		if err := unix.Fstat(fd, &st); err != nil {
			return nil, fmt.Errorf("fstat: %w", err)
		}
		if st.Size == 0 || int(st.Size) < opts.Size {
			return nil, ErrNotSized
		}
		size = int(st.Size)
	}

	addr, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		if opts.Create {
			_ = unix.Unlink(shmPath)
		}
		return nil, fmt.Errorf("mmap: %w", err)
	}
	return &MappedRegion{Addr: addr, Path: shmPath}, nil
}

// UnmapRegion unmaps the shared memory region. The backing object stays.
func UnmapRegion(region *MappedRegion) error {
	if region == nil || region.Addr == nil {
		return nil
	}
	if err := unix.Munmap(region.Addr); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	region.Addr = nil
	return nil
}

// RemoveRegion unlinks the backing object. Existing mappings stay valid.
func RemoveRegion(region *MappedRegion) error {
	if err := unix.Unlink(region.Path); err != nil {
		return fmt.Errorf("unlink %s: %w", region.Path, err)
	}
	return nil
}

// RegionExists reports whether the backing object is still linked.
func RegionExists(region *MappedRegion) bool {
	var st unix.Stat_t
	return unix.Stat(region.Path, &st) == nil
}

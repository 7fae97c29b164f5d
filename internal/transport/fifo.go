//go:build unix

// Package transport implements delivery channels as named FIFOs.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sys/unix"

	"github.com/srediag/tpc/internal/debug"
	"github.com/srediag/tpc/pkg/transport"
)

var internalLogger = debug.New("fifo", nil)

// WriterPatience bounds how long OpenWriter waits for a reader. Zero waits
// until ctx ends.
var WriterPatience time.Duration

// FIFO is a transport.Channel backed by a named pipe.
type FIFO struct {
	path string
}

var _ transport.Channel = (*FIFO)(nil)

// NewFIFO returns the FIFO at path. It does not create it.
func NewFIFO(path string) transport.Channel {
	return &FIFO{path: path}
}

func (f *FIFO) Name() string { return f.path }

// Create makes the named pipe, readable and writable by the owner and group.
func (f *FIFO) Create() error {
	if err := unix.Mkfifo(f.path, 0660); err != nil {
		return fmt.Errorf("mkfifo %s: %w", f.path, err)
	}
	return nil
}

// OpenReader blocks in open(2) until the writer shows up. If ctx ends first,
// the pending open is released by briefly opening the write end ourselves.
func (f *FIFO) OpenReader(ctx context.Context) (io.ReadCloser, error) {
	type result struct {
		file *os.File
		err  error
	}
	opened := make(chan result, 1)
	go func() {
		file, err := os.OpenFile(f.path, os.O_RDONLY, 0)
		opened <- result{file, err}
	}()

	select {
	case r := <-opened:
		if r.err != nil {
			return nil, fmt.Errorf("open %s for reading: %w", f.path, r.err)
		}
		return r.file, nil
	case <-ctx.Done():
		if fd, err := unix.Open(f.path, unix.O_WRONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0); err == nil {
			_ = unix.Close(fd)
		}
		if r := <-opened; r.file != nil {
			_ = r.file.Close()
		}
		return nil, ctx.Err()
	}
}

// OpenWriter opens the write end without blocking, retrying with backoff
// while no reader is present (ENXIO).
func (f *FIFO) OpenWriter(ctx context.Context) (io.WriteCloser, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Millisecond
	b.MaxInterval = 100 * time.Millisecond
	b.MaxElapsedTime = WriterPatience

	fd, err := backoff.RetryWithData(func() (int, error) {
		fd, err := unix.Open(f.path, unix.O_WRONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
		if errors.Is(err, unix.ENXIO) {
			return -1, err
		}
		if err != nil {
			return -1, backoff.Permanent(err)
		}
		return fd, nil
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return nil, fmt.Errorf("open %s for writing: %w", f.path, err)
	}
	// Writes are small and blocking is fine once the reader is attached.
	if err := unix.SetNonblock(fd, false); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("set blocking %s: %w", f.path, err)
	}
	return os.NewFile(uintptr(fd), f.path), nil
}

// Remove unlinks the named pipe.
func (f *FIFO) Remove() error {
	if err := os.Remove(f.path); err != nil {
		internalLogger.Warnf("remove %s: %v", f.path, err)
		return err
	}
	return nil
}

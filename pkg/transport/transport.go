// Package transport defines the single-use point-to-point delivery channel
// the dealer uses to hand cards to each player.
package transport

import (
	"context"
	"io"
)

// Channel is a named, one-shot, single-writer/single-reader byte stream.
//
// The receiving side calls Create, then OpenReader; the sending side calls
// OpenWriter, which only succeeds while a reader is present, so nothing is
// ever written into a channel nobody reads. The reader sees io.EOF once the
// writer closes, after which the receiver calls Remove.
type Channel interface {
	// Name identifies the channel across processes.
	Name() string
	// Create makes the channel exist. Receiver side.
	Create() error
	// OpenReader opens the channel for reading, blocking until a writer
	// arrives or ctx is done.
	OpenReader(ctx context.Context) (io.ReadCloser, error)
	// OpenWriter opens the channel for writing, waiting until a reader is
	// present or ctx is done.
	OpenWriter(ctx context.Context) (io.WriteCloser, error)
	// Remove destroys the channel. Receiver side.
	Remove() error
}

// Factory returns the channel with the given name.
type Factory func(name string) Channel

// Package shm provides named shared memory regions and the process-shared
// synchronization primitives that live inside them.
//
// A Region is a capability over one mapping: whoever holds it may read and
// write the bytes, unmap them (Close) or, if it owns the region, remove the
// backing object (Destroy). Mutex and Cond are plain words meant to be placed
// inside a Region; their zero value is ready to use and they work across
// processes mapping the same object.
//
// Example usage:
//
//	r, err := shm.Open(ctx, shm.OpenOptions{
//	  Name:   "tpc.t1",
//	  Size:   4096,
//	  Create: true,
//	})
//	// ...
//	defer r.Destroy()
//
// Regions are instrumented with OpenTelemetry metrics and tracing; both
// default to no-op providers.
package shm

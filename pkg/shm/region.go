package shm

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	internalshm "github.com/srediag/tpc/internal/shm"
)

var (
	// ErrNotFound is returned when attaching to a region that does not exist.
	ErrNotFound = errors.New("shared memory region not found")
	// ErrAlreadyExists is returned when creating a region that already exists.
	ErrAlreadyExists = errors.New("shared memory region already exists")
	// ErrNotReady is returned when a region exists but is not sized yet.
	ErrNotReady = internalshm.ErrNotSized
	// ErrClosed is returned by operations on an unmapped region.
	ErrClosed = errors.New("shared memory region closed")
)

// DefaultDir is the directory named regions are created in.
var DefaultDir = internalshm.DefaultDir

// OpenOptions defines options for creating or opening a shared memory region.
type OpenOptions struct {
	// Dir holds the backing object. Empty means DefaultDir.
	Dir string
	// Name is the identifier for the shared memory region.
	Name string
	// Size is the region size in bytes. Required with Create; when
	// attaching, a non-zero Size is the minimum acceptable size.
	Size int
	// Create the region exclusively instead of attaching to it.
	Create bool
	Meter  metric.Meter
	Tracer trace.Tracer
}

// Region is one process's mapping of a named shared memory object.
type Region struct {
	region *internalshm.MappedRegion
	name   string
	tracer trace.Tracer
	closes metric.Int64Counter
}

// Open creates or attaches to a shared memory region.
func Open(ctx context.Context, opts OpenOptions) (*Region, error) {
	if opts.Name == "" {
		return nil, errors.New("empty region name")
	}
	if opts.Create && opts.Size <= 0 {
		return nil, fmt.Errorf("invalid region size %d", opts.Size)
	}
	if opts.Dir == "" {
		opts.Dir = DefaultDir
	}
	if opts.Meter == nil {
		opts.Meter = metricnoop.NewMeterProvider().Meter("tpc/shm")
	}
	if opts.Tracer == nil {
		opts.Tracer = tracenoop.NewTracerProvider().Tracer("tpc/shm")
	}

	ctx, span := opts.Tracer.Start(ctx, "shm.Open", trace.WithAttributes(
		attribute.String("shm.name", opts.Name),
		attribute.Bool("shm.create", opts.Create),
	))
	defer span.End()

	mapped, err := internalshm.MapRegion(ctx, internalshm.MapOptions{
		Dir:    opts.Dir,
		Name:   opts.Name,
		Size:   opts.Size,
		Create: opts.Create,
	})
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrExist):
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, opts.Name)
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", ErrNotFound, opts.Name)
	default:
		span.RecordError(err)
		return nil, err
	}

	opens, _ := opts.Meter.Int64Counter("tpc.shm.region.opens")
	closes, _ := opts.Meter.Int64Counter("tpc.shm.region.closes")
	if opens != nil {
		opens.Add(ctx, 1, metric.WithAttributes(attribute.Bool("create", opts.Create)))
	}
	return &Region{
		region: mapped,
		name:   opts.Name,
		tracer: opts.Tracer,
		closes: closes,
	}, nil
}

// Name returns the region name.
func (r *Region) Name() string { return r.name }

// Bytes returns the mapped memory. It must not be used after Close.
func (r *Region) Bytes() []byte { return r.region.Addr }

// Size returns the mapped length in bytes.
func (r *Region) Size() int { return len(r.region.Addr) }

// Exists reports whether the backing object is still present.
func (r *Region) Exists() bool { return internalshm.RegionExists(r.region) }

// Close unmaps the region, leaving the backing object for other processes.
func (r *Region) Close() error {
	if r.region.Addr == nil {
		return ErrClosed
	}
	if r.closes != nil {
		r.closes.Add(context.Background(), 1)
	}
	return internalshm.UnmapRegion(r.region)
}

// Remove unlinks the backing object. Mappings, this one included, stay valid.
func (r *Region) Remove() error {
	return internalshm.RemoveRegion(r.region)
}

// Destroy unmaps the region and removes the backing object. Both steps are
// attempted; their errors are joined.
func (r *Region) Destroy() error {
	_, span := r.tracer.Start(context.Background(), "shm.Destroy")
	defer span.End()
	return errors.Join(r.Close(), r.Remove())
}

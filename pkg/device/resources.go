// Package device models the execution resources the primitives run on: an
// ordered Stream for asynchronous work, an Allocator for scratch memory and
// a Workers pool acting as the compute units.
//
// All primitives validate their arguments on the calling goroutine and only
// then submit work to the stream, so argument errors are returned
// immediately while execution faults surface from Stream.Synchronize.
package device

import (
	"context"
	"errors"

	"github.com/samcharles93/primkit/internal/logger"
)

// Config configures NewResources. Zero values pick defaults.
type Config struct {
	// Allocator for scratch memory. nil means DefaultAllocator().
	Allocator Allocator
	// Stream to submit work to. nil creates a stream owned by the Resources.
	Stream *Stream
	// Workers shared with other Resources. nil creates a pool of
	// NumWorkers owned by the Resources.
	Workers    *Workers
	NumWorkers int
	Logger     logger.Logger
}

// Resources bundles what a primitive call needs. It is safe to share one
// Resources across goroutines; work is ordered by its stream.
type Resources struct {
	stream  *Stream
	alloc   Allocator
	workers *Workers
	log     logger.Logger

	ownStream  bool
	ownWorkers bool
}

// NewResources builds a Resources from cfg.
func NewResources(cfg Config) *Resources {
	r := &Resources{
		stream:  cfg.Stream,
		alloc:   cfg.Allocator,
		workers: cfg.Workers,
		log:     cfg.Logger,
	}
	if r.alloc == nil {
		r.alloc = DefaultAllocator()
	}
	if r.stream == nil {
		r.stream = NewStream()
		r.ownStream = true
	}
	if r.workers == nil {
		r.workers = NewWorkers(cfg.NumWorkers)
		r.ownWorkers = true
	}
	if r.log == nil {
		r.log = logger.Nop()
	}
	return r
}

// WithStream returns a Resources sharing allocator, workers and logger with r
// but submitting to s. Closing it leaves the shared parts running.
func (r *Resources) WithStream(s *Stream) *Resources {
	return &Resources{stream: s, alloc: r.alloc, workers: r.workers, log: r.log}
}

func (r *Resources) Stream() *Stream                { return r.stream }
func (r *Resources) Allocator() Allocator           { return r.alloc }
func (r *Resources) Workers() *Workers              { return r.workers }
func (r *Resources) Logger() logger.Logger          { return r.log }
func (r *Resources) Submit(op Op) error             { return r.stream.Submit(op) }
func (r *Resources) Sync(ctx context.Context) error { return r.stream.Synchronize(ctx) }

// Close drains the owned stream and stops owned workers.
func (r *Resources) Close() error {
	var err error
	if r.ownStream {
		err = r.stream.Close()
	} else {
		err = r.stream.Synchronize(context.Background())
	}
	if r.ownWorkers {
		r.workers.Close()
	}
	return err
}

// Release submits a stream operation that frees bufs once the work queued
// ahead of it has finished. If the stream is closed the buffers are freed
// immediately.
func Release(r *Resources, bufs ...interface{ Release() }) {
	err := r.stream.Submit(func() error {
		for _, b := range bufs {
			b.Release()
		}
		return nil
	})
	if errors.Is(err, ErrStreamClosed) {
		for _, b := range bufs {
			b.Release()
		}
	}
}

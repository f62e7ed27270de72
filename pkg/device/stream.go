package device

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
)

// Op is a unit of work submitted to a Stream.
type Op func() error

var streamIDs atomic.Uint64

// Stream is an ordered, asynchronous execution queue. Operations run one at a
// time on a dedicated goroutine in submission order; independent streams run
// concurrently. The first error returned by an operation (or a recovered
// panic) is held until the next Synchronize.
type Stream struct {
	id uint64

	mu     sync.Mutex
	cond   *sync.Cond
	ops    *queue.Queue
	closed bool
	err    error
	done   chan struct{}
}

// NewStream creates a stream and starts its executor.
func NewStream() *Stream {
	s := &Stream{
		id:   streamIDs.Add(1),
		ops:  queue.New(),
		done: make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	go s.run()
	return s
}

// ID returns a process-unique stream identifier.
func (s *Stream) ID() uint64 {
	return s.id
}

// Submit enqueues op. It never waits for op to run.
func (s *Stream) Submit(op Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStreamClosed
	}
	s.ops.Add(op)
	s.cond.Signal()
	return nil
}

// Pending returns the number of operations not yet started.
func (s *Stream) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ops.Length()
}

// Synchronize blocks until every operation submitted before the call has
// finished, then returns and clears the first error any of them reported.
func (s *Stream) Synchronize(ctx context.Context) error {
	fence := make(chan struct{})
	if err := s.Submit(func() error {
		close(fence)
		return nil
	}); err != nil {
		// Closed streams are fully drained once done is closed.
		select {
		case <-s.done:
		case <-ctx.Done():
			return ctx.Err()
		}
		return s.takeErr()
	}

	select {
	case <-fence:
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.takeErr()
}

// Close stops accepting work, waits for queued operations to finish and
// returns any error they left behind. Calling Close again is safe.
func (s *Stream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
	<-s.done
	return s.takeErr()
}

func (s *Stream) takeErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.err
	s.err = nil
	return err
}

func (s *Stream) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for s.ops.Length() == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.ops.Length() == 0 {
			s.mu.Unlock()
			return
		}
		op := s.ops.Remove().(Op)
		s.mu.Unlock()

		if err := execute(op); err != nil {
			s.mu.Lock()
			if s.err == nil {
				s.err = err
			}
			s.mu.Unlock()
		}
	}
}

func execute(op Op) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = executionError(rec)
		}
	}()
	return op()
}

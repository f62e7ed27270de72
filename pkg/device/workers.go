package device

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Workers is a persistent goroutine pool that stands in for the device's
// compute units. Kernels split rows or segments across it. Close may race
// with parallel calls; calls that find the pool closed run inline.
type Workers struct {
	n    int
	work chan func()

	mu     sync.RWMutex
	closed bool
}

// NewWorkers starts n workers; n <= 0 uses GOMAXPROCS.
func NewWorkers(n int) *Workers {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	w := &Workers{n: n, work: make(chan func(), n*2)}
	for range n {
		go func() {
			for fn := range w.work {
				fn()
			}
		}()
	}
	return w
}

// Size returns the number of workers.
func (w *Workers) Size() int { return w.n }

// Close stops the workers. Later parallel calls run inline.
func (w *Workers) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	close(w.work)
}

// dispatch hands tasks to the pool, or runs them on the caller when the
// pool is closed. The read lock keeps Close from closing the channel while
// tasks are being sent.
func (w *Workers) dispatch(tasks []func()) {
	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		for _, t := range tasks {
			t()
		}
		return
	}
	for _, t := range tasks {
		w.work <- t
	}
	w.mu.RUnlock()
}

func (w *Workers) isClosed() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.closed
}

// ParallelFor splits [0, n) into contiguous chunks, one per worker, and
// blocks until fn has run over all of them.
func (w *Workers) ParallelFor(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	parts := min(w.n, n)
	if parts == 1 || w.isClosed() {
		fn(0, n)
		return
	}
	chunk := (n + parts - 1) / parts

	var wg sync.WaitGroup
	var fault panicSlot
	tasks := make([]func(), 0, parts)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		tasks = append(tasks, func() {
			defer wg.Done()
			defer fault.capture()
			fn(start, end)
		})
	}
	w.dispatch(tasks)
	wg.Wait()
	fault.rethrow()
}

// ForEach runs fn(i) for every i in [0, n), handing out indices
// dynamically. Use it when items vary in cost, such as CSR rows.
func (w *Workers) ForEach(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	parts := min(w.n, n)
	if parts == 1 || w.isClosed() {
		for i := range n {
			fn(i)
		}
		return
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	var fault panicSlot
	tasks := make([]func(), parts)
	wg.Add(parts)
	for p := range tasks {
		tasks[p] = func() {
			defer wg.Done()
			defer fault.capture()
			for {
				i := int(next.Add(1)) - 1
				if i >= n {
					return
				}
				fn(i)
			}
		}
	}
	w.dispatch(tasks)
	wg.Wait()
	fault.rethrow()
}

// panicSlot carries the first panic raised on a worker back to the
// goroutine that issued the parallel call.
type panicSlot struct {
	once sync.Once
	val  any
	set  atomic.Bool
}

func (p *panicSlot) capture() {
	if rec := recover(); rec != nil {
		p.once.Do(func() {
			p.val = rec
			p.set.Store(true)
		})
	}
}

func (p *panicSlot) rethrow() {
	if p.set.Load() {
		panic(p.val)
	}
}

package selectk

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/samcharles93/primkit/pkg/device"
)

// Shape identifies a batched selection problem.
type Shape struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
	K    int `json:"k"`
}

// Measurement is the best algorithm found for a shape and its time.
type Measurement struct {
	Shape   Shape         `json:"shape"`
	Algo    Algo          `json:"algo"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// Autotuner remembers the fastest algorithm per measured shape and falls
// back to a decision table for shapes it has not seen.
type Autotuner struct {
	mu       sync.RWMutex
	cache    map[Shape]Measurement
	fallback Chooser
}

func NewAutotuner(fallback Chooser) *Autotuner {
	if fallback == nil {
		fallback = DefaultDecisionTable()
	}
	return &Autotuner{
		cache:    make(map[Shape]Measurement),
		fallback: fallback,
	}
}

// Tune times every candidate with run and keeps the fastest. A cached
// shape is returned without running anything. Candidates whose run fails
// are skipped; if all fail the fallback choice is returned and nothing is
// cached.
func (t *Autotuner) Tune(shape Shape, candidates []Algo, run func(Algo) (time.Duration, error)) Algo {
	t.mu.RLock()
	if m, ok := t.cache[shape]; ok {
		t.mu.RUnlock()
		return m.Algo
	}
	t.mu.RUnlock()

	best := Measurement{Shape: shape, Elapsed: -1}
	for _, a := range candidates {
		elapsed, err := run(a)
		if err != nil {
			continue
		}
		if best.Elapsed < 0 || elapsed < best.Elapsed {
			best.Algo, best.Elapsed = a, elapsed
		}
	}
	if best.Elapsed < 0 {
		return t.fallback.Choose(shape.Rows, shape.Cols, shape.K)
	}

	t.mu.Lock()
	t.cache[shape] = best
	t.mu.Unlock()
	return best.Algo
}

// Choose implements Chooser.
func (t *Autotuner) Choose(rows, cols, k int) Algo {
	t.mu.RLock()
	m, ok := t.cache[Shape{Rows: rows, Cols: cols, K: k}]
	t.mu.RUnlock()
	if ok {
		return m.Algo
	}
	return t.fallback.Choose(rows, cols, k)
}

// Measurements returns the cached results ordered by shape.
func (t *Autotuner) Measurements() []Measurement {
	t.mu.RLock()
	out := make([]Measurement, 0, len(t.cache))
	for _, m := range t.cache {
		out = append(out, m)
	}
	t.mu.RUnlock()
	slices.SortFunc(out, func(a, b Measurement) int {
		if a.Shape.Rows != b.Shape.Rows {
			return a.Shape.Rows - b.Shape.Rows
		}
		if a.Shape.Cols != b.Shape.Cols {
			return a.Shape.Cols - b.Shape.Cols
		}
		return a.Shape.K - b.Shape.K
	})
	return out
}

// Candidates returns the concrete algorithms able to serve k.
func Candidates(k int) []Algo {
	var out []Algo
	for _, a := range Algos() {
		if a.IsRadix() || k <= maxWarpK {
			out = append(out, a)
		}
	}
	return out
}

// Measure runs one selection of in with opts.Algo on res and returns the
// wall time until the stream drains, best of repeats runs.
func Measure[K Key](ctx context.Context, res *device.Resources, in []K, batch, length, k int, opts Options, repeats int) (time.Duration, error) {
	outVals := make([]K, batch*k)
	outIdx := make([]int, batch*k)
	best := time.Duration(-1)
	for range max(1, repeats) {
		start := time.Now()
		if err := SelectK(res, in, nil, batch, length, k, outVals, outIdx, opts); err != nil {
			return 0, err
		}
		if err := res.Sync(ctx); err != nil {
			return 0, err
		}
		if d := time.Since(start); best < 0 || d < best {
			best = d
		}
	}
	return best, nil
}

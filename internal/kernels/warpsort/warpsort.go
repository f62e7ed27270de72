// Package warpsort implements top-k selection with warp-style sorted queues.
//
// A queue holds the best Capacity(k) entries seen so far in ascending order
// of encoded key. Variants differ in how candidates reach the queue; all of
// them emit rows sorted best first.
package warpsort

import (
	"fmt"
	"math/bits"

	"github.com/samcharles93/primkit/internal/ordkey"
	"github.com/samcharles93/primkit/pkg/device"
)

const (
	// WarpSize is the number of lanes that cooperate on one row.
	WarpSize = 32
	// MaxCapacity bounds the queue, and therefore k.
	MaxCapacity = 256
)

// Variant selects how candidates are fed to the queue.
type Variant int

const (
	// Filtered buffers candidates that beat the current k-th entry and
	// merges the buffer once it holds a warp's worth.
	Filtered Variant = iota
	// Distributed merges every warp-wide step of candidates, discarding
	// lanes that cannot enter the queue.
	Distributed
	// DistributedShm is Distributed with the queue staged in
	// caller-provided shared scratch instead of per-worker storage.
	DistributedShm
	// Immediate inserts each element into the queue as it is read.
	Immediate
	// Auto picks one of the above from the row length and k.
	Auto
)

func (v Variant) String() string {
	switch v {
	case Filtered:
		return "filtered"
	case Distributed:
		return "distributed"
	case DistributedShm:
		return "distributed_shm"
	case Immediate:
		return "immediate"
	case Auto:
		return "auto"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// Params describes one batched selection.
type Params struct {
	Rows, Len, K int
	SelectMin    bool
}

// Capacity returns the queue size used for k: the next power of two, at
// least one warp wide.
func Capacity(k int) int {
	if k <= WarpSize {
		return WarpSize
	}
	return 1 << bits.Len(uint(k-1))
}

// Supports reports whether k fits in a queue.
func Supports(k int) bool {
	return k >= 1 && k <= MaxCapacity
}

// Resolve maps Auto to a concrete variant for the given shape.
func Resolve(v Variant, length, k int) Variant {
	if v != Auto {
		return v
	}
	switch {
	case k <= 8 || length <= 256:
		return Immediate
	case length >= 64*k:
		return Filtered
	default:
		return Distributed
	}
}

// Parts returns how many rows are processed concurrently.
func Parts(rows, workers int) int {
	return max(1, min(rows, workers))
}

// ShmWords returns the shared scratch, in 8-byte words, that the variant
// needs at the given concurrency. Only DistributedShm uses any.
func ShmWords(v Variant, p Params, parts int) int {
	if Resolve(v, p.Len, p.K) != DistributedShm {
		return 0
	}
	return parts * Capacity(p.K) * 2
}

// Select writes the k best entries of every row, best first. inIdx may be
// nil, in which case positions within the row are reported. shm must hold
// ShmWords(v, p, parts) words. k must satisfy Supports.
func Select[K ordkey.Key](w *device.Workers, v Variant, parts int, p Params, in []K, inIdx []int, outVals []K, outIdx []int, shm []uint64) {
	v = Resolve(v, p.Len, p.K)
	capacity := Capacity(p.K)
	chunk := (p.Rows + parts - 1) / parts

	w.ForEach(parts, func(part int) {
		q := newQueue(v, capacity, part, shm)
		enc := make([]uint64, p.Len)
		for r := part * chunk; r < min((part+1)*chunk, p.Rows); r++ {
			row := in[r*p.Len : (r+1)*p.Len]
			ordkey.EncodeSlice(enc, row, !p.SelectMin)
			q.reset()
			switch v {
			case Filtered:
				q.runFiltered(enc, p.K)
			case Distributed, DistributedShm:
				q.runDistributed(enc, p.K)
			case Immediate:
				q.runImmediate(enc, p.K)
			default:
				panic(fmt.Sprintf("warpsort: unsupported variant %v", v))
			}
			store(q, r, p, row, inIdx, outVals, outIdx)
		}
	})
}

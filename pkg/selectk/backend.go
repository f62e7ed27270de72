package selectk

import (
	"fmt"

	"github.com/samcharles93/primkit/internal/kernels/radix"
	"github.com/samcharles93/primkit/internal/kernels/warpsort"
	"github.com/samcharles93/primkit/pkg/device"
)

const maxWarpK = warpsort.MaxCapacity

// Request is the shape of one batched selection as seen by a backend.
type Request struct {
	Rows, Len, K int
	SelectMin    bool
}

// Backend is the call contract every selection kernel satisfies. Backends
// run inside a stream operation; they must not allocate device memory and
// must only touch the scratch they asked for.
type Backend[K Key] interface {
	// Sorted reports whether output rows come out ordered best first.
	Sorted() bool
	Supports(k int) bool
	// ScratchWords is the scratch, in 8-byte words, needed when parts rows
	// are processed concurrently.
	ScratchWords(req Request, parts int) int
	Select(w *device.Workers, parts int, req Request, in []K, inIdx []int, outVals []K, outIdx []int, scratch []uint64)
}

// BackendFor is the dispatch table from Algo to implementation. Auto and
// unknown values are configuration errors and panic.
func BackendFor[K Key](a Algo) Backend[K] {
	switch a {
	case Radix8bits:
		return radixBackend[K]{bits: 8, fused: true}
	case Radix11bits:
		return radixBackend[K]{bits: 11, fused: true}
	case Radix11bitsExtraPass:
		return radixBackend[K]{bits: 11, fused: false}
	case WarpAuto:
		return warpBackend[K]{variant: warpsort.Auto}
	case WarpImmediate:
		return warpBackend[K]{variant: warpsort.Immediate}
	case WarpFiltered:
		return warpBackend[K]{variant: warpsort.Filtered}
	case WarpDistributed:
		return warpBackend[K]{variant: warpsort.Distributed}
	case WarpDistributedShm:
		return warpBackend[K]{variant: warpsort.DistributedShm}
	default:
		panic(fmt.Sprintf("selectk: unsupported algorithm %v reached dispatch", a))
	}
}

type radixBackend[K Key] struct {
	bits  int
	fused bool
}

func (b radixBackend[K]) params(req Request) radix.Params {
	return radix.Params{
		Rows: req.Rows, Len: req.Len, K: req.K,
		SelectMin:       req.SelectMin,
		BitsPerPass:     b.bits,
		FusedLastFilter: b.fused,
	}
}

func (radixBackend[K]) Sorted() bool        { return false }
func (radixBackend[K]) Supports(k int) bool { return k >= 1 && k <= MaxK }

func (b radixBackend[K]) ScratchWords(req Request, parts int) int {
	return radix.ScratchWords(b.params(req), parts)
}

func (b radixBackend[K]) Select(w *device.Workers, parts int, req Request, in []K, inIdx []int, outVals []K, outIdx []int, scratch []uint64) {
	radix.Select(w, parts, b.params(req), in, inIdx, outVals, outIdx, scratch)
}

type warpBackend[K Key] struct {
	variant warpsort.Variant
}

func (warpBackend[K]) Sorted() bool        { return true }
func (warpBackend[K]) Supports(k int) bool { return warpsort.Supports(k) }

func (b warpBackend[K]) ScratchWords(req Request, parts int) int {
	return warpsort.ShmWords(b.variant, warpParams(req), parts)
}

func (b warpBackend[K]) Select(w *device.Workers, parts int, req Request, in []K, inIdx []int, outVals []K, outIdx []int, scratch []uint64) {
	warpsort.Select(w, b.variant, parts, warpParams(req), in, inIdx, outVals, outIdx, scratch)
}

func warpParams(req Request) warpsort.Params {
	return warpsort.Params{Rows: req.Rows, Len: req.Len, K: req.K, SelectMin: req.SelectMin}
}

package warpsort

import (
	"unsafe"

	"github.com/samcharles93/primkit/internal/ordkey"
)

type queue struct {
	keys []uint64
	pos  []int

	// warp-wide staging for the filtered and distributed variants
	bufKeys []uint64
	bufPos  []int
}

func newQueue(v Variant, capacity, part int, shm []uint64) *queue {
	q := &queue{
		bufKeys: make([]uint64, WarpSize),
		bufPos:  make([]int, WarpSize),
	}
	if v == DistributedShm {
		base := shm[part*capacity*2 : (part+1)*capacity*2]
		q.keys = base[:capacity]
		q.pos = unsafe.Slice((*int)(unsafe.Pointer(&base[capacity])), capacity)
	} else {
		q.keys = make([]uint64, capacity)
		q.pos = make([]int, capacity)
	}
	return q
}

func (q *queue) reset() {
	fill(q.keys, q.pos)
}

// beats reports whether (key, pos) would enter the k best.
func (q *queue) beats(key uint64, pos, k int) bool {
	return less(key, pos, q.keys[k-1], q.pos[k-1])
}

func (q *queue) runFiltered(enc []uint64, k int) {
	n := 0
	for j, e := range enc {
		if !q.beats(e, j, k) {
			continue
		}
		q.bufKeys[n], q.bufPos[n] = e, j
		n++
		if n == WarpSize {
			q.flush(n)
			n = 0
		}
	}
	if n > 0 {
		q.flush(n)
	}
}

func (q *queue) runDistributed(enc []uint64, k int) {
	for start := 0; start < len(enc); start += WarpSize {
		n := 0
		for lane := range min(WarpSize, len(enc)-start) {
			j := start + lane
			if q.beats(enc[j], j, k) {
				q.bufKeys[n], q.bufPos[n] = enc[j], j
				n++
			}
		}
		if n > 0 {
			q.flush(n)
		}
	}
}

// runImmediate inserts each candidate into the first k slots, shifting the
// tail down.
func (q *queue) runImmediate(enc []uint64, k int) {
	keys, pos := q.keys[:k], q.pos[:k]
	for j, e := range enc {
		if !less(e, j, keys[k-1], pos[k-1]) {
			continue
		}
		i := k - 1
		for i > 0 && less(e, j, keys[i-1], pos[i-1]) {
			keys[i], pos[i] = keys[i-1], pos[i-1]
			i--
		}
		keys[i], pos[i] = e, j
	}
}

// flush sorts the first n staged candidates and merges them in.
func (q *queue) flush(n int) {
	fill(q.bufKeys[n:], q.bufPos[n:])
	bitonicSort(q.bufKeys, q.bufPos)
	mergeIn(q.keys, q.pos, q.bufKeys[:n], q.bufPos[:n])
}

// store copies the first k queue entries of row r to the outputs.
func store[K ordkey.Key](q *queue, r int, p Params, row []K, inIdx []int, outVals []K, outIdx []int) {
	for i := range p.K {
		j := q.pos[i]
		outVals[r*p.K+i] = row[j]
		if inIdx == nil {
			outIdx[r*p.K+i] = j
		} else {
			outIdx[r*p.K+i] = inIdx[r*p.Len+j]
		}
	}
}

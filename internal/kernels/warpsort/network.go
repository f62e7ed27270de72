package warpsort

import "math"

// Entries are ordered by encoded key, then by position. Empty slots carry
// the sentinel position so that any real entry beats them, including one
// whose key encodes to the maximum.
const emptyPos = math.MaxInt

func less(ka uint64, pa int, kb uint64, pb int) bool {
	return ka < kb || (ka == kb && pa < pb)
}

func fill(keys []uint64, pos []int) {
	for i := range keys {
		keys[i] = math.MaxUint64
		pos[i] = emptyPos
	}
}

// bitonicSort sorts a power-of-two sized run ascending with a bitonic
// network, the same compare-exchange schedule a warp executes across lanes.
func bitonicSort(keys []uint64, pos []int) {
	n := len(keys)
	for size := 2; size <= n; size <<= 1 {
		for stride := size >> 1; stride > 0; stride >>= 1 {
			for i := range n {
				j := i ^ stride
				if j <= i {
					continue
				}
				up := i&size == 0
				if up == less(keys[j], pos[j], keys[i], pos[i]) {
					keys[i], keys[j] = keys[j], keys[i]
					pos[i], pos[j] = pos[j], pos[i]
				}
			}
		}
	}
}

// bitonicMerge sorts a bitonic power-of-two sized run ascending.
func bitonicMerge(keys []uint64, pos []int) {
	n := len(keys)
	for stride := n >> 1; stride > 0; stride >>= 1 {
		for i := range n {
			j := i ^ stride
			if j > i && less(keys[j], pos[j], keys[i], pos[i]) {
				keys[i], keys[j] = keys[j], keys[i]
				pos[i], pos[j] = pos[j], pos[i]
			}
		}
	}
}

// mergeIn folds an ascending run (bKeys, bPos) into the ascending queue,
// keeping the len(qKeys) smallest entries. The element-wise minimum of the
// queue and the reversed run is bitonic, so one merge network restores order.
func mergeIn(qKeys []uint64, qPos []int, bKeys []uint64, bPos []int) {
	n, m := len(qKeys), len(bKeys)
	for i := range min(n, m) {
		j := n - 1 - i
		if less(bKeys[i], bPos[i], qKeys[j], qPos[j]) {
			qKeys[j], qPos[j] = bKeys[i], bPos[i]
		}
	}
	bitonicMerge(qKeys, qPos)
}

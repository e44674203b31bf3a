package hash

import "math/bits"

// Distance returns the Hamming distance between two fingerprints: the
// number of differing bits, in [0, 64]. Word-parallel popcount, O(1);
// this runs on every BK-tree descent comparison.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

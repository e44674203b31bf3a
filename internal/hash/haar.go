package hash

// haar2D applies a full multi-level 2-D Haar wavelet transform in
// place: at each level, adjacent pairs reduce to averages in the low
// half and half-differences in the high half, rows then columns, then
// the next level recurses on the top-left quadrant down to 1x1. After
// five levels m[0][0] holds the global average and the rest of the
// top-left block holds the coarsest detail coefficients.
func haar2D(m *[32][32]float64) {
	var tmp [32]float64
	for size := 32; size > 1; size >>= 1 {
		half := size / 2
		for y := 0; y < size; y++ {
			for k := 0; k < half; k++ {
				a, b := m[y][2*k], m[y][2*k+1]
				tmp[k] = (a + b) / 2
				tmp[half+k] = (a - b) / 2
			}
			copy(m[y][:size], tmp[:size])
		}
		for x := 0; x < size; x++ {
			for k := 0; k < half; k++ {
				a, b := m[2*k][x], m[2*k+1][x]
				tmp[k] = (a + b) / 2
				tmp[half+k] = (a - b) / 2
			}
			for y := 0; y < size; y++ {
				m[y][x] = tmp[y]
			}
		}
	}
}

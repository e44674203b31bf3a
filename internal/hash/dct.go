package hash

import "math"

// Fast 32-element DCT-II truncated to its first 11 output coefficients.
// Classic split/merge butterfly recursion: the input folds into a
// half-size DCT of sums and a half-size DCT of weighted differences,
// whose outputs interleave into the even and odd coefficients. The
// truncation parameter caps how deep each half needs to be evaluated,
// so coefficients past index 10 are never produced.

// dctC[h-1+k] = 0.5 / cos(pi*(2k+1)/(4h)) for half sizes h = 1..16.
var dctC [31]float64

// Output scaling for the orthonormal 32-point transform.
const (
	dctD0 = 0.17677669529663687 // 2^-2.5, DC term
	dctD1 = 0.25                // 2^-2, all others
)

func init() {
	for h := 1; h <= 16; h <<= 1 {
		for k := 0; k < h; k++ {
			dctC[h-1+k] = 0.5 / math.Cos(math.Pi*float64(2*k+1)/float64(4*h))
		}
	}
}

// fdct32 writes the first 11 DCT-II coefficients of x into out. The
// recursion scribbles intermediates over both working buffers, so it
// runs on a private copy and x is left untouched.
func fdct32(x *[32]float64, out *[11]float64) {
	a := *x
	var b [32]float64
	fdctStep(5, a[:], b[:], 0, 10)
	out[0] = b[0] * dctD0
	for i := 1; i <= 10; i++ {
		out[i] = b[i] * dctD1
	}
}

// fdctStep computes coefficients 0..t of the 2^p-element DCT-II of
// a[i:i+2^p] into b[i:i+2^p]. The buffers swap roles at each level of
// the recursion; intermediate values live in whichever buffer is not
// currently the output.
func fdctStep(p int, a, b []float64, i, t int) {
	if p == 1 {
		b[i] = a[i] + a[i+1]
		if t >= 1 {
			b[i+1] = (a[i] - a[i+1]) * dctC[0]
		}
		return
	}

	n := 1 << p
	h := n >> 1

	// Butterflies: sums in the low half, weighted differences in the
	// high half.
	for k := 0; k < h; k++ {
		b[i+k] = a[i+k] + a[i+n-1-k]
	}
	if t >= 1 {
		for k := 0; k < h; k++ {
			b[i+h+k] = (a[i+k] - a[i+n-1-k]) * dctC[h-1+k]
		}
	}

	fdctStep(p-1, b, a, i, t/2)
	if t >= 1 {
		th := (t + 1) / 2
		if th > h-1 {
			th = h - 1
		}
		fdctStep(p-1, b, a, i+h, th)
	}

	// Interleave the half-size results, stopping once coefficient t is
	// produced.
	for j := 0; j < h-1; j++ {
		if t < 2*j {
			return
		}
		b[i+2*j] = a[i+j]
		if t < 2*j+1 {
			return
		}
		b[i+2*j+1] = a[i+h+j] + a[i+h+j+1]
	}
	if t >= n-2 {
		b[i+n-2] = a[i+h-1]
		if t >= n-1 {
			b[i+n-1] = a[i+n-1]
		}
	}
}

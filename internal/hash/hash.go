package hash

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"linkdedup/internal/models"
)

// Kind selects which perceptual hash algorithm to use. Fingerprints are
// only comparable when produced by the same kind.
type Kind string

const (
	DifferenceHash Kind = "differenceHash"
	DCTHash        Kind = "dctHash"
	WaveletHash    Kind = "waveletHash"
)

var (
	// ErrImageBroken means the image has no usable pixel dimensions.
	ErrImageBroken = errors.New("image is broken")
	// ErrImageIncomplete means the pixel buffer is shorter than the
	// declared dimensions require.
	ErrImageIncomplete = errors.New("image decode is incomplete")
)

// ParseKind validates a hash function name from configuration.
func ParseKind(name string) (Kind, error) {
	switch Kind(name) {
	case DifferenceHash, DCTHash, WaveletHash:
		return Kind(name), nil
	}
	return "", fmt.Errorf("unknown hash function %q", name)
}

// Compute produces the 64-bit fingerprint of an image using the given
// algorithm. The result is deterministic: the same pixels always hash
// to the same bits.
func Compute(img *models.Image, kind Kind) (uint64, error) {
	if img == nil || img.Width <= 0 || img.Height <= 0 {
		return 0, ErrImageBroken
	}
	if len(img.Pix) < img.Width*img.Height*4 {
		return 0, ErrImageIncomplete
	}

	g := gray32(img)
	switch kind {
	case DifferenceHash:
		return differenceHash(&g), nil
	case DCTHash:
		return dctHash(&g), nil
	case WaveletHash:
		return waveletHash(&g), nil
	}
	return 0, fmt.Errorf("unknown hash function %q", kind)
}

// Bytes renders a fingerprint as 8 bytes, first computed bit in the
// highest bit of the first byte.
func Bytes(h uint64) [8]byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], h)
	return b
}

// Format renders a fingerprint as 16 hex characters for display.
func Format(h uint64) string {
	return fmt.Sprintf("%016x", h)
}

// gray32 box-averages the image down to a 32x32 grid of luminance
// values. Luminance is the unnormalized R+G+B sum per pixel; integer
// source bounds keep the result independent of the platform's image
// scaling implementation.
func gray32(img *models.Image) [1024]float64 {
	var g [1024]float64
	w, h := img.Width, img.Height
	for ty := 0; ty < 32; ty++ {
		y0 := ty * h / 32
		y1 := (ty + 1) * h / 32
		if y1 <= y0 {
			y1 = y0 + 1
		}
		for tx := 0; tx < 32; tx++ {
			x0 := tx * w / 32
			x1 := (tx + 1) * w / 32
			if x1 <= x0 {
				x1 = x0 + 1
			}
			var sum int64
			for y := y0; y < y1; y++ {
				row := y * w * 4
				for x := x0; x < x1; x++ {
					p := row + x*4
					sum += int64(img.Pix[p]) + int64(img.Pix[p+1]) + int64(img.Pix[p+2])
				}
			}
			g[ty*32+tx] = float64(sum) / float64((y1-y0)*(x1-x0))
		}
	}
	return g
}

// differenceHash compares neighboring samples of an 8x8 grid along a
// Moore space-filling curve. The curve keeps compared pixels spatially
// adjacent at every step, unlike row-major order which jumps at row
// boundaries; the curve is a closed loop, so the last sample compares
// back to the first.
func differenceHash(g *[1024]float64) uint64 {
	// Nearest-neighbor 8x8 samples out of the box-filtered 32x32 grid.
	var s [64]float64
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			s[y*8+x] = g[(4*y+2)*32+4*x+2]
		}
	}

	order := curveOrder()
	var h uint64
	for i := 0; i < 64; i++ {
		h <<= 1
		if s[order[i]] < s[order[(i+1)%64]] {
			h |= 1
		}
	}
	return h
}

// dctHash takes the sign bits of low-frequency DCT coefficients. The
// 2-D transform runs rows then columns, each truncated to the first 11
// outputs; bits are emitted over the upper-left triangle of the 11x11
// coefficient matrix by ascending index sum, skipping the DC
// coefficient and (5,5) to land exactly on 64 bits.
func dctHash(g *[1024]float64) uint64 {
	var in [32]float64
	var rows [32][11]float64
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			in[x] = g[y*32+x] - 384 // center around zero
		}
		fdct32(&in, &rows[y])
	}

	var m [11][11]float64
	for x := 0; x < 11; x++ {
		for y := 0; y < 32; y++ {
			in[y] = rows[y][x]
		}
		var col [11]float64
		fdct32(&in, &col)
		for y := 0; y < 11; y++ {
			m[y][x] = col[y]
		}
	}

	var h uint64
	for s := 1; s <= 10; s++ {
		for j := 0; j <= s; j++ {
			if s == 10 && j == 5 {
				continue // (5,5): 65th bit, dropped
			}
			h <<= 1
			if !math.Signbit(m[s-j][j]) {
				h |= 1
			}
		}
	}
	return h
}

// waveletHash takes the sign bits of the coarsest 8x8 coefficients of a
// multi-level 2-D Haar transform.
func waveletHash(g *[1024]float64) uint64 {
	var m [32][32]float64
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			m[y][x] = g[y*32+x] - 384
		}
	}
	haar2D(&m)

	var h uint64
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			h <<= 1
			if !math.Signbit(m[y][x]) {
				h |= 1
			}
		}
	}
	return h
}

package hash

import (
	"strings"
	"sync"
)

// The difference hash walks its 8x8 sample grid along a Moore curve of
// order 3: a closed space-filling loop where every step, including the
// wraparound from the last cell back to the first, moves to an adjacent
// cell. The traversal order is a pure constant, expanded once from the
// curve's L-system:
//
//	axiom  LFL+F+LFL
//	L  ->  -RF+LFL+FR-
//	R  ->  +LF-RFR-FL+
var (
	curveOnce sync.Once
	curve     [64]int
)

// curveOrder returns the visit order of the 64 grid cells: entry i is
// the row-major index (y*8+x) of the i-th cell on the curve.
func curveOrder() *[64]int {
	curveOnce.Do(func() {
		s := "LFL+F+LFL"
		for i := 0; i < 2; i++ {
			var b strings.Builder
			for _, c := range s {
				switch c {
				case 'L':
					b.WriteString("-RF+LFL+FR-")
				case 'R':
					b.WriteString("+LF-RFR-FL+")
				default:
					b.WriteRune(c)
				}
			}
			s = b.String()
		}

		type pt struct{ x, y int }
		pos := pt{0, 0}
		dir := pt{0, 1}
		pts := []pt{pos}
		for _, c := range s {
			switch c {
			case 'F':
				pos.x += dir.x
				pos.y += dir.y
				pts = append(pts, pos)
			case '+':
				dir.x, dir.y = dir.y, -dir.x
			case '-':
				dir.x, dir.y = -dir.y, dir.x
			}
		}

		minX, minY := pts[0].x, pts[0].y
		for _, p := range pts {
			if p.x < minX {
				minX = p.x
			}
			if p.y < minY {
				minY = p.y
			}
		}
		for i, p := range pts {
			curve[i] = (p.y-minY)*8 + (p.x - minX)
		}
	})
	return &curve
}

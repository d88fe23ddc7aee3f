package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// minTolerance is the smallest usable tolerance in nanometres. Output
	// points are rounded to whole nanometres, which costs up to ~0.71 nm.
	minTolerance = 2.0

	// maxArcSegments caps the subdivision of a single arc.
	maxArcSegments = 1024
)

// cubicArcError returns an upper bound on the radial deviation of the
// standard cubic approximation of a circular arc of radius r spanning phi
// radians.
func cubicArcError(r, phi float64) float64 {
	q := math.Abs(phi) / 4
	s, c := math.Sin(q), math.Cos(q)
	return r * 4 / 27 * math.Pow(s, 6) / (c * c)
}

// arcSegments returns how many cubic segments are needed to approximate an
// arc of radius r and the given sweep within eps. Every quarter turn gets at
// least one segment, so a full circle gets at least four.
func arcSegments(r, sweep, eps float64) int {
	n := int(math.Ceil(math.Abs(sweep)/(math.Pi/2) - 1e-9))
	n = max(n, 1)
	for n < maxArcSegments && cubicArcError(r, sweep/float64(n)) >= eps {
		n++
	}
	return n
}

// cubicArc is one cubic Bezier segment of an arc, in local coordinates.
type cubicArc struct {
	c1, c2, end r2.Vec
}

// arcCubics splits the arc into cubic segments. start and sweep are in
// radians; the caller is positioned at the arc start point.
func arcCubics(center r2.Vec, r, start, sweep, eps float64) []cubicArc {
	n := arcSegments(r, sweep, eps)
	phi := sweep / float64(n)
	k := 4.0 / 3.0 * math.Tan(phi/4)

	out := make([]cubicArc, 0, n)
	a := start
	for i := 0; i < n; i++ {
		b := a + phi
		if i == n-1 {
			b = start + sweep
		}
		p0 := onCircle(center, r, a)
		p3 := onCircle(center, r, b)
		t0 := r2.Vec{X: -math.Sin(a), Y: math.Cos(a)}
		t1 := r2.Vec{X: -math.Sin(b), Y: math.Cos(b)}
		out = append(out, cubicArc{
			c1:  r2.Add(p0, r2.Scale(k*r, t0)),
			c2:  r2.Sub(p3, r2.Scale(k*r, t1)),
			end: p3,
		})
		a = b
	}
	return out
}

func onCircle(center r2.Vec, r, a float64) r2.Vec {
	return r2.Add(center, r2.Vec{X: r * math.Cos(a), Y: r * math.Sin(a)})
}

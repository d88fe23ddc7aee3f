// Package geometry flattens board shapes into the single polygon-with-path
// primitive the viewer draws.
//
// Straight edges become line segments and every circular part (circles,
// oval ends, rounded corners, arcs) becomes cubic Bezier segments whose
// deviation from the true circle stays within the configured tolerance.
// Closed outlines are always emitted with positive signed area
// (board.IsCCW) regardless of input winding.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/board"
)

// DefaultRelTolerance is the default curve tolerance as a fraction of the
// radius being approximated.
const DefaultRelTolerance = 0.01

// Options controls curve approximation.
type Options struct {
	// Tolerance is the maximum deviation of an emitted curve from the true
	// circle. Zero selects RelTolerance instead.
	Tolerance board.Coord

	// RelTolerance is the maximum deviation as a fraction of the radius.
	// Zero means DefaultRelTolerance.
	RelTolerance float64
}

// Epsilon returns the tolerance applied to a curve of radius r, in
// nanometres.
func (o Options) Epsilon(r float64) float64 {
	eps := float64(o.Tolerance)
	if o.Tolerance <= 0 {
		rel := o.RelTolerance
		if rel <= 0 {
			rel = DefaultRelTolerance
		}
		eps = r * rel
	}
	return max(eps, minTolerance)
}

// Encoder converts shapes to EncodedGeometry. The zero value uses the
// default options. An Encoder is stateless and safe for concurrent use.
type Encoder struct {
	opts Options
}

// NewEncoder returns an encoder using opts.
func NewEncoder(opts Options) *Encoder {
	return &Encoder{opts: opts}
}

// Options returns the encoder options.
func (e *Encoder) Options() Options {
	return e.opts
}

// Encode flattens s, placed at pl, into board coordinates.
func Encode(s board.Shape, pl board.Placement) (EncodedGeometry, error) {
	var e Encoder
	return e.Encode(s, pl)
}

// Encode flattens s, placed at pl, into board coordinates. Degenerate
// shapes fail with *board.GeometryError.
func (e *Encoder) Encode(s board.Shape, pl board.Placement) (EncodedGeometry, error) {
	if err := board.ValidateShape(s); err != nil {
		return EncodedGeometry{}, err
	}

	pb := newPathBuilder(pl)
	switch sh := s.(type) {
	case board.Rect:
		e.rect(pb, sh.Size)
	case board.RoundRect:
		e.roundRect(pb, sh.Size, float64(sh.Radius))
	case board.Circle:
		e.circle(pb, r2.Vec{}, float64(sh.Radius))
	case board.Oval:
		e.oval(pb, sh.Size)
	case board.Arc:
		e.arc(pb, sh)
	case board.Polygon:
		pb.polygon(sh.Points)
	case board.Path:
		pb.path(sh)
	}
	return pb.finish(), nil
}

func halfSize(sz board.Size) (float64, float64) {
	return float64(sz.Width) / 2, float64(sz.Height) / 2
}

func (e *Encoder) rect(pb *pathBuilder, sz board.Size) {
	w, h := halfSize(sz)
	pb.moveTo(r2.Vec{X: -w, Y: -h})
	pb.lineTo(r2.Vec{X: w, Y: -h})
	pb.lineTo(r2.Vec{X: w, Y: h})
	pb.lineTo(r2.Vec{X: -w, Y: h})
	pb.close()
}

func (e *Encoder) roundRect(pb *pathBuilder, sz board.Size, r float64) {
	if r <= 0 {
		e.rect(pb, sz)
		return
	}
	w, h := halfSize(sz)
	eps := e.opts.Epsilon(r)
	quarter := math.Pi / 2

	pb.moveTo(r2.Vec{X: -w + r, Y: -h})
	pb.lineTo(r2.Vec{X: w - r, Y: -h})
	pb.arc(r2.Vec{X: w - r, Y: -h + r}, r, -quarter, quarter, eps)
	pb.lineTo(r2.Vec{X: w, Y: h - r})
	pb.arc(r2.Vec{X: w - r, Y: h - r}, r, 0, quarter, eps)
	pb.lineTo(r2.Vec{X: -w + r, Y: h})
	pb.arc(r2.Vec{X: -w + r, Y: h - r}, r, quarter, quarter, eps)
	pb.lineTo(r2.Vec{X: -w, Y: -h + r})
	pb.arc(r2.Vec{X: -w + r, Y: -h + r}, r, 2*quarter, quarter, eps)
	pb.close()
}

func (e *Encoder) circle(pb *pathBuilder, center r2.Vec, r float64) {
	pb.moveTo(r2.Vec{X: center.X + r, Y: center.Y})
	pb.arc(center, r, 0, 2*math.Pi, e.opts.Epsilon(r))
	pb.close()
}

// oval emits a stadium: two half circles joined by straight sides.
func (e *Encoder) oval(pb *pathBuilder, sz board.Size) {
	w, h := halfSize(sz)
	switch {
	case sz.Width == sz.Height:
		e.circle(pb, r2.Vec{}, w)
	case sz.Width > sz.Height:
		r := h
		eps := e.opts.Epsilon(r)
		pb.moveTo(r2.Vec{X: -w + r, Y: -r})
		pb.lineTo(r2.Vec{X: w - r, Y: -r})
		pb.arc(r2.Vec{X: w - r}, r, -math.Pi/2, math.Pi, eps)
		pb.lineTo(r2.Vec{X: -w + r, Y: r})
		pb.arc(r2.Vec{X: -w + r}, r, math.Pi/2, math.Pi, eps)
		pb.close()
	default:
		r := w
		eps := e.opts.Epsilon(r)
		pb.moveTo(r2.Vec{X: r, Y: -h + r})
		pb.lineTo(r2.Vec{X: r, Y: h - r})
		pb.arc(r2.Vec{Y: h - r}, r, 0, math.Pi, eps)
		pb.lineTo(r2.Vec{X: -r, Y: -h + r})
		pb.arc(r2.Vec{Y: -h + r}, r, math.Pi, math.Pi, eps)
		pb.close()
	}
}

func (e *Encoder) arc(pb *pathBuilder, a board.Arc) {
	center := toVec(a.Center)
	r := float64(a.Radius)
	start, sweep := a.Start.Radians(), a.Sweep.Radians()
	pb.moveTo(onCircle(center, r, start))
	pb.arc(center, r, start, sweep, e.opts.Epsilon(r))
}

func toVec(p board.Point) r2.Vec {
	return r2.Vec{X: float64(p.X), Y: float64(p.Y)}
}

package geometry

import (
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/board"
)

// KindPolygon is the only geometry kind the encoder produces.
const KindPolygon = "polygon"

// EncodedGeometry is a shape flattened to path segments in board
// coordinates.
type EncodedGeometry struct {
	Kind     string
	Segments []board.PathCommand
	Outline  []board.Point // On-curve vertices of the first sub-path
	Bounds   board.BBox    // Includes curve control points
	Closed   bool          // Every sub-path ends with a close command
}

// SVGPath renders the segments as SVG path data in millimetres.
func (g EncodedGeometry) SVGPath() string {
	var sb strings.Builder
	for i, c := range g.Segments {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte(byte(c.Op))
		for _, p := range c.Points {
			sb.WriteByte(' ')
			sb.WriteString(FormatMM(p.X))
			sb.WriteByte(' ')
			sb.WriteString(FormatMM(p.Y))
		}
	}
	return sb.String()
}

// FormatMM formats a nanometre value as a decimal millimetre string with no
// rounding and no trailing zeros.
func FormatMM(c board.Coord) string {
	neg := c < 0
	u := uint64(c)
	if neg {
		u = uint64(-c)
	}
	mm := uint64(board.Millimetre)

	s := strconv.FormatUint(u/mm, 10)
	if frac := u % mm; frac != 0 {
		digits := strconv.FormatUint(frac, 10)
		digits = strings.Repeat("0", 6-len(digits)) + digits
		s += "." + strings.TrimRight(digits, "0")
	}
	if neg {
		s = "-" + s
	}
	return s
}

// pathBuilder accumulates commands in the shape's local frame and emits
// them in board coordinates.
type pathBuilder struct {
	origin r2.Vec
	angle  float64
	cur    board.Point
	cmds   []board.PathCommand
}

func newPathBuilder(pl board.Placement) *pathBuilder {
	return &pathBuilder{
		origin: toVec(pl.Position),
		// Negated to match board.Placement.Apply.
		angle: -pl.Rotation.Radians(),
	}
}

func (pb *pathBuilder) world(p r2.Vec) board.Point {
	if pb.angle != 0 {
		p = r2.Rotate(p, pb.angle, r2.Vec{})
	}
	p = r2.Add(p, pb.origin)
	return board.Point{X: board.Coord(math.Round(p.X)), Y: board.Coord(math.Round(p.Y))}
}

func (pb *pathBuilder) emit(op board.PathOp, pts ...r2.Vec) {
	cmd := board.PathCommand{Op: op, Points: make([]board.Point, len(pts))}
	for i, p := range pts {
		cmd.Points[i] = pb.world(p)
	}
	if len(cmd.Points) > 0 {
		end := cmd.Points[len(cmd.Points)-1]
		if op == board.PathLine && end == pb.cur {
			return
		}
		pb.cur = end
	}
	pb.cmds = append(pb.cmds, cmd)
}

func (pb *pathBuilder) moveTo(p r2.Vec) { pb.emit(board.PathMove, p) }
func (pb *pathBuilder) lineTo(p r2.Vec) { pb.emit(board.PathLine, p) }
func (pb *pathBuilder) close()          { pb.emit(board.PathClose) }

// arc appends cubic segments for a circular arc. The current point must be
// the arc start.
func (pb *pathBuilder) arc(center r2.Vec, r, start, sweep, eps float64) {
	for _, c := range arcCubics(center, r, start, sweep, eps) {
		pb.emit(board.PathCubic, c.c1, c.c2, c.end)
	}
}

func (pb *pathBuilder) polygon(pts []board.Point) {
	pb.moveTo(toVec(pts[0]))
	for _, p := range pts[1:] {
		pb.lineTo(toVec(p))
	}
	pb.close()
}

func (pb *pathBuilder) path(p board.Path) {
	var start r2.Vec
	closed := false
	for _, c := range p.Commands {
		pts := make([]r2.Vec, len(c.Points))
		for i, q := range c.Points {
			pts[i] = toVec(q)
		}
		switch {
		case c.Op == board.PathMove:
			start = pts[0]
		case closed:
			// Drawing after a close continues from the sub-path start.
			pb.moveTo(start)
		}
		closed = c.Op == board.PathClose
		pb.emit(c.Op, pts...)
	}
}

// finish normalises the winding of every closed sub-path and computes the
// derived fields.
func (pb *pathBuilder) finish() EncodedGeometry {
	g := EncodedGeometry{Kind: KindPolygon, Bounds: board.NewBBox(), Closed: true}
	for i, sub := range splitSubpaths(pb.cmds) {
		closed := sub[len(sub)-1].Op == board.PathClose
		if !closed {
			g.Closed = false
		} else if subpathArea(sub) < 0 {
			sub = reverseSubpath(sub)
		}
		if i == 0 {
			g.Outline = onCurvePoints(sub)
		}
		for _, c := range sub {
			for _, p := range c.Points {
				g.Bounds.Expand(p)
			}
		}
		g.Segments = append(g.Segments, sub...)
	}
	return g
}

// splitSubpaths splits cmds at each moveto.
func splitSubpaths(cmds []board.PathCommand) [][]board.PathCommand {
	var out [][]board.PathCommand
	for _, c := range cmds {
		if c.Op == board.PathMove || len(out) == 0 {
			out = append(out, nil)
		}
		out[len(out)-1] = append(out[len(out)-1], c)
	}
	return out
}

func onCurvePoints(sub []board.PathCommand) []board.Point {
	var pts []board.Point
	for _, c := range sub {
		if n := len(c.Points); n > 0 {
			p := c.Points[n-1]
			if len(pts) > 0 && pts[0] == p && c.Op != board.PathMove {
				continue
			}
			pts = append(pts, p)
		}
	}
	return pts
}

// subpathArea returns twice the signed area of a closed sub-path, with
// curves sampled at quarter steps.
func subpathArea(sub []board.PathCommand) float64 {
	var poly []r2.Vec
	var cur r2.Vec
	for _, c := range sub {
		switch c.Op {
		case board.PathMove, board.PathLine:
			cur = toVec(c.Points[0])
			poly = append(poly, cur)
		case board.PathQuad:
			p0, p1, p2 := cur, toVec(c.Points[0]), toVec(c.Points[1])
			for _, t := range []float64{0.25, 0.5, 0.75, 1} {
				u := 1 - t
				poly = append(poly, r2.Add(r2.Add(r2.Scale(u*u, p0), r2.Scale(2*u*t, p1)), r2.Scale(t*t, p2)))
			}
			cur = p2
		case board.PathCubic:
			p0, p1, p2, p3 := cur, toVec(c.Points[0]), toVec(c.Points[1]), toVec(c.Points[2])
			for _, t := range []float64{0.25, 0.5, 0.75, 1} {
				poly = append(poly, cubicAt(p0, p1, p2, p3, t))
			}
			cur = p3
		}
	}
	var sum float64
	for i := range poly {
		sum += r2.Cross(poly[i], poly[(i+1)%len(poly)])
	}
	return sum
}

func cubicAt(p0, p1, p2, p3 r2.Vec, t float64) r2.Vec {
	u := 1 - t
	v := r2.Add(r2.Scale(u*u*u, p0), r2.Scale(3*u*u*t, p1))
	v = r2.Add(v, r2.Scale(3*u*t*t, p2))
	return r2.Add(v, r2.Scale(t*t*t, p3))
}

// reverseSubpath reverses the direction of a closed sub-path that starts
// with a moveto and ends with a close.
func reverseSubpath(sub []board.PathCommand) []board.PathCommand {
	start := sub[0].Points[0]
	body := sub[1 : len(sub)-1]

	// Start point of each body segment.
	starts := make([]board.Point, len(body))
	cur := start
	for i, c := range body {
		starts[i] = cur
		cur = c.Points[len(c.Points)-1]
	}

	out := make([]board.PathCommand, 0, len(sub)+1)
	out = append(out, board.PathCommand{Op: board.PathMove, Points: []board.Point{start}})
	if cur != start {
		out = append(out, board.PathCommand{Op: board.PathLine, Points: []board.Point{cur}})
	}
	for i := len(body) - 1; i >= 0; i-- {
		c := body[i]
		if i == 0 && c.Op == board.PathLine {
			// Implied by the close.
			break
		}
		ctrl := c.Points[:len(c.Points)-1]
		pts := make([]board.Point, 0, len(c.Points))
		for j := len(ctrl) - 1; j >= 0; j-- {
			pts = append(pts, ctrl[j])
		}
		pts = append(pts, starts[i])
		out = append(out, board.PathCommand{Op: c.Op, Points: pts})
	}
	return append(out, board.PathCommand{Op: board.PathClose})
}

package kicad

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/board"
	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/geometry"
	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/kicad/kicadsexp"
)

var errCollinear = errors.New("arc points are collinear")

// graphic imports a gr_* or fp_* drawing placed at pl. Board-level
// Edge.Cuts geometry is held back for outline assembly.
func (im *importer) graphic(n *kicadsexp.List, pl board.Placement, boardLevel bool) {
	kind := n.Name()[3:]
	if kind == "text" || kind == "text_box" {
		return
	}

	layer, ok := layerOf(n)
	if !ok || layer.IsCopper() || !im.hasLayer(layer) {
		im.skip(n, "layer %q not imported", childString(n, "layer"))
		return
	}

	d := board.Drawing{Layer: layer, Placement: pl, Width: strokeWidth(n), Filled: filled(n)}
	var err error
	switch kind {
	case "line":
		var a, b board.Point
		if a, err = point(n, "start"); err != nil {
			break
		}
		if b, err = point(n, "end"); err != nil {
			break
		}
		if layer == board.EdgeCuts && boardLevel {
			im.edges = append(im.edges, edge{start: a, end: b})
			return
		}
		d.Shape = board.Path{Commands: []board.PathCommand{
			{Op: board.PathMove, Points: []board.Point{a}},
			{Op: board.PathLine, Points: []board.Point{b}},
		}}
	case "arc":
		var arc board.Arc
		if arc, err = arcNode(n); err != nil {
			break
		}
		if layer == board.EdgeCuts && boardLevel {
			s, _ := point(n, "start")
			e, _ := point(n, "end")
			im.edges = append(im.edges, edge{start: s, end: e, arc: &arc})
			return
		}
		d.Shape = arc
	case "circle":
		var c, e board.Point
		if c, err = point(n, "center"); err != nil {
			break
		}
		if e, err = point(n, "end"); err != nil {
			break
		}
		d.Shape = board.Circle{Radius: distance(c, e)}
		// Circles are centred on the placement origin.
		d.Placement = board.Placement{Position: pl.Apply(c), Rotation: pl.Rotation}
	case "rect":
		var a, b board.Point
		if a, err = point(n, "start"); err != nil {
			break
		}
		if b, err = point(n, "end"); err != nil {
			break
		}
		d.Shape = board.Polygon{Points: []board.Point{a, {X: b.X, Y: a.Y}, b, {X: a.X, Y: b.Y}}}
	case "poly":
		d.Shape = board.Polygon{Points: polyPoints(n)}
	case "curve":
		pts := polyPoints(n)
		if len(pts) != 4 {
			im.skip(n, "bezier needs 4 points, got %d", len(pts))
			return
		}
		d.Shape = board.Path{Commands: []board.PathCommand{
			{Op: board.PathMove, Points: pts[:1]},
			{Op: board.PathCubic, Points: pts[1:]},
		}}
	default:
		im.skip(n, "unsupported graphic")
		return
	}
	if err != nil {
		im.skip(n, "%v", err)
		return
	}

	if layer == board.EdgeCuts && boardLevel {
		// Closed edge shapes compete for the board outline.
		g, err := geometry.Encode(d.Shape, d.Placement)
		if err != nil {
			im.skip(n, "%v", err)
			return
		}
		im.loops = append(im.loops, board.Path{Commands: g.Segments})
		return
	}

	if err := im.b.AddDrawing(d); err != nil {
		im.skip(n, "%v", err)
		return
	}
	im.stats.drawings++
}

// strokeWidth reads (stroke (width W)) or the older (width W).
func strokeWidth(n *kicadsexp.List) board.Coord {
	if s, ok := n.Find("stroke"); ok {
		if w, err := length(s, "width"); err == nil {
			return max(w, 0)
		}
	}
	if w, err := length(n, "width"); err == nil {
		return max(w, 0)
	}
	return 0
}

// filled reads (fill solid), (fill yes) and (fill (type solid)).
func filled(n *kicadsexp.List) bool {
	f, ok := n.Find("fill")
	if !ok {
		return false
	}
	if t, ok := f.Find("type"); ok {
		v, _ := t.Str(1)
		return v == "solid"
	}
	v, _ := f.Str(1)
	return v == "solid" || v == "yes"
}

// polyPoints reads the (xy X Y) entries of a (pts ...) child. Arc entries
// inside pts are skipped.
func polyPoints(n *kicadsexp.List) []board.Point {
	pts, ok := n.Find("pts")
	if !ok {
		return nil
	}
	var out []board.Point
	for _, xy := range pts.FindAll("xy") {
		x, err1 := xy.Float(1)
		y, err2 := xy.Float(2)
		if err1 == nil && err2 == nil {
			out = append(out, board.PtMM(x, y))
		}
	}
	return out
}

// arcNode reads a (start)(mid)(end) arc.
func arcNode(n *kicadsexp.List) (board.Arc, error) {
	s, err := point(n, "start")
	if err != nil {
		return board.Arc{}, err
	}
	m, err := point(n, "mid")
	if err != nil {
		return board.Arc{}, err
	}
	e, err := point(n, "end")
	if err != nil {
		return board.Arc{}, err
	}
	return arcThrough(s, m, e)
}

// arcThrough returns the arc that starts at s, passes through m and ends
// at e.
func arcThrough(s, m, e board.Point) (board.Arc, error) {
	// Work relative to s to keep the products small.
	b := r2.Sub(vec(m), vec(s))
	c := r2.Sub(vec(e), vec(s))
	d := 2 * r2.Cross(b, c)
	if math.Abs(d) <= 1e-9*r2.Norm(b)*r2.Norm(c) {
		return board.Arc{}, errCollinear
	}
	bb, cc := r2.Norm2(b), r2.Norm2(c)
	center := r2.Vec{
		X: (c.Y*bb - b.Y*cc) / d,
		Y: (b.X*cc - c.X*bb) / d,
	}

	angle := func(p r2.Vec) float64 {
		v := r2.Sub(p, center)
		return math.Atan2(v.Y, v.X)
	}
	a0 := angle(r2.Vec{})
	a1 := angle(b)
	a2 := angle(c)

	ccw := normAngle(a2 - a0)
	sweep := ccw
	if normAngle(a1-a0) > ccw {
		sweep = ccw - 2*math.Pi
	}

	return board.Arc{
		Center: board.Point{
			X: s.X + board.Coord(math.Round(center.X)),
			Y: s.Y + board.Coord(math.Round(center.Y)),
		},
		Radius: board.Coord(math.Round(r2.Norm(center))),
		Start:  board.Angle(a0 * 180 / math.Pi),
		Sweep:  board.Angle(sweep * 180 / math.Pi),
	}, nil
}

// normAngle maps a to [0, 2π).
func normAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

func vec(p board.Point) r2.Vec {
	return r2.Vec{X: float64(p.X), Y: float64(p.Y)}
}

func distance(a, b board.Point) board.Coord {
	return board.Coord(math.Round(r2.Norm(r2.Sub(vec(b), vec(a)))))
}

package board

import (
	"fmt"
	"math"

	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/svgpath"
)

// Shape is the closed set of geometry kinds a pad, drawing, zone or board
// outline can take. Local shapes (Rect, RoundRect, Circle, Oval) are centred
// on the owning item's position; Polygon, Arc and Path coordinates are
// relative to it.
type Shape interface {
	shapeKind() string
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	Size Size
}

// RoundRect is a rectangle with circular corners of the given radius.
type RoundRect struct {
	Size   Size
	Radius Coord
}

// Circle is a full circle.
type Circle struct {
	Radius Coord
}

// Oval is a stadium: a rectangle whose short sides are half circles.
type Oval struct {
	Size Size
}

// Polygon is a closed polygon. Winding is normalised on output.
type Polygon struct {
	Points []Point
}

// Arc is an open circular arc. Start is measured from the +X axis towards
// +Y; Sweep is signed.
type Arc struct {
	Center Point
	Radius Coord
	Start  Angle
	Sweep  Angle
}

// Path is pre-built path geometry, typically parsed from SVG path data.
type Path struct {
	Commands []PathCommand
}

// PathOp is an absolute path command.
type PathOp = svgpath.Op

// Path command kinds
const (
	PathMove  = svgpath.MoveTo
	PathLine  = svgpath.LineTo
	PathQuad  = svgpath.QuadTo
	PathCubic = svgpath.CubicTo
	PathClose = svgpath.Close
)

// PathCommand is one command of a Path. Points holds control points
// followed by the end point.
type PathCommand struct {
	Op     PathOp
	Points []Point
}

func (Rect) shapeKind() string      { return "rect" }
func (RoundRect) shapeKind() string { return "roundrect" }
func (Circle) shapeKind() string    { return "circle" }
func (Oval) shapeKind() string      { return "oval" }
func (Polygon) shapeKind() string   { return "polygon" }
func (Arc) shapeKind() string       { return "arc" }
func (Path) shapeKind() string      { return "path" }

// ShapeName returns the kind name of s ("rect", "circle", ...).
func ShapeName(s Shape) string {
	if s == nil {
		return "nil"
	}
	return s.shapeKind()
}

// ParsePath builds a Path from SVG path data expressed in millimetres.
func ParsePath(d string) (Path, error) {
	cmds, err := svgpath.Parse(d)
	if err != nil {
		return Path{}, &GeometryError{Op: "board.parse_path", Shape: "path", Reason: err.Error()}
	}
	out := Path{Commands: make([]PathCommand, len(cmds))}
	for i, c := range cmds {
		pts := make([]Point, len(c.Points))
		for j, p := range c.Points {
			pts[j] = PtMM(p.X, p.Y)
		}
		out.Commands[i] = PathCommand{Op: c.Op, Points: pts}
	}
	return out, nil
}

// MustParsePath is like ParsePath but panics on error. Intended for
// constant path data in tests and examples.
func MustParsePath(d string) Path {
	p, err := ParsePath(d)
	if err != nil {
		panic(err)
	}
	return p
}

// ValidateShape checks that s is not degenerate.
func ValidateShape(s Shape) error {
	const op = "board.validate_shape"
	fail := func(format string, args ...any) error {
		return &GeometryError{Op: op, Shape: ShapeName(s), Reason: fmt.Sprintf(format, args...)}
	}

	switch sh := s.(type) {
	case nil:
		return fail("shape is required")
	case Rect:
		if sh.Size.Width <= 0 || sh.Size.Height <= 0 {
			return fail("size must be positive, got %dx%d nm", sh.Size.Width, sh.Size.Height)
		}
	case RoundRect:
		if sh.Size.Width <= 0 || sh.Size.Height <= 0 {
			return fail("size must be positive, got %dx%d nm", sh.Size.Width, sh.Size.Height)
		}
		if sh.Radius < 0 || 2*sh.Radius > min(sh.Size.Width, sh.Size.Height) {
			return fail("corner radius %d nm out of range", sh.Radius)
		}
	case Circle:
		if sh.Radius <= 0 {
			return fail("radius must be positive, got %d nm", sh.Radius)
		}
	case Oval:
		if sh.Size.Width <= 0 || sh.Size.Height <= 0 {
			return fail("size must be positive, got %dx%d nm", sh.Size.Width, sh.Size.Height)
		}
	case Polygon:
		return validatePolygon(op, sh.Points)
	case Arc:
		if sh.Radius <= 0 {
			return fail("radius must be positive, got %d nm", sh.Radius)
		}
		if sh.Sweep == 0 || math.Abs(float64(sh.Sweep)) > 360 {
			return fail("sweep %v out of range", sh.Sweep)
		}
	case Path:
		return validatePath(op, sh)
	default:
		return fail("unsupported shape type %T", s)
	}
	return nil
}

func validatePolygon(op string, pts []Point) error {
	fail := func(reason string) error {
		return &GeometryError{Op: op, Shape: "polygon", Reason: reason}
	}
	if len(pts) < 3 {
		return fail(fmt.Sprintf("need at least 3 vertices, got %d", len(pts)))
	}
	if SignedArea(pts) == 0 {
		return fail("zero area")
	}
	if SelfIntersects(pts) {
		return fail("self-intersecting outline")
	}
	return nil
}

// pathArity is the number of points each path command carries.
var pathArity = map[PathOp]int{PathMove: 1, PathLine: 1, PathQuad: 2, PathCubic: 3, PathClose: 0}

func validatePath(op string, p Path) error {
	fail := func(format string, args ...any) error {
		return &GeometryError{Op: op, Shape: "path", Reason: fmt.Sprintf(format, args...)}
	}
	if len(p.Commands) == 0 {
		return fail("no commands")
	}
	if p.Commands[0].Op != PathMove {
		return fail("must start with a moveto")
	}
	drawing := 0
	for i, c := range p.Commands {
		n, ok := pathArity[c.Op]
		if !ok {
			return fail("command %d: unknown op %q", i, c.Op)
		}
		if len(c.Points) != n {
			return fail("command %d: %v needs %d points, got %d", i, c.Op, n, len(c.Points))
		}
		if c.Op != PathMove && c.Op != PathClose {
			drawing++
		}
	}
	if drawing == 0 {
		return fail("no drawing commands")
	}
	return nil
}

// ShapeBounds returns the extent of s in its local frame. Curve control
// points are included, so the box is conservative.
func ShapeBounds(s Shape) BBox {
	bb := NewBBox()
	half := func(sz Size) {
		bb.Expand(Point{X: -sz.Width / 2, Y: -sz.Height / 2})
		bb.Expand(Point{X: sz.Width - sz.Width/2, Y: sz.Height - sz.Height/2})
	}
	switch sh := s.(type) {
	case Rect:
		half(sh.Size)
	case RoundRect:
		half(sh.Size)
	case Oval:
		half(sh.Size)
	case Circle:
		bb.Expand(Point{X: -sh.Radius, Y: -sh.Radius})
		bb.Expand(Point{X: sh.Radius, Y: sh.Radius})
	case Polygon:
		for _, p := range sh.Points {
			bb.Expand(p)
		}
	case Arc:
		bb.Expand(Point{X: sh.Center.X - sh.Radius, Y: sh.Center.Y - sh.Radius})
		bb.Expand(Point{X: sh.Center.X + sh.Radius, Y: sh.Center.Y + sh.Radius})
	case Path:
		for _, c := range sh.Commands {
			for _, p := range c.Points {
				bb.Expand(p)
			}
		}
	}
	return bb
}

// CloneShape returns a deep copy of s.
func CloneShape(s Shape) Shape {
	switch sh := s.(type) {
	case Polygon:
		return Polygon{Points: append([]Point(nil), sh.Points...)}
	case Path:
		cmds := make([]PathCommand, len(sh.Commands))
		for i, c := range sh.Commands {
			cmds[i] = PathCommand{Op: c.Op, Points: append([]Point(nil), c.Points...)}
		}
		return Path{Commands: cmds}
	}
	return s
}

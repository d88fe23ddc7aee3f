package board

import "math"

// Coord is a length in nanometres. All board geometry is carried in this
// unit; conversion to millimetres happens only when output is produced.
type Coord int64

// Unit constants
const (
	Nanometre  Coord = 1
	Micrometre Coord = 1000 * Nanometre
	Millimetre Coord = 1000 * Micrometre
)

// FromMM converts millimetres to nanometres, rounding half away from zero.
// The quantisation error is at most 0.5 nm.
func FromMM(mm float64) Coord {
	return Coord(math.Round(mm * float64(Millimetre)))
}

// MM converts to millimetres.
func (c Coord) MM() float64 {
	return float64(c) / float64(Millimetre)
}

// Angle is a rotation in degrees. Positive angles rotate counter-clockwise
// as seen on screen (Y axis pointing down), matching KiCad.
type Angle float64

// Radians converts the angle to radians.
func (a Angle) Radians() float64 {
	return float64(a) * math.Pi / 180.0
}

// Point is a 2D coordinate
type Point struct {
	X Coord
	Y Coord
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y Coord) Point {
	return Point{X: x, Y: y}
}

// PtMM builds a point from millimetre values.
func PtMM(x, y float64) Point {
	return Point{X: FromMM(x), Y: FromMM(y)}
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Size represents dimensions
type Size struct {
	Width  Coord
	Height Coord
}

// SizeMM builds a size from millimetre values.
func SizeMM(w, h float64) Size {
	return Size{Width: FromMM(w), Height: FromMM(h)}
}

// IsZero reports whether both dimensions are zero.
func (s Size) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

// BBox is an axis-aligned extent in nanometres. Min and Max are
// inclusive corners.
type BBox struct {
	Min, Max Point
}

// NewBBox returns a box that contains nothing; the first Expand sets both
// corners.
func NewBBox() BBox {
	return BBox{
		Min: Point{X: math.MaxInt64, Y: math.MaxInt64},
		Max: Point{X: math.MinInt64, Y: math.MinInt64},
	}
}

// IsEmpty reports whether nothing has been added to the box.
func (bb BBox) IsEmpty() bool {
	return bb.Min.X > bb.Max.X || bb.Min.Y > bb.Max.Y
}

// Expand grows the box to include p.
func (bb *BBox) Expand(p Point) {
	bb.Min.X = min(bb.Min.X, p.X)
	bb.Min.Y = min(bb.Min.Y, p.Y)
	bb.Max.X = max(bb.Max.X, p.X)
	bb.Max.Y = max(bb.Max.Y, p.Y)
}

// ExpandBox grows the box to include other.
func (bb *BBox) ExpandBox(other BBox) {
	if other.IsEmpty() {
		return
	}
	bb.Expand(other.Min)
	bb.Expand(other.Max)
}

// Width returns the X extent, zero for an empty box.
func (bb BBox) Width() Coord {
	if bb.IsEmpty() {
		return 0
	}
	return bb.Max.X - bb.Min.X
}

// Height returns the Y extent, zero for an empty box.
func (bb BBox) Height() Coord {
	if bb.IsEmpty() {
		return 0
	}
	return bb.Max.Y - bb.Min.Y
}

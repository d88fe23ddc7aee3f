package board

import (
	"math"
	"sort"
)

// Metadata is the title block shown in the page header
type Metadata struct {
	Title    string
	Company  string
	Revision string
	Date     string
}

// Placement is a position plus rotation. Child coordinates (pads,
// footprint drawings) are expressed relative to it.
type Placement struct {
	Position Point
	Rotation Angle
}

// Apply transforms a point from the placement's local frame to the parent
// frame: rotate, then translate.
func (pl Placement) Apply(local Point) Point {
	x, y := float64(local.X), float64(local.Y)

	// Negate to match KiCad's on-screen rotation with Y pointing down.
	if pl.Rotation != 0 {
		rad := -pl.Rotation.Radians()
		cos, sin := math.Cos(rad), math.Sin(rad)
		x, y = x*cos-y*sin, x*sin+y*cos
	}

	return Point{
		X: pl.Position.X + Coord(math.Round(x)),
		Y: pl.Position.Y + Coord(math.Round(y)),
	}
}

// Attribute flags of a footprint
type Attribute uint8

const (
	AttrThroughHole Attribute = 1 << iota
	AttrSMD
	AttrVirtual
)

// Has reports whether all bits of f are set.
func (a Attribute) Has(f Attribute) bool {
	return a&f == f
}

// Footprint represents a placed component
type Footprint struct {
	Reference  string            // Reference designator (e.g., "R1")
	Value      string            // Component value
	Placement                    // Board position and rotation
	Side       Side              // Placed side
	Attributes Attribute         // Through-hole / SMD / virtual flags
	Fields     map[string]string // Extra BOM columns, keys must be declared on the board
	DNP        bool              // Do not populate
	Pads       []Pad
}

// Layer returns the copper layer the footprint is placed on.
func (fp *Footprint) Layer() Layer {
	return fp.Side.Copper()
}

// LocalBounds returns the bounding box of all pads in the footprint's
// local (unrotated) frame.
func (fp *Footprint) LocalBounds() BBox {
	bb := NewBBox()
	for _, pad := range fp.Pads {
		sb := ShapeBounds(pad.Shape)
		if sb.IsEmpty() {
			continue
		}
		corners := []Point{
			sb.Min, {X: sb.Max.X, Y: sb.Min.Y},
			sb.Max, {X: sb.Min.X, Y: sb.Max.Y},
		}
		for _, c := range corners {
			bb.Expand(pad.Placement.Apply(c))
		}
	}

	// If no pads, at least include footprint origin
	if bb.IsEmpty() {
		bb.Expand(Point{})
	}
	return bb
}

// PadPlacement returns the absolute board placement of pad i.
func (fp *Footprint) PadPlacement(i int) Placement {
	pad := fp.Pads[i]
	return Placement{
		Position: fp.Placement.Apply(pad.Position),
		Rotation: fp.Rotation + pad.Rotation,
	}
}

func (fp Footprint) clone() Footprint {
	out := fp
	out.Pads = make([]Pad, len(fp.Pads))
	for i, p := range fp.Pads {
		out.Pads[i] = p.clone()
	}
	if fp.Fields != nil {
		out.Fields = make(map[string]string, len(fp.Fields))
		for k, v := range fp.Fields {
			out.Fields[k] = v
		}
	}
	return out
}

// Pad represents a footprint pad
type Pad struct {
	Number    string  // Pad number/name
	Shape     Shape   // Pad outline, centred on the pad position
	Placement         // Position and rotation relative to the footprint
	Drill     Size    // Drill size (zero for SMD); unequal sides mean an oblong hole
	Layers    []Layer // Copper layers the pad connects to
	Net       string  // Net name (optional)
	Pin1      bool    // Marks pin 1
}

// HasDrill reports whether the pad is plated through.
func (p *Pad) HasDrill() bool {
	return !p.Drill.IsZero()
}

func (p Pad) clone() Pad {
	out := p
	out.Shape = CloneShape(p.Shape)
	out.Layers = append([]Layer(nil), p.Layers...)
	return out
}

// Track represents a copper track segment
type Track struct {
	Start Point
	End   Point
	Width Coord
	Layer Layer
	Net   string
}

// Via represents a via
type Via struct {
	Position Point
	Diameter Coord
	Drill    Coord
	Layers   []Layer // Copper layers the via connects
	Net      string
}

func (v Via) clone() Via {
	out := v
	out.Layers = append([]Layer(nil), v.Layers...)
	return out
}

// Zone represents a filled copper zone
type Zone struct {
	Layer   Layer
	Outline Shape // Polygon or Path in board coordinates
	Net     string
}

// DrawingKind distinguishes plain graphics from component text.
type DrawingKind uint8

const (
	DrawingPolygon DrawingKind = iota
	DrawingReferenceText
	DrawingValueText
)

// Drawing is a silkscreen, fabrication, courtyard or edge graphic.
type Drawing struct {
	Kind      DrawingKind
	Layer     Layer
	Placement // Origin of the shape on the board
	Shape     Shape
	Width     Coord // Stroke width
	Filled    bool
}

// sortedKeys returns the keys of m in lexical order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package pcbdata

// JSON layout of the pcbdata object read by the viewer. Field order
// follows struct order, so output is stable.

type pcbdata struct {
	IBOMVersion string        `json:"ibom_version"`
	Metadata    metadata      `json:"metadata"`
	Layers      []string      `json:"layers"`
	EdgesBBox   edgesBBox     `json:"edges_bbox"`
	Edges       []drawing     `json:"edges"`
	Drawings    drawingGroups `json:"drawings"`
	Tracks      sides[track]  `json:"tracks"`
	Zones       sides[zone]   `json:"zones"`
	Nets        []string      `json:"nets"`
	Footprints  []footprint   `json:"footprints"`
	BOM         bomData       `json:"bom"`
}

type metadata struct {
	Title    string `json:"title"`
	Company  string `json:"company"`
	Revision string `json:"revision"`
	Date     string `json:"date"`
}

type edgesBBox struct {
	MinX float64 `json:"minx"`
	MaxX float64 `json:"maxx"`
	MinY float64 `json:"miny"`
	MaxY float64 `json:"maxy"`
}

// sides holds per-side lists keyed "F" and "B".
type sides[T any] struct {
	F []T `json:"F"`
	B []T `json:"B"`
}

func newSides[T any]() sides[T] {
	return sides[T]{F: []T{}, B: []T{}}
}

func (s *sides[T]) add(back bool, v T) {
	if back {
		s.B = append(s.B, v)
	} else {
		s.F = append(s.F, v)
	}
}

type drawingGroups struct {
	Silkscreen  sides[drawing] `json:"silkscreen"`
	Fabrication sides[drawing] `json:"fabrication"`
}

type drawing struct {
	Type      string   `json:"type"`
	SVGPath   string   `json:"svgpath"`
	Filled    bool     `json:"filled"`
	Width     *float64 `json:"width,omitempty"`
	Thickness *float64 `json:"thickness,omitempty"`
	Ref       int      `json:"ref,omitempty"`
	Val       int      `json:"val,omitempty"`
}

type point [2]float64

type track struct {
	Start     point    `json:"start"`
	End       point    `json:"end"`
	Width     float64  `json:"width"`
	DrillSize *float64 `json:"drillsize,omitempty"`
	Net       string   `json:"net,omitempty"`
}

type zone struct {
	Type    string `json:"type"`
	SVGPath string `json:"svgpath"`
	Net     string `json:"net,omitempty"`
}

type footprint struct {
	Ref      string    `json:"ref"`
	BBox     fpBBox    `json:"bbox"`
	Drawings []drawing `json:"drawings"`
	Layer    string    `json:"layer"`
	Pads     []pad     `json:"pads"`
}

type fpBBox struct {
	Pos    point   `json:"pos"`
	Angle  float64 `json:"angle"`
	RelPos point   `json:"relpos"`
	Size   point   `json:"size"`
}

type pad struct {
	Layers     []string `json:"layers"`
	Pos        point    `json:"pos"`
	Angle      float64  `json:"angle"`
	Shape      string   `json:"shape"`
	SVGPath    string   `json:"svgpath"`
	Type       string   `json:"type"`
	DrillSize  *point   `json:"drillsize,omitempty"`
	DrillShape string   `json:"drillshape,omitempty"`
	Net        string   `json:"net,omitempty"`
	Pin1       int      `json:"pin1,omitempty"`
}

// bomRow is a list of [reference, footprint index] pairs.
type bomRow [][2]any

type bomData struct {
	Both    []bomRow            `json:"both"`
	F       []bomRow            `json:"F"`
	B       []bomRow            `json:"B"`
	Skipped []int               `json:"skipped"`
	Fields  map[string][]string `json:"fields"`
}

// viewerConfig is the config object. Keys are emitted in the order the
// viewer documents them.
type viewerConfig struct {
	BoardRotation       float64  `json:"board_rotation"`
	BOMView             string   `json:"bom_view"`
	Checkboxes          string   `json:"checkboxes"`
	DarkMode            bool     `json:"dark_mode"`
	Fields              []string `json:"fields"`
	HighlightPin1       string   `json:"highlight_pin1"`
	KicadTextFormatting bool     `json:"kicad_text_formatting"`
	LayerView           string   `json:"layer_view"`
	OffsetBackRotation  bool     `json:"offset_back_rotation"`
	RedrawOnDrag        bool     `json:"redraw_on_drag"`
	ShowFabrication     bool     `json:"show_fabrication"`
	ShowPads            bool     `json:"show_pads"`
	ShowSilkscreen      bool     `json:"show_silkscreen"`
}

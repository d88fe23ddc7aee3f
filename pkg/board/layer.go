package board

import "fmt"

// Side is the physical side of the board.
type Side uint8

const (
	Top Side = iota
	Bottom
)

// Code returns the schema identifier for the side ("F" or "B").
func (s Side) Code() string {
	if s == Bottom {
		return "B"
	}
	return "F"
}

func (s Side) String() string {
	if s == Bottom {
		return "bottom"
	}
	return "top"
}

// Copper returns the copper layer of the side.
func (s Side) Copper() Layer {
	if s == Bottom {
		return BackCopper
	}
	return FrontCopper
}

// LayerKind is the functional kind of a layer.
type LayerKind uint8

const (
	KindCopper LayerKind = iota + 1
	KindSilkscreen
	KindFabrication
	KindCourtyard
	KindEdge
)

func (k LayerKind) String() string {
	switch k {
	case KindCopper:
		return "copper"
	case KindSilkscreen:
		return "silkscreen"
	case KindFabrication:
		return "fabrication"
	case KindCourtyard:
		return "courtyard"
	case KindEdge:
		return "edge"
	}
	return "unknown"
}

// Layer identifies a board layer. Only the fixed set below exists; there
// are no free-form layer names.
type Layer uint8

const (
	FrontCopper Layer = iota + 1
	BackCopper
	FrontSilkscreen
	BackSilkscreen
	FrontFab
	BackFab
	FrontCourtyard
	BackCourtyard
	EdgeCuts
)

type layerInfo struct {
	name string
	side Side
	kind LayerKind
}

var layers = map[Layer]layerInfo{
	FrontCopper:     {"F.Cu", Top, KindCopper},
	BackCopper:      {"B.Cu", Bottom, KindCopper},
	FrontSilkscreen: {"F.SilkS", Top, KindSilkscreen},
	BackSilkscreen:  {"B.SilkS", Bottom, KindSilkscreen},
	FrontFab:        {"F.Fab", Top, KindFabrication},
	BackFab:         {"B.Fab", Bottom, KindFabrication},
	FrontCourtyard:  {"F.CrtYd", Top, KindCourtyard},
	BackCourtyard:   {"B.CrtYd", Bottom, KindCourtyard},
	EdgeCuts:        {"Edge.Cuts", Top, KindEdge},
}

// AllLayers returns every known layer in enumeration order.
func AllLayers() []Layer {
	out := make([]Layer, 0, len(layers))
	for l := FrontCopper; l <= EdgeCuts; l++ {
		out = append(out, l)
	}
	return out
}

// ParseLayer looks up a layer by its name (e.g. "F.Cu").
func ParseLayer(name string) (Layer, error) {
	for l, info := range layers {
		if info.name == name {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown layer %q", name)
}

// Valid reports whether l is one of the known layers.
func (l Layer) Valid() bool {
	_, ok := layers[l]
	return ok
}

func (l Layer) String() string {
	if info, ok := layers[l]; ok {
		return info.name
	}
	return fmt.Sprintf("Layer(%d)", uint8(l))
}

// Side returns the side of the layer. The edge layer has no side and
// reports Top.
func (l Layer) Side() Side {
	return layers[l].side
}

// Kind returns the functional kind of the layer.
func (l Layer) Kind() LayerKind {
	return layers[l].kind
}

// IsCopper reports whether the layer is a copper layer.
func (l Layer) IsCopper() bool {
	return l.Kind() == KindCopper
}

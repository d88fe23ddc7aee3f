package kicad

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/OpenTraceIBOM/internal/logger"
	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/board"
	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/kicad/kicadsexp"
)

// defaultRoundRectRatio is KiCad's corner ratio when roundrect_rratio is
// absent.
const defaultRoundRectRatio = 0.25

// footprint imports a (footprint ...) node with its pads and graphics.
// Footprints without a reference are skipped.
func (im *importer) footprint(n *kicadsexp.List) error {
	pl, err := placement(n)
	if err != nil {
		return err
	}

	fp := board.Footprint{Placement: pl}
	if l, _ := layerOf(n); l == board.BackCopper {
		fp.Side = board.Bottom
	}

	// KiCad 6/7 keep reference and value in fp_text, KiCad 8+ in property.
	props := make(map[string]string)
	for _, t := range n.FindAll("fp_text") {
		kind, _ := t.Str(1)
		text, _ := t.Str(2)
		switch kind {
		case "reference":
			props["Reference"] = text
		case "value":
			props["Value"] = text
		}
	}
	for _, p := range n.FindAll("property") {
		key, err1 := p.Str(1)
		val, err2 := p.Str(2)
		if err1 == nil && err2 == nil {
			props[key] = val
		}
	}
	fp.Reference = props["Reference"]
	fp.Value = props["Value"]
	for _, f := range im.opts.Fields {
		if v, ok := props[f]; ok {
			if fp.Fields == nil {
				fp.Fields = make(map[string]string)
			}
			fp.Fields[f] = v
		}
	}

	if attr, ok := n.Find("attr"); ok {
		if attr.Has("smd") {
			fp.Attributes |= board.AttrSMD
		}
		if attr.Has("through_hole") {
			fp.Attributes |= board.AttrThroughHole
		}
		if attr.Has("virtual") || attr.Has("board_only") || attr.Has("exclude_from_bom") {
			fp.Attributes |= board.AttrVirtual
		}
		fp.DNP = attr.Has("dnp")
	}

	if fp.Reference == "" {
		im.skip(n, "footprint has no reference")
		return nil
	}
	if !im.hasLayer(fp.Layer()) {
		im.skip(n, "footprint side %s has no copper layer", fp.Side)
		return nil
	}

	for _, p := range n.FindAll("pad") {
		pad, err := im.pad(p, pl.Rotation)
		if err != nil {
			im.skip(p, "%v", err)
			continue
		}
		fp.Pads = append(fp.Pads, pad)
	}

	if _, err := im.b.AddFootprint(fp); err != nil {
		return fmt.Errorf("footprint %s (line %d): %w", fp.Reference, n.Line, err)
	}
	im.stats.footprints++
	im.stats.pads += len(fp.Pads)

	for _, it := range n.Items() {
		g, ok := it.(*kicadsexp.List)
		if !ok || !strings.HasPrefix(g.Name(), "fp_") {
			continue
		}
		im.graphic(g, pl, false)
	}
	return nil
}

// pad converts a (pad "num" type shape ...) node. KiCad stores the pad
// angle in board terms, so the footprint rotation is subtracted.
func (im *importer) pad(n *kicadsexp.List, fpRotation board.Angle) (board.Pad, error) {
	num, _ := n.Str(1)
	kind, err := n.Str(2)
	if err != nil {
		return board.Pad{}, err
	}
	shapeName, err := n.Str(3)
	if err != nil {
		return board.Pad{}, err
	}

	pl, err := placement(n)
	if err != nil {
		return board.Pad{}, err
	}
	pl.Rotation -= fpRotation

	size, err := sizeOf(n)
	if err != nil {
		return board.Pad{}, err
	}

	pad := board.Pad{
		Number:    num,
		Placement: pl,
		Net:       im.itemNet(n),
		Pin1:      num == "1" || num == "A1",
	}

	pad.Shape, err = padShape(n, shapeName, size)
	if err != nil {
		return board.Pad{}, err
	}

	if kind == "thru_hole" || kind == "np_thru_hole" {
		if d, ok := n.Find("drill"); ok {
			pad.Drill = drillSize(d)
		}
	}

	pad.Layers = im.padLayers(n)
	if len(pad.Layers) == 0 {
		return board.Pad{}, fmt.Errorf("pad %q has no outer copper layer", num)
	}
	return pad, nil
}

func sizeOf(n *kicadsexp.List) (board.Size, error) {
	c, ok := n.Find("size")
	if !ok {
		return board.Size{}, fmt.Errorf("line %d: pad has no size", n.Line)
	}
	w, err := c.Float(1)
	if err != nil {
		return board.Size{}, err
	}
	h, err := c.Float(2)
	if err != nil {
		h = w
	}
	return board.SizeMM(w, h), nil
}

func padShape(n *kicadsexp.List, name string, size board.Size) (board.Shape, error) {
	switch name {
	case "rect", "trapezoid":
		return board.Rect{Size: size}, nil
	case "circle":
		return board.Circle{Radius: size.Width / 2}, nil
	case "oval":
		return board.Oval{Size: size}, nil
	case "roundrect":
		ratio := defaultRoundRectRatio
		if r, ok := n.Find("roundrect_rratio"); ok {
			if v, err := r.Float(1); err == nil {
				ratio = math.Min(v, 0.5)
			}
		}
		short := min(size.Width, size.Height)
		return board.RoundRect{Size: size, Radius: board.Coord(math.Round(float64(short) * ratio))}, nil
	case "custom":
		if prims, ok := n.Find("primitives"); ok {
			if poly, ok := prims.Find("gr_poly"); ok {
				if pts := polyPoints(poly); len(pts) >= 3 {
					return board.Polygon{Points: pts}, nil
				}
			}
		}
		// Fall back to the anchor pad.
		anchor := "rect"
		if opts, ok := n.Find("options"); ok {
			if a, ok := opts.Find("anchor"); ok {
				anchor, _ = a.Str(1)
			}
		}
		if anchor == "circle" {
			return board.Circle{Radius: size.Width / 2}, nil
		}
		return board.Rect{Size: size}, nil
	}
	return nil, fmt.Errorf("unsupported pad shape %q", name)
}

// drillSize reads (drill D), (drill oval W H) and (drill D (offset X Y)).
func drillSize(n *kicadsexp.List) board.Size {
	var vals []float64
	for _, it := range n.Items() {
		sym, ok := it.(kicadsexp.Symbol)
		if !ok || sym == "oval" {
			continue
		}
		if v, err := strconv.ParseFloat(string(sym), 64); err == nil {
			vals = append(vals, v)
		}
	}
	switch len(vals) {
	case 0:
		return board.Size{}
	case 1:
		return board.SizeMM(vals[0], vals[0])
	}
	return board.SizeMM(vals[0], vals[1])
}

// padLayers expands (layers ...) to the outer copper layers present on
// the board. "*.Cu" and "F&B.Cu" mean both sides.
func (im *importer) padLayers(n *kicadsexp.List) []board.Layer {
	c, ok := n.Find("layers")
	if !ok {
		return nil
	}
	var out []board.Layer
	add := func(l board.Layer) {
		if im.hasLayer(l) && !slices.Contains(out, l) {
			out = append(out, l)
		}
	}
	for _, it := range c.Items() {
		name := it.String()
		switch name {
		case "*.Cu", "F&B.Cu":
			add(board.FrontCopper)
			add(board.BackCopper)
		default:
			if l, ok := layerNames[name]; ok && l.IsCopper() {
				add(l)
			}
		}
	}
	if len(out) == 0 {
		logger.L().Debug("kicad.pad_layers", "line", n.Line, "layers", c.String())
	}
	return out
}

package kicad

import (
	"math"
	"slices"

	"github.com/OpenTraceLab/OpenTraceIBOM/internal/logger"
	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/board"
	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/kicad/kicadsexp"
)

// maxChordAngle is the largest arc step, in degrees, when an arc track is
// split into straight tracks.
const maxChordAngle = 10.0

// copperLayer reads (layer "X.Cu") and reports whether it is an outer
// copper layer on the board.
func (im *importer) copperLayer(n *kicadsexp.List) (board.Layer, bool) {
	l, ok := layerOf(n)
	return l, ok && l.IsCopper() && im.hasLayer(l)
}

// segment imports a straight (segment ...) track.
func (im *importer) segment(n *kicadsexp.List) {
	layer, ok := im.copperLayer(n)
	if !ok {
		im.skip(n, "not on an outer copper layer")
		return
	}
	start, err := point(n, "start")
	if err != nil {
		im.skip(n, "%v", err)
		return
	}
	end, err := point(n, "end")
	if err != nil {
		im.skip(n, "%v", err)
		return
	}
	width, err := length(n, "width")
	if err != nil {
		im.skip(n, "%v", err)
		return
	}
	im.addTrack(n, board.Track{Start: start, End: end, Width: width, Layer: layer, Net: im.itemNet(n)})
}

// arcTrack imports an (arc ...) track as a run of straight chords.
func (im *importer) arcTrack(n *kicadsexp.List) {
	layer, ok := im.copperLayer(n)
	if !ok {
		im.skip(n, "not on an outer copper layer")
		return
	}
	width, err := length(n, "width")
	if err != nil {
		im.skip(n, "%v", err)
		return
	}
	arc, err := arcNode(n)
	if err != nil {
		im.skip(n, "%v", err)
		return
	}
	start, _ := point(n, "start")
	end, _ := point(n, "end")
	net := im.itemNet(n)

	steps := max(1, int(math.Ceil(math.Abs(float64(arc.Sweep))/maxChordAngle-1e-9)))
	prev := start
	for i := 1; i <= steps; i++ {
		next := end
		if i < steps {
			a := (arc.Start + arc.Sweep*board.Angle(i)/board.Angle(steps)).Radians()
			next = board.Point{
				X: arc.Center.X + board.Coord(math.Round(float64(arc.Radius)*math.Cos(a))),
				Y: arc.Center.Y + board.Coord(math.Round(float64(arc.Radius)*math.Sin(a))),
			}
		}
		im.addTrack(n, board.Track{Start: prev, End: next, Width: width, Layer: layer, Net: net})
		prev = next
	}
}

func (im *importer) addTrack(n *kicadsexp.List, t board.Track) {
	if err := im.b.AddTrack(t); err != nil {
		im.skip(n, "%v", err)
		return
	}
	im.stats.tracks++
}

// via imports a (via ...) node. Blind and buried vias keep only their
// outer copper layers.
func (im *importer) via(n *kicadsexp.List) {
	pl, err := placement(n)
	if err != nil {
		im.skip(n, "%v", err)
		return
	}
	size, err := length(n, "size")
	if err != nil {
		im.skip(n, "%v", err)
		return
	}
	drill, _ := length(n, "drill")

	var layers []board.Layer
	if c, ok := n.Find("layers"); ok {
		for _, it := range c.Items() {
			if l, ok := layerNames[it.String()]; ok && l.IsCopper() && im.hasLayer(l) && !slices.Contains(layers, l) {
				layers = append(layers, l)
			}
		}
	}
	if len(layers) == 0 {
		im.skip(n, "via has no outer copper layer")
		return
	}

	err = im.b.AddVia(board.Via{
		Position: pl.Position,
		Diameter: size,
		Drill:    drill,
		Layers:   layers,
		Net:      im.itemNet(n),
	})
	if err != nil {
		im.skip(n, "%v", err)
		return
	}
	im.stats.vias++
}

// zone imports the filled polygons of a (zone ...) node, one board zone
// per fill. Unfilled zones and keep-outs have nothing to show.
func (im *importer) zone(n *kicadsexp.List) {
	if _, ok := n.Find("keepout"); ok {
		im.skip(n, "keep-out zone")
		return
	}
	net := im.itemNet(n)
	defaultLayer, _ := layerOf(n)

	fills := n.FindAll("filled_polygon")
	if len(fills) == 0 {
		im.skip(n, "zone is not filled")
		return
	}
	for _, fp := range fills {
		layer := defaultLayer
		if l, ok := layerOf(fp); ok {
			layer = l
		}
		if !layer.IsCopper() || !im.hasLayer(layer) {
			im.skip(fp, "fill not on an outer copper layer")
			continue
		}
		pts := polyPoints(fp)
		if len(pts) < 3 {
			im.skip(fp, "fill has %d points", len(pts))
			logger.L().Warn("kicad.zone_fill_dropped", "line", fp.Line, "net", net, "points", len(pts))
			continue
		}
		err := im.b.AddZone(board.Zone{
			Layer:   layer,
			Outline: fillPath(pts),
			Net:     net,
		})
		if err != nil {
			im.skip(fp, "%v", err)
			logger.L().Warn("kicad.zone_fill_dropped", "line", fp.Line, "net", net, "err", err)
			continue
		}
		im.stats.zones++
	}
}

// fillPath closes a fill ring into a path. KiCad fractures fills with
// holes into one ring whose hole bridges are zero-width slits with
// coincident edges, so the ring is kept as drawn rather than checked as a
// simple polygon.
func fillPath(pts []board.Point) board.Path {
	cmds := make([]board.PathCommand, 0, len(pts)+1)
	cmds = append(cmds, board.PathCommand{Op: board.PathMove, Points: pts[:1:1]})
	for _, p := range pts[1:] {
		cmds = append(cmds, board.PathCommand{Op: board.PathLine, Points: []board.Point{p}})
	}
	cmds = append(cmds, board.PathCommand{Op: board.PathClose})
	return board.Path{Commands: cmds}
}

package kicad

import (
	"errors"

	"github.com/OpenTraceLab/OpenTraceIBOM/internal/logger"
	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/board"
	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/geometry"
)

// snapTolerance is how far apart two segment ends may be and still join.
const snapTolerance = board.Micrometre

// edge is a board-level Edge.Cuts line or arc awaiting outline assembly.
type edge struct {
	start, end board.Point
	arc        *board.Arc
}

// commands draws the edge from its start (or end, when reversed) without
// the leading move.
func (e edge) commands(reversed bool) ([]board.PathCommand, error) {
	if e.arc == nil {
		to := e.end
		if reversed {
			to = e.start
		}
		return []board.PathCommand{{Op: board.PathLine, Points: []board.Point{to}}}, nil
	}
	a := *e.arc
	if reversed {
		a.Start += a.Sweep
		a.Sweep = -a.Sweep
	}
	g, err := geometry.Encode(a, board.Placement{})
	if err != nil {
		return nil, err
	}
	return g.Segments[1:], nil
}

func near(a, b board.Point) bool {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx >= -snapTolerance && dx <= snapTolerance && dy >= -snapTolerance && dy <= snapTolerance
}

// outline chains the held-back Edge.Cuts segments into closed loops and
// adds the closed edge shapes. The loop with the largest bounding box
// becomes the board outline; other loops and unchained segments are kept
// as edge drawings. Without any loop the outline falls back to the
// bounding box of all edge geometry.
func (im *importer) outline() error {
	used := make([]bool, len(im.edges))
	loops := im.loops
	var loose []int

	for i := range im.edges {
		if used[i] {
			continue
		}
		used[i] = true
		chain := []int{i}
		rev := []bool{false}
		first, cur := im.edges[i].start, im.edges[i].end

		for !near(cur, first) {
			next := -1
			for j := range im.edges {
				if used[j] {
					continue
				}
				switch {
				case near(im.edges[j].start, cur):
					next, cur = j, im.edges[j].end
					rev = append(rev, false)
				case near(im.edges[j].end, cur):
					next, cur = j, im.edges[j].start
					rev = append(rev, true)
				}
				if next >= 0 {
					break
				}
			}
			if next < 0 {
				break
			}
			used[next] = true
			chain = append(chain, next)
		}

		if !near(cur, first) {
			loose = append(loose, chain...)
			continue
		}
		p, err := im.loopPath(chain, rev)
		if err != nil {
			loose = append(loose, chain...)
			continue
		}
		loops = append(loops, p)
	}

	best := -1
	var bestArea float64
	for i, p := range loops {
		bb := board.ShapeBounds(p)
		if area := float64(bb.Width()) * float64(bb.Height()); best < 0 || area > bestArea {
			best, bestArea = i, area
		}
	}

	for i, p := range loops {
		if i == best {
			continue
		}
		im.addEdgeDrawing(p)
	}
	for _, i := range loose {
		cmds, err := im.edges[i].commands(false)
		if err != nil {
			continue
		}
		im.addEdgeDrawing(board.Path{Commands: append(
			[]board.PathCommand{{Op: board.PathMove, Points: []board.Point{im.edges[i].start}}},
			cmds...)})
	}

	if best >= 0 {
		return im.b.SetOutline(loops[best])
	}
	return im.fallbackOutline()
}

func (im *importer) loopPath(chain []int, rev []bool) (board.Path, error) {
	start := im.edges[chain[0]].start
	cmds := []board.PathCommand{{Op: board.PathMove, Points: []board.Point{start}}}
	for k, i := range chain {
		c, err := im.edges[i].commands(rev[k])
		if err != nil {
			return board.Path{}, err
		}
		cmds = append(cmds, c...)
	}
	cmds = append(cmds, board.PathCommand{Op: board.PathClose})
	p := board.Path{Commands: cmds}
	return p, board.ValidateShape(p)
}

func (im *importer) addEdgeDrawing(p board.Path) {
	if !im.hasLayer(board.EdgeCuts) {
		return
	}
	err := im.b.AddDrawing(board.Drawing{Layer: board.EdgeCuts, Shape: p, Width: geometryEdgeWidth})
	if err != nil {
		logger.L().Debug("kicad.edge_skipped", "err", err)
		return
	}
	im.stats.drawings++
}

// geometryEdgeWidth is the stroke of edge drawings rebuilt from segments.
const geometryEdgeWidth = 100 * board.Micrometre

// fallbackOutline uses the bounding box of every Edge.Cuts segment.
func (im *importer) fallbackOutline() error {
	bb := board.NewBBox()
	for _, e := range im.edges {
		bb.Expand(e.start)
		bb.Expand(e.end)
		if e.arc != nil {
			g, err := geometry.Encode(*e.arc, board.Placement{})
			if err == nil {
				bb.ExpandBox(g.Bounds)
			}
		}
	}
	if bb.IsEmpty() || bb.Width() == 0 || bb.Height() == 0 {
		return errors.New("no usable board outline on Edge.Cuts")
	}
	logger.L().Warn("kicad.outline_open", "segments", len(im.edges))
	return im.b.SetOutline(board.Polygon{Points: []board.Point{
		bb.Min, {X: bb.Max.X, Y: bb.Min.Y}, bb.Max, {X: bb.Min.X, Y: bb.Max.Y},
	}})
}

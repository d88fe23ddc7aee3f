// Package pcbdata serializes a finalized board and its BOM tables into the
// pcbdata and config JSON objects consumed by the interactive BOM viewer.
package pcbdata

import (
	"encoding/json"
	"strconv"

	"github.com/OpenTraceLab/OpenTraceIBOM/internal/logger"
	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/board"
	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/bom"
	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/geometry"
)

// DefaultOutlineWidth is the stroke width of the board outline edge.
const DefaultOutlineWidth = 100 * board.Micrometre

// Document is a serialized board.
type Document struct {
	SchemaVersion string
	JSON          []byte // The pcbdata object
	Config        []byte // The viewer config object
}

// Options controls serialization.
type Options struct {
	// SchemaVersion is written as ibom_version and must match the asset
	// bundle the document is assembled with. Required.
	SchemaVersion string

	// Encoder flattens shapes. nil uses the default tolerance.
	Encoder *geometry.Encoder

	// OutlineWidth is the stroke width of the board outline. Zero means
	// DefaultOutlineWidth.
	OutlineWidth board.Coord

	// Settings are the viewer settings. nil means DefaultSettings.
	Settings *Settings
}

func mm(c board.Coord) float64 {
	return c.MM()
}

func mmPoint(p board.Point) point {
	return point{p.X.MM(), p.Y.MM()}
}

func mmPtr(c board.Coord) *float64 {
	v := c.MM()
	return &v
}

// Serialize produces the pcbdata and config objects for b. The output is a
// pure function of the inputs: serializing the same board twice yields
// identical bytes.
func Serialize(b *board.Board, tables bom.Tables, opts Options) (Document, error) {
	const op = "pcbdata.serialize"

	if opts.SchemaVersion == "" {
		return Document{}, serr(op, "schema version is required")
	}
	settings := DefaultSettings()
	if opts.Settings != nil {
		settings = *opts.Settings
	}
	if err := settings.validate(); err != nil {
		return Document{}, err
	}
	if err := checkTables(b, tables); err != nil {
		return Document{}, err
	}

	s := &serializer{
		board:        b,
		enc:          opts.Encoder,
		outlineWidth: opts.OutlineWidth,
	}
	if s.enc == nil {
		s.enc = geometry.NewEncoder(geometry.Options{})
	}
	if s.outlineWidth <= 0 {
		s.outlineWidth = DefaultOutlineWidth
	}

	data, err := s.build(opts.SchemaVersion, tables)
	if err != nil {
		return Document{}, err
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return Document{}, &SerializationError{Op: op, Err: err}
	}

	fields := append([]string{"Value"}, b.Fields()...)
	cfg, err := json.Marshal(settings.config(fields, tables))
	if err != nil {
		return Document{}, &SerializationError{Op: op, Err: err}
	}

	logger.L().Debug("pcbdata.serialized",
		"version", opts.SchemaVersion,
		"footprints", len(data.Footprints),
		"bytes", len(raw))

	return Document{SchemaVersion: opts.SchemaVersion, JSON: raw, Config: cfg}, nil
}

// checkTables verifies that every BOM entry refers to an existing
// footprint under its own reference.
func checkTables(b *board.Board, t bom.Tables) error {
	const op = "pcbdata.check_tables"
	n := b.NumFootprints()
	for _, rows := range [][]bom.Row{t.Both, t.Front, t.Back} {
		for _, row := range rows {
			if row.Count != len(row.Refs) {
				return serr(op, "row %q count %d does not match %d references", row.Value, row.Count, len(row.Refs))
			}
			for _, ref := range row.Refs {
				if ref.Footprint < 0 || ref.Footprint >= n {
					return serr(op, "invalid footprint index %d for %s", ref.Footprint, ref.Reference)
				}
				if got := b.Footprint(ref.Footprint).Reference; got != ref.Reference {
					return serr(op, "footprint %d is %s, not %s", ref.Footprint, got, ref.Reference)
				}
			}
		}
	}
	for _, idx := range t.Skipped {
		if idx < 0 || idx >= n {
			return serr(op, "invalid skipped footprint index %d", idx)
		}
	}
	return nil
}

type serializer struct {
	board        *board.Board
	enc          *geometry.Encoder
	outlineWidth board.Coord
}

func (s *serializer) encode(what string, sh board.Shape, pl board.Placement) (geometry.EncodedGeometry, error) {
	g, err := s.enc.Encode(sh, pl)
	if err != nil {
		return g, &SerializationError{Op: "pcbdata.encode " + what, Err: err}
	}
	return g, nil
}

func (s *serializer) build(version string, tables bom.Tables) (*pcbdata, error) {
	b := s.board
	meta := b.Metadata()
	data := &pcbdata{
		IBOMVersion: version,
		Metadata: metadata{
			Title:    meta.Title,
			Company:  meta.Company,
			Revision: meta.Revision,
			Date:     meta.Date,
		},
		Layers: []string{},
		Edges:  []drawing{},
		Drawings: drawingGroups{
			Silkscreen:  newSides[drawing](),
			Fabrication: newSides[drawing](),
		},
		Tracks:     newSides[track](),
		Zones:      newSides[zone](),
		Nets:       []string{},
		Footprints: []footprint{},
	}

	for _, l := range b.Layers() {
		data.Layers = append(data.Layers, l.String())
	}

	if err := s.edgesAndDrawings(data); err != nil {
		return nil, err
	}
	s.tracks(data)
	if err := s.zones(data); err != nil {
		return nil, err
	}
	data.Nets = append(data.Nets, b.Nets()...)
	if err := s.footprints(data); err != nil {
		return nil, err
	}
	data.BOM = s.bom(tables)
	return data, nil
}

func (s *serializer) edgesAndDrawings(data *pcbdata) error {
	outline, err := s.encode("outline", s.board.Outline(), board.Placement{})
	if err != nil {
		return err
	}
	bounds := outline.Bounds
	data.Edges = append(data.Edges, drawing{
		Type:    geometry.KindPolygon,
		SVGPath: outline.SVGPath(),
		Width:   mmPtr(s.outlineWidth),
	})

	for _, d := range s.board.Drawings() {
		g, err := s.encode("drawing", d.Shape, d.Placement)
		if err != nil {
			return err
		}
		entry := drawing{Type: g.Kind, SVGPath: g.SVGPath(), Filled: d.Filled}
		switch d.Kind {
		case board.DrawingReferenceText:
			entry.Thickness = mmPtr(d.Width)
			entry.Ref = 1
		case board.DrawingValueText:
			entry.Thickness = mmPtr(d.Width)
			entry.Val = 1
		default:
			entry.Width = mmPtr(d.Width)
		}

		back := d.Layer.Side() == board.Bottom
		switch d.Layer.Kind() {
		case board.KindEdge:
			bounds.ExpandBox(g.Bounds)
			data.Edges = append(data.Edges, entry)
		case board.KindSilkscreen:
			data.Drawings.Silkscreen.add(back, entry)
		case board.KindFabrication:
			data.Drawings.Fabrication.add(back, entry)
		default:
			logger.L().Debug("pcbdata.drawing_skipped", "layer", d.Layer.String())
		}
	}

	data.EdgesBBox = edgesBBox{
		MinX: mm(bounds.Min.X),
		MaxX: mm(bounds.Max.X),
		MinY: mm(bounds.Min.Y),
		MaxY: mm(bounds.Max.Y),
	}
	return nil
}

// tracks emits track segments followed by vias, which the viewer draws as
// zero-length tracks with a drill.
func (s *serializer) tracks(data *pcbdata) {
	for _, t := range s.board.Tracks() {
		data.Tracks.add(t.Layer.Side() == board.Bottom, track{
			Start: mmPoint(t.Start),
			End:   mmPoint(t.End),
			Width: mm(t.Width),
			Net:   t.Net,
		})
	}
	for _, v := range s.board.Vias() {
		entry := track{
			Start:     mmPoint(v.Position),
			End:       mmPoint(v.Position),
			Width:     mm(v.Diameter),
			DrillSize: mmPtr(v.Drill),
			Net:       v.Net,
		}
		for _, l := range v.Layers {
			data.Tracks.add(l.Side() == board.Bottom, entry)
		}
	}
}

func (s *serializer) zones(data *pcbdata) error {
	for _, z := range s.board.Zones() {
		g, err := s.encode("zone", z.Outline, board.Placement{})
		if err != nil {
			return err
		}
		data.Zones.add(z.Layer.Side() == board.Bottom, zone{
			Type:    g.Kind,
			SVGPath: g.SVGPath(),
			Net:     z.Net,
		})
	}
	return nil
}

func (s *serializer) footprints(data *pcbdata) error {
	for _, fp := range s.board.Footprints() {
		bb := fp.LocalBounds()
		entry := footprint{
			Ref: fp.Reference,
			BBox: fpBBox{
				Pos:    mmPoint(fp.Position),
				Angle:  float64(fp.Rotation),
				RelPos: mmPoint(bb.Min),
				Size:   point{mm(bb.Width()), mm(bb.Height())},
			},
			Drawings: []drawing{},
			Layer:    fp.Side.Code(),
			Pads:     []pad{},
		}

		for i, p := range fp.Pads {
			// Pad paths stay in the pad frame; the viewer applies pos and angle.
			g, err := s.encode("pad "+fp.Reference+"."+p.Number, p.Shape, board.Placement{})
			if err != nil {
				return err
			}
			pl := fp.PadPlacement(i)
			out := pad{
				Layers:  padLayers(p.Layers),
				Pos:     mmPoint(pl.Position),
				Angle:   float64(pl.Rotation),
				Shape:   "custom",
				SVGPath: g.SVGPath(),
				Type:    "smd",
				Net:     p.Net,
			}
			if p.HasDrill() {
				out.Type = "th"
				out.DrillSize = &point{mm(p.Drill.Width), mm(p.Drill.Height)}
				out.DrillShape = "circle"
				if p.Drill.Width != p.Drill.Height {
					out.DrillShape = "oblong"
				}
			}
			if p.Pin1 {
				out.Pin1 = 1
			}
			entry.Pads = append(entry.Pads, out)
		}
		data.Footprints = append(data.Footprints, entry)
	}
	return nil
}

// padLayers maps copper layers to side codes, front first.
func padLayers(ls []board.Layer) []string {
	var front, back bool
	for _, l := range ls {
		if l.Side() == board.Bottom {
			back = true
		} else {
			front = true
		}
	}
	out := []string{}
	if front {
		out = append(out, board.Top.Code())
	}
	if back {
		out = append(out, board.Bottom.Code())
	}
	return out
}

func (s *serializer) bom(t bom.Tables) bomData {
	rows := func(in []bom.Row) []bomRow {
		out := make([]bomRow, len(in))
		for i, r := range in {
			row := make(bomRow, len(r.Refs))
			for j, ref := range r.Refs {
				row[j] = [2]any{ref.Reference, ref.Footprint}
			}
			out[i] = row
		}
		return out
	}

	data := bomData{
		Both:    rows(t.Both),
		F:       rows(t.Front),
		B:       rows(t.Back),
		Skipped: append([]int{}, t.Skipped...),
		Fields:  make(map[string][]string),
	}

	names := s.board.Fields()
	for i, fp := range s.board.Footprints() {
		values := make([]string, 0, len(names)+1)
		values = append(values, fp.Value)
		for _, n := range names {
			values = append(values, fp.Fields[n])
		}
		data.Fields[strconv.Itoa(i)] = values
	}
	return data
}

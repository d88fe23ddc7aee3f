package kicad

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/board"
)

const demoBoard = `(kicad_pcb (version 20221018) (generator pcbnew)
  (general (thickness 1.6))
  (paper "A4")
  (title_block (title "Demo") (date "2024-05-01") (rev "B") (company "ACME"))
  (layers
    (0 "F.Cu" signal)
    (31 "B.Cu" signal)
    (36 "B.SilkS" user "B.Silkscreen")
    (37 "F.SilkS" user "F.Silkscreen")
    (44 "Edge.Cuts" user)
    (49 "F.Fab" user)
  )
  (net 0 "")
  (net 1 "GND")
  (net 2 "VCC")
  (footprint "Resistor_SMD:R_0603" (layer "F.Cu") (at 10 10 90)
    (property "Reference" "R1") (property "Value" "10k") (property "MPN" "RC0603")
    (attr smd)
    (fp_line (start -1 -0.5) (end 1 -0.5) (stroke (width 0.12) (type solid)) (layer "F.SilkS"))
    (fp_text user "${REFERENCE}" (at 0 0) (layer "F.Fab"))
    (pad "1" smd roundrect (at -0.8 0 90) (size 0.8 0.9) (layers "F.Cu" "F.Paste" "F.Mask") (roundrect_rratio 0.25) (net 2 "VCC"))
    (pad "2" smd roundrect (at 0.8 0 90) (size 0.8 0.9) (layers "F.Cu" "F.Paste" "F.Mask") (roundrect_rratio 0.25) (net 1 "GND"))
  )
  (footprint "Conn:PinHeader" (layer "B.Cu") (at 30 20)
    (fp_text reference "J1" (at 0 -2) (layer "B.SilkS"))
    (fp_text value "CONN" (at 0 2) (layer "B.Fab"))
    (attr through_hole dnp)
    (pad "1" thru_hole rect (at 0 0) (size 1.7 1.7) (drill 1) (layers "*.Cu" "*.Mask") (net 1 "GND"))
    (pad "2" thru_hole oval (at 0 2.54) (size 1.7 2) (drill oval 1 1.2) (layers "*.Cu" "*.Mask"))
  )
  (footprint "MountingHole" (layer "F.Cu") (at 2 2)
    (property "Reference" "H1") (property "Value" "MountingHole")
    (attr exclude_from_bom)
    (pad "" np_thru_hole circle (at 0 0) (size 3 3) (drill 3) (layers "*.Cu" "*.Mask"))
  )
  (gr_line (start 0 0) (end 40 0) (stroke (width 0.1) (type solid)) (layer "Edge.Cuts"))
  (gr_line (start 0 30) (end 40 30) (stroke (width 0.1) (type solid)) (layer "Edge.Cuts"))
  (gr_line (start 0 0) (end 0 30) (stroke (width 0.1) (type solid)) (layer "Edge.Cuts"))
  (gr_arc (start 40 0) (mid 45 15) (end 40 30) (stroke (width 0.1) (type solid)) (layer "Edge.Cuts"))
  (gr_circle (center 10 25) (end 11 25) (stroke (width 0.1) (type solid)) (fill none) (layer "Edge.Cuts"))
  (gr_text "hello" (at 5 5) (layer "F.SilkS"))
  (segment (start 1 1) (end 5 1) (width 0.25) (layer "F.Cu") (net 2))
  (segment (start 1 2) (end 5 2) (width 0.2) (layer "In1.Cu") (net 2))
  (arc (start 5 1) (mid 6 2) (end 5 3) (width 0.25) (layer "F.Cu") (net 2))
  (via (at 5 1) (size 0.6) (drill 0.3) (layers "F.Cu" "B.Cu") (net 2))
  (zone (net 1) (net_name "GND") (layer "B.Cu")
    (polygon (pts (xy 0 0) (xy 40 0) (xy 40 30) (xy 0 30)))
    (filled_polygon (layer "B.Cu") (pts (xy 1 1) (xy 39 1) (xy 39 29) (xy 1 29)))
  )
)
`

func importDemo(t *testing.T) *board.Board {
	t.Helper()
	b := board.NewBuilder()
	if err := Import(strings.NewReader(demoBoard), b, Options{Fields: []string{"MPN"}}); err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	bd, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize() error: %v", err)
	}
	return bd
}

func TestImportMetadataAndLayers(t *testing.T) {
	bd := importDemo(t)

	want := board.Metadata{Title: "Demo", Company: "ACME", Revision: "B", Date: "2024-05-01"}
	if got := bd.Metadata(); got != want {
		t.Errorf("Metadata() = %+v, want %+v", got, want)
	}
	for _, l := range []board.Layer{board.FrontCopper, board.BackCopper, board.FrontSilkscreen, board.BackSilkscreen, board.EdgeCuts, board.FrontFab} {
		if !bd.HasLayer(l) {
			t.Errorf("layer %s not imported", l)
		}
	}
	if bd.HasLayer(board.BackFab) {
		t.Error("B.Fab is not in the file but was imported")
	}
	if got := bd.Fields(); !slices.Equal(got, []string{"MPN"}) {
		t.Errorf("Fields() = %v", got)
	}
}

func TestImportFootprints(t *testing.T) {
	bd := importDemo(t)
	if bd.NumFootprints() != 3 {
		t.Fatalf("NumFootprints() = %d, want 3", bd.NumFootprints())
	}

	r1 := bd.Footprint(0)
	if r1.Reference != "R1" || r1.Value != "10k" || r1.Fields["MPN"] != "RC0603" {
		t.Errorf("R1 = %q %q %v", r1.Reference, r1.Value, r1.Fields)
	}
	if r1.Rotation != 90 || r1.Position != board.PtMM(10, 10) || r1.Side != board.Top {
		t.Errorf("R1 placement = %+v side %s", r1.Placement, r1.Side)
	}
	if !r1.Attributes.Has(board.AttrSMD) || r1.DNP {
		t.Errorf("R1 attributes = %v dnp %v", r1.Attributes, r1.DNP)
	}
	if len(r1.Pads) != 2 {
		t.Fatalf("R1 pads = %d, want 2", len(r1.Pads))
	}
	p1 := r1.Pads[0]
	if p1.Rotation != 0 {
		t.Errorf("pad rotation = %v, want 0 relative to footprint", p1.Rotation)
	}
	if rr, ok := p1.Shape.(board.RoundRect); !ok || rr.Radius != board.FromMM(0.2) {
		t.Errorf("pad shape = %#v, want roundrect radius 0.2mm", p1.Shape)
	}
	if !p1.Pin1 || p1.Net != "VCC" || !slices.Equal(p1.Layers, []board.Layer{board.FrontCopper}) {
		t.Errorf("pad 1 = pin1 %v net %q layers %v", p1.Pin1, p1.Net, p1.Layers)
	}

	j1 := bd.Footprint(1)
	if j1.Reference != "J1" || j1.Value != "CONN" || j1.Side != board.Bottom || !j1.DNP {
		t.Errorf("J1 = %q %q side %s dnp %v", j1.Reference, j1.Value, j1.Side, j1.DNP)
	}
	if !j1.Attributes.Has(board.AttrThroughHole) {
		t.Error("J1 should be through-hole")
	}
	if got := j1.Pads[1].Drill; got != board.SizeMM(1, 1.2) {
		t.Errorf("oval drill = %+v", got)
	}
	if got := j1.Pads[0].Layers; !slices.Equal(got, []board.Layer{board.FrontCopper, board.BackCopper}) {
		t.Errorf("*.Cu layers = %v", got)
	}
	if _, ok := j1.Pads[1].Shape.(board.Oval); !ok {
		t.Errorf("pad 2 shape = %T, want Oval", j1.Pads[1].Shape)
	}

	h1 := bd.Footprint(2)
	if !h1.Attributes.Has(board.AttrVirtual) {
		t.Error("exclude_from_bom footprint should be virtual")
	}
}

func TestImportCopper(t *testing.T) {
	bd := importDemo(t)

	tracks := bd.Tracks()
	// One straight segment plus the 180 degree arc in 10 degree chords.
	if len(tracks) != 1+18 {
		t.Fatalf("tracks = %d, want 19", len(tracks))
	}
	last := tracks[len(tracks)-1]
	if last.End != board.PtMM(5, 3) {
		t.Errorf("arc track ends at %+v, want (5, 3)", last.End)
	}
	for _, tr := range tracks {
		if tr.Net != "VCC" || tr.Layer != board.FrontCopper {
			t.Errorf("track net %q layer %s", tr.Net, tr.Layer)
		}
	}

	vias := bd.Vias()
	if len(vias) != 1 || vias[0].Diameter != board.FromMM(0.6) || vias[0].Drill != board.FromMM(0.3) {
		t.Errorf("vias = %+v", vias)
	}

	zones := bd.Zones()
	if len(zones) != 1 || zones[0].Net != "GND" || zones[0].Layer != board.BackCopper {
		t.Fatalf("zones = %+v", zones)
	}
	if p, ok := zones[0].Outline.(board.Path); !ok || len(p.Commands) != 5 || p.Commands[4].Op != board.PathClose {
		t.Errorf("zone outline = %#v, want the closed 4-point fill", zones[0].Outline)
	}

	if got := bd.Nets(); !slices.Equal(got, []string{"VCC", "GND"}) {
		t.Errorf("Nets() = %v", got)
	}
}

func TestImportOutline(t *testing.T) {
	bd := importDemo(t)

	p, ok := bd.Outline().(board.Path)
	if !ok {
		t.Fatalf("outline = %T, want Path", bd.Outline())
	}
	if last := p.Commands[len(p.Commands)-1]; last.Op != board.PathClose {
		t.Error("outline is not closed")
	}
	bb := bd.OutlineBounds()
	if bb.Min != board.PtMM(0, 0) || bb.Max.Y != board.FromMM(30) {
		t.Errorf("outline bounds = %+v", bb)
	}
	if bb.Max.X < board.FromMM(45)-board.Micrometre {
		t.Errorf("outline max x = %v, want the arc apex at 45mm", bb.Max.X.MM())
	}

	var edges, silk int
	for _, d := range bd.Drawings() {
		switch d.Layer {
		case board.EdgeCuts:
			edges++
		case board.FrontSilkscreen:
			silk++
			if d.Placement != bd.Footprint(0).Placement {
				t.Errorf("footprint drawing placement = %+v", d.Placement)
			}
		}
	}
	if edges != 1 {
		t.Errorf("edge drawings = %d, want the mounting hole only", edges)
	}
	if silk != 1 {
		t.Errorf("silkscreen drawings = %d, want 1", silk)
	}
}

func TestImportErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrNotBoard},
		{"wrong root", "(kicad_sch (version 20230121))", ErrNotBoard},
		{"kicad 5", "(kicad_pcb (version 20171130) (layers (0 F.Cu signal)))", ErrUnsupportedVersion},
		{"no version", "(kicad_pcb (layers (0 F.Cu signal)))", ErrUnsupportedVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Import(strings.NewReader(tt.input), board.NewBuilder(), Options{})
			if !errors.Is(err, tt.want) {
				t.Errorf("Import() error = %v, want %v", err, tt.want)
			}
		})
	}

	if err := Import(strings.NewReader("(kicad_pcb (version"), board.NewBuilder(), Options{}); err == nil {
		t.Error("Import() of truncated input should fail")
	}
}

func TestImportFileDefaultTitle(t *testing.T) {
	src := strings.Replace(demoBoard, `(title "Demo") `, "", 1)
	path := filepath.Join(t.TempDir(), "widget.kicad_pcb")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	b := board.NewBuilder()
	if err := ImportFile(path, b, Options{}); err != nil {
		t.Fatalf("ImportFile() error: %v", err)
	}
	bd, err := b.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	if got := bd.Metadata().Title; got != "widget" {
		t.Errorf("title = %q, want file name", got)
	}
}

func TestArcThrough(t *testing.T) {
	tests := []struct {
		name      string
		mid       board.Point
		wantSweep float64
	}{
		{"through +y", board.PtMM(0, 1), 180},
		{"through -y", board.PtMM(0, -1), -180},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arc, err := arcThrough(board.PtMM(1, 0), tt.mid, board.PtMM(-1, 0))
			if err != nil {
				t.Fatal(err)
			}
			if arc.Center != board.PtMM(0, 0) || arc.Radius != board.FromMM(1) {
				t.Errorf("center %+v radius %v", arc.Center, arc.Radius)
			}
			if math.Abs(float64(arc.Start)) > 1e-9 || math.Abs(float64(arc.Sweep)-tt.wantSweep) > 1e-9 {
				t.Errorf("start %v sweep %v, want 0 and %v", arc.Start, arc.Sweep, tt.wantSweep)
			}
		})
	}

	if _, err := arcThrough(board.PtMM(0, 0), board.PtMM(1, 1), board.PtMM(2, 2)); !errors.Is(err, errCollinear) {
		t.Errorf("collinear points error = %v", err)
	}
}

func TestImportMetadataOverride(t *testing.T) {
	b := board.NewBuilder()
	opts := Options{Metadata: board.Metadata{Revision: "C", Company: "Initech"}}
	if err := Import(strings.NewReader(demoBoard), b, opts); err != nil {
		t.Fatal(err)
	}
	bd, err := b.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	want := board.Metadata{Title: "Demo", Company: "Initech", Revision: "C", Date: "2024-05-01"}
	if got := bd.Metadata(); got != want {
		t.Errorf("Metadata() = %+v, want %+v", got, want)
	}
}

func TestImportKeyholedZoneFill(t *testing.T) {
	// Outer ring 0..20 with a 10x10 hole at 5..15, bridged by a slit along
	// y=5 whose two edges coincide.
	const src = `(kicad_pcb (version 20221018)
  (layers (0 "F.Cu" signal) (44 "Edge.Cuts" user))
  (net 0 "")
  (net 1 "GND")
  (gr_rect (start 0 0) (end 20 20) (stroke (width 0.1)) (fill none) (layer "Edge.Cuts"))
  (zone (net 1) (net_name "GND") (layer "F.Cu")
    (filled_polygon (layer "F.Cu") (pts
      (xy 0 0) (xy 20 0) (xy 20 20) (xy 0 20) (xy 0 5)
      (xy 5 5) (xy 5 15) (xy 15 15) (xy 15 5) (xy 5 5)
      (xy 0 5)))
    (filled_polygon (layer "F.Cu") (pts (xy 1 1) (xy 2 2)))
  )
)`

	b := board.NewBuilder()
	if err := Import(strings.NewReader(src), b, Options{}); err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	bd, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize() error: %v", err)
	}

	zones := bd.Zones()
	if len(zones) != 1 {
		t.Fatalf("imported %d zones, want the keyholed fill only", len(zones))
	}
	p, ok := zones[0].Outline.(board.Path)
	if !ok {
		t.Fatalf("zone outline = %T, want Path", zones[0].Outline)
	}
	if n := len(p.Commands); n != 12 {
		t.Errorf("zone outline has %d commands, want 12", n)
	}
	if zones[0].Net != "GND" || zones[0].Layer != board.FrontCopper {
		t.Errorf("zone = net %q layer %s", zones[0].Net, zones[0].Layer)
	}
}

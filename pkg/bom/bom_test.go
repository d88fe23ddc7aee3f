package bom

import (
	"slices"
	"testing"

	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/board"
)

type part struct {
	ref    string
	value  string
	pad    board.Shape
	side   board.Side
	fields map[string]string
	attrs  board.Attribute
	dnp    bool
}

func buildBoard(t *testing.T, fields []string, parts ...part) *board.Board {
	t.Helper()
	b := board.NewBuilder()
	if err := b.AddLayer(board.FrontCopper, board.BackCopper); err != nil {
		t.Fatalf("AddLayer() error: %v", err)
	}
	if err := b.SetOutline(board.Polygon{Points: []board.Point{
		board.PtMM(0, 0), board.PtMM(20, 0), board.PtMM(20, 20), board.PtMM(0, 20),
	}}); err != nil {
		t.Fatalf("SetOutline() error: %v", err)
	}
	if err := b.DeclareFields(fields...); err != nil {
		t.Fatalf("DeclareFields() error: %v", err)
	}

	for _, p := range parts {
		shape := p.pad
		if shape == nil {
			shape = board.Rect{Size: board.SizeMM(1, 0.6)}
		}
		layer := p.side.Copper()
		fp := board.Footprint{
			Reference:  p.ref,
			Value:      p.value,
			Side:       p.side,
			Fields:     p.fields,
			Attributes: p.attrs,
			DNP:        p.dnp,
			Pads: []board.Pad{
				{Number: "1", Shape: shape, Placement: board.Placement{Position: board.PtMM(-0.8, 0)}, Layers: []board.Layer{layer}},
				{Number: "2", Shape: shape, Placement: board.Placement{Position: board.PtMM(0.8, 0)}, Layers: []board.Layer{layer}},
			},
		}
		if _, err := b.AddFootprint(fp); err != nil {
			t.Fatalf("AddFootprint(%s) error: %v", p.ref, err)
		}
	}

	bd, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize() error: %v", err)
	}
	return bd
}

func TestAggregateGroupsIdenticalFootprints(t *testing.T) {
	bd := buildBoard(t, nil,
		part{ref: "R2", value: "10k"},
		part{ref: "C1", value: "100n"},
		part{ref: "R1", value: "10k"},
	)

	rows := Aggregate(bd, nil)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2: %+v", len(rows), rows)
	}

	tests := []struct {
		value string
		refs  []string
	}{
		{"100n", []string{"C1"}},
		{"10k", []string{"R1", "R2"}},
	}
	for i, tt := range tests {
		row := rows[i]
		if row.Value != tt.value {
			t.Errorf("row %d value = %q, want %q", i, row.Value, tt.value)
		}
		if !slices.Equal(row.References(), tt.refs) {
			t.Errorf("row %d refs = %v, want %v", i, row.References(), tt.refs)
		}
		if row.Count != len(tt.refs) {
			t.Errorf("row %d count = %d, want %d", i, row.Count, len(tt.refs))
		}
	}

	// Footprint indices point back at the board.
	for _, row := range rows {
		for _, ref := range row.Refs {
			if got := bd.Footprint(ref.Footprint).Reference; got != ref.Reference {
				t.Errorf("ref %s points at footprint %s", ref.Reference, got)
			}
		}
	}
}

func TestAggregateSplitsOnShapeAndFields(t *testing.T) {
	bd := buildBoard(t, []string{"MPN"},
		part{ref: "R1", value: "10k", fields: map[string]string{"MPN": "A"}},
		part{ref: "R2", value: "10k", fields: map[string]string{"MPN": "B"}},
		part{ref: "R3", value: "10k", fields: map[string]string{"MPN": "A"}, pad: board.Rect{Size: board.SizeMM(1.2, 0.8)}},
		part{ref: "R4", value: "10k", fields: map[string]string{"MPN": "A"}},
		part{ref: "r5", value: "10K", fields: map[string]string{"MPN": "A"}},
	)

	rows := Aggregate(bd, nil)
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}

	var found bool
	for _, row := range rows {
		if slices.Equal(row.References(), []string{"R1", "R4"}) {
			found = true
		}
	}
	if !found {
		t.Errorf("R1 and R4 not grouped: %+v", rows)
	}
	// Case-sensitive value ordering puts "10K" before "10k".
	if rows[0].Value != "10K" {
		t.Errorf("first row value = %q, want 10K", rows[0].Value)
	}
}

func TestAggregateOrderingIsNatural(t *testing.T) {
	bd := buildBoard(t, nil,
		part{ref: "R10", value: "1k"},
		part{ref: "R2", value: "1k"},
		part{ref: "R1", value: "1k"},
	)

	rows := Aggregate(bd, nil)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	want := []string{"R1", "R2", "R10"}
	if got := rows[0].References(); !slices.Equal(got, want) {
		t.Errorf("refs = %v, want %v", got, want)
	}
}

func TestBuildTables(t *testing.T) {
	bd := buildBoard(t, nil,
		part{ref: "R1", value: "10k"},
		part{ref: "R2", value: "10k", side: board.Bottom},
		part{ref: "R3", value: "10k", dnp: true},
		part{ref: "MH1", value: "hole", attrs: board.AttrVirtual},
	)

	tables := BuildTables(bd)

	if n := len(tables.Front); n != 1 || tables.Front[0].Count != 1 {
		t.Errorf("front table = %+v, want one row of R1", tables.Front)
	}
	if n := len(tables.Back); n != 1 || tables.Back[0].References()[0] != "R2" {
		t.Errorf("back table = %+v, want one row of R2", tables.Back)
	}
	if n := len(tables.Both); n != 1 {
		t.Fatalf("both table has %d rows, want 1: %+v", n, tables.Both)
	}
	if row := tables.Both[0]; row.Count != 2 || !slices.Equal(row.References(), []string{"R1", "R2"}) {
		t.Errorf("both row = %v x%d, want [R1 R2] x2", row.References(), row.Count)
	}
	if want := []int{2, 3}; !slices.Equal(tables.Skipped, want) {
		t.Errorf("skipped = %v, want %v", tables.Skipped, want)
	}
}

func TestIdentityIgnoresPadOrderAndNets(t *testing.T) {
	pad := func(num string, x float64, net string) board.Pad {
		return board.Pad{
			Number:    num,
			Shape:     board.Circle{Radius: board.FromMM(0.5)},
			Placement: board.Placement{Position: board.PtMM(x, 0)},
			Layers:    []board.Layer{board.FrontCopper},
			Net:       net,
		}
	}
	a := board.Footprint{Pads: []board.Pad{pad("1", -1, "VCC"), pad("2", 1, "GND")}}
	b := board.Footprint{Pads: []board.Pad{pad("2", 1, "N1"), pad("1", -1, "N2")}}
	c := board.Footprint{Pads: []board.Pad{pad("1", -1, ""), pad("2", 1.27, "")}}

	if Identity(&a) != Identity(&b) {
		t.Error("pad order or nets changed the identity")
	}
	if Identity(&a) == Identity(&c) {
		t.Error("different pad layouts share an identity")
	}
}

func TestIdentityIsSideRelative(t *testing.T) {
	smd := func(side board.Side, layers ...board.Layer) board.Footprint {
		return board.Footprint{Side: side, Pads: []board.Pad{{
			Number: "1",
			Shape:  board.Rect{Size: board.SizeMM(1, 0.6)},
			Layers: layers,
		}}}
	}
	tests := []struct {
		name string
		a, b board.Footprint
		same bool
	}{
		{"flipped part", smd(board.Top, board.FrontCopper), smd(board.Bottom, board.BackCopper), true},
		{"through hole", smd(board.Top, board.FrontCopper, board.BackCopper), smd(board.Bottom, board.BackCopper, board.FrontCopper), true},
		{"pad on far side", smd(board.Top, board.FrontCopper), smd(board.Top, board.BackCopper), false},
		{"smd vs through hole", smd(board.Top, board.FrontCopper), smd(board.Top, board.FrontCopper, board.BackCopper), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Identity(&tt.a) == Identity(&tt.b); got != tt.same {
				t.Errorf("same identity = %v, want %v", got, tt.same)
			}
		})
	}
}

func TestNaturalCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"R2", "R10", -1},
		{"R10", "R2", 1},
		{"R1", "R1", 0},
		{"C1", "R1", -1},
		{"U1", "U1A", -1},
		{"U1A", "U2", -1},
		{"R01", "R1", -1},
		{"R99999999999999999999", "R100000000000000000000", -1},
		{"", "R1", -1},
	}

	for _, tt := range tests {
		if got := NaturalCompare(tt.a, tt.b); got != tt.want {
			t.Errorf("NaturalCompare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

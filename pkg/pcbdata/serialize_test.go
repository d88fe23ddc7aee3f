package pcbdata

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/board"
	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/bom"
)

const testVersion = "v2.9.0"

// testBoard builds a small two-sided board with one of every item kind.
func testBoard(t *testing.T) *board.Board {
	t.Helper()
	b := board.NewBuilder()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}

	must(b.AddLayer(board.AllLayers()...))
	must(b.SetMetadata(board.Metadata{Title: "Demo <board>", Company: "ACME & Co", Revision: "A", Date: "2024-01-01"}))
	must(b.DeclareFields("MPN"))
	must(b.SetOutline(board.Polygon{Points: []board.Point{
		board.PtMM(0, 0), board.PtMM(0, 30), board.PtMM(40, 30), board.PtMM(40, 0),
	}}))

	smd := func(num string, x float64, net string) board.Pad {
		return board.Pad{
			Number:    num,
			Shape:     board.RoundRect{Size: board.SizeMM(1, 0.8), Radius: board.FromMM(0.2)},
			Placement: board.Placement{Position: board.PtMM(x, 0)},
			Layers:    []board.Layer{board.FrontCopper},
			Net:       net,
			Pin1:      num == "1",
		}
	}
	_, err := b.AddFootprint(board.Footprint{
		Reference: "R1",
		Value:     "10k",
		Placement: board.Placement{Position: board.PtMM(10, 10), Rotation: 90},
		Fields:    map[string]string{"MPN": "RC0603"},
		Pads:      []board.Pad{smd("1", -0.8, "VCC"), smd("2", 0.8, "GND")},
	})
	must(err)

	_, err = b.AddFootprint(board.Footprint{
		Reference: "J1",
		Value:     "CONN",
		Side:      board.Bottom,
		Placement: board.Placement{Position: board.PtMM(30, 20)},
		Pads: []board.Pad{{
			Number: "1",
			Shape:  board.Oval{Size: board.SizeMM(1.7, 2)},
			Drill:  board.SizeMM(1, 1.2),
			Layers: []board.Layer{board.FrontCopper, board.BackCopper},
			Net:    "GND",
		}},
	})
	must(err)

	_, err = b.AddFootprint(board.Footprint{Reference: "R2", Value: "10k", DNP: true})
	must(err)

	must(b.AddTrack(board.Track{Start: board.PtMM(1, 1), End: board.PtMM(5, 1), Width: board.FromMM(0.25), Layer: board.FrontCopper, Net: "VCC"}))
	must(b.AddVia(board.Via{Position: board.PtMM(5, 1), Diameter: board.FromMM(0.6), Drill: board.FromMM(0.3), Layers: []board.Layer{board.FrontCopper, board.BackCopper}, Net: "VCC"}))
	must(b.AddZone(board.Zone{Layer: board.BackCopper, Net: "GND", Outline: board.MustParsePath("M 1 1 L 1 9 L 9 9 L 9 1 Z")}))
	must(b.AddDrawing(board.Drawing{Layer: board.FrontSilkscreen, Shape: board.Circle{Radius: board.FromMM(1)}, Width: board.FromMM(0.15), Placement: board.Placement{Position: board.PtMM(20, 20)}}))
	must(b.AddDrawing(board.Drawing{Kind: board.DrawingReferenceText, Layer: board.FrontFab, Shape: board.MustParsePath("M 0 0 L 1 0"), Width: board.FromMM(0.1)}))
	must(b.AddDrawing(board.Drawing{Layer: board.FrontCourtyard, Shape: board.Rect{Size: board.SizeMM(3, 2)}, Width: board.FromMM(0.05)}))
	must(b.AddDrawing(board.Drawing{Layer: board.EdgeCuts, Shape: board.Circle{Radius: board.FromMM(5)}, Width: board.FromMM(0.1), Placement: board.Placement{Position: board.PtMM(42, 15)}}))

	bd, err := b.Finalize()
	must(err)
	return bd
}

func serialize(t *testing.T, bd *board.Board, opts Options) (Document, map[string]any) {
	t.Helper()
	doc, err := Serialize(bd, bom.BuildTables(bd), opts)
	if err != nil {
		t.Fatalf("Serialize() error: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(doc.JSON, &out); err != nil {
		t.Fatalf("pcbdata is not valid JSON: %v", err)
	}
	return doc, out
}

func TestSerializeIsIdempotent(t *testing.T) {
	bd := testBoard(t)
	opts := Options{SchemaVersion: testVersion}

	first, _ := serialize(t, bd, opts)
	second, _ := serialize(t, bd, opts)

	if !bytes.Equal(first.JSON, second.JSON) {
		t.Error("pcbdata differs between runs")
	}
	if !bytes.Equal(first.Config, second.Config) {
		t.Error("config differs between runs")
	}
}

func TestSerializeSchema(t *testing.T) {
	doc, data := serialize(t, testBoard(t), Options{SchemaVersion: testVersion})

	if doc.SchemaVersion != testVersion || data["ibom_version"] != testVersion {
		t.Errorf("version = %q / %v, want %q", doc.SchemaVersion, data["ibom_version"], testVersion)
	}

	for _, key := range []string{"metadata", "layers", "edges_bbox", "edges", "drawings", "tracks", "zones", "nets", "footprints", "bom"} {
		if _, ok := data[key]; !ok {
			t.Errorf("missing top-level key %q", key)
		}
	}

	// HTML-significant characters never appear raw in the payload.
	for _, c := range []string{"<", ">", "&"} {
		if bytes.Contains(doc.JSON, []byte(c)) {
			t.Errorf("payload contains raw %q", c)
		}
	}

	edges := data["edges"].([]any)
	if len(edges) != 2 {
		t.Fatalf("got %d edges, want outline plus one drawing", len(edges))
	}
	outline := edges[0].(map[string]any)
	if outline["type"] != "polygon" || outline["svgpath"] != "M 0 0 L 40 0 L 40 30 L 0 30 Z" {
		t.Errorf("outline edge = %v", outline)
	}

	bbox := data["edges_bbox"].(map[string]any)
	if bbox["minx"] != 0.0 || bbox["maxx"] != 47.0 || bbox["miny"] != 0.0 || bbox["maxy"] != 30.0 {
		t.Errorf("edges_bbox = %v", bbox)
	}

	tracks := data["tracks"].(map[string]any)
	front := tracks["F"].([]any)
	back := tracks["B"].([]any)
	if len(front) != 2 || len(back) != 1 {
		t.Fatalf("tracks F=%d B=%d, want 2 and 1", len(front), len(back))
	}
	via := back[0].(map[string]any)
	if via["drillsize"] != 0.3 || via["width"] != 0.6 {
		t.Errorf("via entry = %v", via)
	}

	drawings := data["drawings"].(map[string]any)
	silk := drawings["silkscreen"].(map[string]any)
	fab := drawings["fabrication"].(map[string]any)
	if n := len(silk["F"].([]any)); n != 1 {
		t.Errorf("front silkscreen has %d drawings, want 1", n)
	}
	text := fab["F"].([]any)[0].(map[string]any)
	if text["ref"] != 1.0 || text["thickness"] != 0.1 {
		t.Errorf("reference text drawing = %v", text)
	}

	zones := data["zones"].(map[string]any)
	if z := zones["B"].([]any); len(z) != 1 || z[0].(map[string]any)["net"] != "GND" {
		t.Errorf("back zones = %v", z)
	}

	nets := data["nets"].([]any)
	if len(nets) != 2 || nets[0] != "VCC" || nets[1] != "GND" {
		t.Errorf("nets = %v, want [VCC GND]", nets)
	}
}

func TestSerializeFootprintsAndBOM(t *testing.T) {
	_, data := serialize(t, testBoard(t), Options{SchemaVersion: testVersion})

	fps := data["footprints"].([]any)
	if len(fps) != 3 {
		t.Fatalf("got %d footprints, want 3", len(fps))
	}

	r1 := fps[0].(map[string]any)
	if r1["ref"] != "R1" || r1["layer"] != "F" {
		t.Errorf("footprint 0 = ref %v layer %v", r1["ref"], r1["layer"])
	}
	pads := r1["pads"].([]any)
	p1 := pads[0].(map[string]any)
	if p1["shape"] != "custom" || p1["type"] != "smd" || p1["pin1"] != 1.0 {
		t.Errorf("R1 pad 1 = %v", p1)
	}
	// Rotated 90 degrees: local -0.8 on X lands 0.8 down on Y.
	pos := p1["pos"].([]any)
	if pos[0] != 10.0 || pos[1] != 10.8 {
		t.Errorf("R1 pad 1 pos = %v, want [10 10.8]", pos)
	}
	if !strings.HasPrefix(p1["svgpath"].(string), "M ") {
		t.Errorf("pad svgpath = %q", p1["svgpath"])
	}

	j1 := fps[1].(map[string]any)
	jp := j1["pads"].([]any)[0].(map[string]any)
	if j1["layer"] != "B" || jp["type"] != "th" || jp["drillshape"] != "oblong" {
		t.Errorf("J1 = layer %v pad %v", j1["layer"], jp)
	}
	if layers := jp["layers"].([]any); len(layers) != 2 || layers[0] != "F" || layers[1] != "B" {
		t.Errorf("J1 pad layers = %v", layers)
	}

	bomData := data["bom"].(map[string]any)
	both := bomData["both"].([]any)
	if len(both) != 2 {
		t.Fatalf("both table has %d rows, want 2", len(both))
	}
	// "10k" sorts before "CONN".
	row := both[0].([]any)
	if len(row) != 1 {
		t.Fatalf("10k row has %d refs, want 1 (R2 is DNP)", len(row))
	}
	ref := row[0].([]any)
	if ref[0] != "R1" || ref[1] != 0.0 {
		t.Errorf("10k row ref = %v, want [R1 0]", ref)
	}
	if skipped := bomData["skipped"].([]any); len(skipped) != 1 || skipped[0] != 2.0 {
		t.Errorf("skipped = %v, want [2]", skipped)
	}
	fields := bomData["fields"].(map[string]any)
	if got := fields["0"].([]any); len(got) != 2 || got[0] != "10k" || got[1] != "RC0603" {
		t.Errorf("fields[0] = %v", got)
	}
}

func TestSerializeConfig(t *testing.T) {
	tests := []struct {
		name     string
		settings *Settings
		want     map[string]any
	}{
		{
			name: "defaults with both sides",
			want: map[string]any{
				"bom_view":        "left-right",
				"checkboxes":      "Sourced,Placed",
				"highlight_pin1":  "none",
				"layer_view":      "FB",
				"redraw_on_drag":  true,
				"show_silkscreen": true,
			},
		},
		{
			name: "explicit layer view and dark mode",
			settings: func() *Settings {
				s := DefaultSettings()
				s.LayerView = "B"
				s.DarkMode = true
				s.BoardRotation = -90
				return &s
			}(),
			want: map[string]any{
				"layer_view":     "B",
				"dark_mode":      true,
				"board_rotation": -90.0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, _ := serialize(t, testBoard(t), Options{SchemaVersion: testVersion, Settings: tt.settings})
			var cfg map[string]any
			if err := json.Unmarshal(doc.Config, &cfg); err != nil {
				t.Fatalf("config is not valid JSON: %v", err)
			}
			for k, v := range tt.want {
				if cfg[k] != v {
					t.Errorf("config[%q] = %v, want %v", k, cfg[k], v)
				}
			}
			fields := cfg["fields"].([]any)
			if len(fields) != 2 || fields[0] != "Value" || fields[1] != "MPN" {
				t.Errorf("config fields = %v", fields)
			}
		})
	}
}

func TestLayerView(t *testing.T) {
	row := []bom.Row{{Value: "x"}}
	tests := []struct {
		tables bom.Tables
		want   string
	}{
		{bom.Tables{Front: row}, "F"},
		{bom.Tables{Back: row}, "B"},
		{bom.Tables{Front: row, Back: row}, "FB"},
		{bom.Tables{}, "FB"},
	}
	for _, tt := range tests {
		if got := layerView(tt.tables); got != tt.want {
			t.Errorf("layerView(F=%d, B=%d) = %q, want %q", len(tt.tables.Front), len(tt.tables.Back), got, tt.want)
		}
	}
}

func TestSerializeErrors(t *testing.T) {
	bd := testBoard(t)
	good := bom.BuildTables(bd)

	badIndex := bom.BuildTables(bd)
	badIndex.Both = append(badIndex.Both, bom.Row{Value: "x", Count: 1, Refs: []bom.Ref{{Reference: "R9", Footprint: 9}}})

	wrongRef := bom.BuildTables(bd)
	wrongRef.Front = []bom.Row{{Value: "x", Count: 1, Refs: []bom.Ref{{Reference: "C1", Footprint: 0}}}}

	badSettings := DefaultSettings()
	badSettings.HighlightPin1 = "some"

	tests := []struct {
		name   string
		tables bom.Tables
		opts   Options
	}{
		{"missing version", good, Options{}},
		{"footprint index out of range", badIndex, Options{SchemaVersion: testVersion}},
		{"reference mismatch", wrongRef, Options{SchemaVersion: testVersion}},
		{"invalid settings", good, Options{SchemaVersion: testVersion, Settings: &badSettings}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Serialize(bd, tt.tables, tt.opts)
			var se *SerializationError
			if !errors.As(err, &se) {
				t.Errorf("Serialize() error = %v, want *SerializationError", err)
			}
		})
	}
}

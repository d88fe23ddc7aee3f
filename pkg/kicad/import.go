// Package kicad imports KiCad 6+ board files (.kicad_pcb) into a
// board.Builder.
package kicad

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/OpenTraceLab/OpenTraceIBOM/internal/logger"
	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/board"
	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/kicad/kicadsexp"
)

// MinSupportedVersion is the oldest file format accepted (KiCad 6.0).
const MinSupportedVersion = 20211014

var (
	ErrNotBoard           = errors.New("not a KiCad PCB file")
	ErrUnsupportedVersion = errors.New("unsupported KiCad file version")
)

// Options controls import.
type Options struct {
	// Fields lists footprint properties copied into BOM fields, in column
	// order. They are declared on the builder.
	Fields []string

	// Metadata overrides the title block field by field; empty fields
	// keep the file's values.
	Metadata board.Metadata

	// DefaultTitle is used when neither the file nor Metadata has a title.
	DefaultTitle string
}

// layerNames maps KiCad layer names, old and new spellings, to board
// layers. Inner copper and user layers have no counterpart and are ignored.
var layerNames = map[string]board.Layer{
	"F.Cu":         board.FrontCopper,
	"B.Cu":         board.BackCopper,
	"F.SilkS":      board.FrontSilkscreen,
	"F.Silkscreen": board.FrontSilkscreen,
	"B.SilkS":      board.BackSilkscreen,
	"B.Silkscreen": board.BackSilkscreen,
	"F.Fab":        board.FrontFab,
	"B.Fab":        board.BackFab,
	"F.CrtYd":      board.FrontCourtyard,
	"F.Courtyard":  board.FrontCourtyard,
	"B.CrtYd":      board.BackCourtyard,
	"B.Courtyard":  board.BackCourtyard,
	"Edge.Cuts":    board.EdgeCuts,
}

type importer struct {
	b      *board.Builder
	opts   Options
	layers map[board.Layer]bool
	nets   map[int]string
	edges  []edge       // Edge.Cuts lines and arcs
	loops  []board.Path // closed Edge.Cuts shapes
	stats  struct{ footprints, pads, tracks, vias, zones, drawings, skipped int }
}

// ImportFile opens path and imports it. Without a title block title the
// file name is used as the board title.
func ImportFile(path string, b *board.Builder, opts Options) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("kicad: open: %w", err)
	}
	defer f.Close()

	if opts.DefaultTitle == "" {
		opts.DefaultTitle = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return Import(f, b, opts)
}

// Import parses a board from r and adds its contents to b. Items the board
// model has no place for (inner layers, text, keep-outs) are skipped. The
// builder is left open; the caller finalizes it.
func Import(r io.Reader, b *board.Builder, opts Options) error {
	exprs, err := kicadsexp.Parse(r)
	if err != nil {
		return fmt.Errorf("kicad: %w", err)
	}
	if len(exprs) == 0 {
		return fmt.Errorf("kicad: %w: empty input", ErrNotBoard)
	}
	root, ok := exprs[0].(*kicadsexp.List)
	if !ok || root.Name() != "kicad_pcb" {
		return fmt.Errorf("kicad: %w: root is not (kicad_pcb ...)", ErrNotBoard)
	}

	im := &importer{
		b:      b,
		opts:   opts,
		layers: make(map[board.Layer]bool),
		nets:   make(map[int]string),
	}
	if err := im.run(root); err != nil {
		return fmt.Errorf("kicad: %w", err)
	}

	logger.L().Info("kicad.imported",
		"footprints", im.stats.footprints,
		"pads", im.stats.pads,
		"tracks", im.stats.tracks,
		"vias", im.stats.vias,
		"zones", im.stats.zones,
		"drawings", im.stats.drawings,
		"skipped", im.stats.skipped)
	return nil
}

func (im *importer) run(root *kicadsexp.List) error {
	if err := checkVersion(root); err != nil {
		return err
	}
	if err := im.parseLayers(root); err != nil {
		return err
	}
	if err := im.b.SetMetadata(im.metadata(root)); err != nil {
		return err
	}
	if len(im.opts.Fields) > 0 {
		if err := im.b.DeclareFields(im.opts.Fields...); err != nil {
			return err
		}
	}
	im.parseNets(root)

	for _, n := range root.FindAll("footprint") {
		if err := im.footprint(n); err != nil {
			return err
		}
	}
	for _, n := range root.FindAll("segment") {
		im.segment(n)
	}
	for _, n := range root.FindAll("arc") {
		im.arcTrack(n)
	}
	for _, n := range root.FindAll("via") {
		im.via(n)
	}
	for _, n := range root.FindAll("zone") {
		im.zone(n)
	}
	for _, it := range root.Items() {
		n, ok := it.(*kicadsexp.List)
		if !ok || !strings.HasPrefix(n.Name(), "gr_") {
			continue
		}
		im.graphic(n, board.Placement{}, true)
	}
	return im.outline()
}

// checkVersion rejects files older than KiCad 6.
func checkVersion(root *kicadsexp.List) error {
	n, ok := root.Find("version")
	if !ok {
		return fmt.Errorf("%w: missing version", ErrUnsupportedVersion)
	}
	v, err := n.Int(1)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedVersion, err)
	}
	if v < MinSupportedVersion {
		return fmt.Errorf("%w: %d (minimum %d / KiCad 6.0)", ErrUnsupportedVersion, v, MinSupportedVersion)
	}
	return nil
}

// parseLayers declares every layer of the (layers ...) table that maps to a
// board layer. Entries look like (0 "F.Cu" signal).
func (im *importer) parseLayers(root *kicadsexp.List) error {
	n, ok := root.Find("layers")
	if !ok {
		return errors.New("missing layers table")
	}
	var found []board.Layer
	for _, it := range n.Items() {
		entry, ok := it.(*kicadsexp.List)
		if !ok {
			continue
		}
		name, err := entry.Str(1)
		if err != nil {
			continue
		}
		if l, ok := layerNames[name]; ok && !im.layers[l] {
			im.layers[l] = true
			found = append(found, l)
		}
	}
	return im.b.AddLayer(found...)
}

func (im *importer) metadata(root *kicadsexp.List) board.Metadata {
	var m board.Metadata
	if tb, ok := root.Find("title_block"); ok {
		m.Title = childString(tb, "title")
		m.Company = childString(tb, "company")
		m.Revision = childString(tb, "rev")
		m.Date = childString(tb, "date")
	}
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&m.Title, im.opts.Metadata.Title)
	override(&m.Company, im.opts.Metadata.Company)
	override(&m.Revision, im.opts.Metadata.Revision)
	override(&m.Date, im.opts.Metadata.Date)
	if m.Title == "" {
		m.Title = im.opts.DefaultTitle
	}
	return m
}

// parseNets reads the top-level (net N "name") table. KiCad 9 files have
// no table and name nets inline.
func (im *importer) parseNets(root *kicadsexp.List) {
	for _, n := range root.FindAll("net") {
		num, err := n.Int(1)
		if err != nil {
			continue
		}
		name, _ := n.Str(2)
		im.nets[num] = name
	}
}

// netName resolves (net N), (net N "name") and (net "name").
func (im *importer) netName(n *kicadsexp.List) string {
	if name, err := n.Str(2); err == nil {
		return name
	}
	if num, err := n.Int(1); err == nil {
		return im.nets[num]
	}
	name, _ := n.Str(1)
	return name
}

// itemNet returns the net of an item, preferring an explicit net_name.
func (im *importer) itemNet(n *kicadsexp.List) string {
	if name := childString(n, "net_name"); name != "" {
		return name
	}
	if net, ok := n.Find("net"); ok {
		return im.netName(net)
	}
	return ""
}

func (im *importer) hasLayer(l board.Layer) bool {
	return im.layers[l]
}

// skip records an item that could not be imported.
func (im *importer) skip(n *kicadsexp.List, reason string, args ...any) {
	im.stats.skipped++
	logger.L().Debug("kicad.skipped",
		"item", n.Name(),
		"line", n.Line,
		"reason", fmt.Sprintf(reason, args...))
}

func childString(n *kicadsexp.List, key string) string {
	c, ok := n.Find(key)
	if !ok {
		return ""
	}
	s, _ := c.Str(1)
	return s
}

// point reads (key X Y) in millimetres.
func point(n *kicadsexp.List, key string) (board.Point, error) {
	c, ok := n.Find(key)
	if !ok {
		return board.Point{}, fmt.Errorf("line %d: (%s) has no %s", n.Line, n.Name(), key)
	}
	x, err := c.Float(1)
	if err != nil {
		return board.Point{}, err
	}
	y, err := c.Float(2)
	if err != nil {
		return board.Point{}, err
	}
	return board.PtMM(x, y), nil
}

// placement reads (at X Y [angle]).
func placement(n *kicadsexp.List) (board.Placement, error) {
	pos, err := point(n, "at")
	if err != nil {
		return board.Placement{}, err
	}
	at, _ := n.Find("at")
	angle, _ := at.Float(3)
	return board.Placement{Position: pos, Rotation: board.Angle(angle)}, nil
}

// length reads (key V) in millimetres.
func length(n *kicadsexp.List, key string) (board.Coord, error) {
	c, ok := n.Find(key)
	if !ok {
		return 0, fmt.Errorf("line %d: (%s) has no %s", n.Line, n.Name(), key)
	}
	v, err := c.Float(1)
	if err != nil {
		return 0, err
	}
	return board.FromMM(v), nil
}

// layerOf reads (layer "name").
func layerOf(n *kicadsexp.List) (board.Layer, bool) {
	l, ok := layerNames[childString(n, "layer")]
	return l, ok
}

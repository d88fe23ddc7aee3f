package board

import (
	"fmt"
	"slices"
)

// Builder assembles a board one item at a time. Every add operation
// validates its input and leaves the builder unchanged on failure.
// A Builder is meant for a single owner; it is not safe for concurrent use.
type Builder struct {
	layers     []Layer
	meta       Metadata
	fields     []string
	outline    Shape
	footprints []Footprint
	tracks     []Track
	vias       []Via
	zones      []Zone
	drawings   []Drawing
	finalized  bool
}

// NewBuilder creates an empty builder with no layers.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) checkOpen(op string) error {
	if b.finalized {
		return invalid(op, KindFinalized, "", "builder already finalized")
	}
	return nil
}

func (b *Builder) hasLayer(l Layer) bool {
	return slices.Contains(b.layers, l)
}

// requireLayer checks that l is part of the board layer set.
func (b *Builder) requireLayer(op string, l Layer) error {
	if !l.Valid() || !b.hasLayer(l) {
		return invalid(op, KindUnknownLayer, l.String(), "layer not added to board")
	}
	return nil
}

// AddLayer adds layers to the board layer set. Adding a layer twice is a no-op.
func (b *Builder) AddLayer(ls ...Layer) error {
	const op = "board.add_layer"
	if err := b.checkOpen(op); err != nil {
		return err
	}
	for _, l := range ls {
		if !l.Valid() {
			return invalid(op, KindUnknownLayer, l.String(), "not a known layer")
		}
	}
	for _, l := range ls {
		if !b.hasLayer(l) {
			b.layers = append(b.layers, l)
		}
	}
	return nil
}

// SetMetadata sets the title block.
func (b *Builder) SetMetadata(m Metadata) error {
	if err := b.checkOpen("board.set_metadata"); err != nil {
		return err
	}
	b.meta = m
	return nil
}

// DeclareFields declares the extra BOM columns, in display order.
func (b *Builder) DeclareFields(names ...string) error {
	const op = "board.declare_fields"
	if err := b.checkOpen(op); err != nil {
		return err
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if n == "" {
			return invalid(op, KindInvalidValue, n, "field name must not be empty")
		}
		if seen[n] {
			return invalid(op, KindInvalidValue, n, "field declared twice")
		}
		seen[n] = true
	}
	for _, fp := range b.footprints {
		for k := range fp.Fields {
			if !seen[k] {
				return invalid(op, KindUnknownField, k, "field used by %s would become undeclared", fp.Reference)
			}
		}
	}
	b.fields = append([]string(nil), names...)
	return nil
}

// SetOutline sets the board outline, a Polygon or closed Path in board
// coordinates.
func (b *Builder) SetOutline(s Shape) error {
	const op = "board.set_outline"
	if err := b.checkOpen(op); err != nil {
		return err
	}
	switch s.(type) {
	case Polygon, Path:
	default:
		return &GeometryError{Op: op, Shape: ShapeName(s), Reason: "outline must be a polygon or path"}
	}
	if err := ValidateShape(s); err != nil {
		return err
	}
	b.outline = CloneShape(s)
	return nil
}

// AddFootprint adds a footprint together with any pads it already carries
// and returns its index. Reference uniqueness is checked by Finalize.
func (b *Builder) AddFootprint(fp Footprint) (int, error) {
	const op = "board.add_footprint"
	if err := b.checkOpen(op); err != nil {
		return -1, err
	}
	if fp.Reference == "" {
		return -1, invalid(op, KindInvalidValue, "", "reference designator is required")
	}
	if fp.Side != Top && fp.Side != Bottom {
		return -1, invalid(op, KindInvalidValue, fp.Reference, "invalid side %d", fp.Side)
	}
	if err := b.requireLayer(op, fp.Layer()); err != nil {
		return -1, err
	}
	for _, k := range sortedKeys(fp.Fields) {
		if !slices.Contains(b.fields, k) {
			return -1, invalid(op, KindUnknownField, k, "field not declared (footprint %s)", fp.Reference)
		}
	}
	for i := range fp.Pads {
		if err := b.validatePad(op, &fp.Pads[i]); err != nil {
			return -1, err
		}
	}
	b.footprints = append(b.footprints, fp.clone())
	return len(b.footprints) - 1, nil
}

// SetReference renames footprint idx, e.g. to resolve a duplicate
// reported by Finalize.
func (b *Builder) SetReference(idx int, ref string) error {
	const op = "board.set_reference"
	if err := b.checkOpen(op); err != nil {
		return err
	}
	if idx < 0 || idx >= len(b.footprints) {
		return invalid(op, KindUnknownFootprint, fmt.Sprint(idx), "no such footprint")
	}
	if ref == "" {
		return invalid(op, KindInvalidValue, "", "reference designator is required")
	}
	b.footprints[idx].Reference = ref
	return nil
}

// AddPad appends a pad to footprint idx.
func (b *Builder) AddPad(idx int, pad Pad) error {
	const op = "board.add_pad"
	if err := b.checkOpen(op); err != nil {
		return err
	}
	if idx < 0 || idx >= len(b.footprints) {
		return invalid(op, KindUnknownFootprint, fmt.Sprint(idx), "no such footprint")
	}
	if err := b.validatePad(op, &pad); err != nil {
		return err
	}
	b.footprints[idx].Pads = append(b.footprints[idx].Pads, pad.clone())
	return nil
}

func (b *Builder) validatePad(op string, pad *Pad) error {
	if err := ValidateShape(pad.Shape); err != nil {
		return err
	}
	if pad.Drill.Width < 0 || pad.Drill.Height < 0 ||
		(pad.HasDrill() && (pad.Drill.Width == 0 || pad.Drill.Height == 0)) {
		return &GeometryError{Op: op, Shape: "drill", Reason: fmt.Sprintf("invalid drill %dx%d nm", pad.Drill.Width, pad.Drill.Height)}
	}
	if len(pad.Layers) == 0 {
		return invalid(op, KindInvalidValue, pad.Number, "pad has no copper layers")
	}
	for _, l := range pad.Layers {
		if err := b.requireLayer(op, l); err != nil {
			return err
		}
		if !l.IsCopper() {
			return invalid(op, KindInvalidValue, l.String(), "pad layer must be copper")
		}
	}
	return nil
}

// AddTrack adds a track segment.
func (b *Builder) AddTrack(t Track) error {
	const op = "board.add_track"
	if err := b.checkOpen(op); err != nil {
		return err
	}
	if err := b.requireLayer(op, t.Layer); err != nil {
		return err
	}
	if !t.Layer.IsCopper() {
		return invalid(op, KindInvalidValue, t.Layer.String(), "track layer must be copper")
	}
	if t.Width <= 0 {
		return &GeometryError{Op: op, Shape: "track", Reason: fmt.Sprintf("width must be positive, got %d nm", t.Width)}
	}
	b.tracks = append(b.tracks, t)
	return nil
}

// AddVia adds a via.
func (b *Builder) AddVia(v Via) error {
	const op = "board.add_via"
	if err := b.checkOpen(op); err != nil {
		return err
	}
	if v.Diameter <= 0 {
		return &GeometryError{Op: op, Shape: "via", Reason: fmt.Sprintf("diameter must be positive, got %d nm", v.Diameter)}
	}
	if v.Drill < 0 || v.Drill >= v.Diameter {
		return &GeometryError{Op: op, Shape: "via", Reason: fmt.Sprintf("drill %d nm must be smaller than diameter %d nm", v.Drill, v.Diameter)}
	}
	if len(v.Layers) == 0 {
		return invalid(op, KindInvalidValue, "", "via has no copper layers")
	}
	for _, l := range v.Layers {
		if err := b.requireLayer(op, l); err != nil {
			return err
		}
		if !l.IsCopper() {
			return invalid(op, KindInvalidValue, l.String(), "via layer must be copper")
		}
	}
	b.vias = append(b.vias, v.clone())
	return nil
}

// AddZone adds a filled copper zone.
func (b *Builder) AddZone(z Zone) error {
	const op = "board.add_zone"
	if err := b.checkOpen(op); err != nil {
		return err
	}
	if err := b.requireLayer(op, z.Layer); err != nil {
		return err
	}
	if !z.Layer.IsCopper() {
		return invalid(op, KindInvalidValue, z.Layer.String(), "zone layer must be copper")
	}
	switch z.Outline.(type) {
	case Polygon, Path:
	default:
		return &GeometryError{Op: op, Shape: ShapeName(z.Outline), Reason: "zone outline must be a polygon or path"}
	}
	if err := ValidateShape(z.Outline); err != nil {
		return err
	}
	z.Outline = CloneShape(z.Outline)
	b.zones = append(b.zones, z)
	return nil
}

// AddDrawing adds a silkscreen, fabrication, courtyard or edge drawing.
func (b *Builder) AddDrawing(d Drawing) error {
	const op = "board.add_drawing"
	if err := b.checkOpen(op); err != nil {
		return err
	}
	if err := b.requireLayer(op, d.Layer); err != nil {
		return err
	}
	if d.Layer.IsCopper() {
		return invalid(op, KindInvalidValue, d.Layer.String(), "drawings cannot be placed on copper layers")
	}
	if d.Kind > DrawingValueText {
		return invalid(op, KindInvalidValue, "", "unknown drawing kind %d", d.Kind)
	}
	if d.Width < 0 {
		return &GeometryError{Op: op, Shape: ShapeName(d.Shape), Reason: "negative stroke width"}
	}
	if err := ValidateShape(d.Shape); err != nil {
		return err
	}
	d.Shape = CloneShape(d.Shape)
	b.drawings = append(b.drawings, d)
	return nil
}

// Finalize runs the global validation pass and returns the immutable
// board. All violations found are reported together. On failure the
// builder stays open so the input can be corrected.
func (b *Builder) Finalize() (*Board, error) {
	const op = "board.finalize"
	if err := b.checkOpen(op); err != nil {
		return nil, err
	}

	var violations []Violation

	seen := make(map[string]int, len(b.footprints))
	for _, fp := range b.footprints {
		seen[fp.Reference]++
		if seen[fp.Reference] == 2 {
			violations = append(violations, Violation{
				Kind:    KindDuplicateReference,
				Subject: fp.Reference,
				Message: "reference designator used more than once",
			})
		}
	}

	if b.outline == nil {
		violations = append(violations, Violation{
			Kind:    KindEmptyOutline,
			Message: "board outline is not set",
		})
	}

	if !slices.ContainsFunc(b.layers, Layer.IsCopper) {
		violations = append(violations, Violation{
			Kind:    KindNoCopper,
			Message: "board has no copper layer",
		})
	}

	if len(violations) > 0 {
		return nil, &ValidationError{Op: op, Violations: violations}
	}

	b.finalized = true
	return b.build(), nil
}

func (b *Builder) build() *Board {
	bd := &Board{
		layers:  append([]Layer(nil), b.layers...),
		meta:    b.meta,
		fields:  append([]string(nil), b.fields...),
		outline: CloneShape(b.outline),
	}
	bd.footprints = make([]Footprint, len(b.footprints))
	for i, fp := range b.footprints {
		bd.footprints[i] = fp.clone()
	}
	bd.tracks = append([]Track(nil), b.tracks...)
	bd.vias = make([]Via, len(b.vias))
	for i, v := range b.vias {
		bd.vias[i] = v.clone()
	}
	bd.zones = make([]Zone, len(b.zones))
	for i, z := range b.zones {
		z.Outline = CloneShape(z.Outline)
		bd.zones[i] = z
	}
	bd.drawings = make([]Drawing, len(b.drawings))
	for i, d := range b.drawings {
		d.Shape = CloneShape(d.Shape)
		bd.drawings[i] = d
	}
	return bd
}

package board

// Board is a finalized, immutable board. It can only be obtained from
// Builder.Finalize. Accessors return copies, so a Board can be shared
// read-only between goroutines.
type Board struct {
	layers     []Layer
	meta       Metadata
	fields     []string
	outline    Shape
	footprints []Footprint
	tracks     []Track
	vias       []Via
	zones      []Zone
	drawings   []Drawing
}

// Layers returns the board layer set in the order the layers were added.
func (b *Board) Layers() []Layer {
	return append([]Layer(nil), b.layers...)
}

// HasLayer reports whether l is part of the board layer set.
func (b *Board) HasLayer(l Layer) bool {
	for _, x := range b.layers {
		if x == l {
			return true
		}
	}
	return false
}

// Metadata returns the title block.
func (b *Board) Metadata() Metadata {
	return b.meta
}

// Fields returns the declared BOM field names in display order.
func (b *Board) Fields() []string {
	return append([]string(nil), b.fields...)
}

// Outline returns the board outline.
func (b *Board) Outline() Shape {
	return CloneShape(b.outline)
}

// NumFootprints returns the number of footprints.
func (b *Board) NumFootprints() int {
	return len(b.footprints)
}

// Footprint returns a copy of footprint i.
func (b *Board) Footprint(i int) Footprint {
	return b.footprints[i].clone()
}

// Footprints returns copies of all footprints in insertion order. The
// index of a footprint in this slice is its identity in the output schema.
func (b *Board) Footprints() []Footprint {
	out := make([]Footprint, len(b.footprints))
	for i, fp := range b.footprints {
		out[i] = fp.clone()
	}
	return out
}

// Tracks returns all track segments.
func (b *Board) Tracks() []Track {
	return append([]Track(nil), b.tracks...)
}

// Vias returns all vias.
func (b *Board) Vias() []Via {
	out := make([]Via, len(b.vias))
	for i, v := range b.vias {
		out[i] = v.clone()
	}
	return out
}

// Zones returns all zones.
func (b *Board) Zones() []Zone {
	out := make([]Zone, len(b.zones))
	for i, z := range b.zones {
		z.Outline = CloneShape(z.Outline)
		out[i] = z
	}
	return out
}

// Drawings returns all drawings.
func (b *Board) Drawings() []Drawing {
	out := make([]Drawing, len(b.drawings))
	for i, d := range b.drawings {
		d.Shape = CloneShape(d.Shape)
		out[i] = d
	}
	return out
}

// Nets returns every non-empty net name referenced by pads, tracks, vias
// and zones, in first-seen order.
func (b *Board) Nets() []string {
	var nets []string
	seen := make(map[string]bool)
	add := func(n string) {
		if n != "" && !seen[n] {
			seen[n] = true
			nets = append(nets, n)
		}
	}
	for _, fp := range b.footprints {
		for _, p := range fp.Pads {
			add(p.Net)
		}
	}
	for _, t := range b.tracks {
		add(t.Net)
	}
	for _, v := range b.vias {
		add(v.Net)
	}
	for _, z := range b.zones {
		add(z.Net)
	}
	return nets
}

// OutlineBounds returns the bounding box of the board outline.
func (b *Board) OutlineBounds() BBox {
	return ShapeBounds(b.outline)
}

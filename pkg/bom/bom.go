// Package bom groups the footprints of a finalized board into bill of
// materials rows.
package bom

import (
	"fmt"
	"hash/fnv"
	"slices"
	"sort"
	"strings"

	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/board"
)

// Ref is one member of a row: a reference designator and the index of its
// footprint on the board.
type Ref struct {
	Reference string
	Footprint int
}

// Row is a group of footprints with equal value, shape identity and
// fields.
type Row struct {
	Value    string
	Identity string
	Fields   map[string]string
	Refs     []Ref // Natural order by reference
	Count    int
}

// References returns the reference designators of the row.
func (r Row) References() []string {
	out := make([]string, len(r.Refs))
	for i, ref := range r.Refs {
		out[i] = ref.Reference
	}
	return out
}

// Filter selects footprints for aggregation.
type Filter func(fp *board.Footprint) bool

// OnSide selects footprints placed on side s.
func OnSide(s board.Side) Filter {
	return func(fp *board.Footprint) bool { return fp.Side == s }
}

// Populated selects footprints that are not marked DNP.
func Populated(fp *board.Footprint) bool {
	return !fp.DNP
}

// All combines filters; a footprint must pass each of them.
func All(filters ...Filter) Filter {
	return func(fp *board.Footprint) bool {
		for _, f := range filters {
			if f != nil && !f(fp) {
				return false
			}
		}
		return true
	}
}

// Aggregate groups the footprints of b accepted by filter (nil accepts
// all) into rows. Virtual footprints are never included. Rows are ordered
// by value, then shape identity, then first reference in natural order.
func Aggregate(b *board.Board, filter Filter) []Row {
	type key struct {
		value, identity, fields string
	}
	groups := make(map[key]*Row)
	var rows []*Row

	for i, fp := range b.Footprints() {
		if fp.Attributes.Has(board.AttrVirtual) {
			continue
		}
		if filter != nil && !filter(&fp) {
			continue
		}
		id := Identity(&fp)
		k := key{fp.Value, id, canonicalFields(fp.Fields)}
		row, ok := groups[k]
		if !ok {
			row = &Row{Value: fp.Value, Identity: id, Fields: copyFields(fp.Fields)}
			groups[k] = row
			rows = append(rows, row)
		}
		row.Refs = append(row.Refs, Ref{Reference: fp.Reference, Footprint: i})
	}

	out := make([]Row, len(rows))
	for i, row := range rows {
		sort.SliceStable(row.Refs, func(a, b int) bool {
			return NaturalLess(row.Refs[a].Reference, row.Refs[b].Reference)
		})
		row.Count = len(row.Refs)
		out[i] = *row
	}

	slices.SortStableFunc(out, func(a, b Row) int {
		if c := strings.Compare(a.Value, b.Value); c != 0 {
			return c
		}
		if c := strings.Compare(a.Identity, b.Identity); c != 0 {
			return c
		}
		return NaturalCompare(a.Refs[0].Reference, b.Refs[0].Reference)
	})
	return out
}

// Tables holds the BOM views the viewer switches between.
type Tables struct {
	Both  []Row
	Front []Row
	Back  []Row

	// Skipped lists the indices of footprints left out of every row
	// (DNP and virtual), in ascending order.
	Skipped []int
}

// BuildTables aggregates b into the front, back and combined tables.
func BuildTables(b *board.Board) Tables {
	t := Tables{
		Both:  Aggregate(b, Populated),
		Front: Aggregate(b, All(Populated, OnSide(board.Top))),
		Back:  Aggregate(b, All(Populated, OnSide(board.Bottom))),
	}
	for i, fp := range b.Footprints() {
		if fp.DNP || fp.Attributes.Has(board.AttrVirtual) {
			t.Skipped = append(t.Skipped, i)
		}
	}
	return t
}

// Identity returns a stable digest of the footprint's pad layout: shape,
// relative placement, drill and layers of every pad, independent of pad
// order. Layers are taken relative to the footprint's side, so the same
// part matches on either side of the board. Net names are ignored.
func Identity(fp *board.Footprint) string {
	descs := make([]string, len(fp.Pads))
	for i, p := range fp.Pads {
		descs[i] = fmt.Sprintf("%s|%T%v|%d,%d@%g|%d,%d|%s|%t",
			p.Number, p.Shape, p.Shape,
			p.Position.X, p.Position.Y, float64(p.Rotation),
			p.Drill.Width, p.Drill.Height, relativeLayers(fp.Side, p.Layers), p.Pin1)
	}
	sort.Strings(descs)

	h := fnv.New64a()
	for _, d := range descs {
		h.Write([]byte(d))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// relativeLayers describes layers as kind plus "near" or "far" from side.
func relativeLayers(side board.Side, layers []board.Layer) string {
	out := make([]string, len(layers))
	for i, l := range layers {
		switch {
		case l.Kind() == board.KindEdge:
			out[i] = l.Kind().String()
		case l.Side() == side:
			out[i] = "near-" + l.Kind().String()
		default:
			out[i] = "far-" + l.Kind().String()
		}
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}

func canonicalFields(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(m[k])
		sb.WriteByte(0)
	}
	return sb.String()
}

func copyFields(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

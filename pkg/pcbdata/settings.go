package pcbdata

import (
	"math"
	"slices"
	"strings"

	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/bom"
)

// Settings are the initial viewer settings written to the config object.
type Settings struct {
	BoardRotation       float64 // Degrees, multiple of 5 in [-180, 180]
	BOMView             string  // "bom-only", "left-right" or "top-bottom"
	Checkboxes          []string
	DarkMode            bool
	HighlightPin1       string // "none", "all" or "selected"
	KicadTextFormatting bool
	LayerView           string // "F", "B", "FB"; empty picks from the BOM
	OffsetBackRotation  bool
	RedrawOnDrag        bool
	ShowFabrication     bool
	ShowPads            bool
	ShowSilkscreen      bool
}

// DefaultSettings returns the viewer defaults.
func DefaultSettings() Settings {
	return Settings{
		BOMView:         "left-right",
		Checkboxes:      []string{"Sourced", "Placed"},
		HighlightPin1:   "none",
		RedrawOnDrag:    true,
		ShowFabrication: true,
		ShowPads:        true,
		ShowSilkscreen:  true,
	}
}

var (
	bomViews   = []string{"bom-only", "left-right", "top-bottom"}
	pin1Modes  = []string{"none", "all", "selected"}
	layerViews = []string{"", "F", "B", "FB"}
)

const (
	maxRotation   = 180.0
	rotationSteps = 5.0
)

func (s Settings) validate() error {
	const op = "pcbdata.settings"
	if !slices.Contains(bomViews, s.BOMView) {
		return serr(op, "invalid bom view %q", s.BOMView)
	}
	if !slices.Contains(pin1Modes, s.HighlightPin1) {
		return serr(op, "invalid pin 1 highlight mode %q", s.HighlightPin1)
	}
	if !slices.Contains(layerViews, s.LayerView) {
		return serr(op, "invalid layer view %q", s.LayerView)
	}
	if s.BoardRotation < -maxRotation || s.BoardRotation > maxRotation {
		return serr(op, "board rotation %v out of range", s.BoardRotation)
	}
	if r := s.BoardRotation / rotationSteps; r != math.Trunc(r) {
		return serr(op, "board rotation %v is not a multiple of %v", s.BoardRotation, rotationSteps)
	}
	for _, c := range s.Checkboxes {
		if c == "" || strings.Contains(c, ",") {
			return serr(op, "invalid checkbox name %q", c)
		}
	}
	return nil
}

// layerView picks the initial side shown: a single side when only that
// side has BOM rows, otherwise both.
func layerView(t bom.Tables) string {
	switch {
	case len(t.Front) > 0 && len(t.Back) == 0:
		return "F"
	case len(t.Front) == 0 && len(t.Back) > 0:
		return "B"
	}
	return "FB"
}

func (s Settings) config(fields []string, t bom.Tables) viewerConfig {
	view := s.LayerView
	if view == "" {
		view = layerView(t)
	}
	return viewerConfig{
		BoardRotation:       s.BoardRotation,
		BOMView:             s.BOMView,
		Checkboxes:          strings.Join(s.Checkboxes, ","),
		DarkMode:            s.DarkMode,
		Fields:              fields,
		HighlightPin1:       s.HighlightPin1,
		KicadTextFormatting: s.KicadTextFormatting,
		LayerView:           view,
		OffsetBackRotation:  s.OffsetBackRotation,
		RedrawOnDrag:        s.RedrawOnDrag,
		ShowFabrication:     s.ShowFabrication,
		ShowPads:            s.ShowPads,
		ShowSilkscreen:      s.ShowSilkscreen,
	}
}

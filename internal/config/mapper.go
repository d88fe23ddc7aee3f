package config

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/board"
	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/ibom"
	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/pcbdata"
)

// Config is the mapped form of a config file.
type Config struct {
	// Metadata overrides the board title block, field by field.
	Metadata board.Metadata
	// Fields are the footprint properties shown as BOM columns.
	Fields []string
	// Render holds the viewer settings and page fragments.
	Render ibom.Options
}

// Default returns the configuration used without a config file.
func Default() Config {
	s := pcbdata.DefaultSettings()
	return Config{Render: ibom.Options{Settings: &s}}
}

var (
	pin1Modes = []string{"none", "all", "selected"}
	bomViews  = []string{"bom-only", "left-right", "top-bottom"}
	sideViews = []string{"F", "B", "FB"}
)

// Map validates yc and applies it over Default. path only labels errors.
func Map(path string, yc YAMLConfig) (Config, error) {
	cfg := Default()
	s := cfg.Render.Settings

	cfg.Metadata = board.Metadata{
		Title:    yc.Title,
		Company:  yc.Company,
		Revision: yc.Revision,
		Date:     yc.Date,
	}

	setBool(&s.DarkMode, yc.DarkMode)
	setBool(&s.ShowSilkscreen, yc.ShowSilkscreen)
	setBool(&s.ShowFabrication, yc.ShowFabrication)
	setBool(&s.ShowPads, yc.ShowPads)
	setBool(&s.RedrawOnDrag, yc.RedrawOnDrag)
	setBool(&s.OffsetBackRotation, yc.OffsetBackRot)

	if yc.Checkboxes != nil {
		for i, c := range yc.Checkboxes {
			if strings.TrimSpace(c) == "" || strings.Contains(c, ",") {
				return Config{}, invalidField(path, fmt.Sprintf("checkboxes[%d]", i), "checkbox name must be non-empty and contain no comma")
			}
		}
		s.Checkboxes = slices.Clone(yc.Checkboxes)
	}

	for i, f := range yc.Fields {
		if strings.TrimSpace(f) == "" {
			return Config{}, invalidField(path, fmt.Sprintf("fields[%d]", i), "field name is required")
		}
		if slices.Contains(yc.Fields[:i], f) {
			return Config{}, invalidField(path, fmt.Sprintf("fields[%d]", i), fmt.Sprintf("duplicate field %q", f))
		}
	}
	cfg.Fields = slices.Clone(yc.Fields)

	if yc.BoardRotation != nil {
		r := *yc.BoardRotation
		if r < -180 || r > 180 || r/5 != math.Trunc(r/5) {
			return Config{}, invalidField(path, "board_rotation", "must be a multiple of 5 between -180 and 180")
		}
		s.BoardRotation = r
	}

	if yc.HighlightPin1 != "" {
		if !slices.Contains(pin1Modes, yc.HighlightPin1) {
			return Config{}, invalidField(path, "highlight_pin1", "must be one of "+strings.Join(pin1Modes, ", "))
		}
		s.HighlightPin1 = yc.HighlightPin1
	}
	if yc.BOMView != "" {
		if !slices.Contains(bomViews, yc.BOMView) {
			return Config{}, invalidField(path, "bom_view", "must be one of "+strings.Join(bomViews, ", "))
		}
		s.BOMView = yc.BOMView
	}
	if yc.LayerView != "" {
		if !slices.Contains(sideViews, yc.LayerView) {
			return Config{}, invalidField(path, "layer_view", "must be one of "+strings.Join(sideViews, ", "))
		}
		s.LayerView = yc.LayerView
	}

	if yc.ToleranceNM != nil {
		if *yc.ToleranceNM < 0 {
			return Config{}, invalidField(path, "tolerance_nm", "must not be negative")
		}
		cfg.Render.Geometry.Tolerance = board.Coord(*yc.ToleranceNM)
	}

	cfg.Render.UserHeader = yc.UserHeader
	cfg.Render.UserFooter = yc.UserFooter
	cfg.Render.UserJS = yc.UserJS
	return cfg, nil
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

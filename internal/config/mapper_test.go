package config

import (
	"strings"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func TestMapRejectsInvalidFields(t *testing.T) {
	tests := []struct {
		name  string
		yc    YAMLConfig
		field string
	}{
		{"rotation not a step", YAMLConfig{BoardRotation: ptr(7.5)}, "board_rotation"},
		{"rotation out of range", YAMLConfig{BoardRotation: ptr(185.0)}, "board_rotation"},
		{"pin1 mode", YAMLConfig{HighlightPin1: "some"}, "highlight_pin1"},
		{"bom view", YAMLConfig{BOMView: "grid"}, "bom_view"},
		{"layer view", YAMLConfig{LayerView: "top"}, "layer_view"},
		{"negative tolerance", YAMLConfig{ToleranceNM: ptr(int64(-1))}, "tolerance_nm"},
		{"empty field", YAMLConfig{Fields: []string{"MPN", " "}}, "fields[1]"},
		{"duplicate field", YAMLConfig{Fields: []string{"MPN", "MPN"}}, "fields[1]"},
		{"checkbox comma", YAMLConfig{Checkboxes: []string{"a,b"}}, "checkboxes[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Map("ibom.yaml", tt.yc)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Fatalf("expected %q in error, got %v", tt.field, err)
			}
		})
	}
}

func TestMapKeepsDefaultsForUnsetKeys(t *testing.T) {
	cfg, err := Map("ibom.yaml", YAMLConfig{ShowPads: ptr(false)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := cfg.Render.Settings
	if s.ShowPads {
		t.Fatal("show_pads: false was not applied")
	}
	if !s.ShowSilkscreen || !s.RedrawOnDrag || s.HighlightPin1 != "none" {
		t.Fatalf("defaults lost: %+v", s)
	}
}

func TestMapEmptyCheckboxesClearsDefaults(t *testing.T) {
	cfg, err := Map("ibom.yaml", YAMLConfig{Checkboxes: []string{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Render.Settings.Checkboxes) != 0 {
		t.Fatalf("checkboxes = %v, want none", cfg.Render.Settings.Checkboxes)
	}
}

func TestDefaultIsIndependent(t *testing.T) {
	a := Default()
	a.Render.Settings.Checkboxes[0] = "changed"
	if b := Default(); b.Render.Settings.Checkboxes[0] == "changed" {
		t.Fatal("Default shares settings between calls")
	}
}

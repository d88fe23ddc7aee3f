package config

// YAMLConfig is the on-disk shape of an ibom.yaml file. Pointer fields
// distinguish "unset" from the zero value.
type YAMLConfig struct {
	Title    string `yaml:"title"`
	Company  string `yaml:"company"`
	Revision string `yaml:"revision"`
	Date     string `yaml:"date"`

	DarkMode        *bool    `yaml:"dark_mode"`
	ShowSilkscreen  *bool    `yaml:"show_silkscreen"`
	ShowFabrication *bool    `yaml:"show_fabrication"`
	ShowPads        *bool    `yaml:"show_pads"`
	RedrawOnDrag    *bool    `yaml:"redraw_on_drag"`
	OffsetBackRot   *bool    `yaml:"offset_back_rotation"`
	Checkboxes      []string `yaml:"checkboxes"`
	Fields          []string `yaml:"fields"`
	BoardRotation   *float64 `yaml:"board_rotation"`
	HighlightPin1   string   `yaml:"highlight_pin1"`
	BOMView         string   `yaml:"bom_view"`
	LayerView       string   `yaml:"layer_view"`

	UserHeader string `yaml:"user_header"`
	UserFooter string `yaml:"user_footer"`
	UserJS     string `yaml:"user_js"`

	ToleranceNM *int64 `yaml:"tolerance_nm"`
}

// Package webassets provides the versioned HTML/CSS/JS bundle the
// interactive BOM page is assembled from.
package webassets

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// Template markers. Payload markers are replaced by the assembler; CSS and
// JS markers are inlined by Load.
const (
	MarkerCSS        = "///CSS///"
	MarkerJS         = "///IBOMJS///"
	MarkerConfig     = "///CONFIG///"
	MarkerPCBData    = "///PCBDATA///"
	MarkerUserJS     = "///USERJS///"
	MarkerUserHeader = "///USERHEADER///"
	MarkerUserFooter = "///USERFOOTER///"
)

// Bundle files read by Load.
const (
	VersionFile  = "version.txt"
	TemplateFile = "ibom.html"
	StyleFile    = "ibom.css"
	ScriptFile   = "ibom.js"
)

// Bundle is a versioned page template with its static assets inlined.
type Bundle interface {
	// Version is the pcbdata schema version the bundle's viewer reads.
	Version() string
	// Template is the HTML page containing the payload markers.
	Template() string
}

// AssetError reports a missing, malformed or version-mismatched bundle.
type AssetError struct {
	Op      string
	Version string
	Err     error
}

func (e *AssetError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Version != "" {
		return fmt.Sprintf("%s: bundle %s: %v", e.Op, e.Version, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AssetError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsAsset reports whether err is (or wraps) an AssetError.
func IsAsset(err error) bool {
	var ae *AssetError
	return errors.As(err, &ae)
}

type bundle struct {
	version  string
	template string
}

func (b *bundle) Version() string  { return b.version }
func (b *bundle) Template() string { return b.template }

// New builds a bundle from an in-memory template. The template must carry
// the pcbdata marker inside a script element.
func New(version, template string) (Bundle, error) {
	const op = "webassets.new"
	version = strings.TrimSpace(version)
	if version == "" {
		return nil, &AssetError{Op: op, Err: errors.New("empty version")}
	}
	if err := validateTemplate(template); err != nil {
		return nil, &AssetError{Op: op, Version: version, Err: err}
	}
	return &bundle{version: version, template: template}, nil
}

// Load reads a bundle directory: version.txt, ibom.html, ibom.css and
// ibom.js. The stylesheet and script are inlined into the template.
func Load(fsys fs.FS) (Bundle, error) {
	const op = "webassets.load"
	files := make(map[string]string, 4)
	for _, name := range []string{VersionFile, TemplateFile, StyleFile, ScriptFile} {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, &AssetError{Op: op, Err: fmt.Errorf("read %s: %w", name, err)}
		}
		files[name] = string(data)
	}

	// Single pass, so asset text that happens to contain a marker is left alone.
	inline := strings.NewReplacer(
		MarkerCSS, files[StyleFile],
		MarkerJS, files[ScriptFile],
	)
	b, err := New(files[VersionFile], inline.Replace(files[TemplateFile]))
	if err != nil {
		var ae *AssetError
		if errors.As(err, &ae) {
			ae.Op = op
		}
		return nil, err
	}
	return b, nil
}

//go:embed web
var embedded embed.FS

var loadEmbedded = sync.OnceValues(func() (Bundle, error) {
	sub, err := fs.Sub(embedded, "web")
	if err != nil {
		return nil, &AssetError{Op: "webassets.embedded", Err: err}
	}
	return Load(sub)
})

// Embedded returns the bundle compiled into the binary. It is loaded once
// and shared.
func Embedded() (Bundle, error) {
	return loadEmbedded()
}

// validateTemplate checks that the pcbdata marker occurs exactly once and
// inside a <script> element, and that the config marker, when present, is
// also inside a script.
func validateTemplate(tmpl string) error {
	if n := strings.Count(tmpl, MarkerPCBData); n != 1 {
		return fmt.Errorf("template has %d %s markers, want 1", n, MarkerPCBData)
	}

	var inScript, dataInScript bool
	z := html.NewTokenizer(strings.NewReader(tmpl))
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return fmt.Errorf("parse template: %w", err)
			}
			if !dataInScript {
				return fmt.Errorf("%s marker is not inside a <script> element", MarkerPCBData)
			}
			return nil
		case html.StartTagToken:
			if name, _ := z.TagName(); string(name) == "script" {
				inScript = true
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == "script" {
				inScript = false
			}
		case html.TextToken:
			text := string(z.Text())
			if strings.Contains(text, MarkerPCBData) {
				dataInScript = inScript
			}
			if strings.Contains(text, MarkerConfig) && !inScript {
				return fmt.Errorf("%s marker is not inside a <script> element", MarkerConfig)
			}
		}
	}
}

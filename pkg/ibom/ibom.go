// Package ibom renders a finalized board into a self-contained interactive
// BOM page.
//
// The pipeline is Aggregate (pkg/bom), Serialize (pkg/pcbdata) and
// Assemble; RenderHTML runs all three. Every step is a pure function of
// its inputs, so one board can be rendered concurrently with different
// bundles or options.
package ibom

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/OpenTraceLab/OpenTraceIBOM/internal/logger"
	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/board"
	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/bom"
	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/geometry"
	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/pcbdata"
	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/webassets"
)

// SetLogger configures the logger used by all ibom packages. By default
// nothing is logged. Pass nil to restore the silent default. Safe for
// concurrent use.
func SetLogger(l *slog.Logger) {
	logger.Set(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return logger.L()
}

var errNoBundle = errors.New("no asset bundle")

// Options controls rendering.
type Options struct {
	// SchemaVersion overrides the version written into the document.
	// Empty uses the bundle version.
	SchemaVersion string

	// Geometry controls curve approximation.
	Geometry geometry.Options

	// OutlineWidth is the stroke width of the board outline; zero uses
	// pcbdata.DefaultOutlineWidth.
	OutlineWidth board.Coord

	// Settings are the initial viewer settings; nil uses the defaults.
	Settings *pcbdata.Settings

	// UserJS is appended as an extra script. UserHeader and UserFooter are
	// HTML fragments placed above and below the page content.
	UserJS     string
	UserHeader string
	UserFooter string
}

// Serialize aggregates the BOM of b and serializes both with the given
// schema version.
func Serialize(b *board.Board, version string, opts Options) (pcbdata.Document, error) {
	return pcbdata.Serialize(b, bom.BuildTables(b), pcbdata.Options{
		SchemaVersion: version,
		Encoder:       geometry.NewEncoder(opts.Geometry),
		OutlineWidth:  opts.OutlineWidth,
		Settings:      opts.Settings,
	})
}

// RenderHTML serializes b and assembles it with bundle.
func RenderHTML(b *board.Board, bundle webassets.Bundle, opts Options) ([]byte, error) {
	if bundle == nil {
		return nil, &webassets.AssetError{Op: "ibom.render", Err: errNoBundle}
	}
	version := opts.SchemaVersion
	if version == "" {
		version = bundle.Version()
	}
	doc, err := Serialize(b, version, opts)
	if err != nil {
		return nil, err
	}
	return Assemble(doc, bundle, opts)
}

// Assemble embeds doc into the bundle template. The bundle version must
// equal the document schema version; on any error no output is produced.
func Assemble(doc pcbdata.Document, bundle webassets.Bundle, opts Options) ([]byte, error) {
	const op = "ibom.assemble"
	if bundle == nil {
		return nil, &webassets.AssetError{Op: op, Err: errNoBundle}
	}
	version := bundle.Version()
	if version != doc.SchemaVersion {
		return nil, &webassets.AssetError{
			Op:      op,
			Version: version,
			Err:     fmt.Errorf("document schema version %q does not match", doc.SchemaVersion),
		}
	}
	tmpl := bundle.Template()
	if !strings.Contains(tmpl, webassets.MarkerPCBData) {
		return nil, &webassets.AssetError{
			Op:      op,
			Version: version,
			Err:     fmt.Errorf("template has no %s marker", webassets.MarkerPCBData),
		}
	}

	config := doc.Config
	if len(config) == 0 {
		config = []byte("{}")
	}

	// One pass over the template: substituted text is never scanned for
	// markers again.
	r := strings.NewReplacer(
		webassets.MarkerConfig, "var config = "+scriptJSON(config),
		webassets.MarkerPCBData, "var pcbdata = "+scriptJSON(doc.JSON),
		webassets.MarkerUserJS, escapeScript(opts.UserJS),
		webassets.MarkerUserHeader, opts.UserHeader,
		webassets.MarkerUserFooter, opts.UserFooter,
	)
	out := []byte(r.Replace(tmpl))

	logger.L().Info("ibom.assembled",
		"version", version,
		"payload_bytes", len(doc.JSON),
		"html_bytes", len(out))
	return out, nil
}

// scriptJSON escapes <, >, & and U+2028/U+2029 so the payload cannot end
// the surrounding script element.
func scriptJSON(raw []byte) string {
	var buf bytes.Buffer
	json.HTMLEscape(&buf, raw)
	return buf.String()
}

var scriptClose = regexp.MustCompile(`(?i)</(script)`)

// escapeScript stops user script text from closing its script element.
func escapeScript(js string) string {
	return scriptClose.ReplaceAllString(js, `<\/$1`)
}

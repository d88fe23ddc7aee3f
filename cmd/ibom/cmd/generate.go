package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/bom"
	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/ibom"
	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/webassets"
)

var (
	outputPath string
	configPath string
	assetsDir  string
	bomFields  []string
	jsonPath   string
)

var generateCmd = &cobra.Command{
	Use:   "generate <board_file>",
	Short: "Generate the interactive BOM page",
	Long: `Import a KiCad board and write a self-contained interactive BOM page.

Without --output the page is written to bom/ibom.html next to the board.
The viewer assets compiled into the binary are used unless --assets names a
directory holding version.txt, ibom.html, ibom.css and ibom.js.

Examples:
  ibom generate board.kicad_pcb
  ibom generate --fields MPN,Manufacturer -o board.html board.kicad_pcb
  ibom generate --json pcbdata.json board.kicad_pcb`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&outputPath, "output", "o", "",
		"output HTML file (default <board dir>/bom/ibom.html)")
	generateCmd.Flags().StringVarP(&configPath, "config", "c", "",
		"YAML config file")
	generateCmd.Flags().StringVar(&assetsDir, "assets", "",
		"viewer asset directory (default: built-in assets)")
	generateCmd.Flags().StringSliceVarP(&bomFields, "fields", "f", nil,
		"footprint properties shown as BOM columns (overrides the config)")
	generateCmd.Flags().StringVar(&jsonPath, "json", "",
		"also write the pcbdata JSON to this file")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	filename := args[0]

	cfg, err := loadConfig(configPath, bomFields)
	if err != nil {
		return err
	}
	bd, err := loadBoard(filename, cfg)
	if err != nil {
		return err
	}

	bundle, err := loadBundle(assetsDir)
	if err != nil {
		return err
	}

	out := outputPath
	if out == "" {
		out = filepath.Join(filepath.Dir(filename), "bom", "ibom.html")
	}

	if jsonPath != "" {
		doc, err := ibom.Serialize(bd, bundle.Version(), cfg.Render)
		if err != nil {
			return err
		}
		if err := writeFile(jsonPath, doc.JSON); err != nil {
			return err
		}
	}

	page, err := ibom.RenderHTML(bd, bundle, cfg.Render)
	if err != nil {
		return err
	}
	if err := writeFile(out, page); err != nil {
		return err
	}

	tables := bom.BuildTables(bd)
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "✓ Wrote %s\n", out)
	if verbose {
		fmt.Fprintf(w, "  Footprints: %d\n", bd.NumFootprints())
		fmt.Fprintf(w, "  BOM rows: %d (front %d, back %d)\n", len(tables.Both), len(tables.Front), len(tables.Back))
		fmt.Fprintf(w, "  Skipped: %d\n", len(tables.Skipped))
		fmt.Fprintf(w, "  Assets: %s\n", bundle.Version())
	}
	return nil
}

func loadBundle(dir string) (webassets.Bundle, error) {
	if dir == "" {
		return webassets.Embedded()
	}
	return webassets.Load(os.DirFS(dir))
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

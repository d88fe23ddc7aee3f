package cmd

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceIBOM/internal/config"
	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/board"
	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/kicad"
)

// loadConfig reads path, or returns the defaults when path is empty.
// Non-empty fields replace the configured BOM fields.
func loadConfig(path string, fields []string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
	}
	if len(fields) > 0 {
		cfg.Fields = fields
	}
	return cfg, nil
}

// loadBoard imports and finalizes a KiCad board.
func loadBoard(path string, cfg config.Config) (*board.Board, error) {
	b := board.NewBuilder()
	err := kicad.ImportFile(path, b, kicad.Options{
		Fields:   cfg.Fields,
		Metadata: cfg.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("error parsing board: %w", err)
	}
	bd, err := b.Finalize()
	if err != nil {
		return nil, fmt.Errorf("invalid board: %w", err)
	}
	return bd, nil
}

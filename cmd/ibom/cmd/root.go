package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceIBOM/internal/logger"
	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/ibom"
)

var (
	// Global flags
	verbose  bool
	jsonLogs bool
)

var rootCmd = &cobra.Command{
	Use:   "ibom",
	Short: "Interactive HTML BOM generator for KiCad boards",
	Long: `ibom turns a KiCad board (.kicad_pcb) into a single self-contained HTML page
with a grouped bill of materials and a board view that highlights the parts
of the selected row.

Examples:
  ibom generate board.kicad_pcb                     # Write bom/ibom.html
  ibom generate -c ibom.yaml -o out.html board.kicad_pcb
  ibom bom --side F board.kicad_pcb                 # Print the front BOM`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ibom.SetLogger(logger.Setup(logger.Config{
			Output: cmd.ErrOrStderr(),
			Debug:  verbose,
			Quiet:  !verbose,
			JSON:   jsonLogs,
		}))
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "write logs as JSON")
}

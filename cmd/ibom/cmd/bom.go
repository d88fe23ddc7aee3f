package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceIBOM/pkg/bom"
)

var (
	bomSide       string
	bomConfigPath string
	bomListFields []string
)

var bomCmd = &cobra.Command{
	Use:   "bom <board_file>",
	Short: "Print the grouped bill of materials",
	Long: `Import a KiCad board and print its BOM rows, grouped by value and fields.
DNP and virtual footprints are listed separately.

Examples:
  ibom bom board.kicad_pcb
  ibom bom --side B --fields MPN board.kicad_pcb`,
	Args: cobra.ExactArgs(1),
	RunE: runBOM,
}

func init() {
	rootCmd.AddCommand(bomCmd)

	bomCmd.Flags().StringVarP(&bomSide, "side", "s", "FB",
		"board side: F, B or FB")
	bomCmd.Flags().StringVarP(&bomConfigPath, "config", "c", "",
		"YAML config file")
	bomCmd.Flags().StringSliceVarP(&bomListFields, "fields", "f", nil,
		"footprint properties shown as columns")
}

func runBOM(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(bomConfigPath, bomListFields)
	if err != nil {
		return err
	}
	bd, err := loadBoard(args[0], cfg)
	if err != nil {
		return err
	}

	tables := bom.BuildTables(bd)
	var rows []bom.Row
	switch strings.ToUpper(bomSide) {
	case "F":
		rows = tables.Front
	case "B":
		rows = tables.Back
	case "FB":
		rows = tables.Both
	default:
		return fmt.Errorf("invalid side %q (want F, B or FB)", bomSide)
	}

	fields := bd.Fields()
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	header := append([]string{"Qty", "Value"}, fields...)
	header = append(header, "References")
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range rows {
		cols := []string{fmt.Sprint(r.Count), r.Value}
		for _, f := range fields {
			cols = append(cols, r.Fields[f])
		}
		cols = append(cols, strings.Join(r.References(), ","))
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(tables.Skipped) > 0 {
		refs := make([]string, len(tables.Skipped))
		for i, idx := range tables.Skipped {
			refs[i] = bd.Footprint(idx).Reference
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nSkipped (DNP or virtual): %s\n", strings.Join(refs, ","))
	}
	return nil
}

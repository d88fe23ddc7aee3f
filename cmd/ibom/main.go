// Command ibom generates interactive HTML BOM pages from KiCad boards.
package main

import "github.com/OpenTraceLab/OpenTraceIBOM/cmd/ibom/cmd"

func main() {
	cmd.Execute()
}

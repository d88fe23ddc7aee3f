package svgpath

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// PathLexer tokenizes SVG path data ("M 0 0 H 10 V 5 Z").
// Commas are separators, same as whitespace.
var PathLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Command", Pattern: `[MmLlHhVvCcSsQqTtZzAa]`},
	{Name: "Number", Pattern: `[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`},
	{Name: "Whitespace", Pattern: `[\s,]+`},
})

// pathData is the raw grammar: a flat list of command letters each followed
// by its (possibly repeated) numeric arguments.
type pathData struct {
	Commands []*rawCommand `parser:"@@*"`
}

type rawCommand struct {
	Pos  lexer.Position
	Op   string    `parser:"@Command"`
	Args []float64 `parser:"@Number*"`
}

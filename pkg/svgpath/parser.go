// Package svgpath parses SVG path data into absolute drawing commands.
//
// Relative commands are resolved against the current point, H/V become line
// segments and the S/T shorthands are expanded into explicit control points,
// so consumers only ever see MoveTo, LineTo, QuadTo, CubicTo and Close.
// Elliptical arcs (A/a) are rejected.
package svgpath

import (
	"fmt"
	"strings"
	"sync"

	"github.com/alecthomas/participle/v2"
)

// Op identifies an absolute path command.
type Op byte

const (
	MoveTo  Op = 'M'
	LineTo  Op = 'L'
	QuadTo  Op = 'Q'
	CubicTo Op = 'C'
	Close   Op = 'Z'
)

func (o Op) String() string { return string(o) }

// Point is a coordinate pair in the units of the path data.
type Point struct {
	X, Y float64
}

// Command is one absolute path command. Points holds the control points
// followed by the end point: 1 for MoveTo/LineTo, 2 for QuadTo, 3 for
// CubicTo, none for Close.
type Command struct {
	Op     Op
	Points []Point
}

// Parser handles parsing of SVG path data
type Parser struct {
	parser *participle.Parser[pathData]
}

// NewParser creates a new path data parser
func NewParser() (*Parser, error) {
	parser, err := participle.Build[pathData](
		participle.Lexer(PathLexer),
		participle.Elide("Whitespace"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build parser: %w", err)
	}
	return &Parser{parser: parser}, nil
}

var defaultParser = sync.OnceValues(NewParser)

// Parse parses path data with a shared parser instance.
func Parse(d string) ([]Command, error) {
	p, err := defaultParser()
	if err != nil {
		return nil, err
	}
	return p.Parse(d)
}

// Parse parses path data into absolute commands.
func (p *Parser) Parse(d string) ([]Command, error) {
	if strings.TrimSpace(d) == "" {
		return nil, fmt.Errorf("empty path data")
	}
	raw, err := p.parser.ParseString("", d)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return resolve(raw.Commands)
}

// arity is the number of numeric arguments consumed by one repetition of a command.
var arity = map[byte]int{
	'M': 2, 'L': 2, 'T': 2,
	'H': 1, 'V': 1,
	'S': 4, 'Q': 4,
	'C': 6,
	'Z': 0,
}

func resolve(raw []*rawCommand) ([]Command, error) {
	var (
		out       []Command
		cur       Point
		start     Point
		lastCtrl  Point
		lastUpper byte
	)

	for i, rc := range raw {
		letter := rc.Op[0]
		upper := letter &^ 0x20
		relative := letter != upper

		if i == 0 && upper != 'M' {
			return nil, fmt.Errorf("%s: path must start with a moveto, got %q", rc.Pos, rc.Op)
		}
		if upper == 'A' {
			return nil, fmt.Errorf("%s: elliptical arc commands are not supported", rc.Pos)
		}

		n := arity[upper]
		if n == 0 {
			if len(rc.Args) != 0 {
				return nil, fmt.Errorf("%s: closepath takes no arguments", rc.Pos)
			}
			out = append(out, Command{Op: Close})
			cur = start
			lastUpper = 'Z'
			continue
		}
		if len(rc.Args) == 0 || len(rc.Args)%n != 0 {
			return nil, fmt.Errorf("%s: command %q expects a multiple of %d arguments, got %d",
				rc.Pos, rc.Op, n, len(rc.Args))
		}

		abs := func(x, y float64) Point {
			if relative {
				return Point{X: cur.X + x, Y: cur.Y + y}
			}
			return Point{X: x, Y: y}
		}

		for j := 0; j < len(rc.Args); j += n {
			a := rc.Args[j : j+n]
			switch upper {
			case 'M':
				p := abs(a[0], a[1])
				if j == 0 {
					out = append(out, Command{Op: MoveTo, Points: []Point{p}})
					start = p
				} else {
					// Extra coordinate pairs after a moveto are implicit linetos.
					out = append(out, Command{Op: LineTo, Points: []Point{p}})
				}
				cur = p
			case 'L':
				p := abs(a[0], a[1])
				out = append(out, Command{Op: LineTo, Points: []Point{p}})
				cur = p
			case 'H':
				p := Point{X: a[0], Y: cur.Y}
				if relative {
					p.X += cur.X
				}
				out = append(out, Command{Op: LineTo, Points: []Point{p}})
				cur = p
			case 'V':
				p := Point{X: cur.X, Y: a[0]}
				if relative {
					p.Y += cur.Y
				}
				out = append(out, Command{Op: LineTo, Points: []Point{p}})
				cur = p
			case 'C':
				c1, c2, p := abs(a[0], a[1]), abs(a[2], a[3]), abs(a[4], a[5])
				out = append(out, Command{Op: CubicTo, Points: []Point{c1, c2, p}})
				lastCtrl, cur = c2, p
			case 'S':
				c1 := cur
				if lastUpper == 'C' || lastUpper == 'S' {
					c1 = reflect(lastCtrl, cur)
				}
				c2, p := abs(a[0], a[1]), abs(a[2], a[3])
				out = append(out, Command{Op: CubicTo, Points: []Point{c1, c2, p}})
				lastCtrl, cur = c2, p
			case 'Q':
				c, p := abs(a[0], a[1]), abs(a[2], a[3])
				out = append(out, Command{Op: QuadTo, Points: []Point{c, p}})
				lastCtrl, cur = c, p
			case 'T':
				c := cur
				if lastUpper == 'Q' || lastUpper == 'T' {
					c = reflect(lastCtrl, cur)
				}
				p := abs(a[0], a[1])
				out = append(out, Command{Op: QuadTo, Points: []Point{c, p}})
				lastCtrl, cur = c, p
			}
			lastUpper = upper
		}
	}

	if len(out) < 2 {
		return nil, fmt.Errorf("path data has no drawing commands")
	}
	return out, nil
}

// reflect mirrors a control point through the current point.
func reflect(ctrl, about Point) Point {
	return Point{X: 2*about.X - ctrl.X, Y: 2*about.Y - ctrl.Y}
}

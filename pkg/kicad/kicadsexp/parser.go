package kicadsexp

import "io"

// Parser builds expression trees from a token stream.
type Parser struct {
	lexer *Lexer
}

// NewParser creates a new parser from an io.Reader
func NewParser(r io.Reader) *Parser {
	return &Parser{lexer: NewLexer(r)}
}

// ParseAll parses all top-level S-expressions from the input
func (p *Parser) ParseAll() ([]Sexp, error) {
	var out []Sexp
	for {
		tok, err := p.lexer.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Type == TokenEOF {
			return out, nil
		}
		expr, err := p.parseExpr(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, expr)
	}
}

func (p *Parser) parseExpr(tok Token) (Sexp, error) {
	switch tok.Type {
	case TokenLeftParen:
		return p.parseList(tok.Line)
	case TokenSymbol, TokenString:
		return Symbol(tok.Value), nil
	}
	return nil, &SyntaxError{Line: tok.Line, Msg: "unexpected " + tok.Type.String()}
}

// parseList reads items up to the matching ')'; the '(' is consumed.
func (p *Parser) parseList(line int) (*List, error) {
	list := &List{Line: line}
	for {
		tok, err := p.lexer.NextToken()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case TokenRightParen:
			return list, nil
		case TokenEOF:
			return nil, &SyntaxError{Line: line, Msg: "unclosed '('"}
		}
		item, err := p.parseExpr(tok)
		if err != nil {
			return nil, err
		}
		list.items = append(list.items, item)
	}
}

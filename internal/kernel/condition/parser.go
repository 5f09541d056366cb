package condition

import (
	"strings"

	"github.com/onyxdb/engine/internal/kernel/errs"
	"github.com/onyxdb/engine/internal/kernel/types"
)

// Condition is a parsed, cacheable expression. Commands parse a
// condition string once on construction and reuse the Condition for
// both execute and undo, per the design note that undo must not
// re-parse.
type Condition struct {
	root Node
}

// Matches evaluates the condition against a row projection, collapsing
// Unknown to false per the top-level three-valued-logic rule.
func (c *Condition) Matches(row map[string]types.Value) (bool, error) {
	if c == nil || c.root == nil {
		return true, nil
	}
	t, err := c.root.eval(row)
	if err != nil {
		return false, err
	}
	return t == True, nil
}

type parser struct {
	toks []token
	pos  int
}

// Parse compiles a condition string into a Condition. An empty or
// whitespace-only string yields a Condition that matches every row.
func Parse(src string) (*Condition, error) {
	if strings.TrimSpace(src) == "" {
		return &Condition{}, nil
	}
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, errs.New(errs.ParseError, "unexpected trailing token %q in condition", p.peek().text)
	}
	return &Condition{root: node}, nil
}

func (p *parser) peek() token  { return p.toks[p.pos] }
func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &orNode{left, right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &andNode{left, right}
	}
	return left, nil
}

func (p *parser) parseNot() (Node, error) {
	if p.peek().kind == tokNot {
		p.advance()
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &notNode{inner}, nil
	}
	return p.parseAtom()
}

func (p *parser) parseAtom() (Node, error) {
	if p.peek().kind == tokLParen {
		p.advance()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, errs.New(errs.ParseError, "expected ')' in condition")
		}
		p.advance()
		return inner, nil
	}

	if p.peek().kind != tokIdent {
		return nil, errs.New(errs.ParseError, "expected column name, got %q", p.peek().text)
	}
	column := p.advance().text

	if p.peek().kind == tokOp && p.peek().text == "IS" {
		p.advance()
		negate := false
		if p.peek().kind == tokNot {
			negate = true
			p.advance()
		}
		if p.peek().kind != tokIdent || !isNullKeyword(p.peek().text) {
			return nil, errs.New(errs.ParseError, "expected NULL after IS[ NOT] in condition")
		}
		p.advance()
		return &isNullNode{column: column, negate: negate}, nil
	}

	if p.peek().kind != tokOp {
		return nil, errs.New(errs.ParseError, "expected comparison operator, got %q", p.peek().text)
	}
	op := p.advance().text

	rhs := p.peek()
	var right operand
	switch rhs.kind {
	case tokIdent:
		right = operand{isColumn: true, column: p.advance().text}
	case tokLiteral:
		lit, err := types.ParseLiteral(p.advance().text)
		if err != nil {
			return nil, err
		}
		right = operand{literal: lit}
	default:
		return nil, errs.New(errs.ParseError, "expected literal or column after operator %q", op)
	}
	return &compareNode{
		left:  operand{isColumn: true, column: column},
		right: right,
		op:    op,
	}, nil
}

func isNullKeyword(s string) bool {
	return len(s) == 4 && (s == "NULL" || s == "null" || s == "Null")
}

func errColumnNotFound(col string) error {
	return errs.New(errs.NotFound, "column %q not found in row projection", col)
}

func errUnknownOperator(op string) error {
	return errs.New(errs.ParseError, "unknown operator %s", op)
}

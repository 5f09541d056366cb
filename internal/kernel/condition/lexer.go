// Package condition parses and evaluates row-filter expressions. It is
// grounded on the teacher framework's query builder (database.go /
// internal/database/query_builder.go), which accumulates Where clauses
// with the same operator set (=, <>, <, <=, >, >=, LIKE, IS [NOT] NULL)
// and the same AND/OR/NOT boolean structure — here parsed from a single
// string instead of built up via chained method calls.
package condition

import (
	"strings"
	"unicode"

	"github.com/onyxdb/engine/internal/kernel/errs"
)

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokLiteral
	tokOp
	tokLParen
	tokRParen
	tokAnd
	tokOr
	tokNot
	tokEOF
)

type token struct {
	kind tokenKind
	text string
}

var keywordOps = map[string]tokenKind{
	"AND":  tokAnd,
	"OR":   tokOr,
	"NOT":  tokNot,
	"LIKE": tokOp,
	"IS":   tokOp,
}

// lex tokenizes a condition string. Multi-word keywords are not produced
// here — the IS NOT compound is handled at the parser level
// by peeking at adjacent tokens, matching the grammar in SPEC_FULL.md §4.5.
func lex(src string) ([]token, error) {
	var toks []token
	runes := []rune(src)
	i := 0
	n := len(runes)
	for i < n {
		c := runes[i]
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case c == '\'' || c == '"':
			quote := c
			j := i + 1
			for j < n && runes[j] != quote {
				j++
			}
			if j >= n {
				return nil, errs.New(errs.ParseError, "unterminated string literal in condition")
			}
			toks = append(toks, token{tokLiteral, string(runes[i : j+1])})
			i = j + 1
		case c == '=' :
			toks = append(toks, token{tokOp, "="})
			i++
		case c == '<':
			if i+1 < n && runes[i+1] == '>' {
				toks = append(toks, token{tokOp, "<>"})
				i += 2
			} else if i+1 < n && runes[i+1] == '=' {
				toks = append(toks, token{tokOp, "<="})
				i += 2
			} else {
				toks = append(toks, token{tokOp, "<"})
				i++
			}
		case c == '>':
			if i+1 < n && runes[i+1] == '=' {
				toks = append(toks, token{tokOp, ">="})
				i += 2
			} else {
				toks = append(toks, token{tokOp, ">"})
				i++
			}
		case isIdentStart(c):
			j := i
			for j < n && isIdentPart(runes[j]) {
				j++
			}
			word := string(runes[i:j])
			upper := strings.ToUpper(word)
			if kind, ok := keywordOps[upper]; ok {
				toks = append(toks, token{kind, upper})
			} else {
				toks = append(toks, token{tokIdent, word})
			}
			i = j
		case unicode.IsDigit(c) || c == '-':
			j := i + 1
			for j < n && (unicode.IsDigit(runes[j]) || runes[j] == '.') {
				j++
			}
			toks = append(toks, token{tokLiteral, string(runes[i:j])})
			i = j
		default:
			return nil, errs.New(errs.ParseError, "unexpected character %q in condition", c)
		}
	}
	toks = append(toks, token{tokEOF, ""})
	return toks, nil
}

func isIdentStart(c rune) bool {
	return unicode.IsLetter(c) || c == '_'
}

func isIdentPart(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' || c == '.'
}

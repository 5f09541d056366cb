// Package ddl parses column-definition strings used by CREATE and ALTER,
// per the grammar in SPEC_FULL.md §4.4:
//
//	IDENT IDENT (CONSTRAINT_SPEC)*
//	CONSTRAINT_SPEC := NOT NULL | PRIMARY KEY | UNIQUE | CHECK(<expr>)
//	                 | FOREIGN KEY REFERENCES <tbl> | DEFAULT <literal>
//
// Grounded on the teacher framework's column builder
// (internal/database/migrations/column_builder.go), which accumulates
// the same constraint set through chained method calls; here the same
// vocabulary is recovered from a single definition string instead.
package ddl

import (
	"strings"
	"unicode"

	"github.com/onyxdb/engine/internal/kernel/condition"
	"github.com/onyxdb/engine/internal/kernel/constraint"
	"github.com/onyxdb/engine/internal/kernel/database"
	"github.com/onyxdb/engine/internal/kernel/errs"
	"github.com/onyxdb/engine/internal/kernel/types"
)

// tokenize splits on whitespace while keeping parenthesized and quoted
// spans atomic, so "CHECK(age >= 18)" survives as one token.
func tokenize(def string) []string {
	var toks []string
	var cur strings.Builder
	depth := 0
	inQuote := rune(0)
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range def {
		switch {
		case inQuote != 0:
			cur.WriteRune(r)
			if r == inQuote {
				inQuote = 0
			}
		case r == '\'' || r == '"':
			inQuote = r
			cur.WriteRune(r)
		case r == '(':
			depth++
			cur.WriteRune(r)
		case r == ')':
			depth--
			cur.WriteRune(r)
		case unicode.IsSpace(r) && depth == 0:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

// ParseColumnDef parses one column-definition string into a ColumnDef.
func ParseColumnDef(def string) (database.ColumnDef, error) {
	toks := tokenize(def)
	if len(toks) < 2 {
		return database.ColumnDef{}, errs.New(errs.ParseError, "malformed column definition %q", def)
	}
	name := toks[0]
	dt, ok := types.ParseDataType(toks[1])
	if !ok {
		return database.ColumnDef{}, errs.New(errs.ParseError, "unknown data type %q in %q", toks[1], def)
	}
	cd := database.ColumnDef{Name: name, Type: dt}

	i := 2
	for i < len(toks) {
		upper := strings.ToUpper(toks[i])
		switch {
		case upper == "NOT" && i+1 < len(toks) && strings.ToUpper(toks[i+1]) == "NULL":
			cd.Constraints = append(cd.Constraints, &constraint.Constraint{
				Name: constraint.DefaultName(name, constraint.NotNull), Kind: constraint.NotNull,
			})
			i += 2
		case upper == "PRIMARY" && i+1 < len(toks) && strings.ToUpper(toks[i+1]) == "KEY":
			cd.Constraints = append(cd.Constraints, &constraint.Constraint{
				Name: constraint.DefaultName(name, constraint.PrimaryKey), Kind: constraint.PrimaryKey,
			})
			i += 2
		case upper == "UNIQUE":
			cd.Constraints = append(cd.Constraints, &constraint.Constraint{
				Name: constraint.DefaultName(name, constraint.Unique), Kind: constraint.Unique,
			})
			i++
		case strings.HasPrefix(upper, "CHECK(") && strings.HasSuffix(toks[i], ")"):
			expr := toks[i][len("CHECK(") : len(toks[i])-1]
			eval, err := CompileCheck(expr, name)
			if err != nil {
				return database.ColumnDef{}, err
			}
			cd.Constraints = append(cd.Constraints, &constraint.Constraint{
				Name: constraint.DefaultName(name, constraint.Check), Kind: constraint.Check,
				Expr: expr, Check: eval,
			})
			i++
		case upper == "FOREIGN" && i+1 < len(toks) && strings.ToUpper(toks[i+1]) == "KEY":
			if i+3 >= len(toks) || strings.ToUpper(toks[i+2]) != "REFERENCES" {
				return database.ColumnDef{}, errs.New(errs.ParseError, "malformed FOREIGN KEY clause in %q", def)
			}
			parent := toks[i+3]
			cd.Constraints = append(cd.Constraints, &constraint.Constraint{
				Name: constraint.DefaultName(name, constraint.ForeignKey), Kind: constraint.ForeignKey,
				Parent: parent,
			})
			i += 4
		case upper == "DEFAULT":
			if i+1 >= len(toks) {
				return database.ColumnDef{}, errs.New(errs.ParseError, "DEFAULT requires a literal in %q", def)
			}
			lit, err := types.ParseLiteral(toks[i+1])
			if err != nil {
				return database.ColumnDef{}, err
			}
			cd.Default = &lit
			i += 2
		default:
			return database.ColumnDef{}, errs.New(errs.ParseError, "unrecognized constraint token %q in %q", toks[i], def)
		}
	}
	return cd, nil
}

// ParseColumnDefs parses a list of column-definition strings, as used by
// CREATE TABLE and the "new columns" phase of ALTER.
func ParseColumnDefs(defs []string) ([]database.ColumnDef, error) {
	out := make([]database.ColumnDef, 0, len(defs))
	for _, d := range defs {
		cd, err := ParseColumnDef(d)
		if err != nil {
			return nil, err
		}
		out = append(out, cd)
	}
	return out, nil
}

// CompileCheck compiles a CHECK(expr) body into a constraint.Evaluator
// that evaluates the condition grammar against a single-column row view
// named after the owning column, per SPEC_FULL.md §4.2 rule 5.
func CompileCheck(expr, columnName string) (constraint.Evaluator, error) {
	cond, err := condition.Parse(expr)
	if err != nil {
		return nil, err
	}
	return func(v types.Value) (bool, error) {
		return cond.Matches(map[string]types.Value{columnName: v})
	}, nil
}

package condition

import "github.com/onyxdb/engine/internal/kernel/types"

// Tri is Kleene three-valued logic: True, False, or Unknown (the result
// of a comparison involving Null, apart from IS [NOT] NULL and = / <>
// between two Nulls).
type Tri int

const (
	False Tri = iota
	True
	Unknown
)

// Node is a parsed condition expression.
type Node interface {
	eval(row map[string]types.Value) (Tri, error)
}

type orNode struct{ left, right Node }
type andNode struct{ left, right Node }
type notNode struct{ inner Node }

// operand is either a column reference or a literal value on either
// side of a comparison.
type operand struct {
	isColumn bool
	column   string
	literal  types.Value
}

type compareNode struct {
	left, right operand
	op          string // =, <>, <, <=, >, >=, LIKE
}

type isNullNode struct {
	column string
	negate bool
}

func resolve(row map[string]types.Value, op operand) (types.Value, bool) {
	if !op.isColumn {
		return op.literal, true
	}
	v, ok := row[op.column]
	return v, ok
}

func (n *orNode) eval(row map[string]types.Value) (Tri, error) {
	l, err := n.left.eval(row)
	if err != nil {
		return Unknown, err
	}
	if l == True {
		return True, nil
	}
	r, err := n.right.eval(row)
	if err != nil {
		return Unknown, err
	}
	if r == True {
		return True, nil
	}
	if l == Unknown || r == Unknown {
		return Unknown, nil
	}
	return False, nil
}

func (n *andNode) eval(row map[string]types.Value) (Tri, error) {
	l, err := n.left.eval(row)
	if err != nil {
		return Unknown, err
	}
	if l == False {
		return False, nil
	}
	r, err := n.right.eval(row)
	if err != nil {
		return Unknown, err
	}
	if r == False {
		return False, nil
	}
	if l == Unknown || r == Unknown {
		return Unknown, nil
	}
	return True, nil
}

func (n *notNode) eval(row map[string]types.Value) (Tri, error) {
	v, err := n.inner.eval(row)
	if err != nil {
		return Unknown, err
	}
	switch v {
	case True:
		return False, nil
	case False:
		return True, nil
	default:
		return Unknown, nil
	}
}

func (n *isNullNode) eval(row map[string]types.Value) (Tri, error) {
	v, ok := row[n.column]
	if !ok {
		return Unknown, errColumnNotFound(n.column)
	}
	isNull := v.IsNull()
	if n.negate {
		isNull = !isNull
	}
	if isNull {
		return True, nil
	}
	return False, nil
}

func (n *compareNode) eval(row map[string]types.Value) (Tri, error) {
	l, ok := resolve(row, n.left)
	if !ok {
		return Unknown, errColumnNotFound(n.left.column)
	}
	r, ok := resolve(row, n.right)
	if !ok {
		return Unknown, errColumnNotFound(n.right.column)
	}
	// Any comparison against Null yields unknown, treated as false at the
	// top level per the design's three-valued logic rule. The exception
	// is = / <> between two Nulls, which follow the set-membership rule:
	// Null = Null is true and Null <> Null is false.
	if l.IsNull() || r.IsNull() {
		if (n.op == "=" || n.op == "<>") && l.IsNull() && r.IsNull() {
			return boolTri(n.op == "="), nil
		}
		return Unknown, nil
	}
	switch n.op {
	case "=":
		return boolTri(types.Equal(l, r)), nil
	case "<>":
		return boolTri(!types.Equal(l, r)), nil
	case "<":
		lt, ok := types.Less(l, r)
		if !ok {
			return Unknown, nil
		}
		return boolTri(lt), nil
	case "<=":
		lt, ok := types.Less(l, r)
		eq := types.Equal(l, r)
		if !ok {
			return Unknown, nil
		}
		return boolTri(lt || eq), nil
	case ">":
		lt, ok := types.Less(l, r)
		eq := types.Equal(l, r)
		if !ok {
			return Unknown, nil
		}
		return boolTri(!lt && !eq), nil
	case ">=":
		lt, ok := types.Less(l, r)
		if !ok {
			return Unknown, nil
		}
		return boolTri(!lt), nil
	case "LIKE":
		if l.Tag() != types.TagString || r.Tag() != types.TagString {
			return Unknown, nil
		}
		return boolTri(matchLike(l.Str(), r.Str())), nil
	default:
		return Unknown, errUnknownOperator(n.op)
	}
}

func boolTri(b bool) Tri {
	if b {
		return True
	}
	return False
}

// matchLike implements SQL LIKE with % (any run of characters) and _
// (any single character) wildcards.
func matchLike(s, pattern string) bool {
	return likeMatch([]rune(s), []rune(pattern))
}

func likeMatch(s, p []rune) bool {
	if len(p) == 0 {
		return len(s) == 0
	}
	switch p[0] {
	case '%':
		for i := 0; i <= len(s); i++ {
			if likeMatch(s[i:], p[1:]) {
				return true
			}
		}
		return false
	case '_':
		if len(s) == 0 {
			return false
		}
		return likeMatch(s[1:], p[1:])
	default:
		if len(s) == 0 || s[0] != p[0] {
			return false
		}
		return likeMatch(s[1:], p[1:])
	}
}

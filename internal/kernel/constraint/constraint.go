// Package constraint implements the column-attached predicates of the
// database kernel: NOT NULL, UNIQUE, PRIMARY KEY, FOREIGN KEY, and CHECK.
// It is grounded on the teacher framework's validation rule set
// (internal/validation/rules.go), which attaches named, ordered rules to
// a field and evaluates them in sequence against a candidate value.
package constraint

import (
	"fmt"
	"sort"

	"github.com/onyxdb/engine/internal/kernel/errs"
	"github.com/onyxdb/engine/internal/kernel/types"
)

// Kind enumerates the constraint kinds a column may carry.
type Kind int

const (
	NotNull Kind = iota
	Unique
	PrimaryKey
	ForeignKey
	Check
)

func (k Kind) String() string {
	switch k {
	case NotNull:
		return "not_null"
	case Unique:
		return "unique"
	case PrimaryKey:
		return "primary_key"
	case ForeignKey:
		return "foreign_key"
	case Check:
		return "check"
	default:
		return "unknown"
	}
}

// Evaluator is the single-value condition evaluator a CHECK constraint
// delegates to; it is implemented by the condition package but declared
// here to avoid a dependency cycle (constraint is a leaf package beneath
// condition in the build graph — condition depends on constraint's
// sibling packages, not vice versa).
type Evaluator func(value types.Value) (bool, error)

// ColumnLookup resolves the body of a column in another table, used by
// FOREIGN_KEY to test parent-key membership.
type ColumnLookup func(table, column string) ([]types.Value, error)

// Constraint is a named predicate attached to a column.
type Constraint struct {
	Name   string
	Kind   Kind
	Parent string    // FOREIGN_KEY parent table name
	Expr   string    // CHECK source expression, kept for re-serialization
	Check  Evaluator // CHECK predicate
}

// DefaultName builds the conventional `<column>_<kind>_constraint` name.
func DefaultName(column string, kind Kind) string {
	return fmt.Sprintf("%s_%s_constraint", column, kind)
}

// Set is an insertion-ordered collection of constraints keyed by name,
// mirroring the Column invariant in the design: constraints are an
// ordered set keyed by name.
type Set struct {
	order []string
	byName map[string]*Constraint
}

// NewSet builds an empty constraint set.
func NewSet() *Set {
	return &Set{byName: make(map[string]*Constraint)}
}

// Add registers a constraint; fails if the name is already taken.
func (s *Set) Add(c *Constraint) error {
	if _, exists := s.byName[c.Name]; exists {
		return errs.New(errs.AlreadyExists, "constraint %q already exists", c.Name)
	}
	s.order = append(s.order, c.Name)
	s.byName[c.Name] = c
	return nil
}

// DropByName removes a single named constraint.
func (s *Set) DropByName(name string) error {
	if _, exists := s.byName[name]; !exists {
		return errs.New(errs.NotFound, "constraint %q not found", name)
	}
	delete(s.byName, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// DropByKind removes every constraint of the given kind. Fails if none
// of that kind are present.
func (s *Set) DropByKind(kind Kind) error {
	var remaining []string
	found := false
	for _, n := range s.order {
		if s.byName[n].Kind == kind {
			delete(s.byName, n)
			found = true
			continue
		}
		remaining = append(remaining, n)
	}
	if !found {
		return errs.New(errs.NotFound, "no constraint of kind %s present", kind)
	}
	s.order = remaining
	return nil
}

// All returns the constraints in registration order.
func (s *Set) All() []*Constraint {
	out := make([]*Constraint, 0, len(s.order))
	for _, n := range s.order {
		out = append(out, s.byName[n])
	}
	return out
}

// Has reports whether a constraint of the given kind is present.
func (s *Set) Has(kind Kind) bool {
	for _, n := range s.order {
		if s.byName[n].Kind == kind {
			return true
		}
	}
	return false
}

// Len reports the number of registered constraints.
func (s *Set) Len() int { return len(s.order) }

// Clone deep-copies the set (the predicate closures themselves are
// reused — they close over immutable parent/table names, not mutable
// state — so sharing them across a pre-image copy is safe).
func (s *Set) Clone() *Set {
	clone := NewSet()
	for _, n := range s.order {
		c := *s.byName[n]
		clone.order = append(clone.order, n)
		clone.byName[n] = &c
	}
	return clone
}

// Evaluate runs the full evaluation order from the design against a
// candidate value for insertion/update: NOT_NULL, type admissibility,
// UNIQUE/PRIMARY_KEY, FOREIGN_KEY, CHECK. existing is the column's
// current body (excluding the row being written, for UPDATE); lookup
// resolves foreign-key parents.
func (s *Set) Evaluate(dt types.DataType, v types.Value, existing []types.Value, lookup ColumnLookup) error {
	for _, c := range s.All() {
		if (c.Kind == NotNull || c.Kind == PrimaryKey) && v.IsNull() {
			return errs.New(errs.ConstraintViolation, "%s: value is null", c.Name).
				WithContext(map[string]interface{}{"constraint": c.Name})
		}
	}
	if !types.Admissible(dt, v) {
		return errs.New(errs.TypeMismatch, "value %v not admissible for type %s", v, dt)
	}
	rank := map[Kind]int{Unique: 0, PrimaryKey: 0, ForeignKey: 1, Check: 2}
	ordered := s.All()
	sort.SliceStable(ordered, func(i, j int) bool { return rank[ordered[i].Kind] < rank[ordered[j].Kind] })
	for _, c := range ordered {
		switch c.Kind {
		case Unique, PrimaryKey:
			for _, e := range existing {
				if types.Equal(e, v) {
					return errs.New(errs.ConstraintViolation, "%s: duplicate value %v", c.Name, v).
						WithContext(map[string]interface{}{"constraint": c.Name})
				}
			}
		case ForeignKey:
			if v.IsNull() {
				continue
			}
			if lookup == nil {
				return errs.New(errs.ConstraintViolation, "%s: no foreign-key resolver configured", c.Name)
			}
			parentValues, err := lookup(c.Parent, "")
			if err != nil {
				return errs.Wrap(errs.ConstraintViolation, err, "%s: parent lookup failed", c.Name)
			}
			found := false
			for _, pv := range parentValues {
				if types.Equal(pv, v) {
					found = true
					break
				}
			}
			if !found {
				return errs.New(errs.ConstraintViolation, "%s: value %v absent from parent table %s", c.Name, v, c.Parent).
					WithContext(map[string]interface{}{"constraint": c.Name})
			}
		case Check:
			if c.Check == nil {
				continue
			}
			ok, err := c.Check(v)
			if err != nil {
				return errs.Wrap(errs.ParseError, err, "%s: check evaluation failed", c.Name)
			}
			if !ok {
				return errs.New(errs.ConstraintViolation, "%s: check failed for value %v", c.Name, v).
					WithContext(map[string]interface{}{"constraint": c.Name})
			}
		}
	}
	return nil
}

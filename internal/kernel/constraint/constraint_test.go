package constraint

import (
	"testing"

	"github.com/onyxdb/engine/internal/kernel/errs"
	"github.com/onyxdb/engine/internal/kernel/types"
)

func TestDefaultName(t *testing.T) {
	if got := DefaultName("id", PrimaryKey); got != "id_primary_key_constraint" {
		t.Errorf("DefaultName = %q", got)
	}
}

func TestSetAddDuplicateName(t *testing.T) {
	s := NewSet()
	c := &Constraint{Name: "x", Kind: NotNull}
	if err := s.Add(c); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	if err := s.Add(c); !errs.Is(err, errs.AlreadyExists) {
		t.Errorf("expected already-exists, got %v", err)
	}
}

func TestPrimaryKeyImpliesNotNull(t *testing.T) {
	s := NewSet()
	_ = s.Add(&Constraint{Name: "id_pk", Kind: PrimaryKey})
	err := s.Evaluate(types.Integer, types.Null, nil, nil)
	if !errs.Is(err, errs.ConstraintViolation) {
		t.Fatalf("expected constraint-violation for NULL primary key, got %v", err)
	}
}

func TestUniqueRejectsDuplicate(t *testing.T) {
	s := NewSet()
	_ = s.Add(&Constraint{Name: "u", Kind: Unique})
	existing := []types.Value{types.NewInteger(1), types.NewInteger(2)}
	if err := s.Evaluate(types.Integer, types.NewInteger(2), existing, nil); !errs.Is(err, errs.ConstraintViolation) {
		t.Errorf("expected duplicate rejection, got %v", err)
	}
	if err := s.Evaluate(types.Integer, types.NewInteger(3), existing, nil); err != nil {
		t.Errorf("unexpected error for non-duplicate: %v", err)
	}
}

func TestForeignKeyLookup(t *testing.T) {
	s := NewSet()
	_ = s.Add(&Constraint{Name: "fk", Kind: ForeignKey, Parent: "parents"})
	lookup := func(table, col string) ([]types.Value, error) {
		return []types.Value{types.NewInteger(1), types.NewInteger(2)}, nil
	}
	if err := s.Evaluate(types.Integer, types.NewInteger(1), nil, lookup); err != nil {
		t.Errorf("expected value present in parent to pass, got %v", err)
	}
	if err := s.Evaluate(types.Integer, types.NewInteger(99), nil, lookup); !errs.Is(err, errs.ConstraintViolation) {
		t.Errorf("expected value absent from parent to fail, got %v", err)
	}
}

func TestCheckConstraint(t *testing.T) {
	s := NewSet()
	eval := func(v types.Value) (bool, error) {
		return v.Int() >= 18, nil
	}
	_ = s.Add(&Constraint{Name: "age_check", Kind: Check, Check: eval})
	if err := s.Evaluate(types.Integer, types.NewInteger(20), nil, nil); err != nil {
		t.Errorf("unexpected failure for 20 >= 18: %v", err)
	}
	if err := s.Evaluate(types.Integer, types.NewInteger(5), nil, nil); !errs.Is(err, errs.ConstraintViolation) {
		t.Errorf("expected check failure for 5 >= 18, got %v", err)
	}
}

func TestTypeMismatch(t *testing.T) {
	s := NewSet()
	if err := s.Evaluate(types.Integer, types.NewString("nope"), nil, nil); !errs.Is(err, errs.TypeMismatch) {
		t.Errorf("expected type-mismatch, got %v", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := NewSet()
	_ = s.Add(&Constraint{Name: "u", Kind: Unique})
	clone := s.Clone()
	_ = clone.DropByName("u")
	if !s.Has(Unique) {
		t.Error("dropping from clone should not affect original")
	}
	if clone.Has(Unique) {
		t.Error("clone should no longer have the dropped constraint")
	}
}

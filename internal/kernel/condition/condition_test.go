package condition

import (
	"testing"

	"github.com/onyxdb/engine/internal/kernel/types"
)

func row(pairs ...interface{}) map[string]types.Value {
	m := make(map[string]types.Value)
	for i := 0; i < len(pairs); i += 2 {
		m[pairs[i].(string)] = pairs[i+1].(types.Value)
	}
	return m
}

func TestEmptyConditionAlwaysMatches(t *testing.T) {
	c, err := Parse("")
	if err != nil {
		t.Fatalf("Parse(\"\"): %v", err)
	}
	ok, err := c.Matches(row())
	if err != nil || !ok {
		t.Errorf("empty condition should match, got ok=%v err=%v", ok, err)
	}
}

func TestSimpleComparison(t *testing.T) {
	c, err := Parse("age >= 18")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ok, err := c.Matches(row("age", types.NewInteger(20)))
	if err != nil || !ok {
		t.Errorf("expected 20 >= 18 to match, got ok=%v err=%v", ok, err)
	}
	ok, err = c.Matches(row("age", types.NewInteger(5)))
	if err != nil || ok {
		t.Errorf("expected 5 >= 18 not to match, got ok=%v err=%v", ok, err)
	}
}

func TestAndOrNot(t *testing.T) {
	c, err := Parse("age >= 18 AND name = 'Ada'")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	match := row("age", types.NewInteger(30), "name", types.NewString("Ada"))
	ok, err := c.Matches(match)
	if err != nil || !ok {
		t.Errorf("expected AND match, got ok=%v err=%v", ok, err)
	}

	c2, err := Parse("NOT (age < 18)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ok, err = c2.Matches(row("age", types.NewInteger(30)))
	if err != nil || !ok {
		t.Errorf("expected NOT(30<18) to match, got ok=%v err=%v", ok, err)
	}
}

func TestLikeWildcards(t *testing.T) {
	c, err := Parse("name LIKE 'A%'")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ok, _ := c.Matches(row("name", types.NewString("Ada")))
	if !ok {
		t.Error("expected 'Ada' to match 'A%'")
	}
	ok, _ = c.Matches(row("name", types.NewString("Bob")))
	if ok {
		t.Error("expected 'Bob' not to match 'A%'")
	}
}

func TestIsNull(t *testing.T) {
	c, err := Parse("age IS NULL")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ok, _ := c.Matches(row("age", types.Null))
	if !ok {
		t.Error("expected NULL to match IS NULL")
	}
	ok, _ = c.Matches(row("age", types.NewInteger(1)))
	if ok {
		t.Error("expected non-null not to match IS NULL")
	}
}

func TestNullComparisonIsUnknownNotTrue(t *testing.T) {
	c, err := Parse("age = 18")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ok, err := c.Matches(row("age", types.Null))
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	if ok {
		t.Error("NULL = 18 should collapse to Unknown, not true")
	}
}

func TestBothSidesNullEqualityIsTrueNotUnknown(t *testing.T) {
	eq, err := Parse("a = b")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ok, err := eq.Matches(row("a", types.Null, "b", types.Null))
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	if !ok {
		t.Error("Null = Null should be True, per the set-membership equality rule, not Unknown")
	}

	neq, err := Parse("a <> b")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ok, err = neq.Matches(row("a", types.Null, "b", types.Null))
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	if ok {
		t.Error("Null <> Null should be False, the complement of Null = Null")
	}
}

func TestParseErrorOnTrailingTokens(t *testing.T) {
	if _, err := Parse("age = 18 age"); err == nil {
		t.Error("expected parse error for trailing garbage")
	}
}

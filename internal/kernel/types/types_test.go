package types

import "testing"

func TestParseLiteral(t *testing.T) {
	cases := []struct {
		in   string
		want Tag
	}{
		{"42", TagInteger},
		{"-3", TagInteger},
		{"3.14", TagReal},
		{"'hello'", TagString},
		{"true", TagBoolean},
		{"false", TagBoolean},
		{"NULL", TagNull},
	}
	for _, c := range cases {
		v, err := ParseLiteral(c.in)
		if err != nil {
			t.Fatalf("ParseLiteral(%q): %v", c.in, err)
		}
		if v.tag != c.want {
			t.Errorf("ParseLiteral(%q) tag = %v, want %v", c.in, v.tag, c.want)
		}
	}
}

func TestEqualAndLess(t *testing.T) {
	a := NewInteger(1)
	b := NewInteger(2)
	if Equal(a, a) == false {
		t.Error("expected a == a")
	}
	if Equal(a, b) {
		t.Error("expected a != b")
	}
	less, defined := Less(a, b)
	if !defined || !less {
		t.Errorf("expected 1 < 2, got less=%v defined=%v", less, defined)
	}
}

func TestNullEquality(t *testing.T) {
	if !Equal(Null, Null) {
		t.Error("NULL should equal NULL for uniqueness purposes")
	}
	if !Null.IsNull() {
		t.Error("Null.IsNull() should be true")
	}
}

func TestAdmissible(t *testing.T) {
	if !Admissible(Integer, NewInteger(5)) {
		t.Error("integer value should be admissible to Integer column")
	}
	if Admissible(Integer, NewString("x")) {
		t.Error("string value should not be admissible to Integer column")
	}
	if !Admissible(String, Null) {
		t.Error("NULL should be admissible to any column type")
	}
}

func TestDataTypeString(t *testing.T) {
	dt, ok := ParseDataType("INTEGER")
	if !ok || dt != Integer {
		t.Fatalf("ParseDataType(INTEGER) = %v, %v", dt, ok)
	}
	if dt.String() != "INTEGER" {
		t.Errorf("String() = %q, want INTEGER", dt.String())
	}
}

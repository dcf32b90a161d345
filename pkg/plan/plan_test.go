package plan

import (
	"strings"
	"testing"
)

func TestAndTolatesNil(t *testing.T) {
	p := NewBinary(OpGt, NewProp("n", "age"), NewLiteral(int64(30)))
	if And(nil, p) != Expr(p) {
		t.Error("And(nil, p) should be p")
	}
	if And(p, nil) != Expr(p) {
		t.Error("And(p, nil) should be p")
	}
	both := And(p, p)
	if b, ok := both.(*Binary); !ok || b.Op != OpAnd {
		t.Errorf("And(p, q) should build a conjunction, got %v", both)
	}
}

func TestConjunctsRoundTrip(t *testing.T) {
	a := NewBinary(OpGt, NewProp("n", "age"), NewLiteral(int64(30)))
	b := NewBinary(OpGe, NewProp("n", "score"), NewLiteral(int64(80)))
	c := NewBinary(OpEq, NewColumn("x"), NewLiteral(int64(1)))

	cond := And(And(a, b), c)
	parts := Conjuncts(cond)
	if len(parts) != 3 {
		t.Fatalf("conjuncts: got %d, want 3", len(parts))
	}
	back := ConjoinAll(parts)
	if !EqualExprs(cond, back) {
		t.Errorf("round trip: got %s, want %s", back, cond)
	}
	if Conjuncts(nil) != nil {
		t.Error("Conjuncts(nil) should be nil")
	}
}

func TestRefsSortedAndDeduplicated(t *testing.T) {
	e := And(
		NewBinary(OpGt, NewProp("n", "age"), NewColumn("limit")),
		NewBinary(OpLt, NewProp("n", "age"), NewColumn("cap")))
	refs := Refs(e)
	want := []string{"cap", "limit", "n.age"}
	if len(refs) != len(want) {
		t.Fatalf("refs: got %v, want %v", refs, want)
	}
	for i := range want {
		if refs[i] != want[i] {
			t.Errorf("ref %d: got %s, want %s", i, refs[i], want[i])
		}
	}
}

func TestSubstituteColumns(t *testing.T) {
	e := NewBinary(OpAdd, NewColumn("a"), NewColumn("b"))
	sub := SubstituteColumns(e, map[string]Expr{"a": NewProp("n", "age")})
	if sub.String() != "(n.age + b)" {
		t.Errorf("substitution: got %s", sub)
	}
	// Original untouched.
	if e.String() != "(a + b)" {
		t.Errorf("substitution mutated the source expression: %s", e)
	}
}

func TestProjectColNamesAndNoop(t *testing.T) {
	scan := NewScanVertices("player", []string{"name"})
	p := NewProject(scan, []ProjCol{
		{Alias: "player", Expr: NewColumn("player")},
	})
	if !p.IsNoop() {
		t.Error("identity projection should report noop")
	}

	renamed := NewProject(scan, []ProjCol{
		{Alias: "p", Expr: NewColumn("player")},
	})
	if renamed.IsNoop() {
		t.Error("renaming projection is not a noop")
	}
	if got := renamed.ColNames(); len(got) != 1 || got[0] != "p" {
		t.Errorf("project col names: got %v", got)
	}
}

func TestWithInputsCopies(t *testing.T) {
	scan := NewScanVertices("player", []string{"name"})
	f := NewFilter(scan, NewLiteral(true))
	other := NewScanVertices("team", nil)

	g := f.WithInputs(other).(*Filter)
	if g == f {
		t.Error("WithInputs must return a copy")
	}
	if f.Inputs()[0] != Node(scan) {
		t.Error("original node mutated")
	}
	if g.Inputs()[0] != Node(other) {
		t.Error("copy should carry the new input")
	}
}

func TestNodeCountCountsSharedTwice(t *testing.T) {
	scan := NewScanVertices("player", nil)
	join := NewCrossJoin(scan, scan)
	if got := NodeCount(join); got != 3 {
		t.Errorf("node count: got %d, want 3 (shared leaf counted per reference)", got)
	}
}

func TestFormatIndentsChildren(t *testing.T) {
	scan := NewScanVertices("player", []string{"age"})
	filter := NewFilter(scan, NewBinary(OpGt, NewProp("player", "age"), NewLiteral(int64(30))))
	limit := NewLimit(filter, 10)

	out := Format(limit)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines: got %d\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "Limit(10)") {
		t.Errorf("root line: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "  Filter(") {
		t.Errorf("child line should be indented: %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "    ScanVertices(") {
		t.Errorf("grandchild line should be doubly indented: %q", lines[2])
	}
}

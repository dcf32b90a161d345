package plan

import (
	"fmt"
	"sort"
	"strings"
)

// Expr is a scalar expression appearing in filter conditions, projections and
// aggregate keys. Expressions are immutable; rules build combined expressions
// with the helpers below instead of mutating operands.
type Expr interface {
	fmt.Stringer
	collectRefs(refs map[string]struct{})
}

// BinOp enumerates binary operators.
type BinOp int

const (
	OpAnd BinOp = iota
	OpOr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAdd
	OpSub
	OpMul
	OpDiv
)

var binOpNames = [...]string{
	OpAnd: "AND", OpOr: "OR",
	OpEq: "==", OpNe: "!=", OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=",
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/",
}

func (op BinOp) String() string { return binOpNames[op] }

// IsComparison reports whether op compares two values to a boolean.
func (op BinOp) IsComparison() bool { return op >= OpEq && op <= OpGe }

// Literal is a constant value.
type Literal struct {
	Value any
}

func (l *Literal) String() string {
	if s, ok := l.Value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", l.Value)
}

func (l *Literal) collectRefs(map[string]struct{}) {}

// Column references an output column of the input operator by name.
type Column struct {
	Name string
}

func (c *Column) String() string                       { return c.Name }
func (c *Column) collectRefs(refs map[string]struct{}) { refs[c.Name] = struct{}{} }

// Prop references a property of a bound symbol, e.g. n.age.
type Prop struct {
	Sym  string
	Name string
}

func (p *Prop) String() string { return p.Sym + "." + p.Name }
func (p *Prop) collectRefs(refs map[string]struct{}) {
	refs[p.Sym+"."+p.Name] = struct{}{}
}

// Binary applies a binary operator to two operands.
type Binary struct {
	Op   BinOp
	L, R Expr
}

func (b *Binary) String() string {
	return "(" + b.L.String() + " " + b.Op.String() + " " + b.R.String() + ")"
}

func (b *Binary) collectRefs(refs map[string]struct{}) {
	b.L.collectRefs(refs)
	b.R.collectRefs(refs)
}

// Call is a function invocation, e.g. id(n) or count(x).
type Call struct {
	Fn   string
	Args []Expr
}

func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return c.Fn + "(" + strings.Join(args, ", ") + ")"
}

func (c *Call) collectRefs(refs map[string]struct{}) {
	for _, a := range c.Args {
		a.collectRefs(refs)
	}
}

// NewLiteral, NewColumn and friends keep call sites terse.
func NewLiteral(v any) *Literal             { return &Literal{Value: v} }
func NewColumn(name string) *Column         { return &Column{Name: name} }
func NewProp(sym, name string) *Prop        { return &Prop{Sym: sym, Name: name} }
func NewBinary(op BinOp, l, r Expr) *Binary { return &Binary{Op: op, L: l, R: r} }

// And conjoins two conditions. A nil side yields the other side unchanged, so
// callers can fold a conjunct list without special cases.
func And(l, r Expr) Expr {
	if l == nil {
		return r
	}
	if r == nil {
		return l
	}
	return &Binary{Op: OpAnd, L: l, R: r}
}

// Refs returns the sorted set of column and symbol.property names referenced
// by e. Rules use this for push-down side conditions and the driver for
// property pruning.
func Refs(e Expr) []string {
	if e == nil {
		return nil
	}
	set := make(map[string]struct{})
	e.collectRefs(set)
	out := make([]string, 0, len(set))
	for r := range set {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Conjuncts splits a condition on top-level ANDs.
func Conjuncts(e Expr) []Expr {
	if e == nil {
		return nil
	}
	if b, ok := e.(*Binary); ok && b.Op == OpAnd {
		return append(Conjuncts(b.L), Conjuncts(b.R)...)
	}
	return []Expr{e}
}

// ConjoinAll folds a conjunct list back into a single condition.
func ConjoinAll(exprs []Expr) Expr {
	var out Expr
	for _, e := range exprs {
		out = And(out, e)
	}
	return out
}

// IsTrueLiteral reports whether e is the constant true, i.e. a filter
// carrying it is a no-op.
func IsTrueLiteral(e Expr) bool {
	l, ok := e.(*Literal)
	if !ok {
		return false
	}
	b, ok := l.Value.(bool)
	return ok && b
}

// EqualExprs compares two expressions structurally.
func EqualExprs(a, b Expr) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}

// SubstituteColumns rewrites column references in e using the given
// name -> expression mapping. Unmapped columns are kept as-is. Used when
// collapsing stacked projections.
func SubstituteColumns(e Expr, mapping map[string]Expr) Expr {
	switch v := e.(type) {
	case *Column:
		if sub, ok := mapping[v.Name]; ok {
			return sub
		}
		return v
	case *Binary:
		return &Binary{Op: v.Op, L: SubstituteColumns(v.L, mapping), R: SubstituteColumns(v.R, mapping)}
	case *Call:
		args := make([]Expr, len(v.Args))
		for i, a := range v.Args {
			args[i] = SubstituteColumns(a, mapping)
		}
		return &Call{Fn: v.Fn, Args: args}
	default:
		return e
	}
}

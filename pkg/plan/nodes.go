package plan

import (
	"fmt"
	"strings"
)

// Node is one operator of an execution plan. Nodes are immutable: rewrite
// rules build new nodes instead of mutating existing ones, and the optimizer
// reattaches inputs through WithInputs when it extracts the chosen plan.
type Node interface {
	Kind() Kind
	Inputs() []Node
	ColNames() []string
	// WithInputs returns a copy of the node with the given inputs. The input
	// count must match the operator's arity.
	WithInputs(inputs ...Node) Node
	// Describe returns the operator's own configuration, without inputs.
	Describe() string
}

// NodeCount returns the number of operators in the tree rooted at n, counting
// a shared subtree once per reference.
func NodeCount(n Node) int {
	if n == nil {
		return 0
	}
	count := 1
	for _, in := range n.Inputs() {
		count += NodeCount(in)
	}
	return count
}

// Start is the source of an argument-less plan.
type Start struct{}

func NewStart() *Start { return &Start{} }

func (*Start) Kind() Kind                { return KindStart }
func (*Start) Inputs() []Node            { return nil }
func (*Start) ColNames() []string        { return nil }
func (s *Start) WithInputs(...Node) Node { return s }
func (*Start) Describe() string          { return "Start" }

// ScanVertices is a full scan over all vertices of one tag.
type ScanVertices struct {
	Tag    string
	Props  []string // fetched properties, narrowed by property pruning
	Filter Expr     // optional storage-side filter folded in by rules
	Limit  int64    // -1 means unlimited
}

func NewScanVertices(tag string, props []string) *ScanVertices {
	return &ScanVertices{Tag: tag, Props: props, Limit: -1}
}

func (*ScanVertices) Kind() Kind           { return KindScanVertices }
func (*ScanVertices) Inputs() []Node       { return nil }
func (s *ScanVertices) ColNames() []string { return []string{s.Tag} }
func (s *ScanVertices) WithInputs(...Node) Node {
	cp := *s
	return &cp
}

func (s *ScanVertices) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ScanVertices(tag=%s, props=[%s]", s.Tag, strings.Join(s.Props, ","))
	if s.Filter != nil {
		fmt.Fprintf(&b, ", filter=%s", s.Filter)
	}
	if s.Limit >= 0 {
		fmt.Fprintf(&b, ", limit=%d", s.Limit)
	}
	b.WriteString(")")
	return b.String()
}

// ScanEdges is a full scan over all edges of one edge type.
type ScanEdges struct {
	EdgeType string
	Props    []string
	Filter   Expr
	Limit    int64
}

func NewScanEdges(edgeType string, props []string) *ScanEdges {
	return &ScanEdges{EdgeType: edgeType, Props: props, Limit: -1}
}

func (*ScanEdges) Kind() Kind           { return KindScanEdges }
func (*ScanEdges) Inputs() []Node       { return nil }
func (s *ScanEdges) ColNames() []string { return []string{s.EdgeType} }
func (s *ScanEdges) WithInputs(...Node) Node {
	cp := *s
	return &cp
}

func (s *ScanEdges) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ScanEdges(type=%s, props=[%s]", s.EdgeType, strings.Join(s.Props, ","))
	if s.Filter != nil {
		fmt.Fprintf(&b, ", filter=%s", s.Filter)
	}
	if s.Limit >= 0 {
		fmt.Fprintf(&b, ", limit=%d", s.Limit)
	}
	b.WriteString(")")
	return b.String()
}

// IndexScan reads vertices of one tag through a property index.
type IndexScan struct {
	Tag   string
	Prop  string
	Op    BinOp // comparison against Value
	Value Expr  // literal bound
	Props []string
	Limit int64
}

func (*IndexScan) Kind() Kind           { return KindIndexScan }
func (*IndexScan) Inputs() []Node       { return nil }
func (s *IndexScan) ColNames() []string { return []string{s.Tag} }
func (s *IndexScan) WithInputs(...Node) Node {
	cp := *s
	return &cp
}

func (s *IndexScan) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "IndexScan(tag=%s, %s %s %s, props=[%s]",
		s.Tag, s.Prop, s.Op, s.Value, strings.Join(s.Props, ","))
	if s.Limit >= 0 {
		fmt.Fprintf(&b, ", limit=%d", s.Limit)
	}
	b.WriteString(")")
	return b.String()
}

// GetVertices fetches vertex properties for ids produced by the input.
type GetVertices struct {
	Src   Expr // id expression evaluated against input rows
	Props []string
	Dedup bool
	input Node
	cols  []string
}

func NewGetVertices(input Node, src Expr, props []string) *GetVertices {
	return &GetVertices{Src: src, Props: props, input: input, cols: input.ColNames()}
}

func (*GetVertices) Kind() Kind           { return KindGetVertices }
func (g *GetVertices) Inputs() []Node     { return []Node{g.input} }
func (g *GetVertices) ColNames() []string { return g.cols }
func (g *GetVertices) WithInputs(inputs ...Node) Node {
	cp := *g
	cp.input = inputs[0]
	return &cp
}

func (g *GetVertices) Describe() string {
	return fmt.Sprintf("GetVertices(src=%s, props=[%s], dedup=%v)",
		g.Src, strings.Join(g.Props, ","), g.Dedup)
}

// GetNeighbors expands one step along an edge type from the input's ids.
type GetNeighbors struct {
	EdgeType string
	Props    []string
	Limit    int64
	Dedup    bool
	input    Node
	cols     []string
}

func NewGetNeighbors(input Node, edgeType string, props []string) *GetNeighbors {
	return &GetNeighbors{EdgeType: edgeType, Props: props, Limit: -1, input: input, cols: input.ColNames()}
}

func (*GetNeighbors) Kind() Kind           { return KindGetNeighbors }
func (g *GetNeighbors) Inputs() []Node     { return []Node{g.input} }
func (g *GetNeighbors) ColNames() []string { return g.cols }
func (g *GetNeighbors) WithInputs(inputs ...Node) Node {
	cp := *g
	cp.input = inputs[0]
	return &cp
}

func (g *GetNeighbors) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "GetNeighbors(edge=%s, props=[%s], dedup=%v", g.EdgeType, strings.Join(g.Props, ","), g.Dedup)
	if g.Limit >= 0 {
		fmt.Fprintf(&b, ", limit=%d", g.Limit)
	}
	b.WriteString(")")
	return b.String()
}

// Traverse walks a fixed number of steps along an edge type.
type Traverse struct {
	EdgeType string
	Steps    int
	Filter   Expr // edge filter applied during traversal
	input    Node
	cols     []string
}

func NewTraverse(input Node, edgeType string, steps int) *Traverse {
	return &Traverse{EdgeType: edgeType, Steps: steps, input: input, cols: input.ColNames()}
}

func (*Traverse) Kind() Kind           { return KindTraverse }
func (t *Traverse) Inputs() []Node     { return []Node{t.input} }
func (t *Traverse) ColNames() []string { return t.cols }
func (t *Traverse) WithInputs(inputs ...Node) Node {
	cp := *t
	cp.input = inputs[0]
	return &cp
}

func (t *Traverse) Describe() string {
	if t.Filter != nil {
		return fmt.Sprintf("Traverse(edge=%s, steps=%d, filter=%s)", t.EdgeType, t.Steps, t.Filter)
	}
	return fmt.Sprintf("Traverse(edge=%s, steps=%d)", t.EdgeType, t.Steps)
}

// Expand is a single-step neighborhood expansion.
type Expand struct {
	EdgeType string
	Filter   Expr
	input    Node
	cols     []string
}

func NewExpand(input Node, edgeType string) *Expand {
	return &Expand{EdgeType: edgeType, input: input, cols: input.ColNames()}
}

func (*Expand) Kind() Kind           { return KindExpand }
func (e *Expand) Inputs() []Node     { return []Node{e.input} }
func (e *Expand) ColNames() []string { return e.cols }
func (e *Expand) WithInputs(inputs ...Node) Node {
	cp := *e
	cp.input = inputs[0]
	return &cp
}

func (e *Expand) Describe() string {
	if e.Filter != nil {
		return fmt.Sprintf("Expand(edge=%s, filter=%s)", e.EdgeType, e.Filter)
	}
	return fmt.Sprintf("Expand(edge=%s)", e.EdgeType)
}

// Filter drops rows not satisfying Condition.
type Filter struct {
	Condition Expr
	input     Node
	cols      []string
}

func NewFilter(input Node, condition Expr) *Filter {
	return &Filter{Condition: condition, input: input, cols: input.ColNames()}
}

func (*Filter) Kind() Kind           { return KindFilter }
func (f *Filter) Inputs() []Node     { return []Node{f.input} }
func (f *Filter) ColNames() []string { return f.cols }
func (f *Filter) WithInputs(inputs ...Node) Node {
	cp := *f
	cp.input = inputs[0]
	return &cp
}

func (f *Filter) Describe() string { return fmt.Sprintf("Filter(%s)", f.Condition) }

// ProjCol is one output column of a projection.
type ProjCol struct {
	Alias string
	Expr  Expr
}

// Project computes a new column list from the input.
type Project struct {
	Columns []ProjCol
	input   Node
}

func NewProject(input Node, columns []ProjCol) *Project {
	return &Project{Columns: columns, input: input}
}

func (*Project) Kind() Kind       { return KindProject }
func (p *Project) Inputs() []Node { return []Node{p.input} }
func (p *Project) ColNames() []string {
	names := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		names[i] = c.Alias
	}
	return names
}

func (p *Project) WithInputs(inputs ...Node) Node {
	cp := *p
	cp.input = inputs[0]
	return &cp
}

func (p *Project) Describe() string {
	parts := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		parts[i] = fmt.Sprintf("%s AS %s", c.Expr, c.Alias)
	}
	return "Project(" + strings.Join(parts, ", ") + ")"
}

// IsNoop reports whether the projection forwards its input columns unchanged.
func (p *Project) IsNoop() bool {
	in := p.input.ColNames()
	if len(in) != len(p.Columns) {
		return false
	}
	for i, c := range p.Columns {
		col, ok := c.Expr.(*Column)
		if !ok || col.Name != in[i] || c.Alias != in[i] {
			return false
		}
	}
	return true
}

// Dedup removes duplicate rows.
type Dedup struct {
	input Node
	cols  []string
}

func NewDedup(input Node) *Dedup {
	return &Dedup{input: input, cols: input.ColNames()}
}

func (*Dedup) Kind() Kind           { return KindDedup }
func (d *Dedup) Inputs() []Node     { return []Node{d.input} }
func (d *Dedup) ColNames() []string { return d.cols }
func (d *Dedup) WithInputs(inputs ...Node) Node {
	cp := *d
	cp.input = inputs[0]
	return &cp
}

func (*Dedup) Describe() string { return "Dedup" }

// AggItem is one aggregate output.
type AggItem struct {
	Alias string
	Fn    string
	Arg   Expr
}

// Aggregate groups by keys and computes aggregates.
type Aggregate struct {
	GroupKeys []string
	Aggs      []AggItem
	input     Node
}

func NewAggregate(input Node, keys []string, aggs []AggItem) *Aggregate {
	return &Aggregate{GroupKeys: keys, Aggs: aggs, input: input}
}

func (*Aggregate) Kind() Kind       { return KindAggregate }
func (a *Aggregate) Inputs() []Node { return []Node{a.input} }
func (a *Aggregate) ColNames() []string {
	names := append([]string{}, a.GroupKeys...)
	for _, item := range a.Aggs {
		names = append(names, item.Alias)
	}
	return names
}

func (a *Aggregate) WithInputs(inputs ...Node) Node {
	cp := *a
	cp.input = inputs[0]
	return &cp
}

func (a *Aggregate) Describe() string {
	parts := make([]string, 0, len(a.Aggs))
	for _, item := range a.Aggs {
		parts = append(parts, fmt.Sprintf("%s(%s) AS %s", item.Fn, item.Arg, item.Alias))
	}
	return fmt.Sprintf("Aggregate(keys=[%s], aggs=[%s])",
		strings.Join(a.GroupKeys, ","), strings.Join(parts, ", "))
}

// SortKey is one ordering column.
type SortKey struct {
	Col  string
	Desc bool
}

func (k SortKey) String() string {
	if k.Desc {
		return k.Col + " DESC"
	}
	return k.Col
}

// Sort orders rows by its keys.
type Sort struct {
	Keys  []SortKey
	input Node
	cols  []string
}

func NewSort(input Node, keys []SortKey) *Sort {
	return &Sort{Keys: keys, input: input, cols: input.ColNames()}
}

func (*Sort) Kind() Kind           { return KindSort }
func (s *Sort) Inputs() []Node     { return []Node{s.input} }
func (s *Sort) ColNames() []string { return s.cols }
func (s *Sort) WithInputs(inputs ...Node) Node {
	cp := *s
	cp.input = inputs[0]
	return &cp
}

func (s *Sort) Describe() string {
	parts := make([]string, len(s.Keys))
	for i, k := range s.Keys {
		parts[i] = k.String()
	}
	return "Sort(" + strings.Join(parts, ", ") + ")"
}

// Limit passes at most Count rows through.
type Limit struct {
	Count int64
	input Node
	cols  []string
}

func NewLimit(input Node, count int64) *Limit {
	return &Limit{Count: count, input: input, cols: input.ColNames()}
}

func (*Limit) Kind() Kind           { return KindLimit }
func (l *Limit) Inputs() []Node     { return []Node{l.input} }
func (l *Limit) ColNames() []string { return l.cols }
func (l *Limit) WithInputs(inputs ...Node) Node {
	cp := *l
	cp.input = inputs[0]
	return &cp
}

func (l *Limit) Describe() string { return fmt.Sprintf("Limit(%d)", l.Count) }

// TopN is the fused form of Limit over Sort.
type TopN struct {
	Keys  []SortKey
	Count int64
	input Node
	cols  []string
}

func NewTopN(input Node, keys []SortKey, count int64) *TopN {
	return &TopN{Keys: keys, Count: count, input: input, cols: input.ColNames()}
}

func (*TopN) Kind() Kind           { return KindTopN }
func (t *TopN) Inputs() []Node     { return []Node{t.input} }
func (t *TopN) ColNames() []string { return t.cols }
func (t *TopN) WithInputs(inputs ...Node) Node {
	cp := *t
	cp.input = inputs[0]
	return &cp
}

func (t *TopN) Describe() string {
	parts := make([]string, len(t.Keys))
	for i, k := range t.Keys {
		parts[i] = k.String()
	}
	return fmt.Sprintf("TopN(%s, count=%d)", strings.Join(parts, ", "), t.Count)
}

// HashInnerJoin joins two inputs on equality of the key expressions.
type HashInnerJoin struct {
	LeftKeys  []Expr
	RightKeys []Expr
	left      Node
	right     Node
}

func NewHashInnerJoin(left, right Node, leftKeys, rightKeys []Expr) *HashInnerJoin {
	return &HashInnerJoin{LeftKeys: leftKeys, RightKeys: rightKeys, left: left, right: right}
}

func (*HashInnerJoin) Kind() Kind       { return KindHashInnerJoin }
func (j *HashInnerJoin) Inputs() []Node { return []Node{j.left, j.right} }
func (j *HashInnerJoin) ColNames() []string {
	return append(append([]string{}, j.left.ColNames()...), j.right.ColNames()...)
}

func (j *HashInnerJoin) WithInputs(inputs ...Node) Node {
	cp := *j
	cp.left, cp.right = inputs[0], inputs[1]
	return &cp
}

func (j *HashInnerJoin) Describe() string {
	return fmt.Sprintf("HashInnerJoin(left=%s, right=%s)", exprList(j.LeftKeys), exprList(j.RightKeys))
}

// HashLeftJoin keeps unmatched left rows.
type HashLeftJoin struct {
	LeftKeys  []Expr
	RightKeys []Expr
	left      Node
	right     Node
}

func NewHashLeftJoin(left, right Node, leftKeys, rightKeys []Expr) *HashLeftJoin {
	return &HashLeftJoin{LeftKeys: leftKeys, RightKeys: rightKeys, left: left, right: right}
}

func (*HashLeftJoin) Kind() Kind       { return KindHashLeftJoin }
func (j *HashLeftJoin) Inputs() []Node { return []Node{j.left, j.right} }
func (j *HashLeftJoin) ColNames() []string {
	return append(append([]string{}, j.left.ColNames()...), j.right.ColNames()...)
}

func (j *HashLeftJoin) WithInputs(inputs ...Node) Node {
	cp := *j
	cp.left, cp.right = inputs[0], inputs[1]
	return &cp
}

func (j *HashLeftJoin) Describe() string {
	return fmt.Sprintf("HashLeftJoin(left=%s, right=%s)", exprList(j.LeftKeys), exprList(j.RightKeys))
}

// CrossJoin is the unconditional product of two inputs.
type CrossJoin struct {
	left  Node
	right Node
}

func NewCrossJoin(left, right Node) *CrossJoin {
	return &CrossJoin{left: left, right: right}
}

func (*CrossJoin) Kind() Kind       { return KindCrossJoin }
func (j *CrossJoin) Inputs() []Node { return []Node{j.left, j.right} }
func (j *CrossJoin) ColNames() []string {
	return append(append([]string{}, j.left.ColNames()...), j.right.ColNames()...)
}

func (j *CrossJoin) WithInputs(inputs ...Node) Node {
	cp := *j
	cp.left, cp.right = inputs[0], inputs[1]
	return &cp
}

func (*CrossJoin) Describe() string { return "CrossJoin" }

// PassThrough forwards its input unchanged. Planners emit it as a glue node;
// the post phase removes it.
type PassThrough struct {
	input Node
	cols  []string
}

func NewPassThrough(input Node) *PassThrough {
	return &PassThrough{input: input, cols: input.ColNames()}
}

func (*PassThrough) Kind() Kind           { return KindPassThrough }
func (p *PassThrough) Inputs() []Node     { return []Node{p.input} }
func (p *PassThrough) ColNames() []string { return p.cols }
func (p *PassThrough) WithInputs(inputs ...Node) Node {
	cp := *p
	cp.input = inputs[0]
	return &cp
}

func (*PassThrough) Describe() string { return "PassThrough" }

func exprList(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

package optimizer

import (
	"math"

	"github.com/cockroachdb/errors"

	"neurograph/pkg/plan"
	"neurograph/pkg/stats"
)

// Cost weight factors. IO and network dominate CPU and memory because this is
// a single-node embedded engine where disk reads bound execution time.
const (
	weightCPU     = 1.0
	weightMemory  = 1.0
	weightIO      = 4.0
	weightNetwork = 8.0
)

// Fallbacks used when the statistics provider cannot answer.
const (
	defaultRowCount = 1000.0
	defaultDegree   = 8.0
)

// Cost is the estimated resource usage of one plan alternative. Rows is the
// estimated output cardinality, carried alongside for parent estimation.
type Cost struct {
	CPU     float64
	Memory  float64
	IO      float64
	Network float64
	Rows    float64
}

// Total collapses the components into one comparable scalar.
func (c Cost) Total() float64 {
	return c.CPU*weightCPU + c.Memory*weightMemory + c.IO*weightIO + c.Network*weightNetwork
}

// AddInput accumulates an input's cost into c. Rows keeps c's own output
// estimate; input cardinality is already folded into the operator terms.
func (c Cost) AddInput(in Cost) Cost {
	c.CPU += in.CPU
	c.Memory += in.Memory
	c.IO += in.IO
	c.Network += in.Network
	return c
}

// CostEstimator assigns per-operator costs, consulting the statistics
// provider and degrading to defaults when a lookup misses.
type CostEstimator struct {
	provider           stats.Provider
	defaultSelectivity float64
}

func NewCostEstimator(provider stats.Provider, defaultSelectivity float64) *CostEstimator {
	if defaultSelectivity <= 0 || defaultSelectivity > 1 {
		defaultSelectivity = stats.DefaultSelectivity
	}
	return &CostEstimator{provider: provider, defaultSelectivity: defaultSelectivity}
}

// EstimateCost returns the operator-local cost of node given the estimated
// input cardinalities. Input subtree costs are accumulated by the caller.
func (e *CostEstimator) EstimateCost(node plan.Node, inputRows []float64) Cost {
	in := 0.0
	if len(inputRows) > 0 {
		in = inputRows[0]
	}

	switch n := node.(type) {
	case *plan.Start:
		return Cost{Rows: 1}

	case *plan.ScanVertices:
		return e.scanCost(n.Tag, n.Filter, n.Limit)

	case *plan.ScanEdges:
		return e.scanCost(n.EdgeType, n.Filter, n.Limit)

	case *plan.IndexScan:
		total := e.rowCount(n.Tag)
		sel := e.comparisonSelectivity(n.Tag, n.Prop, n.Op, n.Value)
		rows := capRows(total*sel, n.Limit)
		return Cost{IO: rows + math.Log2(total+2), CPU: rows * 0.1, Rows: rows}

	case *plan.GetVertices:
		return Cost{IO: in, CPU: in * 0.2, Rows: in}

	case *plan.GetNeighbors:
		deg := e.avgDegree(n.EdgeType)
		rows := in * deg
		cost := Cost{IO: rows, CPU: rows * 0.2, Rows: capRows(rows, n.Limit)}
		if n.Dedup {
			cost.CPU += rows * 0.1
			cost.Memory += rows * 0.1
		}
		return cost

	case *plan.Traverse:
		deg := e.avgDegree(n.EdgeType)
		rows := in * math.Pow(deg, float64(n.Steps))
		return Cost{IO: rows, CPU: rows * 0.3, Rows: rows}

	case *plan.Expand:
		deg := e.avgDegree(n.EdgeType)
		rows := in * deg
		return Cost{IO: rows, CPU: rows * 0.2, Rows: rows}

	case *plan.Filter:
		sel := e.selectivity("", n.Condition)
		return Cost{CPU: in, Rows: in * sel}

	case *plan.Project:
		return Cost{CPU: in * float64(len(n.Columns)) * 0.1, Rows: in}

	case *plan.Dedup:
		return Cost{CPU: in, Memory: in * 0.5, Rows: in * 0.9}

	case *plan.Aggregate:
		return Cost{CPU: in, Memory: in * 0.5, Rows: math.Max(1, in*0.1)}

	case *plan.Sort:
		return Cost{CPU: nLogN(in), Memory: in, Rows: in}

	case *plan.TopN:
		k := math.Min(in, float64(n.Count))
		return Cost{CPU: in * math.Log2(k+2), Memory: k, Rows: k}

	case *plan.Limit:
		return Cost{CPU: in * 0.01, Rows: capRows(in, n.Count)}

	case *plan.HashInnerJoin:
		l, r := sideRows(inputRows)
		return Cost{CPU: l * r * 0.01, Memory: r, Rows: math.Max(l, r) * e.defaultSelectivity}

	case *plan.HashLeftJoin:
		l, r := sideRows(inputRows)
		return Cost{CPU: l * r * 0.01, Memory: r, Rows: l}

	case *plan.CrossJoin:
		l, r := sideRows(inputRows)
		return Cost{CPU: l * r * 0.01, Memory: r, Rows: l * r}

	case *plan.PassThrough:
		return Cost{Rows: in}
	}

	return Cost{CPU: in, Rows: in}
}

// scanCost models a storage sweep. An inline filter forces the full sweep
// with the row estimate shrunk by selectivity; without one an inline limit
// stops the sweep early, so scanned rows drop too.
func (e *CostEstimator) scanCost(label string, filter plan.Expr, limit int64) Cost {
	total := e.rowCount(label)
	if filter != nil {
		rows := capRows(total*e.selectivity(label, filter), limit)
		return Cost{IO: total, CPU: total * 0.3, Rows: rows}
	}
	scanned := capRows(total, limit)
	return Cost{IO: scanned, CPU: scanned * 0.2, Rows: scanned}
}

func (e *CostEstimator) rowCount(label string) float64 {
	count, err := e.lookupRowCount(label)
	if err != nil {
		return defaultRowCount
	}
	return count
}

func (e *CostEstimator) lookupRowCount(label string) (float64, error) {
	count, err := e.provider.RowCount(label)
	if err != nil {
		return 0, errors.Mark(err, ErrCostEstimation)
	}
	return count, nil
}

func (e *CostEstimator) avgDegree(edgeType string) float64 {
	deg, err := e.provider.AverageDegree(edgeType)
	if err != nil {
		return defaultDegree
	}
	return deg
}

// selectivity multiplies the selectivities of the condition's conjuncts,
// using histograms where a conjunct compares a property to a numeric literal
// and the default otherwise. label overrides the comparison's own symbol when
// non-empty (scans know their tag; filters rely on the symbol).
func (e *CostEstimator) selectivity(label string, cond plan.Expr) float64 {
	sel := 1.0
	for _, conj := range plan.Conjuncts(cond) {
		sym, column, op, value, ok := numericComparison(conj)
		if !ok {
			sel *= e.defaultSelectivity
			continue
		}
		if label != "" {
			sym = label
		}
		s, err := e.provider.Selectivity(sym, column, op, value)
		if err != nil {
			sel *= e.defaultSelectivity
			continue
		}
		sel *= s
	}
	return sel
}

func (e *CostEstimator) comparisonSelectivity(label, column string, op plan.BinOp, value plan.Expr) float64 {
	v, ok := numericLiteral(value)
	if !ok {
		return e.defaultSelectivity
	}
	s, err := e.provider.Selectivity(label, column, op.String(), v)
	if err != nil {
		return e.defaultSelectivity
	}
	return s
}

// numericComparison decomposes "sym.prop op literal" into histogram lookup
// keys. Anything else is not answerable from statistics.
func numericComparison(e plan.Expr) (label, column, op string, value float64, ok bool) {
	b, isBin := e.(*plan.Binary)
	if !isBin || !b.Op.IsComparison() {
		return "", "", "", 0, false
	}
	prop, isProp := b.L.(*plan.Prop)
	if !isProp {
		return "", "", "", 0, false
	}
	v, isNum := numericLiteral(b.R)
	if !isNum {
		return "", "", "", 0, false
	}
	return prop.Sym, prop.Name, b.Op.String(), v, true
}

func numericLiteral(e plan.Expr) (float64, bool) {
	l, ok := e.(*plan.Literal)
	if !ok {
		return 0, false
	}
	switch v := l.Value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

func capRows(rows float64, limit int64) float64 {
	if limit >= 0 {
		return math.Min(rows, float64(limit))
	}
	return rows
}

func nLogN(n float64) float64 {
	if n < 2 {
		return n
	}
	return n * math.Log2(n)
}

func sideRows(inputRows []float64) (float64, float64) {
	l, r := 1.0, 1.0
	if len(inputRows) > 0 {
		l = inputRows[0]
	}
	if len(inputRows) > 1 {
		r = inputRows[1]
	}
	return l, r
}

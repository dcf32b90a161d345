package gql

import "neurograph/pkg/plan"

var opMap = map[string]plan.BinOp{
	"==": plan.OpEq,
	"!=": plan.OpNe,
	"<":  plan.OpLt,
	"<=": plan.OpLe,
	">":  plan.OpGt,
	">=": plan.OpGe,
}

// Plan lowers a parsed statement into a naive, unoptimized operator tree:
// ScanVertices -> Filter -> Project -> Sort -> Limit, with each clause
// emitted as its own node. The optimizer is responsible for collapsing it.
// The match symbol is resolved to its tag, so downstream property references
// are label-qualified.
func Plan(stmt *MatchStmt) plan.Node {
	scan := plan.NewScanVertices(stmt.Tag, fetchProps(stmt))
	var root plan.Node = scan

	var cond plan.Expr
	for _, c := range stmt.Where {
		conj := plan.NewBinary(opMap[c.Op], plan.NewProp(stmt.Tag, c.Prop), plan.NewLiteral(c.Value))
		cond = plan.And(cond, conj)
	}
	if cond != nil {
		root = plan.NewFilter(root, cond)
	}

	cols := make([]plan.ProjCol, len(stmt.Return))
	for i, prop := range stmt.Return {
		cols[i] = plan.ProjCol{Alias: prop, Expr: plan.NewProp(stmt.Tag, prop)}
	}
	root = plan.NewProject(root, cols)

	if stmt.OrderBy != "" {
		root = plan.NewSort(root, []plan.SortKey{{Col: stmt.OrderBy, Desc: stmt.Desc}})
	}
	if stmt.Limit >= 0 {
		root = plan.NewLimit(root, stmt.Limit)
	}
	return root
}

// fetchProps collects every property the query touches, in first-use order,
// as the scan's initial fetch list. Property pruning may narrow it further.
func fetchProps(stmt *MatchStmt) []string {
	var props []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			props = append(props, p)
		}
	}
	for _, c := range stmt.Where {
		add(c.Prop)
	}
	for _, p := range stmt.Return {
		add(p)
	}
	if stmt.OrderBy != "" {
		add(stmt.OrderBy)
	}
	return props
}

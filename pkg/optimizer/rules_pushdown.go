package optimizer

import (
	"strings"

	"neurograph/pkg/plan"
)

// refsCoveredBy reports whether every referenced symbol resolves against the
// given column names. Property references count by their symbol, so "n.age"
// is covered when "n" is a column.
func refsCoveredBy(refs, cols []string) bool {
	for _, ref := range refs {
		sym := ref
		if i := strings.IndexByte(ref, '.'); i >= 0 {
			sym = ref[:i]
		}
		found := false
		for _, c := range cols {
			if c == sym {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// filterPushDown moves the pushable conjuncts of a Filter below a join, so
// each side is reduced before rows are combined. Right-side pushes are only
// legal for inner and cross joins; a left join's unmatched rows would be
// dropped by pre-filtering the right input.
type filterPushDown struct {
	pushDownRule
}

func newFilterPushDown() Rule {
	return &filterPushDown{pushDownRule{baseRule{
		name:    RuleFilterPushDown.Name(),
		pattern: NewPattern(plan.KindFilter),
	}}}
}

func (r *filterPushDown) Apply(ctx *OptContext, node *OptGroupNode) (*TransformResult, error) {
	f := node.Plan().(*plan.Filter)
	child := ctx.Best(node.Deps()[0])

	var rightPushable bool
	switch child.Kind() {
	case plan.KindHashInnerJoin, plan.KindCrossJoin:
		rightPushable = true
	case plan.KindHashLeftJoin:
		rightPushable = false
	default:
		return nil, nil
	}

	leftDep, rightDep := child.Deps()[0], child.Deps()[1]
	leftPlan := ctx.Best(leftDep).Plan()
	rightPlan := ctx.Best(rightDep).Plan()
	leftCols := leftPlan.ColNames()
	rightCols := rightPlan.ColNames()

	var leftConjs, rightConjs, rest []plan.Expr
	for _, conj := range plan.Conjuncts(f.Condition) {
		refs := plan.Refs(conj)
		switch {
		case refsCoveredBy(refs, leftCols):
			leftConjs = append(leftConjs, conj)
		case rightPushable && refsCoveredBy(refs, rightCols):
			rightConjs = append(rightConjs, conj)
		default:
			rest = append(rest, conj)
		}
	}
	if len(leftConjs) == 0 && len(rightConjs) == 0 {
		return nil, nil
	}

	newLeft := leftDep
	if len(leftConjs) > 0 {
		newLeft = ctx.NewGroup(plan.NewFilter(leftPlan, plan.ConjoinAll(leftConjs)), []GroupID{leftDep})
	}
	newRight := rightDep
	if len(rightConjs) > 0 {
		newRight = ctx.NewGroup(plan.NewFilter(rightPlan, plan.ConjoinAll(rightConjs)), []GroupID{rightDep})
	}
	joinDeps := []GroupID{newLeft, newRight}

	if len(rest) == 0 {
		return &TransformResult{
			EraseCurr: true,
			NewAlts:   []NewAlt{{Node: child.Plan(), Deps: joinDeps}},
		}, nil
	}

	joinGroup := ctx.NewGroup(child.Plan(), joinDeps)
	top := plan.NewFilter(child.Plan(), plan.ConjoinAll(rest))
	return &TransformResult{
		EraseCurr: true,
		NewAlts:   []NewAlt{{Node: top, Deps: []GroupID{joinGroup}}},
	}, nil
}

// pushFilterDownUnary moves a Filter below a traversal operator when the
// predicate only references columns already available beneath it.
func pushFilterDownUnary(ctx *OptContext, node *OptGroupNode) *TransformResult {
	f := node.Plan().(*plan.Filter)
	child := ctx.Best(node.Deps()[0])
	grandDep := child.Deps()[0]
	grandPlan := ctx.Best(grandDep).Plan()

	if !refsCoveredBy(plan.Refs(f.Condition), grandPlan.ColNames()) {
		return nil
	}

	filterGroup := ctx.NewGroup(plan.NewFilter(grandPlan, f.Condition), []GroupID{grandDep})
	return &TransformResult{
		EraseCurr: true,
		NewAlts:   []NewAlt{{Node: child.Plan(), Deps: []GroupID{filterGroup}}},
	}
}

type pushFilterDownTraverse struct {
	pushDownRule
}

func newPushFilterDownTraverse() Rule {
	return &pushFilterDownTraverse{pushDownRule{baseRule{
		name:    RulePushFilterDownTraverse.Name(),
		pattern: NewPatternWithChildren(plan.KindFilter, plan.KindTraverse),
	}}}
}

func (r *pushFilterDownTraverse) Apply(ctx *OptContext, node *OptGroupNode) (*TransformResult, error) {
	return pushFilterDownUnary(ctx, node), nil
}

type pushFilterDownExpand struct {
	pushDownRule
}

func newPushFilterDownExpand() Rule {
	return &pushFilterDownExpand{pushDownRule{baseRule{
		name:    RulePushFilterDownExpand.Name(),
		pattern: NewPatternWithChildren(plan.KindFilter, plan.KindExpand),
	}}}
}

func (r *pushFilterDownExpand) Apply(ctx *OptContext, node *OptGroupNode) (*TransformResult, error) {
	return pushFilterDownUnary(ctx, node), nil
}

// projectionPushDown moves a Project below a Sort so rows are narrowed before
// they are buffered. Legal only when every sort key survives the projection
// under its own name.
type projectionPushDown struct {
	pushDownRule
}

func newProjectionPushDown() Rule {
	return &projectionPushDown{pushDownRule{baseRule{
		name:    RuleProjectionPushDown.Name(),
		pattern: NewPatternWithChildren(plan.KindProject, plan.KindSort),
	}}}
}

func (r *projectionPushDown) Apply(ctx *OptContext, node *OptGroupNode) (*TransformResult, error) {
	p := node.Plan().(*plan.Project)
	child := ctx.Best(node.Deps()[0])
	sort := child.Plan().(*plan.Sort)

	for _, key := range sort.Keys {
		preserved := false
		for _, c := range p.Columns {
			col, ok := c.Expr.(*plan.Column)
			if ok && col.Name == key.Col && c.Alias == key.Col {
				preserved = true
				break
			}
		}
		if !preserved {
			return nil, nil
		}
	}

	grandDep := child.Deps()[0]
	grandPlan := ctx.Best(grandDep).Plan()
	newProj := plan.NewProject(grandPlan, p.Columns)
	projGroup := ctx.NewGroup(newProj, []GroupID{grandDep})
	newSort := plan.NewSort(newProj, sort.Keys)
	return &TransformResult{
		EraseCurr: true,
		NewAlts:   []NewAlt{{Node: newSort, Deps: []GroupID{projGroup}}},
	}, nil
}

// pushLimitDownProject swaps a Limit below a Project; projecting rows that
// the limit discards is wasted work.
type pushLimitDownProject struct {
	pushDownRule
}

func newPushLimitDownProject() Rule {
	return &pushLimitDownProject{pushDownRule{baseRule{
		name:    RulePushLimitDownProject.Name(),
		pattern: NewPatternWithChildren(plan.KindLimit, plan.KindProject),
	}}}
}

func (r *pushLimitDownProject) Apply(ctx *OptContext, node *OptGroupNode) (*TransformResult, error) {
	limit := node.Plan().(*plan.Limit)
	child := ctx.Best(node.Deps()[0])
	grandDep := child.Deps()[0]
	grandPlan := ctx.Best(grandDep).Plan()

	limitGroup := ctx.NewGroup(plan.NewLimit(grandPlan, limit.Count), []GroupID{grandDep})
	return &TransformResult{
		EraseCurr: true,
		NewAlts:   []NewAlt{{Node: child.Plan(), Deps: []GroupID{limitGroup}}},
	}, nil
}

// pushLimitIntoScan folds a Limit into a leaf scan's own row cap and removes
// the Limit node. Exact because a scan emits rows in storage order and the
// inline cap applies after its inline filter.
func pushLimitIntoScan(node *OptGroupNode, child *OptGroupNode, scanLimit int64, rebuild func(int64) plan.Node) *TransformResult {
	count := node.Plan().(*plan.Limit).Count
	if scanLimit >= 0 && scanLimit <= count {
		return nil
	}
	return &TransformResult{
		EraseCurr: true,
		NewAlts:   []NewAlt{{Node: rebuild(count), Deps: child.Deps()}},
	}
}

type pushLimitDownScanVertices struct {
	pushDownRule
}

func newPushLimitDownScanVertices() Rule {
	return &pushLimitDownScanVertices{pushDownRule{baseRule{
		name:    RulePushLimitDownScanVertices.Name(),
		pattern: NewPatternWithChildren(plan.KindLimit, plan.KindScanVertices),
	}}}
}

func (r *pushLimitDownScanVertices) Apply(ctx *OptContext, node *OptGroupNode) (*TransformResult, error) {
	child := ctx.Best(node.Deps()[0])
	scan := child.Plan().(*plan.ScanVertices)
	return pushLimitIntoScan(node, child, scan.Limit, func(count int64) plan.Node {
		cp := scan.WithInputs().(*plan.ScanVertices)
		cp.Limit = count
		return cp
	}), nil
}

type pushLimitDownScanEdges struct {
	pushDownRule
}

func newPushLimitDownScanEdges() Rule {
	return &pushLimitDownScanEdges{pushDownRule{baseRule{
		name:    RulePushLimitDownScanEdges.Name(),
		pattern: NewPatternWithChildren(plan.KindLimit, plan.KindScanEdges),
	}}}
}

func (r *pushLimitDownScanEdges) Apply(ctx *OptContext, node *OptGroupNode) (*TransformResult, error) {
	child := ctx.Best(node.Deps()[0])
	scan := child.Plan().(*plan.ScanEdges)
	return pushLimitIntoScan(node, child, scan.Limit, func(count int64) plan.Node {
		cp := scan.WithInputs().(*plan.ScanEdges)
		cp.Limit = count
		return cp
	}), nil
}

type pushLimitDownIndexScan struct {
	pushDownRule
}

func newPushLimitDownIndexScan() Rule {
	return &pushLimitDownIndexScan{pushDownRule{baseRule{
		name:    RulePushLimitDownIndexScan.Name(),
		pattern: NewPatternWithChildren(plan.KindLimit, plan.KindIndexScan),
	}}}
}

func (r *pushLimitDownIndexScan) Apply(ctx *OptContext, node *OptGroupNode) (*TransformResult, error) {
	child := ctx.Best(node.Deps()[0])
	scan := child.Plan().(*plan.IndexScan)
	return pushLimitIntoScan(node, child, scan.Limit, func(count int64) plan.Node {
		cp := scan.WithInputs().(*plan.IndexScan)
		cp.Limit = count
		return cp
	}), nil
}

// pushLimitDownGetNeighbors copies a Limit into the expansion so storage can
// stop early, keeping the outer Limit because the inline cap is advisory.
type pushLimitDownGetNeighbors struct {
	pushDownRule
}

func newPushLimitDownGetNeighbors() Rule {
	return &pushLimitDownGetNeighbors{pushDownRule{baseRule{
		name:    RulePushLimitDownGetNeighbors.Name(),
		pattern: NewPatternWithChildren(plan.KindLimit, plan.KindGetNeighbors),
	}}}
}

func (r *pushLimitDownGetNeighbors) Apply(ctx *OptContext, node *OptGroupNode) (*TransformResult, error) {
	limit := node.Plan().(*plan.Limit)
	child := ctx.Best(node.Deps()[0])
	gn := child.Plan().(*plan.GetNeighbors)
	if gn.Limit >= 0 && gn.Limit <= limit.Count {
		return nil, nil
	}

	grandPlan := ctx.Best(child.Deps()[0]).Plan()
	cp := plan.NewGetNeighbors(grandPlan, gn.EdgeType, gn.Props)
	cp.Dedup = gn.Dedup
	cp.Limit = limit.Count
	gnGroup := ctx.NewGroup(cp, child.Deps())
	return &TransformResult{
		EraseCurr: true,
		NewAlts:   []NewAlt{{Node: node.Plan(), Deps: []GroupID{gnGroup}}},
	}, nil
}

// scanWithFilter folds a Filter into the scan beneath it so the predicate
// runs during the storage sweep.
type scanWithFilter struct {
	pushDownRule
}

func newScanWithFilter() Rule {
	return &scanWithFilter{pushDownRule{baseRule{
		name:    RuleScanWithFilter.Name(),
		pattern: NewPattern(plan.KindFilter),
	}}}
}

func (r *scanWithFilter) Apply(ctx *OptContext, node *OptGroupNode) (*TransformResult, error) {
	f := node.Plan().(*plan.Filter)
	child := ctx.Best(node.Deps()[0])

	switch scan := child.Plan().(type) {
	case *plan.ScanVertices:
		if !refsCoveredBy(plan.Refs(f.Condition), scan.ColNames()) {
			return nil, nil
		}
		cp := scan.WithInputs().(*plan.ScanVertices)
		cp.Filter = plan.And(cp.Filter, f.Condition)
		return &TransformResult{
			EraseCurr: true,
			NewAlts:   []NewAlt{{Node: cp, Deps: child.Deps()}},
		}, nil
	case *plan.ScanEdges:
		if !refsCoveredBy(plan.Refs(f.Condition), scan.ColNames()) {
			return nil, nil
		}
		cp := scan.WithInputs().(*plan.ScanEdges)
		cp.Filter = plan.And(cp.Filter, f.Condition)
		return &TransformResult{
			EraseCurr: true,
			NewAlts:   []NewAlt{{Node: cp, Deps: child.Deps()}},
		}, nil
	}
	return nil, nil
}

// indexScan replaces a Filter over a vertex scan with an IndexScan on the
// first equality or range conjunct against a numeric literal, keeping the
// remaining conjuncts as a residual filter.
type indexScan struct {
	pushDownRule
}

func newIndexScan() Rule {
	return &indexScan{pushDownRule{baseRule{
		name:    RuleIndexScan.Name(),
		pattern: NewPatternWithChildren(plan.KindFilter, plan.KindScanVertices),
	}}}
}

func (r *indexScan) Apply(ctx *OptContext, node *OptGroupNode) (*TransformResult, error) {
	f := node.Plan().(*plan.Filter)
	child := ctx.Best(node.Deps()[0])
	scan := child.Plan().(*plan.ScanVertices)
	if scan.Filter != nil {
		return nil, nil
	}

	conjs := plan.Conjuncts(f.Condition)
	pick := -1
	for i, conj := range conjs {
		b, ok := conj.(*plan.Binary)
		if !ok || !b.Op.IsComparison() || b.Op == plan.OpNe {
			continue
		}
		prop, ok := b.L.(*plan.Prop)
		if !ok || prop.Sym != scan.Tag {
			continue
		}
		if _, ok := numericLiteral(b.R); !ok {
			continue
		}
		pick = i
		break
	}
	if pick < 0 {
		return nil, nil
	}

	b := conjs[pick].(*plan.Binary)
	prop := b.L.(*plan.Prop)
	idx := &plan.IndexScan{
		Tag:   scan.Tag,
		Prop:  prop.Name,
		Op:    b.Op,
		Value: b.R,
		Props: scan.Props,
		Limit: scan.Limit,
	}

	residual := plan.ConjoinAll(append(append([]plan.Expr{}, conjs[:pick]...), conjs[pick+1:]...))
	if residual == nil {
		return &TransformResult{
			EraseCurr: true,
			NewAlts:   []NewAlt{{Node: idx, Deps: child.Deps()}},
		}, nil
	}

	idxGroup := ctx.NewGroup(idx, child.Deps())
	top := plan.NewFilter(idx, residual)
	return &TransformResult{
		EraseCurr: true,
		NewAlts:   []NewAlt{{Node: top, Deps: []GroupID{idxGroup}}},
	}, nil
}

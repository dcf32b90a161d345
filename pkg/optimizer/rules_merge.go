package optimizer

import "neurograph/pkg/plan"

// combineFilter fuses two stacked Filters into one with the AND of both
// predicates.
type combineFilter struct {
	mergeRule
}

func newCombineFilter() Rule {
	return &combineFilter{mergeRule{baseRule{
		name:    RuleCombineFilter.Name(),
		pattern: NewPatternWithChildren(plan.KindFilter, plan.KindFilter),
	}}}
}

func (r *combineFilter) Apply(ctx *OptContext, node *OptGroupNode) (*TransformResult, error) {
	upper := node.Plan().(*plan.Filter)
	child := ctx.Best(node.Deps()[0])
	lower := child.Plan().(*plan.Filter)

	grand := ctx.Best(child.Deps()[0]).Plan()
	fused := plan.NewFilter(grand, plan.And(upper.Condition, lower.Condition))
	return r.fuse(fused, child), nil
}

// collapseProject composes two stacked Projects into one, substituting the
// lower projection's expressions into the upper's.
type collapseProject struct {
	mergeRule
}

func newCollapseProject() Rule {
	return &collapseProject{mergeRule{baseRule{
		name:    RuleCollapseProject.Name(),
		pattern: NewPatternWithChildren(plan.KindProject, plan.KindProject),
	}}}
}

func (r *collapseProject) Apply(ctx *OptContext, node *OptGroupNode) (*TransformResult, error) {
	upper := node.Plan().(*plan.Project)
	child := ctx.Best(node.Deps()[0])
	lower := child.Plan().(*plan.Project)

	mapping := make(map[string]plan.Expr, len(lower.Columns))
	for _, c := range lower.Columns {
		mapping[c.Alias] = c.Expr
	}

	cols := make([]plan.ProjCol, len(upper.Columns))
	for i, c := range upper.Columns {
		cols[i] = plan.ProjCol{Alias: c.Alias, Expr: plan.SubstituteColumns(c.Expr, mapping)}
	}

	grand := ctx.Best(child.Deps()[0]).Plan()
	fused := plan.NewProject(grand, cols)
	return r.fuse(fused, child), nil
}

// mergeGetVerticesAndProject folds a single-column Project feeding a
// GetVertices into the fetch itself, substituting the projected expression
// into the source id expression.
type mergeGetVerticesAndProject struct {
	mergeRule
}

func newMergeGetVerticesAndProject() Rule {
	return &mergeGetVerticesAndProject{mergeRule{baseRule{
		name:    RuleMergeGetVerticesAndProject.Name(),
		pattern: NewPatternWithChildren(plan.KindGetVertices, plan.KindProject),
	}}}
}

func (r *mergeGetVerticesAndProject) Apply(ctx *OptContext, node *OptGroupNode) (*TransformResult, error) {
	gv := node.Plan().(*plan.GetVertices)
	child := ctx.Best(node.Deps()[0])
	proj := child.Plan().(*plan.Project)

	// Only a projection that exists solely to feed the id expression can be
	// absorbed; a wider projection carries columns consumed elsewhere.
	if len(proj.Columns) != 1 {
		return nil, nil
	}
	if !refsCoveredBy(plan.Refs(gv.Src), proj.ColNames()) {
		return nil, nil
	}

	mapping := map[string]plan.Expr{proj.Columns[0].Alias: proj.Columns[0].Expr}
	grand := ctx.Best(child.Deps()[0]).Plan()
	fused := plan.NewGetVertices(grand, plan.SubstituteColumns(gv.Src, mapping), gv.Props)
	fused.Dedup = gv.Dedup
	return r.fuse(fused, child), nil
}

// mergeGetNeighborsAndDedup folds a Dedup above a GetNeighbors into the
// expansion's own dedup flag.
type mergeGetNeighborsAndDedup struct {
	mergeRule
}

func newMergeGetNeighborsAndDedup() Rule {
	return &mergeGetNeighborsAndDedup{mergeRule{baseRule{
		name:    RuleMergeGetNeighborsAndDedup.Name(),
		pattern: NewPatternWithChildren(plan.KindDedup, plan.KindGetNeighbors),
	}}}
}

func (r *mergeGetNeighborsAndDedup) Apply(ctx *OptContext, node *OptGroupNode) (*TransformResult, error) {
	child := ctx.Best(node.Deps()[0])
	gn := child.Plan().(*plan.GetNeighbors)

	grand := ctx.Best(child.Deps()[0]).Plan()
	fused := plan.NewGetNeighbors(grand, gn.EdgeType, gn.Props)
	fused.Limit = gn.Limit
	fused.Dedup = true
	return r.fuse(fused, child), nil
}

// topN fuses a Limit directly above a Sort into a TopN, turning a full sort
// plus cutoff into a bounded heap.
type topN struct {
	mergeRule
}

func newTopN() Rule {
	return &topN{mergeRule{baseRule{
		name:    RuleTopN.Name(),
		pattern: NewPatternWithChildren(plan.KindLimit, plan.KindSort),
	}}}
}

func (r *topN) Apply(ctx *OptContext, node *OptGroupNode) (*TransformResult, error) {
	limit := node.Plan().(*plan.Limit)
	child := ctx.Best(node.Deps()[0])
	sort := child.Plan().(*plan.Sort)

	grand := ctx.Best(child.Deps()[0]).Plan()
	fused := plan.NewTopN(grand, sort.Keys, limit.Count)
	return r.fuse(fused, child), nil
}

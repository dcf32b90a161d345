package optimizer

import "neurograph/pkg/plan"

// dedupElimination removes a Dedup whose input already produces distinct
// rows: another Dedup, or a GetNeighbors with its dedup flag set.
type dedupElimination struct {
	eliminationRule
}

func newDedupElimination() Rule {
	return &dedupElimination{eliminationRule{baseRule{
		name:    RuleDedupElimination.Name(),
		pattern: NewPattern(plan.KindDedup),
	}}}
}

func (r *dedupElimination) Apply(ctx *OptContext, node *OptGroupNode) (*TransformResult, error) {
	child := ctx.Best(node.Deps()[0])
	switch c := child.Plan().(type) {
	case *plan.Dedup:
		return r.spliceSoleInput(ctx, node), nil
	case *plan.GetNeighbors:
		if c.Dedup {
			return r.spliceSoleInput(ctx, node), nil
		}
	}
	return nil, nil
}

// eliminateFilter drops a Filter whose condition is the constant true.
type eliminateFilter struct {
	eliminationRule
}

func newEliminateFilter() Rule {
	return &eliminateFilter{eliminationRule{baseRule{
		name:    RuleEliminateFilter.Name(),
		pattern: NewPattern(plan.KindFilter),
	}}}
}

func (r *eliminateFilter) Apply(ctx *OptContext, node *OptGroupNode) (*TransformResult, error) {
	f := node.Plan().(*plan.Filter)
	if !plan.IsTrueLiteral(f.Condition) {
		return nil, nil
	}
	return r.spliceSoleInput(ctx, node), nil
}

// removeNoopProject drops a Project that forwards its input's columns
// unchanged, both names and order.
type removeNoopProject struct {
	eliminationRule
}

func newRemoveNoopProject() Rule {
	return &removeNoopProject{eliminationRule{baseRule{
		name:    RuleRemoveNoopProject.Name(),
		pattern: NewPattern(plan.KindProject),
	}}}
}

func (r *removeNoopProject) Apply(ctx *OptContext, node *OptGroupNode) (*TransformResult, error) {
	p := node.Plan().(*plan.Project)
	childCols := ctx.Best(node.Deps()[0]).Plan().ColNames()
	if len(p.Columns) != len(childCols) {
		return nil, nil
	}
	for i, c := range p.Columns {
		col, ok := c.Expr.(*plan.Column)
		if !ok || col.Name != childCols[i] || c.Alias != childCols[i] {
			return nil, nil
		}
	}
	return r.spliceSoleInput(ctx, node), nil
}

// removeUselessPassThrough splices out planner glue nodes in the post phase.
type removeUselessPassThrough struct {
	eliminationRule
}

func newRemoveUselessPassThrough() Rule {
	return &removeUselessPassThrough{eliminationRule{baseRule{
		name:    RuleRemoveUselessPassThrough.Name(),
		pattern: NewPattern(plan.KindPassThrough),
	}}}
}

func (r *removeUselessPassThrough) Apply(ctx *OptContext, node *OptGroupNode) (*TransformResult, error) {
	return r.spliceSoleInput(ctx, node), nil
}

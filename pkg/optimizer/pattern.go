package optimizer

import "neurograph/pkg/plan"

// Pattern is the structural pre-check gating a rule. It matches on the node's
// operator kind and, when ChildKinds is non-nil, on the kind of each input
// group's current best alternative. The driver never calls Apply on a node
// whose pattern does not match.
type Pattern struct {
	Kind       plan.Kind
	ChildKinds []plan.Kind
}

func NewPattern(kind plan.Kind) Pattern {
	return Pattern{Kind: kind}
}

func NewPatternWithChildren(kind plan.Kind, children ...plan.Kind) Pattern {
	return Pattern{Kind: kind, ChildKinds: children}
}

func (p Pattern) Matches(ctx *OptContext, node *OptGroupNode) bool {
	if node.Kind() != p.Kind {
		return false
	}
	if p.ChildKinds == nil {
		return true
	}
	deps := node.Deps()
	if len(deps) != len(p.ChildKinds) {
		return false
	}
	for i, want := range p.ChildKinds {
		best := ctx.Group(deps[i]).Best()
		if best == nil || best.Kind() != want {
			return false
		}
	}
	return true
}

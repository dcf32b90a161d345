package optimizer

import "neurograph/pkg/plan"

// NewAlt is one alternative to insert into the matched node's group: a plan
// payload plus the dependency groups supplying its inputs.
type NewAlt struct {
	Node plan.Node
	Deps []GroupID
}

// TransformResult is the splice instruction produced by a successful rule
// application. The driver inserts NewAlts first, then erases the matched node
// if EraseCurr is set, so a group can never transit through empty.
type TransformResult struct {
	EraseCurr bool
	NewAlts   []NewAlt
}

// Rule is the unit of rewrite. Apply may assume the node's shape satisfies
// Pattern; it returns nil when a side condition fails (not applicable, no
// change) and an error only on an invariant violation, which aborts the whole
// optimization.
type Rule interface {
	Name() string
	Pattern() Pattern
	Apply(ctx *OptContext, node *OptGroupNode) (*TransformResult, error)
}

// baseRule carries the identity and pattern shared by all rule shapes.
type baseRule struct {
	name    string
	pattern Pattern
}

func (r baseRule) Name() string     { return r.name }
func (r baseRule) Pattern() Pattern { return r.pattern }

// eliminationRule drops a no-op node by splicing its sole input's best
// alternative into the node's own group.
type eliminationRule struct {
	baseRule
}

func (eliminationRule) spliceSoleInput(ctx *OptContext, node *OptGroupNode) *TransformResult {
	child := ctx.Best(node.Deps()[0])
	return &TransformResult{
		EraseCurr: true,
		NewAlts:   []NewAlt{{Node: child.Plan(), Deps: child.Deps()}},
	}
}

// mergeRule fuses a node with its direct input into one combined node whose
// dependencies are the input's dependencies.
type mergeRule struct {
	baseRule
}

func (mergeRule) fuse(fused plan.Node, child *OptGroupNode) *TransformResult {
	return &TransformResult{
		EraseCurr: true,
		NewAlts:   []NewAlt{{Node: fused, Deps: child.Deps()}},
	}
}

// pushDownRule restructures a subtree so the matched node's effect moves
// below its child. Bodies build the interior groups via ctx.NewGroup and
// splice the new top through the returned result. Side conditions are
// checked inside Apply; a failed condition returns nil, never an invalid
// restructure.
type pushDownRule struct {
	baseRule
}

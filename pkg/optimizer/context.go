package optimizer

import (
	"github.com/cockroachdb/errors"

	"neurograph/pkg/plan"
	"neurograph/pkg/stats"
)

type GroupID int

type NodeID int

// OptGroupNode wraps one plan alternative. Its inputs are addressed as group
// ids, never as node references, so a dependency group can swap in a cheaper
// alternative without this node noticing. The embedded plan node's own input
// pointers are stale payload; deps are authoritative.
type OptGroupNode struct {
	id   NodeID
	node plan.Node
	deps []GroupID
}

func (n *OptGroupNode) ID() NodeID      { return n.id }
func (n *OptGroupNode) Plan() plan.Node { return n.node }
func (n *OptGroupNode) Kind() plan.Kind { return n.node.Kind() }
func (n *OptGroupNode) Deps() []GroupID { return n.deps }

// OptGroup is the set of known equivalent alternatives for one output. A
// group is never empty once created, and its best pointer never regresses
// while alternatives are added.
type OptGroup struct {
	id    GroupID
	nodes []*OptGroupNode
	best  *OptGroupNode
}

func (g *OptGroup) ID() GroupID            { return g.id }
func (g *OptGroup) Nodes() []*OptGroupNode { return g.nodes }
func (g *OptGroup) Best() *OptGroupNode    { return g.best }

func (g *OptGroup) contains(id NodeID) bool {
	for _, n := range g.nodes {
		if n.id == id {
			return true
		}
	}
	return false
}

// OptContext is the mutable session of one Optimize call. It owns the group
// map, the cost cache and the round bookkeeping, and is never shared across
// calls.
type OptContext struct {
	groups    map[GroupID]*OptGroup
	root      GroupID
	nextGroup GroupID
	nextNode  NodeID

	estimator       *CostEstimator
	enableCostModel bool
	costCache       map[NodeID]Cost

	changed           bool
	explorationRounds int
	maxExploration    int
	rulesApplied      int
}

// NewOptContext lowers the planner's tree into groups. Shared subtrees become
// shared groups, one group per distinct node slot.
func NewOptContext(root plan.Node, provider stats.Provider, cfg Config) *OptContext {
	ctx := &OptContext{
		groups:          make(map[GroupID]*OptGroup),
		estimator:       NewCostEstimator(provider, cfg.DefaultSelectivity),
		enableCostModel: cfg.EnableCostModel,
		costCache:       make(map[NodeID]Cost),
		maxExploration:  cfg.MaxExplorationRounds,
	}
	memo := make(map[plan.Node]GroupID)
	ctx.root = ctx.lower(root, memo)
	return ctx
}

func (ctx *OptContext) lower(n plan.Node, memo map[plan.Node]GroupID) GroupID {
	if id, ok := memo[n]; ok {
		return id
	}
	inputs := n.Inputs()
	deps := make([]GroupID, len(inputs))
	for i, in := range inputs {
		deps[i] = ctx.lower(in, memo)
	}
	id := ctx.NewGroup(n, deps)
	memo[n] = id
	return id
}

// Root returns the group holding the plan's output.
func (ctx *OptContext) Root() GroupID { return ctx.root }

// Group looks up a group by id; the id must exist.
func (ctx *OptContext) Group(id GroupID) *OptGroup { return ctx.groups[id] }

// Best returns the current best alternative of a group.
func (ctx *OptContext) Best(id GroupID) *OptGroupNode { return ctx.groups[id].best }

// NewGroup creates a group seeded with one alternative. Rules use it to build
// the interior of a restructured subtree before splicing the top via
// TransformResult.
func (ctx *OptContext) NewGroup(node plan.Node, deps []GroupID) GroupID {
	id := ctx.nextGroup
	ctx.nextGroup++
	gn := ctx.newGroupNode(node, deps)
	ctx.groups[id] = &OptGroup{id: id, nodes: []*OptGroupNode{gn}, best: gn}
	return id
}

func (ctx *OptContext) newGroupNode(node plan.Node, deps []GroupID) *OptGroupNode {
	id := ctx.nextNode
	ctx.nextNode++
	return &OptGroupNode{id: id, node: node, deps: append([]GroupID(nil), deps...)}
}

// AddAlternative inserts a new alternative and recomputes the group's best.
// A strictly cheaper alternative takes over; ties keep the earlier-inserted
// node. Inserting a structural duplicate of an existing alternative is a
// no-op: the existing id is returned with added=false and the context is not
// marked changed.
func (ctx *OptContext) AddAlternative(groupID GroupID, node plan.Node, deps []GroupID) (NodeID, bool) {
	group := ctx.groups[groupID]
	for _, existing := range group.nodes {
		if sameAlternative(existing, node, deps) {
			return existing.id, false
		}
	}

	gn := ctx.newGroupNode(node, deps)
	group.nodes = append(group.nodes, gn)
	ctx.changed = true

	if ctx.enableCostModel && ctx.nodeCost(gn).Total() < ctx.nodeCost(group.best).Total() {
		group.best = gn
		ctx.invalidateCosts()
	}
	return gn.id, true
}

// Erase removes an alternative. Erasing the last alternative is rejected as
// ErrGroupWouldBeEmpty; erasing the best forces a recomputation from the
// remaining nodes.
func (ctx *OptContext) Erase(groupID GroupID, nodeID NodeID) error {
	group := ctx.groups[groupID]
	if !group.contains(nodeID) {
		return nil
	}
	if len(group.nodes) == 1 {
		return errors.Wrapf(ErrGroupWouldBeEmpty, "group %d node %d", groupID, nodeID)
	}

	kept := group.nodes[:0]
	for _, n := range group.nodes {
		if n.id != nodeID {
			kept = append(kept, n)
		}
	}
	group.nodes = kept
	ctx.changed = true

	if group.best != nil && group.best.id == nodeID {
		group.best = ctx.pickBest(group)
		ctx.invalidateCosts()
	}
	return nil
}

// pickBest scans a group's alternatives in insertion order, keeping the first
// node with the lowest total cost. With the cost model disabled the first
// alternative wins outright.
func (ctx *OptContext) pickBest(group *OptGroup) *OptGroupNode {
	best := group.nodes[0]
	if !ctx.enableCostModel {
		return best
	}
	bestTotal := ctx.nodeCost(best).Total()
	for _, n := range group.nodes[1:] {
		if total := ctx.nodeCost(n).Total(); total < bestTotal {
			best, bestTotal = n, total
		}
	}
	return best
}

// nodeCost returns the cumulative cost of a node and the best alternatives of
// its dependency groups, via the per-session cache.
func (ctx *OptContext) nodeCost(n *OptGroupNode) Cost {
	if cached, ok := ctx.costCache[n.id]; ok {
		return cached
	}
	inputRows := make([]float64, len(n.deps))
	inputCosts := make([]Cost, len(n.deps))
	for i, dep := range n.deps {
		inputCosts[i] = ctx.nodeCost(ctx.groups[dep].best)
		inputRows[i] = inputCosts[i].Rows
	}
	cost := ctx.estimator.EstimateCost(n.node, inputRows)
	for _, in := range inputCosts {
		cost = cost.AddInput(in)
	}
	ctx.costCache[n.id] = cost
	return cost
}

// GroupCost returns the cumulative cost of a group's best alternative.
func (ctx *OptContext) GroupCost(id GroupID) Cost {
	return ctx.nodeCost(ctx.groups[id].best)
}

// A best-pointer change anywhere invalidates every cached ancestor cost.
func (ctx *OptContext) invalidateCosts() {
	ctx.costCache = make(map[NodeID]Cost)
}

// Changed reports whether any rule changed the plan since the last reset.
func (ctx *OptContext) Changed() bool { return ctx.changed }

func (ctx *OptContext) resetChanged() { ctx.changed = false }

// explorationExhausted reports whether the global alternative-generation
// budget is spent. The driver stops applying rules once it is.
func (ctx *OptContext) explorationExhausted() bool {
	return ctx.explorationRounds >= ctx.maxExploration
}

func (ctx *OptContext) noteExploration() {
	ctx.explorationRounds++
	ctx.rulesApplied++
}

// pruneToBest drops every non-best alternative. Used when multi-plan
// retention is disabled.
func (ctx *OptContext) pruneToBest() {
	for _, group := range ctx.groups {
		if len(group.nodes) > 1 {
			group.nodes = []*OptGroupNode{group.best}
		}
	}
}

// Validate checks the structural invariants after optimization: every
// referenced dependency group exists and the best-plan DAG is acyclic.
func (ctx *OptContext) Validate() error {
	for gid, group := range ctx.groups {
		for _, n := range group.nodes {
			for _, dep := range n.deps {
				if _, ok := ctx.groups[dep]; !ok {
					return errors.Newf("group %d node %d references missing group %d", gid, n.id, dep)
				}
			}
		}
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	state := make(map[GroupID]int)
	var visit func(GroupID) error
	visit = func(id GroupID) error {
		switch state[id] {
		case gray:
			return errors.Newf("cycle through group %d", id)
		case black:
			return nil
		}
		state[id] = gray
		for _, dep := range ctx.groups[id].best.deps {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[id] = black
		return nil
	}
	return visit(ctx.root)
}

// ExtractPlan converts the best alternatives reachable from the root back
// into a plan tree, preserving sharing.
func (ctx *OptContext) ExtractPlan() (plan.Node, error) {
	memo := make(map[GroupID]plan.Node)
	return ctx.extract(ctx.root, memo)
}

func (ctx *OptContext) extract(id GroupID, memo map[GroupID]plan.Node) (plan.Node, error) {
	if n, ok := memo[id]; ok {
		return n, nil
	}
	best := ctx.groups[id].best
	if best == nil {
		return nil, errors.Newf("group %d has no best alternative", id)
	}
	inputs := make([]plan.Node, len(best.deps))
	for i, dep := range best.deps {
		in, err := ctx.extract(dep, memo)
		if err != nil {
			return nil, err
		}
		inputs[i] = in
	}
	n := best.node.WithInputs(inputs...)
	memo[id] = n
	return n, nil
}

// sameAlternative reports whether an existing node is structurally identical
// to a candidate insertion: same operator configuration, same dependencies.
func sameAlternative(existing *OptGroupNode, node plan.Node, deps []GroupID) bool {
	if existing.Kind() != node.Kind() || len(existing.deps) != len(deps) {
		return false
	}
	for i, dep := range deps {
		if existing.deps[i] != dep {
			return false
		}
	}
	return existing.node.Describe() == node.Describe()
}

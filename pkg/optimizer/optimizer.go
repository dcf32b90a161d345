package optimizer

import (
	"github.com/cockroachdb/errors"

	"neurograph/pkg/monitor"
	"neurograph/pkg/plan"
	"neurograph/pkg/stats"
)

// Optimizer rewrites a planner's tree into an equivalent, cheaper one by
// running its configured rule sets phase by phase. One instance is reusable
// across calls; all per-call state lives in the OptContext.
type Optimizer struct {
	cfg      Config
	provider stats.Provider
	sets     []*RuleSet

	// Metrics accumulates process-wide counters across calls.
	Metrics *monitor.OptimizerStats
}

func NewOptimizer(cfg Config, provider stats.Provider) *Optimizer {
	cfg.normalize()
	o := &Optimizer{cfg: cfg, provider: provider, Metrics: monitor.NewOptimizerStats()}
	o.sets = []*RuleSet{
		buildRuleSet("logical", PhaseLogical, cfg.LogicalRules, cfg.RuleConfig),
		buildRuleSet("physical", PhasePhysical, cfg.PhysicalRules, cfg.RuleConfig),
		buildRuleSet("post", PhasePost, cfg.PostRules, cfg.RuleConfig),
	}
	return o
}

// NewRuleSet builds an ordered rule set for one phase. Sets added through
// AddRuleSet run after the built-in set of the same phase.
func NewRuleSet(name string, phase Phase, rules ...Rule) *RuleSet {
	return &RuleSet{name: name, phase: phase, rules: rules}
}

func (o *Optimizer) AddRuleSet(set *RuleSet) {
	o.sets = append(o.sets, set)
}

// RulesForPhase concatenates the rules of every set declared for the phase,
// preserving set registration order and in-set order.
func (o *Optimizer) RulesForPhase(phase Phase) []Rule {
	var out []Rule
	for _, set := range o.sets {
		if set.phase == phase {
			out = append(out, set.rules...)
		}
	}
	return out
}

// Optimize rewrites root and returns the best equivalent plan. On error the
// caller should fall back to executing the unoptimized tree.
func (o *Optimizer) Optimize(root plan.Node) (plan.Node, error) {
	out, _, err := o.OptimizeWithStats(root)
	return out, err
}

// OptimizeWithStats is Optimize plus per-call counters.
func (o *Optimizer) OptimizeWithStats(root plan.Node) (plan.Node, *OptimizationStats, error) {
	st := newOptimizationStats(root)
	ctx := NewOptContext(root, o.provider, o.cfg)

	for _, phase := range []Phase{PhaseLogical, PhasePhysical, PhasePost} {
		rounds, err := o.executePhase(ctx, phase)
		st.PhaseRounds[phase] = rounds
		if err != nil {
			if o.Metrics != nil {
				o.Metrics.RecordError()
			}
			return nil, st, err
		}
	}

	if !o.cfg.EnableMultiPlan {
		ctx.pruneToBest()
	}
	if err := ctx.Validate(); err != nil {
		return nil, st, err
	}

	out, err := ctx.ExtractPlan()
	if err != nil {
		return nil, st, err
	}
	if o.cfg.EnablePropertyPruning {
		out = pruneProperties(out, nil)
	}

	st.finish(ctx, out, o.cfg.EnableCostModel)
	if o.Metrics != nil {
		o.Metrics.RecordOptimize(st.Elapsed)
		o.Metrics.RecordRulesFired(uint64(st.RulesApplied))
	}
	return out, st, nil
}

// executePhase runs one phase's fixed-point loop and returns the number of
// rounds executed. The round counter advances unconditionally, so the loop is
// bounded even when rules keep firing.
func (o *Optimizer) executePhase(ctx *OptContext, phase Phase) (int, error) {
	rules := o.RulesForPhase(phase)
	round, stable := 0, 0
	for round < o.cfg.MaxIterationRounds {
		ctx.resetChanged()
		if err := o.applyRulesOnce(ctx, rules); err != nil {
			return round + 1, err
		}
		if ctx.Changed() {
			stable = 0
		} else {
			stable++
		}
		if o.cfg.EnableAdaptiveIteration && round >= o.cfg.MinIterationRounds && stable >= o.cfg.StableThreshold {
			return round + 1, nil
		}
		round++
	}
	return round, nil
}

// applyRulesOnce sweeps every reachable group in post-order (children
// converge before parents), testing each rule's pattern before calling its
// body. The global exploration budget is checked before every application;
// once spent, no rule fires again for the rest of the call.
func (o *Optimizer) applyRulesOnce(ctx *OptContext, rules []Rule) error {
	for _, gid := range ctx.postOrderGroups() {
		group := ctx.Group(gid)
		for _, rule := range rules {
			// Snapshot: the splice below mutates the node slice.
			nodes := append([]*OptGroupNode(nil), group.Nodes()...)
			for _, node := range nodes {
				if !group.contains(node.ID()) {
					continue
				}
				if ctx.explorationExhausted() {
					return nil
				}
				if !rule.Pattern().Matches(ctx, node) {
					continue
				}
				result, err := rule.Apply(ctx, node)
				if err != nil {
					return errors.Wrapf(errors.Mark(err, ErrRuleApplication), "rule %s", rule.Name())
				}
				if result == nil {
					continue
				}
				effective, err := o.splice(ctx, gid, node, result)
				if err != nil {
					return errors.Wrapf(err, "rule %s", rule.Name())
				}
				if effective {
					ctx.noteExploration()
				}
			}
		}
	}
	return nil
}

// splice applies a TransformResult: insert the new alternatives first, then
// erase the matched node, so the group never passes through empty. Reports
// whether anything actually changed (duplicate insertions are no-ops).
func (o *Optimizer) splice(ctx *OptContext, gid GroupID, node *OptGroupNode, result *TransformResult) (bool, error) {
	effective := false
	for _, alt := range result.NewAlts {
		if _, added := ctx.AddAlternative(gid, alt.Node, alt.Deps); added {
			effective = true
		}
	}
	if result.EraseCurr {
		if err := ctx.Erase(gid, node.ID()); err != nil {
			return effective, err
		}
		effective = true
	}
	return effective, nil
}

// postOrderGroups returns every group reachable from the root, dependencies
// before dependents, in deterministic traversal order.
func (ctx *OptContext) postOrderGroups() []GroupID {
	seen := make(map[GroupID]bool)
	var order []GroupID
	var visit func(GroupID)
	visit = func(id GroupID) {
		if seen[id] {
			return
		}
		seen[id] = true
		for _, n := range ctx.groups[id].nodes {
			for _, dep := range n.deps {
				visit(dep)
			}
		}
		order = append(order, id)
	}
	visit(ctx.root)
	return order
}

// pruneProperties narrows the property-fetch lists of leaf operators to what
// the operators above them actually reference. required is the demand from
// above; nil means unknown, in which case nothing is narrowed until a
// Project or Aggregate pins the demand.
func pruneProperties(n plan.Node, required map[string]struct{}) plan.Node {
	switch v := n.(type) {
	case *plan.Project:
		childReq := make(map[string]struct{})
		for _, c := range v.Columns {
			addPropRefs(childReq, plan.Refs(c.Expr))
		}
		return rebuild(n, childReq)

	case *plan.Aggregate:
		childReq := make(map[string]struct{})
		for _, k := range v.GroupKeys {
			childReq[propName(k)] = struct{}{}
		}
		for _, a := range v.Aggs {
			addPropRefs(childReq, plan.Refs(a.Arg))
		}
		return rebuild(n, childReq)

	case *plan.Filter:
		childReq := cloneReq(required)
		if childReq != nil {
			addPropRefs(childReq, plan.Refs(v.Condition))
		}
		return rebuild(n, childReq)

	case *plan.Sort:
		childReq := cloneReq(required)
		if childReq != nil {
			for _, k := range v.Keys {
				childReq[propName(k.Col)] = struct{}{}
			}
		}
		return rebuild(n, childReq)

	case *plan.TopN:
		childReq := cloneReq(required)
		if childReq != nil {
			for _, k := range v.Keys {
				childReq[propName(k.Col)] = struct{}{}
			}
		}
		return rebuild(n, childReq)

	case *plan.ScanVertices:
		if required == nil {
			return n
		}
		keep := cloneReq(required)
		addPropRefs(keep, plan.Refs(v.Filter))
		cp := v.WithInputs().(*plan.ScanVertices)
		cp.Props = narrowProps(cp.Props, keep)
		return cp

	case *plan.ScanEdges:
		if required == nil {
			return n
		}
		keep := cloneReq(required)
		addPropRefs(keep, plan.Refs(v.Filter))
		cp := v.WithInputs().(*plan.ScanEdges)
		cp.Props = narrowProps(cp.Props, keep)
		return cp

	case *plan.IndexScan:
		if required == nil {
			return n
		}
		keep := cloneReq(required)
		keep[v.Prop] = struct{}{}
		cp := v.WithInputs().(*plan.IndexScan)
		cp.Props = narrowProps(cp.Props, keep)
		return cp

	case *plan.GetVertices:
		out := rebuild(n, required).(*plan.GetVertices)
		if required != nil {
			out.Props = narrowProps(out.Props, required)
		}
		return out

	case *plan.GetNeighbors:
		out := rebuild(n, required).(*plan.GetNeighbors)
		if required != nil {
			out.Props = narrowProps(out.Props, required)
		}
		return out
	}

	return rebuild(n, required)
}

func rebuild(n plan.Node, childReq map[string]struct{}) plan.Node {
	inputs := n.Inputs()
	if len(inputs) == 0 {
		return n
	}
	pruned := make([]plan.Node, len(inputs))
	for i, in := range inputs {
		pruned[i] = pruneProperties(in, childReq)
	}
	return n.WithInputs(pruned...)
}

func cloneReq(required map[string]struct{}) map[string]struct{} {
	if required == nil {
		return nil
	}
	out := make(map[string]struct{}, len(required))
	for k := range required {
		out[k] = struct{}{}
	}
	return out
}

func addPropRefs(set map[string]struct{}, refs []string) {
	for _, r := range refs {
		set[propName(r)] = struct{}{}
	}
}

// propName strips the symbol qualifier: "n.age" -> "age".
func propName(ref string) string {
	for i := len(ref) - 1; i >= 0; i-- {
		if ref[i] == '.' {
			return ref[i+1:]
		}
	}
	return ref
}

func narrowProps(props []string, required map[string]struct{}) []string {
	kept := props[:0:0]
	for _, p := range props {
		if _, ok := required[p]; ok {
			kept = append(kept, p)
		}
	}
	return kept
}

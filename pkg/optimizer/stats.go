package optimizer

import (
	"fmt"
	"time"

	"neurograph/pkg/plan"
)

// OptimizationStats summarizes one Optimize call.
type OptimizationStats struct {
	PlanNodesBefore   int
	PlanNodesAfter    int
	RulesApplied      int
	ExplorationRounds int
	PhaseRounds       map[Phase]int
	FinalCost         Cost
	Elapsed           time.Duration

	start time.Time
}

func newOptimizationStats(root plan.Node) *OptimizationStats {
	return &OptimizationStats{
		PlanNodesBefore: plan.NodeCount(root),
		PhaseRounds:     make(map[Phase]int),
		start:           time.Now(),
	}
}

func (st *OptimizationStats) finish(ctx *OptContext, out plan.Node, costed bool) {
	st.RulesApplied = ctx.rulesApplied
	st.ExplorationRounds = ctx.explorationRounds
	st.PlanNodesAfter = plan.NodeCount(out)
	if costed {
		st.FinalCost = ctx.GroupCost(ctx.Root())
	}
	st.Elapsed = time.Since(st.start)
}

func (st *OptimizationStats) String() string {
	return fmt.Sprintf(
		"nodes %d -> %d, rules applied %d, rounds L=%d P=%d Post=%d, cost %.1f, %v",
		st.PlanNodesBefore, st.PlanNodesAfter, st.RulesApplied,
		st.PhaseRounds[PhaseLogical], st.PhaseRounds[PhasePhysical], st.PhaseRounds[PhasePost],
		st.FinalCost.Total(), st.Elapsed)
}

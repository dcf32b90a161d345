package optimizer

import (
	"testing"

	"github.com/cockroachdb/errors"

	"neurograph/pkg/plan"
	"neurograph/pkg/stats"
)

func testProvider() *stats.MemoryProvider {
	p := stats.NewMemoryProvider()
	p.SetRowCount("player", 10000)
	p.SetRowCount("team", 100)
	p.SetRowCount("serve", 30000)
	p.SetAverageDegree("serve", 3)
	return p
}

func newTestContext(t *testing.T, root plan.Node) *OptContext {
	t.Helper()
	return NewOptContext(root, testProvider(), DefaultConfig())
}

func TestLoweringSharesSubtrees(t *testing.T) {
	scan := plan.NewScanVertices("player", []string{"name"})
	join := plan.NewCrossJoin(scan, scan)
	ctx := newTestContext(t, join)

	best := ctx.Best(ctx.Root())
	if best.Kind() != plan.KindCrossJoin {
		t.Fatalf("root kind: got %v", best.Kind())
	}
	deps := best.Deps()
	if len(deps) != 2 {
		t.Fatalf("root deps: got %d", len(deps))
	}
	if deps[0] != deps[1] {
		t.Errorf("shared subtree should lower into one shared group, got %d and %d", deps[0], deps[1])
	}
}

func TestLoweringOneGroupPerSlot(t *testing.T) {
	scan := plan.NewScanVertices("player", []string{"age"})
	filter := plan.NewFilter(scan, plan.NewBinary(plan.OpGt, plan.NewProp("player", "age"), plan.NewLiteral(30)))
	limit := plan.NewLimit(filter, 10)
	ctx := newTestContext(t, limit)

	if got := len(ctx.postOrderGroups()); got != 3 {
		t.Errorf("groups: got %d, want 3", got)
	}
	order := ctx.postOrderGroups()
	if ctx.Best(order[0]).Kind() != plan.KindScanVertices {
		t.Errorf("post-order should visit the scan first, got %v", ctx.Best(order[0]).Kind())
	}
	if ctx.Best(order[2]).Kind() != plan.KindLimit {
		t.Errorf("post-order should visit the root last, got %v", ctx.Best(order[2]).Kind())
	}
}

func TestAddAlternativeCheaperWins(t *testing.T) {
	scan := plan.NewScanVertices("player", []string{"name"})
	ctx := newTestContext(t, scan)
	gid := ctx.Root()
	before := ctx.GroupCost(gid).Total()

	cheap := plan.NewScanVertices("player", []string{"name"})
	cheap.Limit = 10
	_, added := ctx.AddAlternative(gid, cheap, nil)
	if !added {
		t.Fatal("alternative should have been inserted")
	}
	if ctx.Best(gid).Plan() != plan.Node(cheap) {
		t.Error("strictly cheaper alternative should become best")
	}
	if after := ctx.GroupCost(gid).Total(); after >= before {
		t.Errorf("best cost regressed: %f -> %f", before, after)
	}
	if !ctx.Changed() {
		t.Error("insertion should mark the context changed")
	}
}

func TestAddAlternativeExpensiveNeverWins(t *testing.T) {
	scan := plan.NewScanVertices("player", []string{"name"})
	scan.Limit = 10
	ctx := newTestContext(t, scan)
	gid := ctx.Root()

	expensive := plan.NewScanVertices("player", []string{"name"})
	expensive.Limit = 5000
	ctx.AddAlternative(gid, expensive, nil)
	if ctx.Best(gid).Plan() != plan.Node(scan) {
		t.Error("more expensive alternative must not replace best")
	}
}

func TestAddAlternativeTieKeepsFirstInserted(t *testing.T) {
	scan := plan.NewScanVertices("player", []string{"x"})
	ctx := newTestContext(t, scan)
	gid := ctx.Root()

	// Same cost profile, different configuration.
	twin := plan.NewScanVertices("player", []string{"y"})
	ctx.AddAlternative(gid, twin, nil)
	if ctx.Best(gid).Plan() != plan.Node(scan) {
		t.Error("equal-cost alternative must not displace the first-inserted best")
	}
}

func TestAddAlternativeDuplicateIsNoop(t *testing.T) {
	scan := plan.NewScanVertices("player", []string{"name"})
	ctx := newTestContext(t, scan)
	gid := ctx.Root()
	ctx.resetChanged()

	dup := plan.NewScanVertices("player", []string{"name"})
	_, added := ctx.AddAlternative(gid, dup, nil)
	if added {
		t.Error("structural duplicate should not be inserted")
	}
	if ctx.Changed() {
		t.Error("duplicate insertion must not mark the context changed")
	}
}

func TestEraseLastAlternativeFails(t *testing.T) {
	scan := plan.NewScanVertices("player", nil)
	ctx := newTestContext(t, scan)
	gid := ctx.Root()
	nodeID := ctx.Best(gid).ID()

	err := ctx.Erase(gid, nodeID)
	if !errors.Is(err, ErrGroupWouldBeEmpty) {
		t.Fatalf("erasing the last alternative: got %v, want ErrGroupWouldBeEmpty", err)
	}
	if len(ctx.Group(gid).Nodes()) != 1 {
		t.Error("failed erase must leave the group intact")
	}
}

func TestEraseBestRecomputes(t *testing.T) {
	scan := plan.NewScanVertices("player", []string{"name"})
	ctx := newTestContext(t, scan)
	gid := ctx.Root()

	cheap := plan.NewScanVertices("player", []string{"name"})
	cheap.Limit = 10
	cheapID, _ := ctx.AddAlternative(gid, cheap, nil)
	if ctx.Best(gid).ID() != cheapID {
		t.Fatal("setup: cheap alternative should be best")
	}

	if err := ctx.Erase(gid, cheapID); err != nil {
		t.Fatalf("Erase: %v", err)
	}
	if ctx.Best(gid).Plan() != plan.Node(scan) {
		t.Error("erasing the best must promote the remaining alternative")
	}
}

func TestExtractPlanPreservesSharing(t *testing.T) {
	scan := plan.NewScanVertices("player", []string{"name"})
	join := plan.NewCrossJoin(scan, scan)
	ctx := newTestContext(t, join)

	out, err := ctx.ExtractPlan()
	if err != nil {
		t.Fatalf("ExtractPlan: %v", err)
	}
	inputs := out.Inputs()
	if inputs[0] != inputs[1] {
		t.Error("extraction should keep shared groups as one shared node")
	}
}

func TestValidateCatchesMissingGroup(t *testing.T) {
	scan := plan.NewScanVertices("player", nil)
	filter := plan.NewFilter(scan, plan.NewLiteral(true))
	ctx := newTestContext(t, filter)

	root := ctx.Group(ctx.Root())
	root.best.deps[0] = GroupID(9999)
	if err := ctx.Validate(); err == nil {
		t.Error("Validate should reject a dangling dependency group id")
	}
}

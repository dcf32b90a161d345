package optimizer

import (
	"testing"

	"neurograph/pkg/plan"
)

// ruleOnly builds an optimizer running exactly the given built-in rules, with
// multi-plan retention and the cost model on and pruning off.
func ruleOnly(logical, physical, post []RuleID) *Optimizer {
	cfg := Config{
		EnableCostModel: true,
		EnableMultiPlan: true,
		LogicalRules:    logical,
		PhysicalRules:   physical,
		PostRules:       post,
	}
	return NewOptimizer(cfg, testProvider())
}

func optimizeOne(t *testing.T, o *Optimizer, root plan.Node) plan.Node {
	t.Helper()
	out, err := o.Optimize(root)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	return out
}

func ageGt(v int64) plan.Expr {
	return plan.NewBinary(plan.OpGt, plan.NewProp("player", "age"), plan.NewLiteral(v))
}

func scoreGe(v int64) plan.Expr {
	return plan.NewBinary(plan.OpGe, plan.NewProp("player", "score"), plan.NewLiteral(v))
}

func TestCombineFilterStackedPredicates(t *testing.T) {
	scan := plan.NewScanVertices("player", []string{"age", "score"})
	inner := plan.NewFilter(scan, scoreGe(80))
	outer := plan.NewFilter(inner, ageGt(30))

	out := optimizeOne(t, ruleOnly([]RuleID{RuleCombineFilter}, nil, nil), outer)

	f, ok := out.(*plan.Filter)
	if !ok {
		t.Fatalf("root: got %v, want Filter", out.Kind())
	}
	want := plan.And(ageGt(30), scoreGe(80))
	if !plan.EqualExprs(f.Condition, want) {
		t.Errorf("fused condition: got %s, want %s", f.Condition, want)
	}
	if plan.NodeCount(out) != 2 {
		t.Errorf("node count: got %d, want 2", plan.NodeCount(out))
	}
}

func TestCollapseProjectSubstitutesExpressions(t *testing.T) {
	scan := plan.NewScanVertices("player", []string{"age", "name"})
	lower := plan.NewProject(scan, []plan.ProjCol{
		{Alias: "a", Expr: plan.NewProp("player", "age")},
		{Alias: "b", Expr: plan.NewProp("player", "name")},
	})
	upper := plan.NewProject(lower, []plan.ProjCol{
		{Alias: "a", Expr: plan.NewColumn("a")},
	})

	out := optimizeOne(t, ruleOnly([]RuleID{RuleCollapseProject}, nil, nil), upper)

	p, ok := out.(*plan.Project)
	if !ok {
		t.Fatalf("root: got %v, want Project", out.Kind())
	}
	if len(p.Columns) != 1 || p.Columns[0].Alias != "a" {
		t.Fatalf("columns: got %v", p.Columns)
	}
	if !plan.EqualExprs(p.Columns[0].Expr, plan.NewProp("player", "age")) {
		t.Errorf("substituted expr: got %s, want player.age", p.Columns[0].Expr)
	}
	if out.Inputs()[0].Kind() != plan.KindScanVertices {
		t.Errorf("collapsed project should sit directly on the scan")
	}
}

func TestFilterPushDownGating(t *testing.T) {
	build := func() plan.Node {
		left := plan.NewScanVertices("player", []string{"age"})
		right := plan.NewScanVertices("team", []string{"name"})
		join := plan.NewHashInnerJoin(left, right,
			[]plan.Expr{plan.NewColumn("player")}, []plan.Expr{plan.NewColumn("team")})
		return plan.NewFilter(join, ageGt(30))
	}

	// Disabled: the filter stays above the join.
	cfg := Config{
		EnableCostModel: true,
		EnableMultiPlan: true,
		LogicalRules:    []RuleID{RuleFilterPushDown},
		RuleConfig:      NewRuleConfig().Disable(RuleFilterPushDown),
	}
	out := optimizeOne(t, NewOptimizer(cfg, testProvider()), build())
	if out.Kind() != plan.KindFilter {
		t.Fatalf("disabled: root got %v, want Filter", out.Kind())
	}

	// Enabled: the predicate only touches the left side, so the filter moves
	// below the join entirely.
	out = optimizeOne(t, ruleOnly([]RuleID{RuleFilterPushDown}, nil, nil), build())
	if out.Kind() != plan.KindHashInnerJoin {
		t.Fatalf("enabled: root got %v, want HashInnerJoin", out.Kind())
	}
	left := out.Inputs()[0]
	if left.Kind() != plan.KindFilter {
		t.Fatalf("left input: got %v, want Filter", left.Kind())
	}
	if !plan.EqualExprs(left.(*plan.Filter).Condition, ageGt(30)) {
		t.Errorf("pushed condition: got %s", left.(*plan.Filter).Condition)
	}
	if out.Inputs()[1].Kind() != plan.KindScanVertices {
		t.Errorf("right input should stay a bare scan, got %v", out.Inputs()[1].Kind())
	}
}

func TestFilterPushDownKeepsCrossSidePredicate(t *testing.T) {
	left := plan.NewScanVertices("player", []string{"age"})
	right := plan.NewScanVertices("team", []string{"score"})
	join := plan.NewCrossJoin(left, right)
	cross := plan.NewBinary(plan.OpEq, plan.NewProp("player", "age"), plan.NewProp("team", "score"))
	filter := plan.NewFilter(join, plan.And(ageGt(30), cross))

	out := optimizeOne(t, ruleOnly([]RuleID{RuleFilterPushDown}, nil, nil), filter)

	f, ok := out.(*plan.Filter)
	if !ok {
		t.Fatalf("root: got %v, want residual Filter", out.Kind())
	}
	if !plan.EqualExprs(f.Condition, cross) {
		t.Errorf("residual: got %s, want %s", f.Condition, cross)
	}
	if out.Inputs()[0].Inputs()[0].Kind() != plan.KindFilter {
		t.Errorf("left-only conjunct should move below the join")
	}
}

func TestFilterPushDownLeftJoinRightSideStays(t *testing.T) {
	left := plan.NewScanVertices("player", []string{"age"})
	right := plan.NewScanVertices("team", []string{"score"})
	join := plan.NewHashLeftJoin(left, right,
		[]plan.Expr{plan.NewColumn("player")}, []plan.Expr{plan.NewColumn("team")})
	rightPred := plan.NewBinary(plan.OpGt, plan.NewProp("team", "score"), plan.NewLiteral(int64(50)))
	filter := plan.NewFilter(join, rightPred)

	out := optimizeOne(t, ruleOnly([]RuleID{RuleFilterPushDown}, nil, nil), filter)
	if out.Kind() != plan.KindFilter {
		t.Errorf("right-side predicate must not move below a left join, root got %v", out.Kind())
	}
}

func TestPushFilterDownTraverse(t *testing.T) {
	scan := plan.NewScanVertices("player", []string{"age"})
	trav := plan.NewTraverse(scan, "serve", 2)
	filter := plan.NewFilter(trav, ageGt(30))

	out := optimizeOne(t, ruleOnly([]RuleID{RulePushFilterDownTraverse}, nil, nil), filter)
	if out.Kind() != plan.KindTraverse {
		t.Fatalf("root: got %v, want Traverse", out.Kind())
	}
	if out.Inputs()[0].Kind() != plan.KindFilter {
		t.Errorf("filter should sit below the traverse")
	}
}

func TestProjectionPushDownThroughSort(t *testing.T) {
	scan := plan.NewScanVertices("player", []string{"age", "name"})
	lower := plan.NewProject(scan, []plan.ProjCol{
		{Alias: "age", Expr: plan.NewProp("player", "age")},
		{Alias: "name", Expr: plan.NewProp("player", "name")},
		{Alias: "score", Expr: plan.NewProp("player", "score")},
	})
	sort := plan.NewSort(lower, []plan.SortKey{{Col: "age"}})
	upper := plan.NewProject(sort, []plan.ProjCol{
		{Alias: "age", Expr: plan.NewColumn("age")},
		{Alias: "name", Expr: plan.NewColumn("name")},
	})

	out := optimizeOne(t, ruleOnly([]RuleID{RuleProjectionPushDown}, nil, nil), upper)
	if out.Kind() != plan.KindSort {
		t.Fatalf("root: got %v, want Sort", out.Kind())
	}
	if out.Inputs()[0].Kind() != plan.KindProject {
		t.Errorf("project should sit below the sort")
	}
}

func TestProjectionPushDownRequiresKeySurvival(t *testing.T) {
	scan := plan.NewScanVertices("player", []string{"age", "name"})
	sort := plan.NewSort(scan, []plan.SortKey{{Col: "age"}})
	proj := plan.NewProject(sort, []plan.ProjCol{
		{Alias: "name", Expr: plan.NewColumn("name")},
	})

	out := optimizeOne(t, ruleOnly([]RuleID{RuleProjectionPushDown}, nil, nil), proj)
	if out.Kind() != plan.KindProject {
		t.Errorf("dropping the sort key must block the push, root got %v", out.Kind())
	}
}

func TestDedupEliminationStackedAndFused(t *testing.T) {
	scan := plan.NewScanVertices("player", nil)
	stacked := plan.NewDedup(plan.NewDedup(scan))

	out := optimizeOne(t, ruleOnly([]RuleID{RuleDedupElimination}, nil, nil), stacked)
	if out.Kind() != plan.KindDedup || out.Inputs()[0].Kind() != plan.KindScanVertices {
		t.Errorf("stacked dedups should reduce to one, got\n%s", plan.Format(out))
	}

	gn := plan.NewGetNeighbors(scan, "serve", nil)
	gn.Dedup = true
	out = optimizeOne(t, ruleOnly([]RuleID{RuleDedupElimination}, nil, nil), plan.NewDedup(gn))
	if out.Kind() != plan.KindGetNeighbors {
		t.Errorf("dedup over a deduping expansion is redundant, got %v", out.Kind())
	}
}

func TestMergeGetNeighborsAndDedup(t *testing.T) {
	scan := plan.NewScanVertices("player", nil)
	gn := plan.NewGetNeighbors(scan, "serve", []string{"rank"})
	dedup := plan.NewDedup(gn)

	out := optimizeOne(t, ruleOnly([]RuleID{RuleMergeGetNeighborsAndDedup}, nil, nil), dedup)
	fused, ok := out.(*plan.GetNeighbors)
	if !ok {
		t.Fatalf("root: got %v, want GetNeighbors", out.Kind())
	}
	if !fused.Dedup {
		t.Error("fused expansion should carry the dedup flag")
	}
}

func TestMergeGetVerticesAndProject(t *testing.T) {
	scan := plan.NewScanVertices("player", nil)
	proj := plan.NewProject(scan, []plan.ProjCol{
		{Alias: "id", Expr: plan.NewProp("player", "vid")},
	})
	gv := plan.NewGetVertices(proj, plan.NewColumn("id"), []string{"name"})

	out := optimizeOne(t, ruleOnly([]RuleID{RuleMergeGetVerticesAndProject}, nil, nil), gv)
	fused, ok := out.(*plan.GetVertices)
	if !ok {
		t.Fatalf("root: got %v, want GetVertices", out.Kind())
	}
	if !plan.EqualExprs(fused.Src, plan.NewProp("player", "vid")) {
		t.Errorf("src should be substituted through the projection, got %s", fused.Src)
	}
	if out.Inputs()[0].Kind() != plan.KindScanVertices {
		t.Errorf("projection should be absorbed")
	}
}

func TestEliminateTrueFilterAndNoopProject(t *testing.T) {
	scan := plan.NewScanVertices("player", nil)
	filter := plan.NewFilter(scan, plan.NewLiteral(true))
	out := optimizeOne(t, ruleOnly([]RuleID{RuleEliminateFilter}, nil, nil), filter)
	if out.Kind() != plan.KindScanVertices {
		t.Errorf("constant-true filter should vanish, got %v", out.Kind())
	}

	noop := plan.NewProject(scan, []plan.ProjCol{
		{Alias: "player", Expr: plan.NewColumn("player")},
	})
	out = optimizeOne(t, ruleOnly([]RuleID{RuleRemoveNoopProject}, nil, nil), noop)
	if out.Kind() != plan.KindScanVertices {
		t.Errorf("noop projection should vanish, got %v", out.Kind())
	}
}

func TestTopNFusion(t *testing.T) {
	scan := plan.NewScanVertices("player", []string{"age"})
	sort := plan.NewSort(scan, []plan.SortKey{{Col: "age", Desc: true}})
	limit := plan.NewLimit(sort, 10)

	out := optimizeOne(t, ruleOnly(nil, []RuleID{RuleTopN}, nil), limit)
	topn, ok := out.(*plan.TopN)
	if !ok {
		t.Fatalf("root: got %v, want TopN", out.Kind())
	}
	if topn.Count != 10 || len(topn.Keys) != 1 || !topn.Keys[0].Desc {
		t.Errorf("fused TopN lost configuration: %s", topn.Describe())
	}
}

func TestPushLimitIntoScan(t *testing.T) {
	scan := plan.NewScanVertices("player", []string{"name"})
	limit := plan.NewLimit(scan, 10)

	out := optimizeOne(t, ruleOnly(nil, []RuleID{RulePushLimitDownScanVertices}, nil), limit)
	merged, ok := out.(*plan.ScanVertices)
	if !ok {
		t.Fatalf("root: got %v, want ScanVertices", out.Kind())
	}
	if merged.Limit != 10 {
		t.Errorf("scan limit: got %d, want 10", merged.Limit)
	}
}

func TestPushLimitDownGetNeighborsKeepsOuterLimit(t *testing.T) {
	scan := plan.NewScanVertices("player", nil)
	gn := plan.NewGetNeighbors(scan, "serve", nil)
	limit := plan.NewLimit(gn, 5)

	out := optimizeOne(t, ruleOnly(nil, []RuleID{RulePushLimitDownGetNeighbors}, nil), limit)
	if out.Kind() != plan.KindLimit {
		t.Fatalf("outer limit must stay, got %v", out.Kind())
	}
	inner, ok := out.Inputs()[0].(*plan.GetNeighbors)
	if !ok || inner.Limit != 5 {
		t.Errorf("inline expansion limit: got %v", out.Inputs()[0].Describe())
	}
}

func TestIndexScanWithResidualFilter(t *testing.T) {
	scan := plan.NewScanVertices("player", []string{"age", "score"})
	filter := plan.NewFilter(scan, plan.And(ageGt(30), scoreGe(80)))

	out := optimizeOne(t, ruleOnly(nil, []RuleID{RuleIndexScan}, nil), filter)
	f, ok := out.(*plan.Filter)
	if !ok {
		t.Fatalf("root: got %v, want residual Filter", out.Kind())
	}
	if !plan.EqualExprs(f.Condition, scoreGe(80)) {
		t.Errorf("residual: got %s", f.Condition)
	}
	idx, ok := out.Inputs()[0].(*plan.IndexScan)
	if !ok {
		t.Fatalf("input: got %v, want IndexScan", out.Inputs()[0].Kind())
	}
	if idx.Prop != "age" || idx.Op != plan.OpGt {
		t.Errorf("index predicate: got %s", idx.Describe())
	}
}

func TestScanWithFilterFoldsPredicate(t *testing.T) {
	scan := plan.NewScanVertices("player", []string{"age"})
	filter := plan.NewFilter(scan, ageGt(30))

	out := optimizeOne(t, ruleOnly(nil, []RuleID{RuleScanWithFilter}, nil), filter)
	merged, ok := out.(*plan.ScanVertices)
	if !ok {
		t.Fatalf("root: got %v, want ScanVertices", out.Kind())
	}
	if merged.Filter == nil || !plan.EqualExprs(merged.Filter, ageGt(30)) {
		t.Errorf("inline filter: got %v", merged.Filter)
	}
}

func TestRemoveUselessPassThrough(t *testing.T) {
	scan := plan.NewScanVertices("player", nil)
	pt := plan.NewPassThrough(plan.NewPassThrough(scan))

	out := optimizeOne(t, ruleOnly(nil, nil, []RuleID{RuleRemoveUselessPassThrough}), pt)
	if out.Kind() != plan.KindScanVertices {
		t.Errorf("pass-through glue should vanish, got\n%s", plan.Format(out))
	}
}

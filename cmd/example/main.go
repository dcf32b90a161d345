package main

import (
	"fmt"
	"log"
	"time"

	"neurograph/pkg/optimizer"
	"neurograph/pkg/plan"
	"neurograph/pkg/stats"
)

func main() {
	provider := stats.NewMemoryProvider()
	provider.SetRowCount("player", 50000)
	ages := stats.NewHistogram()
	ages.AddBucket(30, 35000, 10)
	ages.AddBucket(60, 15000, 10)
	provider.SetHistogram("player", "age", ages)

	// The kind of tree a naive query planner emits: one node per clause.
	scan := plan.NewScanVertices("player", []string{"name", "age"})
	filter := plan.NewFilter(scan,
		plan.NewBinary(plan.OpGt, plan.NewProp("player", "age"), plan.NewLiteral(int64(30))))
	project := plan.NewProject(filter, []plan.ProjCol{
		{Alias: "name", Expr: plan.NewProp("player", "name")},
	})
	sorted := plan.NewSort(project, []plan.SortKey{{Col: "name"}})
	root := plan.NewLimit(sorted, 10)

	fmt.Println("Before:")
	fmt.Print(plan.Format(root))

	opt := optimizer.NewOptimizer(optimizer.DefaultConfig(), provider)
	start := time.Now()
	optimized, st, err := opt.OptimizeWithStats(root)
	if err != nil {
		log.Fatalf("Optimize failed: %v", err)
	}

	fmt.Println("After:")
	fmt.Print(plan.Format(optimized))
	fmt.Printf("%s (in %v)\n", st, time.Since(start))
}

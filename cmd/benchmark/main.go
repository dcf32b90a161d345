package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"neurograph/pkg/gql"
	"neurograph/pkg/optimizer"
	"neurograph/pkg/stats"
)

func main() {
	nRuns := flag.Int("n", 10000, "Number of optimization passes per run")
	query := flag.String("query", "MATCH (n:player) WHERE n.age > 30 AND n.score >= 80 RETURN n.name, n.age ORDER BY n.age DESC LIMIT 10", "query to optimize")
	flag.Parse()

	provider := stats.NewMemoryProvider()
	provider.SetRowCount("player", 50000)
	provider.SetAverageDegree("serve", 3)
	ages := stats.NewHistogram()
	ages.AddBucket(30, 35000, 10)
	ages.AddBucket(60, 15000, 10)
	provider.SetHistogram("player", "age", ages)

	stmt, err := gql.Parse(*query)
	if err != nil {
		log.Fatalf("Parse failed: %v", err)
	}

	fmt.Printf("Optimizer Benchmark (N=%d)\n", *nRuns)
	fmt.Printf("  Query: %s\n", *query)
	fmt.Println("---------------------------------------------------")

	fmt.Println(">> Full pipeline (cost model + multi-plan)...")
	full := runBenchmark(optimizer.DefaultConfig(), provider, stmt, *nRuns)
	fmt.Printf("   Time: %v | Plans/s: %.0f\n\n", full, float64(*nRuns)/full.Seconds())

	fmt.Println(">> Rewrite only (cost model off)...")
	cfg := optimizer.DefaultConfig()
	cfg.EnableCostModel = false
	cfg.EnableMultiPlan = false
	rewrite := runBenchmark(cfg, provider, stmt, *nRuns)
	fmt.Printf("   Time: %v | Plans/s: %.0f\n", rewrite, float64(*nRuns)/rewrite.Seconds())

	fmt.Println("---------------------------------------------------")
	overhead := full.Seconds() / rewrite.Seconds()
	fmt.Printf("Conclusion: cost-based search costs %.2fx over pure rewriting\n", overhead)
}

func runBenchmark(cfg optimizer.Config, provider stats.Provider, stmt *gql.MatchStmt, n int) time.Duration {
	opt := optimizer.NewOptimizer(cfg, provider)
	start := time.Now()
	for i := 0; i < n; i++ {
		if _, err := opt.Optimize(gql.Plan(stmt)); err != nil {
			log.Fatalf("Optimize failed: %v", err)
		}
	}
	return time.Since(start)
}

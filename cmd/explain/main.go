package main

import (
	"flag"
	"fmt"
	"log"

	"neurograph/pkg/config"
	"neurograph/pkg/gql"
	"neurograph/pkg/optimizer"
	"neurograph/pkg/plan"
	"neurograph/pkg/stats"
)

func main() {
	configPath := flag.String("config", "", "path to neurograph.yaml")
	query := flag.String("query", "MATCH (n:player) WHERE n.age > 30 AND n.score >= 80 RETURN n.name, n.age ORDER BY n.age DESC LIMIT 10", "query to explain")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	provider, err := loadProvider(cfg)
	if err != nil {
		log.Fatalf("Failed to load statistics: %v", err)
	}

	stmt, err := gql.Parse(*query)
	if err != nil {
		log.Fatalf("Parse failed: %v", err)
	}
	unoptimized := gql.Plan(stmt)

	fmt.Println("Query:", *query)
	fmt.Println()
	fmt.Println("Unoptimized plan:")
	fmt.Print(plan.Format(unoptimized))

	opt := optimizer.NewOptimizer(optimizer.FromFileConfig(cfg.Optimizer), provider)
	optimized, st, err := opt.OptimizeWithStats(unoptimized)
	if err != nil {
		log.Fatalf("Optimize failed: %v", err)
	}

	fmt.Println()
	fmt.Println("Optimized plan:")
	fmt.Print(plan.Format(optimized))
	fmt.Println()
	fmt.Println("Stats:", st)
}

// loadProvider opens the sqlite catalog when configured, otherwise seeds a
// small in-memory demo dataset.
func loadProvider(cfg *config.Config) (stats.Provider, error) {
	if cfg.Stats.Path != "" {
		catalog, err := stats.OpenCatalog(cfg.Stats.Path)
		if err != nil {
			return nil, err
		}
		defer catalog.Close()
		return catalog.Load()
	}

	provider := stats.NewMemoryProvider()
	provider.SetRowCount("player", 50000)
	provider.SetRowCount("team", 300)
	provider.SetRowCount("serve", 120000)
	provider.SetAverageDegree("serve", 3)

	ages := stats.NewHistogram()
	ages.AddBucket(20, 10000, 5)
	ages.AddBucket(30, 25000, 10)
	ages.AddBucket(40, 12000, 10)
	ages.AddBucket(50, 3000, 10)
	provider.SetHistogram("player", "age", ages)
	return provider, nil
}

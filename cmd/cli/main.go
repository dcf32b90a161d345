package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"neurograph/pkg/config"
	"neurograph/pkg/gql"
	"neurograph/pkg/optimizer"
	"neurograph/pkg/plan"
	"neurograph/pkg/stats"
)

const Prompt = "neurograph> "

func main() {
	configPath := flag.String("config", "", "path to neurograph.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Config load failed: %v\n", err)
		return
	}

	provider := stats.NewMemoryProvider()
	if cfg.Stats.Path != "" {
		catalog, err := stats.OpenCatalog(cfg.Stats.Path)
		if err != nil {
			fmt.Printf("Catalog open failed: %v\n", err)
			return
		}
		provider, err = catalog.Load()
		catalog.Close()
		if err != nil {
			fmt.Printf("Catalog load failed: %v\n", err)
			return
		}
	}

	opt := optimizer.NewOptimizer(optimizer.FromFileConfig(cfg.Optimizer), provider)

	fmt.Println("NeuroGraph Explain Shell. Type 'help' for commands.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(Prompt)
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])

		switch cmd {
		case "explain":
			handleExplain(opt, strings.TrimSpace(line[len(parts[0]):]))
		case "rows":
			handleRows(provider, parts)
		case "degree":
			handleDegree(provider, parts)
		case "metrics":
			handleMetrics(opt)
		case "help":
			printHelp()
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			// Bare MATCH queries explain directly.
			if strings.EqualFold(parts[0], "match") {
				handleExplain(opt, line)
				continue
			}
			fmt.Printf("Unknown command: '%s'. Type 'help'.\n", cmd)
		}
	}
}

func handleExplain(opt *optimizer.Optimizer, query string) {
	stmt, err := gql.Parse(query)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	unoptimized := gql.Plan(stmt)

	start := time.Now()
	optimized, st, err := opt.OptimizeWithStats(unoptimized)
	duration := time.Since(start)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Println("Unoptimized:")
	fmt.Print(plan.Format(unoptimized))
	fmt.Println("Optimized:")
	fmt.Print(plan.Format(optimized))
	fmt.Printf("%s (%v)\n", st, duration)
}

func handleRows(provider *stats.MemoryProvider, parts []string) {
	if len(parts) < 3 {
		fmt.Println("Usage: rows <label> <count>")
		return
	}
	count, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || count < 0 {
		fmt.Println("Error: count must be a non-negative number")
		return
	}
	provider.SetRowCount(parts[1], count)
	fmt.Printf("OK (%s = %.0f rows)\n", parts[1], count)
}

func handleDegree(provider *stats.MemoryProvider, parts []string) {
	if len(parts) < 3 {
		fmt.Println("Usage: degree <edge_type> <avg_degree>")
		return
	}
	deg, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || deg < 0 {
		fmt.Println("Error: degree must be a non-negative number")
		return
	}
	provider.SetAverageDegree(parts[1], deg)
	fmt.Printf("OK (%s = %.1f avg degree)\n", parts[1], deg)
}

func handleMetrics(opt *optimizer.Optimizer) {
	m := opt.Metrics
	fmt.Printf("Optimize calls:  %d\n", m.Optimizes())
	fmt.Printf("Rules fired:     %d\n", m.RulesFired())
	fmt.Printf("Errors:          %d\n", m.Errors())
	fmt.Printf("Avg latency:     %v\n", m.AverageOptimizeTime())
	fmt.Printf("Rules/optimize:  %.1f\n", m.RulesPerOptimize())
}

func printHelp() {
	fmt.Println(`
Commands:
  explain <query>            Show the plan before and after optimization
  MATCH ...                  Shorthand for explain
  rows <label> <count>       Set the row count statistic for a label
  degree <edge> <avg>        Set the average out-degree for an edge type
  metrics                    Show cumulative optimizer counters
  exit                       Exit shell
	`)
}

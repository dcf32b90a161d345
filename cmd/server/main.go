package main

import (
	"flag"
	"log"

	"neurograph/pkg/api"
	"neurograph/pkg/config"
	"neurograph/pkg/optimizer"
	"neurograph/pkg/stats"
)

func main() {
	configPath := flag.String("config", "", "path to neurograph.yaml")
	port := flag.String("port", ":8080", "HTTP listen address")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	provider := stats.NewMemoryProvider()
	if cfg.Stats.Path != "" {
		catalog, err := stats.OpenCatalog(cfg.Stats.Path)
		if err != nil {
			log.Fatalf("Failed to open stats catalog: %v", err)
		}
		provider, err = catalog.Load()
		catalog.Close()
		if err != nil {
			log.Fatalf("Failed to load statistics: %v", err)
		}
	}

	opt := optimizer.NewOptimizer(optimizer.FromFileConfig(cfg.Optimizer), provider)
	api.NewServer(opt).Start(*port)
}

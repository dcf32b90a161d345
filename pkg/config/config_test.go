package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	_, err := Load("/nonexistent/path/neurograph.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent path")
	}
	// Load with empty path uses default search (may use defaults if no config file)
	cfg, _ := Load("")
	if cfg.Optimizer.MaxIterationRounds != 5 {
		t.Errorf("default max_iteration_rounds: got %d", cfg.Optimizer.MaxIterationRounds)
	}
	if cfg.Optimizer.MaxExplorationRounds != 128 {
		t.Errorf("default max_exploration_rounds: got %d", cfg.Optimizer.MaxExplorationRounds)
	}
	if !cfg.Optimizer.EnableCostModel {
		t.Error("cost model should default to enabled")
	}
	if cfg.Optimizer.StableThreshold != 2 {
		t.Errorf("default stable_threshold: got %d", cfg.Optimizer.StableThreshold)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	content := `
optimizer:
  max_iteration_rounds: 3
  max_exploration_rounds: 64
  enable_property_pruning: false
  stable_threshold: 1
  rules:
    disabled:
      - FilterPushDownRule
stats:
  path: "stats.db"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Optimizer.MaxIterationRounds != 3 {
		t.Errorf("max_iteration_rounds: got %d", cfg.Optimizer.MaxIterationRounds)
	}
	if cfg.Optimizer.MaxExplorationRounds != 64 {
		t.Errorf("max_exploration_rounds: got %d", cfg.Optimizer.MaxExplorationRounds)
	}
	if cfg.Optimizer.EnablePropertyPruning {
		t.Error("enable_property_pruning should be false")
	}
	if len(cfg.Optimizer.Rules.Disabled) != 1 || cfg.Optimizer.Rules.Disabled[0] != "FilterPushDownRule" {
		t.Errorf("rules.disabled: got %v", cfg.Optimizer.Rules.Disabled)
	}
	if cfg.Stats.Path != "stats.db" {
		t.Errorf("stats path: got %s", cfg.Stats.Path)
	}
}

func TestDefaultsBackfillZeroValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	content := `
optimizer:
  max_iteration_rounds: 0
  default_selectivity: 2.0
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Optimizer.MaxIterationRounds != 5 {
		t.Errorf("zero max_iteration_rounds should backfill to 5, got %d", cfg.Optimizer.MaxIterationRounds)
	}
	if cfg.Optimizer.DefaultSelectivity != 0.5 {
		t.Errorf("out-of-range selectivity should backfill to 0.5, got %f", cfg.Optimizer.DefaultSelectivity)
	}
}

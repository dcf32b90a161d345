package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Optimizer OptimizerConfig `yaml:"optimizer"`
	Stats     StatsConfig     `yaml:"stats"`
}

type OptimizerConfig struct {
	MaxIterationRounds      int         `yaml:"max_iteration_rounds"`
	MaxExplorationRounds    int         `yaml:"max_exploration_rounds"`
	EnableCostModel         bool        `yaml:"enable_cost_model"`
	EnableMultiPlan         bool        `yaml:"enable_multi_plan"`
	EnablePropertyPruning   bool        `yaml:"enable_property_pruning"`
	EnableAdaptiveIteration bool        `yaml:"enable_adaptive_iteration"`
	StableThreshold         int         `yaml:"stable_threshold"`
	MinIterationRounds      int         `yaml:"min_iteration_rounds"`
	DefaultSelectivity      float64     `yaml:"default_selectivity"`
	Rules                   RulesConfig `yaml:"rules"`
}

// RulesConfig gates individual rules by name. A name appearing in both lists
// stays disabled.
type RulesConfig struct {
	Enabled  []string `yaml:"enabled"`
	Disabled []string `yaml:"disabled"`
}

type StatsConfig struct {
	Path string `yaml:"path"` // sqlite catalog path; empty means in-memory only
}

func Load(configPath string) (*Config, error) {
	cfg := &Config{
		Optimizer: OptimizerConfig{
			MaxIterationRounds:      5,
			MaxExplorationRounds:    128,
			EnableCostModel:         true,
			EnableMultiPlan:         true,
			EnablePropertyPruning:   true,
			EnableAdaptiveIteration: true,
			StableThreshold:         2,
			MinIterationRounds:      1,
			DefaultSelectivity:      0.5,
		},
		Stats: StatsConfig{
			Path: "",
		},
	}

	if configPath == "" {
		for _, p := range []string{"configs/neurograph.yaml", "neurograph.yaml"} {
			data, err := os.ReadFile(p)
			if err == nil {
				if err := yaml.Unmarshal(data, cfg); err != nil {
					return cfg, err
				}
				applyOptimizerDefaults(cfg)
				return cfg, nil
			}
		}
		return cfg, nil // no file found: use defaults
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, err
	}

	applyOptimizerDefaults(cfg)
	return cfg, nil
}

func applyOptimizerDefaults(cfg *Config) {
	if cfg.Optimizer.MaxIterationRounds <= 0 {
		cfg.Optimizer.MaxIterationRounds = 5
	}
	if cfg.Optimizer.MaxExplorationRounds <= 0 {
		cfg.Optimizer.MaxExplorationRounds = 128
	}
	if cfg.Optimizer.StableThreshold <= 0 {
		cfg.Optimizer.StableThreshold = 2
	}
	if cfg.Optimizer.MinIterationRounds <= 0 {
		cfg.Optimizer.MinIterationRounds = 1
	}
	if cfg.Optimizer.DefaultSelectivity <= 0 || cfg.Optimizer.DefaultSelectivity > 1 {
		cfg.Optimizer.DefaultSelectivity = 0.5
	}
}

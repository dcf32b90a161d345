package optimizer

import "neurograph/pkg/config"

// Config controls one Optimizer instance. Zero values are backfilled by
// normalize, so a partially filled literal behaves sensibly.
type Config struct {
	// MaxIterationRounds caps the fixed-point loop of each phase.
	MaxIterationRounds int
	// MaxExplorationRounds is the global ceiling on alternative-generation
	// work across all phases of one Optimize call.
	MaxExplorationRounds int

	EnableCostModel       bool
	EnableMultiPlan       bool
	EnablePropertyPruning bool

	// Adaptive iteration exits a phase early once no rule has fired for
	// StableThreshold consecutive rounds, after MinIterationRounds.
	EnableAdaptiveIteration bool
	StableThreshold         int
	MinIterationRounds      int

	DefaultSelectivity float64

	// Ordered rule lists per phase. Order is correctness-relevant: the dedup
	// elimination entry appears both before and after the collapse/merge
	// block in the default logical list.
	LogicalRules  []RuleID
	PhysicalRules []RuleID
	PostRules     []RuleID

	RuleConfig *RuleConfig
}

// DefaultConfig returns the full rule catalogue with default limits.
func DefaultConfig() Config {
	return Config{
		MaxIterationRounds:      5,
		MaxExplorationRounds:    128,
		EnableCostModel:         true,
		EnableMultiPlan:         true,
		EnablePropertyPruning:   true,
		EnableAdaptiveIteration: true,
		StableThreshold:         2,
		MinIterationRounds:      1,
		DefaultSelectivity:      0.5,
		LogicalRules: []RuleID{
			RuleDedupElimination,
			RuleFilterPushDown,
			RulePushFilterDownTraverse,
			RulePushFilterDownExpand,
			RuleProjectionPushDown,
			RuleCombineFilter,
			RuleCollapseProject,
			RuleMergeGetVerticesAndProject,
			RuleMergeGetNeighborsAndDedup,
			RuleDedupElimination, // again, merges above can expose new redundant dedups
			RuleEliminateFilter,
			RuleRemoveNoopProject,
		},
		PhysicalRules: []RuleID{
			RuleTopN,
			RulePushLimitDownProject,
			RulePushLimitDownScanVertices,
			RulePushLimitDownScanEdges,
			RulePushLimitDownGetNeighbors,
			RulePushLimitDownIndexScan,
			RuleIndexScan, // must precede ScanWithFilter or the filter is consumed first
			RuleScanWithFilter,
		},
		PostRules: []RuleID{
			RuleRemoveUselessPassThrough,
		},
		RuleConfig: NewRuleConfig(),
	}
}

// FromFileConfig maps the YAML optimizer section onto a Config, keeping the
// default rule lists.
func FromFileConfig(fc config.OptimizerConfig) Config {
	cfg := DefaultConfig()
	cfg.MaxIterationRounds = fc.MaxIterationRounds
	cfg.MaxExplorationRounds = fc.MaxExplorationRounds
	cfg.EnableCostModel = fc.EnableCostModel
	cfg.EnableMultiPlan = fc.EnableMultiPlan
	cfg.EnablePropertyPruning = fc.EnablePropertyPruning
	cfg.EnableAdaptiveIteration = fc.EnableAdaptiveIteration
	cfg.StableThreshold = fc.StableThreshold
	cfg.MinIterationRounds = fc.MinIterationRounds
	cfg.DefaultSelectivity = fc.DefaultSelectivity
	cfg.RuleConfig = RuleConfigFromNames(fc.Rules.Enabled, fc.Rules.Disabled)
	cfg.normalize()
	return cfg
}

func (cfg *Config) normalize() {
	if cfg.MaxIterationRounds <= 0 {
		cfg.MaxIterationRounds = 5
	}
	if cfg.MaxExplorationRounds <= 0 {
		cfg.MaxExplorationRounds = 128
	}
	if cfg.StableThreshold <= 0 {
		cfg.StableThreshold = 2
	}
	if cfg.MinIterationRounds <= 0 {
		cfg.MinIterationRounds = 1
	}
	if cfg.DefaultSelectivity <= 0 || cfg.DefaultSelectivity > 1 {
		cfg.DefaultSelectivity = 0.5
	}
	if cfg.RuleConfig == nil {
		cfg.RuleConfig = NewRuleConfig()
	}
}

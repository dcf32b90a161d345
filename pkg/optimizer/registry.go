package optimizer

import (
	"log"

	"github.com/cockroachdb/errors"
)

// Phase is one stage of the optimization pipeline. Phases run strictly in
// order, each to convergence.
type Phase int

const (
	PhaseLogical Phase = iota
	PhasePhysical
	PhasePost
)

func (p Phase) String() string {
	switch p {
	case PhaseLogical:
		return "Logical"
	case PhasePhysical:
		return "Physical"
	case PhasePost:
		return "Post"
	}
	return "Unknown"
}

// RuleID is the closed set of rule identities. Configuration names are
// converted to RuleIDs at the boundary; strings never reach the hot loop.
type RuleID int

const (
	RuleDedupElimination RuleID = iota
	RuleFilterPushDown
	RulePushFilterDownTraverse
	RulePushFilterDownExpand
	RuleProjectionPushDown
	RuleCombineFilter
	RuleCollapseProject
	RuleMergeGetVerticesAndProject
	RuleMergeGetNeighborsAndDedup
	RuleEliminateFilter
	RuleRemoveNoopProject
	RuleTopN
	RulePushLimitDownProject
	RulePushLimitDownScanVertices
	RulePushLimitDownScanEdges
	RulePushLimitDownGetNeighbors
	RulePushLimitDownIndexScan
	RuleScanWithFilter
	RuleIndexScan
	RuleRemoveUselessPassThrough
	numRules
)

type ruleDef struct {
	name    string
	phase   Phase
	factory func() Rule
}

// ruleDefs is populated in init: the rule factories read their names back
// through RuleID.Name, so a composite literal initializer would cycle.
var ruleDefs [numRules]ruleDef

func init() {
	ruleDefs = [numRules]ruleDef{
		RuleDedupElimination:           {"DedupEliminationRule", PhaseLogical, newDedupElimination},
		RuleFilterPushDown:             {"FilterPushDownRule", PhaseLogical, newFilterPushDown},
		RulePushFilterDownTraverse:     {"PushFilterDownTraverseRule", PhaseLogical, newPushFilterDownTraverse},
		RulePushFilterDownExpand:       {"PushFilterDownExpandRule", PhaseLogical, newPushFilterDownExpand},
		RuleProjectionPushDown:         {"ProjectionPushDownRule", PhaseLogical, newProjectionPushDown},
		RuleCombineFilter:              {"CombineFilterRule", PhaseLogical, newCombineFilter},
		RuleCollapseProject:            {"CollapseProjectRule", PhaseLogical, newCollapseProject},
		RuleMergeGetVerticesAndProject: {"MergeGetVerticesAndProjectRule", PhaseLogical, newMergeGetVerticesAndProject},
		RuleMergeGetNeighborsAndDedup:  {"MergeGetNeighborsAndDedupRule", PhaseLogical, newMergeGetNeighborsAndDedup},
		RuleEliminateFilter:            {"EliminateFilterRule", PhaseLogical, newEliminateFilter},
		RuleRemoveNoopProject:          {"RemoveNoopProjectRule", PhaseLogical, newRemoveNoopProject},
		RuleTopN:                       {"TopNRule", PhasePhysical, newTopN},
		RulePushLimitDownProject:       {"PushLimitDownProjectRule", PhasePhysical, newPushLimitDownProject},
		RulePushLimitDownScanVertices:  {"PushLimitDownScanVerticesRule", PhasePhysical, newPushLimitDownScanVertices},
		RulePushLimitDownScanEdges:     {"PushLimitDownScanEdgesRule", PhasePhysical, newPushLimitDownScanEdges},
		RulePushLimitDownGetNeighbors:  {"PushLimitDownGetNeighborsRule", PhasePhysical, newPushLimitDownGetNeighbors},
		RulePushLimitDownIndexScan:     {"PushLimitDownIndexScanRule", PhasePhysical, newPushLimitDownIndexScan},
		RuleScanWithFilter:             {"ScanWithFilterRule", PhasePhysical, newScanWithFilter},
		RuleIndexScan:                  {"IndexScanRule", PhasePhysical, newIndexScan},
		RuleRemoveUselessPassThrough:   {"RemoveUselessPassThroughRule", PhasePost, newRemoveUselessPassThrough},
	}
}

func (id RuleID) valid() bool { return id >= 0 && id < numRules }

// Name returns the rule's canonical string name, the form used in
// configuration files.
func (id RuleID) Name() string {
	if !id.valid() {
		return "UnknownRule"
	}
	return ruleDefs[id].name
}

// Phase returns the single phase the rule belongs to.
func (id RuleID) Phase() Phase {
	return ruleDefs[id].phase
}

// NewInstance builds a fresh runtime instance of the rule.
func (id RuleID) NewInstance() Rule {
	return ruleDefs[id].factory()
}

// FromName resolves a canonical rule name to its RuleID.
func FromName(name string) (RuleID, error) {
	for id := RuleID(0); id < numRules; id++ {
		if ruleDefs[id].name == name {
			return id, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownRule, "%q", name)
}

// RuleConfig holds explicit per-rule enable/disable overrides. The default is
// all rules enabled; a rule both enabled and disabled stays disabled.
type RuleConfig struct {
	enabled  map[RuleID]bool
	disabled map[RuleID]bool
}

func NewRuleConfig() *RuleConfig {
	return &RuleConfig{
		enabled:  make(map[RuleID]bool),
		disabled: make(map[RuleID]bool),
	}
}

func (c *RuleConfig) Enable(id RuleID) *RuleConfig {
	c.enabled[id] = true
	return c
}

func (c *RuleConfig) Disable(id RuleID) *RuleConfig {
	c.disabled[id] = true
	return c
}

// IsEnabled reports whether a rule may run. Disabled takes precedence over
// enabled; a rule mentioned in neither table defaults to enabled.
func (c *RuleConfig) IsEnabled(id RuleID) bool {
	if c == nil {
		return true
	}
	if c.disabled[id] {
		return false
	}
	return true
}

// RuleConfigFromNames builds a RuleConfig from configuration name lists.
// Unknown names are logged and skipped, never fatal.
func RuleConfigFromNames(enabled, disabled []string) *RuleConfig {
	cfg := NewRuleConfig()
	for _, name := range enabled {
		id, err := FromName(name)
		if err != nil {
			log.Printf("Warning: skipping unknown rule in enabled list: %v", err)
			continue
		}
		cfg.Enable(id)
	}
	for _, name := range disabled {
		id, err := FromName(name)
		if err != nil {
			log.Printf("Warning: skipping unknown rule in disabled list: %v", err)
			continue
		}
		cfg.Disable(id)
	}
	return cfg
}

// RuleSet is an ordered, named list of rule instances belonging to one phase.
type RuleSet struct {
	name  string
	phase Phase
	rules []Rule
}

func (s *RuleSet) Name() string  { return s.name }
func (s *RuleSet) Phase() Phase  { return s.phase }
func (s *RuleSet) Rules() []Rule { return s.rules }

// buildRuleSet instantiates the configured rule ids for one phase, preserving
// list order and dropping disabled or wrong-phase entries.
func buildRuleSet(name string, phase Phase, ids []RuleID, cfg *RuleConfig) *RuleSet {
	set := &RuleSet{name: name, phase: phase}
	for _, id := range ids {
		if !id.valid() || id.Phase() != phase {
			continue
		}
		if !cfg.IsEnabled(id) {
			continue
		}
		set.rules = append(set.rules, id.NewInstance())
	}
	return set
}

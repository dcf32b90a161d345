package optimizer

import "github.com/cockroachdb/errors"

// Sentinel errors of the optimizer. Only ErrRuleApplication and
// ErrGroupWouldBeEmpty abort an Optimize call; the others degrade.
var (
	// ErrUnknownRule reports a rule name with no registered RuleID. Surfaced
	// at config-load time; the name is skipped with a warning.
	ErrUnknownRule = errors.New("unknown optimization rule")

	// ErrRuleApplication wraps an error returned by a rule's Apply. Rules are
	// expected to be total over the shapes their pattern admits, so this is
	// fatal to the whole call.
	ErrRuleApplication = errors.New("rule application failed")

	// ErrGroupWouldBeEmpty reports an erasure that would leave a group with
	// zero alternatives. Fatal: a rule violated the splice protocol.
	ErrGroupWouldBeEmpty = errors.New("erasure would leave group empty")

	// ErrCostEstimation reports a statistics lookup failure. Recoverable: the
	// estimator falls back to default cardinality and selectivity.
	ErrCostEstimation = errors.New("cost estimation failed")
)

package monitor

import (
	"sync/atomic"
	"time"
)

type OptimizerStats struct {
	OptimizeCount uint64
	RuleFireCount uint64
	ErrorCount    uint64
	TotalNanos    uint64
}

func NewOptimizerStats() *OptimizerStats {
	return &OptimizerStats{}
}

func (os *OptimizerStats) RecordOptimize(elapsed time.Duration) {
	atomic.AddUint64(&os.OptimizeCount, 1)
	atomic.AddUint64(&os.TotalNanos, uint64(elapsed.Nanoseconds()))
}

func (os *OptimizerStats) RecordRulesFired(n uint64) {
	atomic.AddUint64(&os.RuleFireCount, n)
}

func (os *OptimizerStats) RecordError() {
	atomic.AddUint64(&os.ErrorCount, 1)
}

// Optimizes, RulesFired and Errors load the counters atomically; readers must
// go through these rather than the raw fields.
func (os *OptimizerStats) Optimizes() uint64  { return atomic.LoadUint64(&os.OptimizeCount) }
func (os *OptimizerStats) RulesFired() uint64 { return atomic.LoadUint64(&os.RuleFireCount) }
func (os *OptimizerStats) Errors() uint64     { return atomic.LoadUint64(&os.ErrorCount) }

func (os *OptimizerStats) AverageOptimizeTime() time.Duration {
	count := atomic.LoadUint64(&os.OptimizeCount)
	if count == 0 {
		return 0
	}
	total := atomic.LoadUint64(&os.TotalNanos)
	return time.Duration(total / count)
}

func (os *OptimizerStats) RulesPerOptimize() float64 {
	count := atomic.LoadUint64(&os.OptimizeCount)
	fired := atomic.LoadUint64(&os.RuleFireCount)

	if count == 0 {
		if fired > 0 {
			return float64(fired)
		}
		return 0.0
	}
	return float64(fired) / float64(count)
}

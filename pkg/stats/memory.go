package stats

import (
	"sync"

	"github.com/google/btree"
)

// bucket is one equi-width histogram bucket, keyed by its upper bound.
type bucket struct {
	UpperBound float64
	Count      float64
	Distinct   float64
}

func bucketLess(a, b bucket) bool { return a.UpperBound < b.UpperBound }

// Histogram holds the value distribution of one column as btree-ordered
// buckets. Ascending iteration accumulates counts for range predicates.
type Histogram struct {
	buckets *btree.BTreeG[bucket]
	total   float64
}

func NewHistogram() *Histogram {
	return &Histogram{buckets: btree.NewG(8, bucketLess)}
}

// AddBucket records count rows with values in (prevUpper, upper], of which
// distinct are distinct.
func (h *Histogram) AddBucket(upper, count, distinct float64) {
	h.buckets.ReplaceOrInsert(bucket{UpperBound: upper, Count: count, Distinct: distinct})
	h.total += count
}

// Selectivity estimates the fraction of rows matching "col op value".
func (h *Histogram) Selectivity(op string, value float64) float64 {
	if h.total == 0 {
		return DefaultSelectivity
	}
	switch op {
	case "==":
		return h.eqFraction(value)
	case "!=":
		return 1 - h.eqFraction(value)
	case "<", "<=":
		return h.belowFraction(value)
	case ">", ">=":
		return 1 - h.belowFraction(value)
	}
	return DefaultSelectivity
}

func (h *Histogram) eqFraction(value float64) float64 {
	var frac float64
	h.buckets.AscendGreaterOrEqual(bucket{UpperBound: value}, func(b bucket) bool {
		if b.Distinct > 0 {
			frac = b.Count / b.Distinct / h.total
		}
		return false
	})
	return frac
}

func (h *Histogram) belowFraction(value float64) float64 {
	var below float64
	h.buckets.Ascend(func(b bucket) bool {
		if b.UpperBound > value {
			return false
		}
		below += b.Count
		return true
	})
	return below / h.total
}

// MemoryProvider is an in-memory statistics provider. The sqlite catalog
// loads into one of these; tests populate them directly.
type MemoryProvider struct {
	mu         sync.RWMutex
	rowCounts  map[string]float64
	avgDegrees map[string]float64
	histograms map[string]map[string]*Histogram // label -> column -> histogram
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		rowCounts:  make(map[string]float64),
		avgDegrees: make(map[string]float64),
		histograms: make(map[string]map[string]*Histogram),
	}
}

func (m *MemoryProvider) SetRowCount(label string, count float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rowCounts[label] = count
}

func (m *MemoryProvider) SetAverageDegree(edgeType string, degree float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.avgDegrees[edgeType] = degree
}

func (m *MemoryProvider) SetHistogram(label, column string, h *Histogram) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cols, ok := m.histograms[label]
	if !ok {
		cols = make(map[string]*Histogram)
		m.histograms[label] = cols
	}
	cols[column] = h
}

func (m *MemoryProvider) RowCount(label string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count, ok := m.rowCounts[label]
	if !ok {
		return 0, ErrNotFound
	}
	return count, nil
}

func (m *MemoryProvider) Selectivity(label, column, op string, value float64) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cols, ok := m.histograms[label]
	if !ok {
		return 0, ErrNotFound
	}
	h, ok := cols[column]
	if !ok {
		return 0, ErrNotFound
	}
	return h.Selectivity(op, value), nil
}

func (m *MemoryProvider) AverageDegree(edgeType string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	deg, ok := m.avgDegrees[edgeType]
	if !ok {
		return 0, ErrNotFound
	}
	return deg, nil
}

package stats

import "github.com/cockroachdb/errors"

// ErrNotFound reports a label or column the catalog has no statistics for.
// Callers are expected to fall back to defaults rather than fail the query.
var ErrNotFound = errors.New("stats: not found")

// Provider answers the cardinality questions the cost model asks. Every method
// may return ErrNotFound; the optimizer treats that as a recoverable miss.
type Provider interface {
	// RowCount returns the number of vertices of a tag or edges of a type.
	RowCount(label string) (float64, error)

	// Selectivity estimates the fraction of rows of label satisfying
	// "column op value", where op is one of ==, !=, <, <=, >, >=.
	Selectivity(label, column, op string, value float64) (float64, error)

	// AverageDegree returns the mean out-degree per source vertex for an
	// edge type.
	AverageDegree(edgeType string) (float64, error)
}

// DefaultSelectivity is used whenever no histogram can answer a predicate.
const DefaultSelectivity = 0.5

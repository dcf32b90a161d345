package plan

// Kind identifies the operator type of a plan node. The optimizer dispatches
// on kinds only and treats the rest of a node as opaque payload.
type Kind int

const (
	KindStart Kind = iota
	KindScanVertices
	KindScanEdges
	KindIndexScan
	KindGetVertices
	KindGetNeighbors
	KindTraverse
	KindExpand
	KindFilter
	KindProject
	KindDedup
	KindAggregate
	KindSort
	KindLimit
	KindTopN
	KindHashInnerJoin
	KindHashLeftJoin
	KindCrossJoin
	KindPassThrough
)

var kindNames = [...]string{
	KindStart:         "Start",
	KindScanVertices:  "ScanVertices",
	KindScanEdges:     "ScanEdges",
	KindIndexScan:     "IndexScan",
	KindGetVertices:   "GetVertices",
	KindGetNeighbors:  "GetNeighbors",
	KindTraverse:      "Traverse",
	KindExpand:        "Expand",
	KindFilter:        "Filter",
	KindProject:       "Project",
	KindDedup:         "Dedup",
	KindAggregate:     "Aggregate",
	KindSort:          "Sort",
	KindLimit:         "Limit",
	KindTopN:          "TopN",
	KindHashInnerJoin: "HashInnerJoin",
	KindHashLeftJoin:  "HashLeftJoin",
	KindCrossJoin:     "CrossJoin",
	KindPassThrough:   "PassThrough",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// IsLeaf reports whether nodes of this kind read data directly from storage
// rather than from an input operator.
func (k Kind) IsLeaf() bool {
	switch k {
	case KindStart, KindScanVertices, KindScanEdges, KindIndexScan:
		return true
	}
	return false
}

// FetchesProps reports whether nodes of this kind carry a property-fetch list
// that demand-driven pruning may narrow.
func (k Kind) FetchesProps() bool {
	switch k {
	case KindScanVertices, KindScanEdges, KindIndexScan, KindGetVertices, KindGetNeighbors:
		return true
	}
	return false
}

// internal/derive/pipeline.go

package derive

// Staged is a record that belongs to exactly one pipeline stage.
type Staged interface {
	StatusKey() string
}

// StageBucket is one column of a pipeline board.
type StageBucket[E any] struct {
	Stage string
	Items []E
}

// GroupByStage partitions items into one bucket per stage, in the fixed
// stage order, preserving input order within each bucket. Records whose
// stage is not in the order (which the parsers should have rejected
// upstream) are dropped rather than invented a column.
func GroupByStage[E Staged](items []E, order []string) []StageBucket[E] {
	index := make(map[string]int, len(order))
	buckets := make([]StageBucket[E], len(order))
	for i, stage := range order {
		index[stage] = i
		buckets[i] = StageBucket[E]{Stage: stage}
	}
	for _, item := range items {
		if i, ok := index[item.StatusKey()]; ok {
			buckets[i].Items = append(buckets[i].Items, item)
		}
	}
	return buckets
}

// StageOrder converts a typed stage enumeration to the string keys used
// for grouping.
func StageOrder[S ~string](stages []S) []string {
	out := make([]string, len(stages))
	for i, s := range stages {
		out[i] = string(s)
	}
	return out
}

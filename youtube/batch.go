package youtube

import (
	"iter"
	"slices"
)

// Batch splits items into consecutive groups of at most size elements,
// preserving order. A non-positive size means MaxBatchSize. Each group is a
// fresh slice.
func Batch[T any](items []T, size int) [][]T {
	return slices.Collect(Batches(slices.Values(items), size))
}

// Batches groups a sequence lazily. Every yielded group is a fresh slice.
func Batches[T any](seq iter.Seq[T], size int) iter.Seq[[]T] {
	if size <= 0 {
		size = MaxBatchSize
	}
	return func(yield func([]T) bool) {
		group := make([]T, 0, size)
		for item := range seq {
			group = append(group, item)
			if len(group) == size {
				if !yield(group) {
					return
				}
				group = make([]T, 0, size)
			}
		}
		if len(group) > 0 {
			yield(group)
		}
	}
}

// Package distributor partitions scanned source items across a fixed
// number of workers using longest-processing-time-first (LPT) greedy bin
// packing, so that no single worker is left with a disproportionate share
// of bytes to transfer.
package distributor

import "github.com/lucidlink/syncd/internal/scanner"

// Partition is one worker's assigned share of items.
type Partition struct {
	Items []scanner.Item
	Load  int64
}

// Distribute assigns items, which must already be sorted by byte count
// descending, to workers workers. Each item goes to whichever partition
// currently holds the least load, ties broken by lowest index — the LPT
// heuristic, a 4/3-approximation of the optimal makespan. If items is
// empty, workers empty partitions are still returned.
func Distribute(items []scanner.Item, workers int) []Partition {
	if workers < 1 {
		workers = 1
	}

	partitions := make([]Partition, workers)
	for _, item := range items {
		min := 0
		for i := 1; i < workers; i++ {
			if partitions[i].Load < partitions[min].Load {
				min = i
			}
		}
		partitions[min].Items = append(partitions[min].Items, item)
		partitions[min].Load += item.Bytes
	}
	return partitions
}

package distributor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidlink/syncd/internal/scanner"
)

func TestDistribute_PreservesAndPartitionsAllItems(t *testing.T) {
	items := []scanner.Item{
		{Name: "a", Bytes: 500},
		{Name: "b", Bytes: 300},
		{Name: "c", Bytes: 200},
		{Name: "d", Bytes: 100},
	}

	partitions := Distribute(items, 3)
	require.Len(t, partitions, 3)

	seen := make(map[string]bool)
	var total int
	for _, p := range partitions {
		for _, item := range p.Items {
			assert.False(t, seen[item.Name], "item %s assigned to more than one partition", item.Name)
			seen[item.Name] = true
			total++
		}
	}
	assert.Equal(t, len(items), total, "expected all items distributed")
	for _, item := range items {
		assert.True(t, seen[item.Name], "item %s missing from any partition", item.Name)
	}
}

func TestDistribute_BalancesLoad(t *testing.T) {
	// Six items of decreasing size 10..5 over 3 workers: the spread
	// between the heaviest and lightest partition must not exceed the
	// largest single item.
	items := []scanner.Item{
		{Name: "a", Bytes: 10},
		{Name: "b", Bytes: 9},
		{Name: "c", Bytes: 8},
		{Name: "d", Bytes: 7},
		{Name: "e", Bytes: 6},
		{Name: "f", Bytes: 5},
	}
	partitions := Distribute(items, 3)

	var maxLoad, minLoad int64
	maxLoad = partitions[0].Load
	minLoad = partitions[0].Load
	for _, p := range partitions {
		if p.Load > maxLoad {
			maxLoad = p.Load
		}
		if p.Load < minLoad {
			minLoad = p.Load
		}
	}

	var maxItemBytes int64
	for _, item := range items {
		if item.Bytes > maxItemBytes {
			maxItemBytes = item.Bytes
		}
	}

	assert.LessOrEqual(t, maxLoad-minLoad, maxItemBytes, "load imbalance exceeds largest item size")
}

func TestDistribute_FewerItemsThanWorkersLeavesEmptyPartitions(t *testing.T) {
	items := []scanner.Item{{Name: "only", Bytes: 42}}
	partitions := Distribute(items, 4)
	if len(partitions) != 4 {
		t.Fatalf("expected 4 partitions, got %d", len(partitions))
	}

	nonEmpty := 0
	for _, p := range partitions {
		if len(p.Items) > 0 {
			nonEmpty++
		}
	}
	if nonEmpty != 1 {
		t.Errorf("expected exactly 1 non-empty partition, got %d", nonEmpty)
	}
}

func TestDistribute_NoItemsReturnsAllEmptyPartitions(t *testing.T) {
	partitions := Distribute(nil, 3)
	if len(partitions) != 3 {
		t.Fatalf("expected 3 partitions, got %d", len(partitions))
	}
	for _, p := range partitions {
		if len(p.Items) != 0 || p.Load != 0 {
			t.Errorf("expected empty partition, got %+v", p)
		}
	}
}

func TestDistribute_TiesBrokenByLowestIndex(t *testing.T) {
	items := []scanner.Item{
		{Name: "a", Bytes: 10},
		{Name: "b", Bytes: 10},
	}
	partitions := Distribute(items, 2)
	if len(partitions[0].Items) != 1 || partitions[0].Items[0].Name != "a" {
		t.Errorf("expected first item to land in partition 0, got %+v", partitions[0])
	}
	if len(partitions[1].Items) != 1 || partitions[1].Items[0].Name != "b" {
		t.Errorf("expected second item to land in partition 1, got %+v", partitions[1])
	}
}

package worker

import (
	"sync"
	"testing"

	"github.com/lucidlink/syncd/internal/model"
	"github.com/lucidlink/syncd/internal/transfer"
)

func TestUpdateItemProgress_RecomputesAggregateBeforePublish(t *testing.T) {
	shared := &Shared{
		Progress: &model.Progress{
			BytesTotal: 1000,
			Workers: []model.WorkerProgress{
				{WorkerIndex: 0, BytesTotal: 600},
				{WorkerIndex: 1, BytesTotal: 400, BytesTransferred: 100},
			},
		},
		ProgressMu: &sync.Mutex{},
	}
	w := &Worker{spec: Spec{Index: 0}, shared: shared}

	w.updateItemProgress(50, transfer.ProgressLine{BytesThisItem: 25, Rate: "1.2MB/s"})

	if got := shared.Progress.BytesTransferred; got != 175 {
		t.Fatalf("expected aggregate bytes_transferred to reflect both workers, got %d", got)
	}
	if got := shared.Progress.Workers[0].BytesTransferred; got != 75 {
		t.Fatalf("expected worker 0 bytes_transferred 75, got %d", got)
	}
}

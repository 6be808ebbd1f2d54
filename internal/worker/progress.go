package worker

import (
	"github.com/lucidlink/syncd/internal/model"
	"github.com/lucidlink/syncd/internal/scanner"
	"github.com/lucidlink/syncd/internal/transfer"
)

func (w *Worker) slot() *model.WorkerProgress {
	return &w.shared.Progress.Workers[w.spec.Index]
}

func (w *Worker) setStatus(status model.WorkerStatus) {
	w.shared.ProgressMu.Lock()
	w.slot().Status = status
	w.shared.ProgressMu.Unlock()
}

func (w *Worker) setCurrentItem(name string) {
	w.shared.ProgressMu.Lock()
	w.slot().CurrentItem = name
	w.shared.ProgressMu.Unlock()
}

func (w *Worker) appendError(msg string) {
	w.shared.ProgressMu.Lock()
	w.slot().Errors = append(w.slot().Errors, msg)
	w.shared.ProgressMu.Unlock()
}

// updateItemProgress applies a best-effort mid-transfer update: the
// worker's transferred bytes become the sum of prior completed items
// plus however far the current item has gotten. This is advisory and
// does not need strict consistency, unlike the completion-time update.
func (w *Worker) updateItemProgress(completedBytes int64, p transfer.ProgressLine) {
	w.shared.ProgressMu.Lock()
	slot := w.slot()
	slot.BytesTransferred = completedBytes + p.BytesThisItem
	slot.Rate = p.Rate
	w.shared.Progress.RecomputeAggregate()
	w.shared.ProgressMu.Unlock()
}

// completeItem adds one finished item's pre-counted file total to the
// worker's completed counters, sets its transferred bytes to
// completedBytes (the pre-counted bytes of every item finished so far,
// replacing any mid-transfer value), and recomputes + publishes the
// aggregate. This update is serialized via the shared mutex and is final
// for the item, unlike the throttled mid-transfer update.
func (w *Worker) completeItem(item scanner.Item, completedBytes int64) {
	w.shared.ProgressMu.Lock()
	slot := w.slot()
	slot.FilesTransferred += item.Files
	slot.BytesTransferred = completedBytes
	w.shared.Progress.RecomputeAggregate()
	w.shared.ProgressMu.Unlock()
	w.publish()
}

func (w *Worker) finalize() {
	w.shared.ProgressMu.Lock()
	slot := w.slot()
	if len(slot.Errors) > 0 {
		slot.Status = model.WorkerFailed
	} else {
		slot.Status = model.WorkerCompleted
	}
	slot.CurrentItem = ""
	w.shared.ProgressMu.Unlock()
	w.publish()
}

func (w *Worker) publish() {
	w.shared.ProgressMu.Lock()
	snapshot := w.shared.Progress.Snapshot()
	w.shared.ProgressMu.Unlock()
	if w.shared.Publish != nil {
		w.shared.Publish(snapshot)
	}
}

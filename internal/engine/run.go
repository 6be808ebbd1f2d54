package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lucidlink/syncd/internal/distributor"
	"github.com/lucidlink/syncd/internal/filenameissue"
	"github.com/lucidlink/syncd/internal/logging"
	"github.com/lucidlink/syncd/internal/model"
	"github.com/lucidlink/syncd/internal/transfer"
	"github.com/lucidlink/syncd/internal/worker"
)

// runTask is the run protocol for one job, executed on its own
// goroutine: pre-flight filename scan, source scan, distribution,
// destination skeleton creation, worker fan-out, aggregation, and
// persistence of the terminal outcome.
func (e *Engine) runTask(job *model.Job, r *run) {
	log := logging.WithJob("engine", job.ID)
	defer e.wg.Done()
	defer func() {
		e.mu.Lock()
		delete(e.runs, job.ID)
		e.mu.Unlock()
	}()

	if issues, err := filenameissue.Scan(job.ID, job.Name, job.SourcePath, job.ExcludePatterns); err != nil {
		log.Warn().Err(err).Msg("pre-flight filename scan failed")
	} else if err := e.issues.ReplaceForJob(job.ID, issues); err != nil {
		log.Warn().Err(err).Msg("failed to persist pre-flight filename issues")
	}

	items, err := e.scan.TopLevelItems(job.SourcePath, job.ExcludePatterns)
	if err != nil {
		e.finishFailed(job, r, fmt.Sprintf("failed to scan source: %v", err), time.Now())
		return
	}

	numWorkers := job.Concurrency
	if numWorkers > len(items) {
		numWorkers = len(items)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}
	partitions := distributor.Distribute(items, numWorkers)

	if err := os.MkdirAll(job.DestPath, 0o755); err != nil {
		e.finishFailed(job, r, fmt.Sprintf("failed to create destination: %v", err), time.Now())
		return
	}
	for _, item := range items {
		if item.IsDir {
			if err := os.MkdirAll(filepath.Join(job.DestPath, item.Name), 0o755); err != nil {
				log.Warn().Err(err).Str("item", item.Name).Msg("failed to pre-create destination directory")
			}
		}
	}

	var filesTotal, bytesTotal int64
	workers := make([]model.WorkerProgress, numWorkers)
	for i, p := range partitions {
		names := make([]string, len(p.Items))
		for j, it := range p.Items {
			names[j] = it.Name
		}
		var files, bytes int64
		for _, it := range p.Items {
			files += it.Files
			bytes += it.Bytes
		}
		workers[i] = model.WorkerProgress{WorkerIndex: i, Items: names, FilesTotal: files, BytesTotal: bytes, Status: model.WorkerPending}
		filesTotal += files
		bytesTotal += bytes
	}

	r.progressMu.Lock()
	r.progress.FilesTotal = filesTotal
	r.progress.BytesTotal = bytesTotal
	r.progress.Workers = workers
	snapshot := r.progress.Snapshot()
	r.progressMu.Unlock()
	e.bus.Publish(job.ID, snapshot)

	effectiveOptions := transfer.StripProgressFlag(job.ToolOptions)

	var wg sync.WaitGroup
	for i, p := range partitions {
		wg.Add(1)
		go func(i int, p distributor.Partition) {
			defer wg.Done()
			worker.Run(worker.Spec{
				Index:       i,
				Partition:   p.Items,
				SourceRoot:  job.SourcePath,
				DestRoot:    job.DestPath,
				ToolOptions: effectiveOptions,
				Excludes:    job.ExcludePatterns,
				MountPath:   job.RemotePath(),
			}, &worker.Shared{
				JobID:      job.ID,
				Cancel:     r.cancel,
				Registry:   r.registry,
				Progress:   r.progress,
				ProgressMu: r.progressMu,
				Publish:    func(p model.Progress) { e.bus.Publish(job.ID, p) },
				Prober:     e.prober,
			})
		}(i, p)
	}
	wg.Wait()

	e.finish(job, r, time.Now())
}

// finishFailed is used for pre-run failures (scan, destination setup)
// that never reach the worker fan-out at all.
func (e *Engine) finishFailed(job *model.Job, r *run, message string, endTime time.Time) {
	r.progressMu.Lock()
	r.progress.Status = model.StatusFailed
	r.progress.ErrorMessage = message
	r.progress.UpdatedAt = endTime
	snapshot := r.progress.Snapshot()
	r.progressMu.Unlock()

	job.Status = model.StatusFailed
	job.LastRunStatus = model.StatusFailed
	job.LastRunMessage = message
	job.RunCount++
	e.persist(job)
	e.bus.Publish(job.ID, snapshot)
	e.errorLog.Append(job.Name, job.ID, []string{message})
}

// finish aggregates worker outcomes into a terminal status: stopped when
// the cancellation flag is set and no worker recorded an error, failed
// when any worker recorded an error (including a mount failure that set
// the flag itself), otherwise completed. It computes
// RunStats, updates the job's lifetime totals, and persists both.
func (e *Engine) finish(job *model.Job, r *run, endTime time.Time) {
	r.progressMu.Lock()
	var allErrors []string
	for _, w := range r.progress.Workers {
		allErrors = append(allErrors, w.Errors...)
	}
	duration := endTime.Sub(r.progress.StartedAt).Seconds()

	var status model.Status
	var message string
	switch {
	case r.cancel.IsSet() && len(allErrors) == 0:
		status = model.StatusStopped
		message = "Stopped by user"
	case len(allErrors) > 0:
		status = model.StatusFailed
		message = fmt.Sprintf("Failed: %s", allErrors[0])
	default:
		status = model.StatusCompleted
		message = fmt.Sprintf("Completed: %d files in %.1fs", r.progress.FilesTransferred, duration)
	}

	stats := model.RunStats{
		DurationSeconds:  duration,
		FilesSynced:      r.progress.FilesTransferred,
		BytesTransferred: r.progress.BytesTransferred,
		Errors:           len(allErrors),
	}
	if duration > 0 {
		stats.FilesPerSecond = float64(stats.FilesSynced) / duration
		stats.BytesPerSecond = float64(stats.BytesTransferred) / duration
	}

	r.progress.Status = status
	if status == model.StatusCompleted {
		r.progress.PercentComplete = 100
	}
	if message != "" && status != model.StatusCompleted {
		r.progress.ErrorMessage = message
	} else {
		r.progress.ErrorMessage = ""
	}
	r.progress.UpdatedAt = endTime
	snapshot := r.progress.Snapshot()
	r.progressMu.Unlock()

	job.Status = status
	job.LastRunStatus = status
	job.LastRunMessage = message
	job.LastRunDuration = duration
	job.LastRunStats = &stats
	job.RunCount++
	job.TotalFilesSynced += stats.FilesSynced
	job.TotalBytesTransferred += stats.BytesTransferred
	job.TotalRunTimeSeconds += duration
	if job.TotalRunTimeSeconds > 0 {
		job.AvgFilesPerSecond = float64(job.TotalFilesSynced) / job.TotalRunTimeSeconds
		job.AvgBytesPerSecond = float64(job.TotalBytesTransferred) / job.TotalRunTimeSeconds
	}

	e.persist(job)
	e.bus.Publish(job.ID, snapshot)

	if len(allErrors) > 0 {
		e.errorLog.Append(job.Name, job.ID, allErrors)
	}
}

func (e *Engine) persist(job *model.Job) {
	log := logging.WithJob("engine", job.ID)
	if err := e.jobs.Update(job); err != nil {
		log.Error().Err(err).Msg("failed to update job after run")
	}
	if err := e.jobs.Save(); err != nil {
		log.Error().Err(err).Msg("failed to persist job store after run")
	}
}

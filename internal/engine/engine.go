// Package engine implements the Job Engine: the state machine and
// concurrency harness that turns a stored Job into a running set of
// workers, aggregates their progress, and records the outcome.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/lucidlink/syncd/internal/errorlog"
	"github.com/lucidlink/syncd/internal/filenameissue"
	"github.com/lucidlink/syncd/internal/jobstore"
	"github.com/lucidlink/syncd/internal/logging"
	"github.com/lucidlink/syncd/internal/model"
	"github.com/lucidlink/syncd/internal/mounthealth"
	"github.com/lucidlink/syncd/internal/progressbus"
	"github.com/lucidlink/syncd/internal/scanner"
	"github.com/lucidlink/syncd/internal/worker"
)

// stopGrace is how long the stop protocol gives a job's children to exit
// on their own before escalating to SIGKILL.
const stopGrace = 5 * time.Second

// run is the tracking state for one job's active execution: its
// cancellation flag, child-process registry, and shared progress record,
// isolated per job per spec.md's isolation guarantee.
type run struct {
	cancel     *worker.CancelFlag
	registry   *worker.ProcessRegistry
	progress   *model.Progress
	progressMu *sync.Mutex
}

// Engine owns the job store, filename-issue store, mount prober, and
// progress bus, and drives job runs. It holds no package-level state:
// callers construct one Engine per process.
type Engine struct {
	jobs      jobstore.Store
	issues    *filenameissue.Store
	prober    *mounthealth.Prober
	bus       *progressbus.Bus
	errorLog  *errorlog.Log
	scan      *scanner.Scanner
	mountPath string

	mu   sync.Mutex
	runs map[string]*run
	wg   sync.WaitGroup
}

// New constructs an Engine. mountPath is the FUSE mount point checked
// before a run starts and reported by Status.
func New(jobs jobstore.Store, issues *filenameissue.Store, prober *mounthealth.Prober, bus *progressbus.Bus, errorLog *errorlog.Log, mountPath string) *Engine {
	return &Engine{
		jobs:      jobs,
		issues:    issues,
		prober:    prober,
		bus:       bus,
		errorLog:  errorLog,
		scan:      scanner.New(),
		mountPath: mountPath,
		runs:      make(map[string]*run),
	}
}

// Start begins a run for jobID. It rejects the request synchronously if
// the job is unknown, already running, or either side of the job (the
// FUSE mount or the source path) is unhealthy; otherwise it initializes
// a fresh Progress record, persists the running status, and returns
// before the run completes.
func (e *Engine) Start(jobID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	job, ok := e.jobs.Get(jobID)
	if !ok {
		return fmt.Errorf("job %s not found", jobID)
	}
	if _, running := e.runs[jobID]; running {
		return fmt.Errorf("job %s is already running", jobID)
	}

	health := e.prober.Check(job.RemotePath())
	if !health.Healthy {
		return fmt.Errorf("mount is unhealthy: %s", health.Diagnostic)
	}
	sourceHealth := e.prober.Check(job.SourcePath)
	if !sourceHealth.Healthy {
		return fmt.Errorf("source path is unhealthy: %s", sourceHealth.Diagnostic)
	}

	now := time.Now()
	progress := &model.Progress{
		JobID:     jobID,
		Status:    model.StatusRunning,
		StartedAt: now,
		UpdatedAt: now,
	}
	r := &run{
		cancel:     &worker.CancelFlag{},
		registry:   worker.NewProcessRegistry(),
		progress:   progress,
		progressMu: &sync.Mutex{},
	}
	e.runs[jobID] = r

	job.Status = model.StatusRunning
	job.LastRunAt = &now
	if err := e.jobs.Update(job); err != nil {
		logging.WithJob("engine", jobID).Error().Err(err).Msg("failed to update job before run")
	}
	if err := e.jobs.Save(); err != nil {
		logging.WithJob("engine", jobID).Error().Err(err).Msg("failed to persist job store before run")
	}
	e.bus.Publish(jobID, progress.Snapshot())

	e.wg.Add(1)
	go e.runTask(job, r)

	return nil
}

// Stop requests cancellation of a running job, publishes a "Stopping..."
// snapshot, sends SIGTERM to its children, waits the full stopGrace, and
// then kills any child still tracked. It returns after that kill step;
// the job's final terminal state is settled by the run task itself, not
// by Stop.
func (e *Engine) Stop(jobID string) error {
	e.mu.Lock()
	r, ok := e.runs[jobID]
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("job %s is not running", jobID)
	}

	r.cancel.Set()

	r.progressMu.Lock()
	r.progress.Status = model.StatusRunning
	r.progress.CurrentFile = "Stopping..."
	for i := range r.progress.Workers {
		if r.progress.Workers[i].Status == model.WorkerRunning {
			r.progress.Workers[i].Status = model.WorkerStopping
		}
	}
	r.progress.UpdatedAt = time.Now()
	snapshot := r.progress.Snapshot()
	r.progressMu.Unlock()
	e.bus.Publish(jobID, snapshot)

	r.registry.TerminateAll(stopGrace)
	return nil
}

// Shutdown stops every currently running job and waits for their run
// tasks to finish settling state, so a process exit after Shutdown
// leaves the job store in a consistent, terminal-state-only condition.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	jobIDs := make([]string, 0, len(e.runs))
	for id := range e.runs {
		jobIDs = append(jobIDs, id)
	}
	e.mu.Unlock()

	for _, id := range jobIDs {
		if err := e.Stop(id); err != nil {
			logging.WithJob("engine", id).Warn().Err(err).Msg("failed to stop job during shutdown")
		}
	}
	e.wg.Wait()
}

// SystemStatus is a cheap read-model of overall supervisor state,
// exposed for operator tooling without requiring a per-job lookup.
type SystemStatus struct {
	MountConnected bool
	MountPoint     string
	JobsTotal      int
	JobsRunning    int
	JobsEnabled    int
}

// Status reports the mount's current health and job counts across the
// whole store.
func (e *Engine) Status() SystemStatus {
	health := e.prober.Check(e.mountPath)

	e.mu.Lock()
	running := len(e.runs)
	e.mu.Unlock()

	jobs := e.jobs.List()
	enabled := 0
	for _, j := range jobs {
		if j.Enabled {
			enabled++
		}
	}

	return SystemStatus{
		MountConnected: health.Healthy,
		MountPoint:     e.mountPath,
		JobsTotal:      len(jobs),
		JobsRunning:    running,
		JobsEnabled:    enabled,
	}
}

// Progress returns the live progress snapshot for a running job, if any.
func (e *Engine) Progress(jobID string) (model.Progress, bool) {
	return e.bus.Latest(jobID)
}

package engine

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lucidlink/syncd/internal/errorlog"
	"github.com/lucidlink/syncd/internal/filenameissue"
	"github.com/lucidlink/syncd/internal/jobstore"
	"github.com/lucidlink/syncd/internal/model"
	"github.com/lucidlink/syncd/internal/mounthealth"
	"github.com/lucidlink/syncd/internal/progressbus"
)

// withFakeRsync puts an "rsync" that runs script ahead of PATH so worker
// runs complete without a real transfer tool or mutating any filesystem
// beyond what the test fixtures already set up.
func withFakeRsync(t *testing.T, script string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake rsync script requires a POSIX shell")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "rsync")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("failed to write fake rsync: %v", err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func newHarness(t *testing.T) (*Engine, jobstore.Store) {
	t.Helper()
	store := jobstore.NewMemoryStore()
	issues := filenameissue.NewStore(filepath.Join(t.TempDir(), "issues.json"))
	if err := issues.Load(); err != nil {
		t.Fatalf("failed to load issue store: %v", err)
	}
	eng := New(store, issues, mounthealth.New(), progressbus.New(), errorlog.New(filepath.Join(t.TempDir(), "errors.log")), t.TempDir())
	return eng, store
}

func newTestJob(source, dest string) *model.Job {
	now := time.Now()
	return &model.Job{
		ID:          uuid.NewString(),
		Name:        "nightly-render",
		SourcePath:  source,
		DestPath:    dest,
		Direction:   model.DirectionLocalToRemote,
		Concurrency: 2,
		ToolOptions: "-av",
		Enabled:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
		Status:      model.StatusIdle,
	}
}

func TestEngine_Start_RejectsUnknownJob(t *testing.T) {
	eng, _ := newHarness(t)
	if err := eng.Start("nope"); err == nil {
		t.Error("expected an error starting an unknown job")
	}
}

func TestEngine_Start_RejectsAlreadyRunning(t *testing.T) {
	eng, store := newHarness(t)
	source, dest := t.TempDir(), t.TempDir()
	withFakeRsync(t, "sleep 5")

	job := newTestJob(source, dest)
	if err := store.Create(job); err != nil {
		t.Fatalf("failed to create job: %v", err)
	}

	if err := eng.Start(job.ID); err != nil {
		t.Fatalf("first start failed: %v", err)
	}
	if err := eng.Start(job.ID); err == nil {
		t.Error("expected second start of the same job to be rejected")
	}
	eng.Shutdown()
}

func TestEngine_Start_RejectsUnhealthyMount(t *testing.T) {
	eng, store := newHarness(t)
	job := newTestJob(t.TempDir(), filepath.Join(t.TempDir(), "does-not-exist", "nested"))
	if err := store.Create(job); err != nil {
		t.Fatalf("failed to create job: %v", err)
	}
	if err := eng.Start(job.ID); err == nil {
		t.Error("expected start to be rejected when the remote mount path doesn't exist")
	}
}

func TestEngine_Start_RejectsUnhealthySource(t *testing.T) {
	eng, store := newHarness(t)
	job := newTestJob(filepath.Join(t.TempDir(), "does-not-exist", "nested"), t.TempDir())
	if err := store.Create(job); err != nil {
		t.Fatalf("failed to create job: %v", err)
	}
	if err := eng.Start(job.ID); err == nil {
		t.Error("expected start to be rejected when the source path doesn't exist")
	}
}

func TestEngine_Start_RunsJobToCompletion(t *testing.T) {
	eng, store := newHarness(t)
	source := t.TempDir()
	if err := os.WriteFile(filepath.Join(source, "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("failed to write fixture file: %v", err)
	}
	dest := t.TempDir()
	withFakeRsync(t, `echo '    5  100%    5.00MB/s    0:00:00'`)

	job := newTestJob(source, dest)
	if err := store.Create(job); err != nil {
		t.Fatalf("failed to create job: %v", err)
	}

	if err := eng.Start(job.ID); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitForTerminal(t, store, job.ID)

	got, _ := store.Get(job.ID)
	if got.Status != model.StatusCompleted {
		t.Errorf("got status %q, want %q", got.Status, model.StatusCompleted)
	}
	if got.LastRunStats == nil || got.LastRunStats.FilesSynced != 1 {
		t.Errorf("expected 1 file synced in run stats, got %+v", got.LastRunStats)
	}
}

func TestEngine_Start_FailsJobOnWorkerError(t *testing.T) {
	eng, store := newHarness(t)
	source := t.TempDir()
	if err := os.WriteFile(filepath.Join(source, "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("failed to write fixture file: %v", err)
	}
	dest := t.TempDir()
	withFakeRsync(t, `echo 'rsync: connection unexpectedly closed'; exit 1`)

	job := newTestJob(source, dest)
	if err := store.Create(job); err != nil {
		t.Fatalf("failed to create job: %v", err)
	}

	if err := eng.Start(job.ID); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitForTerminal(t, store, job.ID)

	got, _ := store.Get(job.ID)
	if got.Status != model.StatusFailed {
		t.Errorf("got status %q, want %q", got.Status, model.StatusFailed)
	}
}

func TestEngine_Stop_CancelsRunningJobAndMarksStopped(t *testing.T) {
	eng, store := newHarness(t)
	source := t.TempDir()
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(filepath.Join(source, "f"+string(rune('a'+i))+".txt"), []byte("hello"), 0o644); err != nil {
			t.Fatalf("failed to write fixture file: %v", err)
		}
	}
	dest := t.TempDir()
	withFakeRsync(t, "sleep 5")

	job := newTestJob(source, dest)
	job.Concurrency = 1
	if err := store.Create(job); err != nil {
		t.Fatalf("failed to create job: %v", err)
	}

	if err := eng.Start(job.ID); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	// Give the worker time to spawn its child before stopping it.
	time.Sleep(100 * time.Millisecond)
	if err := eng.Stop(job.ID); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	waitForTerminal(t, store, job.ID)

	got, _ := store.Get(job.ID)
	if got.Status != model.StatusStopped {
		t.Errorf("got status %q, want %q", got.Status, model.StatusStopped)
	}
}

func TestEngine_Stop_PublishesStoppingWorkerStatus(t *testing.T) {
	eng, store := newHarness(t)
	source := t.TempDir()
	if err := os.WriteFile(filepath.Join(source, "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("failed to write fixture file: %v", err)
	}
	dest := t.TempDir()
	withFakeRsync(t, "sleep 5")

	job := newTestJob(source, dest)
	job.Concurrency = 1
	if err := store.Create(job); err != nil {
		t.Fatalf("failed to create job: %v", err)
	}

	if err := eng.Start(job.ID); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	// Stop waits out the termination grace period before returning, and by
	// then the worker has already reported itself stopped, so capture the
	// first snapshot published once Stop is called instead of the latest.
	var mu sync.Mutex
	var published []model.Progress
	eng.bus.Subscribe(func(_ string, p model.Progress) {
		mu.Lock()
		published = append(published, p)
		mu.Unlock()
	})
	if err := eng.Stop(job.ID); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	mu.Lock()
	ok := len(published) > 0
	var progress model.Progress
	if ok {
		progress = published[0]
	}
	mu.Unlock()
	if !ok {
		t.Fatal("expected stop to publish a progress snapshot")
	}
	if progress.CurrentFile != "Stopping..." {
		t.Errorf("got current_file %q, want %q", progress.CurrentFile, "Stopping...")
	}
	found := false
	for _, w := range progress.Workers {
		if w.Status == model.WorkerStopping {
			found = true
		}
	}
	if !found {
		t.Error("expected at least one worker to be marked stopping")
	}

	waitForTerminal(t, store, job.ID)
}

func TestEngine_Stop_RejectsJobThatIsNotRunning(t *testing.T) {
	eng, _ := newHarness(t)
	if err := eng.Stop("nope"); err == nil {
		t.Error("expected stop of a non-running job to be rejected")
	}
}

func TestEngine_Status_ReportsJobCounts(t *testing.T) {
	eng, store := newHarness(t)
	job := newTestJob(t.TempDir(), t.TempDir())
	job.Enabled = true
	if err := store.Create(job); err != nil {
		t.Fatalf("failed to create job: %v", err)
	}

	status := eng.Status()
	if status.JobsTotal != 1 {
		t.Errorf("got jobs total %d, want 1", status.JobsTotal)
	}
	if status.JobsEnabled != 1 {
		t.Errorf("got jobs enabled %d, want 1", status.JobsEnabled)
	}
	if status.JobsRunning != 0 {
		t.Errorf("got jobs running %d, want 0", status.JobsRunning)
	}
}

func waitForTerminal(t *testing.T, store jobstore.Store, jobID string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, ok := store.Get(jobID)
		if ok && job.Status != model.StatusRunning {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timed out waiting for job to reach a terminal state")
}

// Package worker executes one partition of a job's items: for each item
// it runs the external transfer tool as a child process, streams and
// parses its progress output, and reports into the job's shared Progress
// record while honoring cooperative cancellation.
package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/lucidlink/syncd/internal/model"
	"github.com/lucidlink/syncd/internal/mounthealth"
	"github.com/lucidlink/syncd/internal/scanner"
	"github.com/lucidlink/syncd/internal/transfer"
)

const (
	// pollInterval bounds how long a worker goes without checking the
	// cancellation flag, and throttles mid-transfer progress publishes.
	pollInterval = 500 * time.Millisecond
	// terminationGrace is how long a canceled child gets to exit on its
	// own before the worker escalates to SIGKILL.
	terminationGrace = 5 * time.Second
)

// Spec is one worker's assignment: its partition and the paths/options
// needed to transfer each item.
type Spec struct {
	Index       int
	Partition   []scanner.Item
	SourceRoot  string
	DestRoot    string
	ToolOptions string
	Excludes    []string
	MountPath   string
}

// Shared is the state common to every worker in one job run.
type Shared struct {
	JobID      string
	Cancel     *CancelFlag
	Registry   *ProcessRegistry
	Progress   *model.Progress
	ProgressMu *sync.Mutex
	Publish    func(model.Progress)
	Prober     *mounthealth.Prober
}

// Worker runs one Spec against a Shared job context.
type Worker struct {
	spec   Spec
	shared *Shared
}

// Run executes the worker's partition in order, honoring cancellation at
// every item boundary and during each item's transfer.
func Run(spec Spec, shared *Shared) {
	w := &Worker{spec: spec, shared: shared}
	w.setStatus(model.WorkerRunning)

	var completedBytes int64
	for _, item := range spec.Partition {
		if shared.Cancel.IsSet() {
			w.setStatus(model.WorkerStopped)
			w.setCurrentItem("")
			return
		}

		result := shared.Prober.Check(spec.MountPath)
		if !result.Healthy {
			w.appendError(fmt.Sprintf("mount unhealthy: %s", result.Diagnostic))
			shared.Cancel.Set()
			w.setStatus(model.WorkerFailed)
			return
		}

		w.setCurrentItem(item.Name)
		fatal, interrupted := w.runItem(item, completedBytes)
		if fatal {
			shared.Cancel.Set()
			w.setStatus(model.WorkerFailed)
			return
		}
		if interrupted {
			w.setStatus(model.WorkerStopped)
			w.setCurrentItem("")
			return
		}

		completedBytes += item.Bytes
		w.completeItem(item, completedBytes)
	}

	w.finalize()
}

// runItem transfers one item. fatal indicates a mount-death condition
// (caller must set the job-wide cancellation flag); interrupted
// indicates the item was aborted because the flag was already set by
// another worker or the stop protocol.
func (w *Worker) runItem(item scanner.Item, completedBytes int64) (fatal, interrupted bool) {
	srcPath := filepath.Join(w.spec.SourceRoot, item.Name)
	dstPath := filepath.Join(w.spec.DestRoot, item.Name)
	args := transfer.BuildArgs(w.spec.ToolOptions, w.spec.Excludes, srcPath, dstPath, item.IsDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, transfer.Tool, args...)
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		w.appendError(fmt.Sprintf("%s: failed to create pipe: %v", item.Name, err))
		return false, false
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stdoutW

	if err := cmd.Start(); err != nil {
		stdoutW.Close()
		stdoutR.Close()
		w.appendError(fmt.Sprintf("%s: failed to start transfer: %v", item.Name, err))
		return false, false
	}
	stdoutW.Close()
	pid := w.shared.Registry.Register(cmd)
	defer w.shared.Registry.Unregister(pid)

	lines := make(chan string)
	go func() {
		defer close(lines)
		lineScanner := bufio.NewScanner(stdoutR)
		lineScanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for lineScanner.Scan() {
			lines <- lineScanner.Text()
		}
	}()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	lastPublish := time.Now()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var waitErr error
	var fatalMount bool
loop:
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			if transfer.IsMountDeathSignature(line) {
				w.appendError(line)
				fatalMount = true
				continue
			}
			if transfer.IsErrorLine(line) {
				w.appendError(line)
				continue
			}
			if p, ok := transfer.ParseProgressLine(line); ok {
				w.updateItemProgress(completedBytes, p)
				if time.Since(lastPublish) >= pollInterval {
					w.publish()
					lastPublish = time.Now()
				}
			}
		case waitErr = <-done:
			break loop
		case <-ticker.C:
			if w.shared.Cancel.IsSet() {
				w.terminateChild(cmd)
				waitErr = <-done
				break loop
			}
		}
	}
	stdoutR.Close()

	if fatalMount {
		return true, false
	}
	if w.shared.Cancel.IsSet() {
		return false, true
	}
	if waitErr != nil {
		if isTerminationSignalExit(waitErr) {
			return false, true
		}
		w.appendError(fmt.Sprintf("%s: transfer failed: %v", item.Name, waitErr))
	}
	return false, false
}

func (w *Worker) terminateChild(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Signal(terminateSignal)
	grace := time.NewTimer(terminationGrace)
	defer grace.Stop()

	exited := make(chan struct{})
	go func() {
		_, _ = cmd.Process.Wait()
		close(exited)
	}()

	select {
	case <-exited:
	case <-grace.C:
		_ = cmd.Process.Kill()
	}
}

func isTerminationSignalExit(err error) bool {
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return false
	}
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	if !ok {
		return false
	}
	return status.Signaled()
}

package worker

import (
	"os/exec"
	"sync"
	"time"
)

// ProcessRegistry tracks the child processes spawned by one job's
// workers, so the stop protocol can terminate every in-flight child
// without each worker needing to know about its siblings.
type ProcessRegistry struct {
	mu        sync.Mutex
	processes map[int]*exec.Cmd
}

// NewProcessRegistry creates an empty registry.
func NewProcessRegistry() *ProcessRegistry {
	return &ProcessRegistry{processes: make(map[int]*exec.Cmd)}
}

// Register records cmd, whose Process must already be started, keyed by
// its PID.
func (r *ProcessRegistry) Register(cmd *exec.Cmd) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	pid := cmd.Process.Pid
	r.processes[pid] = cmd
	return pid
}

// Unregister drops the process once its worker has reaped it.
func (r *ProcessRegistry) Unregister(pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.processes, pid)
}

// TerminateAll sends SIGTERM to every tracked process, then after grace
// sends SIGKILL to any still recorded. Used by the stop protocol; it does
// not wait for exit, since each worker's own goroutine reaps its child
// and unregisters it.
func (r *ProcessRegistry) TerminateAll(grace time.Duration) {
	cmds := r.snapshot()
	for _, cmd := range cmds {
		_ = cmd.Process.Signal(terminateSignal)
	}

	time.Sleep(grace)

	for _, cmd := range r.snapshot() {
		_ = cmd.Process.Kill()
	}
}

func (r *ProcessRegistry) snapshot() []*exec.Cmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*exec.Cmd, 0, len(r.processes))
	for _, cmd := range r.processes {
		out = append(out, cmd)
	}
	return out
}

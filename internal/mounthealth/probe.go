// Package mounthealth probes whether the FUSE-mounted filespace backing a
// job is in a usable state before a run is allowed to start. A mount that
// exists in the namespace but has lost its backing transport still shows
// up as a directory entry, so existence alone is not sufficient: the
// probe must attempt to list it and interpret the errno it gets back.
package mounthealth

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/lucidlink/syncd/internal/logging"
)

// Result is the outcome of one probe.
type Result struct {
	Healthy    bool
	Diagnostic string
}

// Prober checks the health of a single mount point.
type Prober struct{}

// New creates a Prober.
func New() *Prober {
	return &Prober{}
}

// Check lists path and classifies the result. It does not apply a
// timeout of its own: a FUSE transport that hangs rather than erroring is
// a problem for the caller's own deadline, not something this probe can
// distinguish from a slow but healthy mount.
func (p *Prober) Check(path string) Result {
	log := logging.WithComponent("mounthealth")

	f, err := os.Open(path)
	if err != nil {
		diag := classify(err)
		log.Warn().Str("path", path).Str("diagnostic", diag).Msg("mount probe failed to open")
		return Result{Healthy: false, Diagnostic: diag}
	}
	defer f.Close()

	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		diag := classify(err)
		log.Warn().Str("path", path).Str("diagnostic", diag).Msg("mount probe failed to list directory")
		return Result{Healthy: false, Diagnostic: diag}
	}

	return Result{Healthy: true, Diagnostic: "ok"}
}

// classify maps the errno underlying err, if any, to a mount-specific
// diagnostic. Anything not recognized falls back to the error's own
// message.
func classify(err error) string {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ENOTCONN:
			return "transport endpoint not connected"
		case syscall.ESTALE:
			return "stale file handle"
		case syscall.ENOENT:
			return "mount point does not exist"
		case syscall.EIO:
			return "I/O error"
		case syscall.EACCES:
			return "permission denied"
		}
	}
	return fmt.Sprintf("unclassified mount error: %v", err)
}

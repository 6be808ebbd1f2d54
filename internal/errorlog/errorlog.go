// Package errorlog appends run failures to a rotating-by-append text log
// keyed by timestamp, job name, and job id, for operator forensics after
// a run terminates with errors.
package errorlog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lucidlink/syncd/internal/logging"
)

// Log appends to a single file at path.
type Log struct {
	path string
}

// New creates a Log backed by path.
func New(path string) *Log {
	return &Log{path: path}
}

// Append records one run's error lines under a (timestamp, job name, job
// id) heading. Failures to write are logged and swallowed: a broken
// error log must never prevent the engine from finishing a run.
func (l *Log) Append(jobName, jobID string, errs []string) {
	if len(errs) == 0 {
		return
	}
	log := logging.WithComponent("errorlog")

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		log.Warn().Err(err).Msg("failed to create error log directory")
		return
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Warn().Err(err).Msg("failed to open error log for append")
		return
	}
	defer f.Close()

	timestamp := time.Now().UTC().Format("2006-01-02 15:04:05")
	fmt.Fprintf(f, "\n[%s] Job: %s (%s)\n", timestamp, jobName, jobID)
	for _, e := range errs {
		fmt.Fprintf(f, "  %s\n", e)
	}
}

// Package dryrun invokes the transfer tool's diagnostic mode to plan a
// job's run without mutating the destination, and summarizes the
// itemized change lines it produces.
package dryrun

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/lucidlink/syncd/internal/filenameissue"
	"github.com/lucidlink/syncd/internal/model"
	"github.com/lucidlink/syncd/internal/transfer"
)

// maxPlannedItems caps how many individual planned changes a Summary
// carries, so a huge job doesn't produce an unbounded in-memory list;
// the counts and byte total still reflect every planned change.
const maxPlannedItems = 500

// PlannedChange is one itemized change the transfer tool reported it
// would make.
type PlannedChange struct {
	Action transfer.ChangeAction `json:"action"`
	Path   string                `json:"path"`
	Bytes  int64                 `json:"bytes"`
}

// Summary is the result of planning one job's run.
type Summary struct {
	TransferCount int64 `json:"transfer_count"`
	UpdateCount   int64 `json:"update_count"`
	DeleteCount   int64 `json:"delete_count"`
	BytesTotal    int64 `json:"bytes_total"`

	PlannedItems []PlannedChange `json:"planned_items"`
	Truncated    bool            `json:"truncated"`

	Errors []string `json:"errors"`

	FilenameIssueCount int `json:"filename_issue_count"`
}

// Planner runs the diagnostic invocation for a job.
type Planner struct{}

// New creates a Planner.
func New() *Planner {
	return &Planner{}
}

// Plan invokes the transfer tool in diagnostic mode against job's
// source/dest with its excludes, parses every change line it emits, and
// stats planned transfers to size them. It never writes to dest.
func (p *Planner) Plan(ctx context.Context, job *model.Job) (Summary, error) {
	summary := Summary{}

	issues, err := filenameissue.Scan(job.ID, job.Name, job.SourcePath, job.ExcludePatterns)
	if err != nil {
		return summary, fmt.Errorf("pre-flight filename scan: %w", err)
	}
	summary.FilenameIssueCount = len(issues)

	args := diagnosticArgs(job.ToolOptions, job.ExcludePatterns, job.SourcePath, job.DestPath)
	cmd := exec.CommandContext(ctx, transfer.Tool, args...)

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return summary, fmt.Errorf("failed to create pipe: %w", err)
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stdoutW

	if err := cmd.Start(); err != nil {
		stdoutW.Close()
		stdoutR.Close()
		return summary, fmt.Errorf("failed to start diagnostic run: %w", err)
	}
	stdoutW.Close()

	lineScanner := bufio.NewScanner(stdoutR)
	lineScanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for lineScanner.Scan() {
		line := lineScanner.Text()

		if transfer.IsErrorLine(line) {
			summary.Errors = append(summary.Errors, line)
			continue
		}

		change, ok := transfer.ParseChangeLine(line)
		if !ok {
			continue
		}
		p.record(&summary, job.SourcePath, change)
	}
	stdoutR.Close()

	if err := cmd.Wait(); err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return summary, fmt.Errorf("diagnostic run: %w", err)
		}
	}

	return summary, nil
}

func (p *Planner) record(summary *Summary, sourceRoot string, change transfer.ChangeLine) {
	switch change.Action {
	case transfer.ChangeTransfer:
		summary.TransferCount++
	case transfer.ChangeUpdate:
		summary.UpdateCount++
	case transfer.ChangeDelete:
		summary.DeleteCount++
	default:
		return
	}

	var size int64
	if change.Action != transfer.ChangeDelete && !change.IsDir {
		if info, err := os.Stat(filepath.Join(sourceRoot, change.Path)); err == nil {
			size = info.Size()
		}
	}
	summary.BytesTotal += size

	if len(summary.PlannedItems) < maxPlannedItems {
		summary.PlannedItems = append(summary.PlannedItems, PlannedChange{
			Action: change.Action,
			Path:   change.Path,
			Bytes:  size,
		})
	} else {
		summary.Truncated = true
	}
}

// diagnosticArgs mirrors transfer.BuildArgs but swaps the live-progress
// flag for the tool's dry-run/itemize-changes flags, since a planning
// run must never touch the destination.
func diagnosticArgs(toolOptions string, excludes []string, sourcePath, destPath string) []string {
	args := []string{"--dry-run", "--itemize-changes", "--recursive", "--delete"}
	for _, tok := range strings.Fields(transfer.StripProgressFlag(toolOptions)) {
		args = append(args, tok)
	}
	for _, pattern := range excludes {
		args = append(args, "--exclude", pattern)
	}
	src := sourcePath
	if len(src) == 0 || src[len(src)-1] != '/' {
		src += "/"
	}
	args = append(args, src, destPath)
	return args
}

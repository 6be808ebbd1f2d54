// Package model holds the data types shared across the sync job engine:
// jobs, run statistics, live progress, and filename issues. Keeping them
// in one leaf package lets the store, scanner, worker, and engine
// packages all depend on the same definitions without import cycles.
package model

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a Job.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusStopped   Status = "stopped"
)

// Direction describes which side of a job is the FUSE-mounted filespace.
type Direction string

const (
	DirectionLocalToRemote Direction = "local-to-remote"
	DirectionRemoteToLocal Direction = "remote-to-local"
	DirectionBidirectional Direction = "bidirectional"
)

const (
	MinConcurrency  = 1
	MaxConcurrency  = 32
	MaxNameLength   = 100
	MinNameLength   = 1
	MaxIssueNameLen = 255
)

// RunStats is an immutable record of one completed (or terminated) run.
type RunStats struct {
	DurationSeconds float64 `json:"duration_seconds"`
	FilesSynced     int64   `json:"files_synced"`
	BytesTransferred int64  `json:"bytes_transferred"`
	FilesPerSecond  float64 `json:"files_per_second"`
	BytesPerSecond  float64 `json:"bytes_per_second"`
	Errors          int     `json:"errors"`
}

// Job is a user-declared synchronization unit. ID is immutable once set.
type Job struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	SourcePath     string    `json:"source_path"`
	DestPath       string    `json:"dest_path"`
	Direction      Direction `json:"direction"`
	Concurrency    int       `json:"concurrency"`
	ToolOptions    string    `json:"tool_options"`
	ExcludePatterns []string `json:"exclude_patterns"`
	IntervalSeconds int      `json:"interval_seconds"`
	Enabled        bool      `json:"enabled"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Status        Status     `json:"status"`
	RunCount      int64      `json:"run_count"`
	LastRunAt     *time.Time `json:"last_run_at,omitempty"`
	LastRunStatus Status     `json:"last_run_status,omitempty"`
	LastRunMessage string    `json:"last_run_message,omitempty"`
	LastRunDuration float64  `json:"last_run_duration,omitempty"`
	LastRunStats  *RunStats  `json:"last_run_stats,omitempty"`

	TotalFilesSynced     int64   `json:"total_files_synced"`
	TotalBytesTransferred int64  `json:"total_bytes_transferred"`
	TotalRunTimeSeconds  float64 `json:"total_run_time_seconds"`
	AvgFilesPerSecond    float64 `json:"avg_files_per_second"`
	AvgBytesPerSecond    float64 `json:"avg_bytes_per_second"`
}

// Validate enforces the invariants from the data model: non-empty id and
// name, name length bounds, concurrency range, and a rejected
// bidirectional direction (undefined semantics until the transfer layer
// supports it).
func (j *Job) Validate() error {
	if j.ID == "" {
		return fmt.Errorf("job id is required")
	}
	if len(j.Name) < MinNameLength || len(j.Name) > MaxNameLength {
		return fmt.Errorf("job name must be between %d and %d characters", MinNameLength, MaxNameLength)
	}
	if j.SourcePath == "" {
		return fmt.Errorf("source path is required")
	}
	if j.DestPath == "" {
		return fmt.Errorf("destination path is required")
	}
	if j.Concurrency < MinConcurrency || j.Concurrency > MaxConcurrency {
		return fmt.Errorf("concurrency must be between %d and %d", MinConcurrency, MaxConcurrency)
	}
	switch j.Direction {
	case DirectionLocalToRemote, DirectionRemoteToLocal:
	case DirectionBidirectional:
		return fmt.Errorf("bidirectional direction is not supported")
	default:
		return fmt.Errorf("unknown direction %q", j.Direction)
	}
	return nil
}

// RemotePath returns whichever of source/dest sits on the FUSE mount, used
// by the engine to decide which path the Mount Health Probe must check
// before the run starts.
func (j *Job) RemotePath() string {
	if j.Direction == DirectionRemoteToLocal {
		return j.SourcePath
	}
	return j.DestPath
}

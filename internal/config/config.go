// Package config loads supervisor-wide settings that the per-job fields
// in internal/model don't cover: where the mount lives, where the job
// and filename-issue stores persist, and the defaults new jobs inherit.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds process-wide settings for the syncd supervisor.
type Config struct {
	MountPoint         string        // FUSE mount point the health probe watches
	JobsFile           string        // path to the Job Store's JSON document
	FilenameIssuesFile string        // path to the Filename Issue store's JSON document
	ErrorLogPath       string        // path to the append-only run error log
	DefaultConcurrency int           // worker count assigned to new jobs when unspecified
	DefaultToolOptions string        // transfer-tool option string assigned to new jobs when unspecified
	DefaultExcludes    []string      // exclude globs assigned to new jobs when unspecified
	ShutdownTimeout    time.Duration // grace period serve gives the engine to stop running jobs
}

// FromEnv builds a Config from environment variables, falling back to
// the defaults a fresh deployment would want. Flags parsed by cmd/syncd
// override these before Validate runs.
func FromEnv() *Config {
	return &Config{
		MountPoint:         envOr("SYNCD_MOUNT_POINT", "/data/filespace"),
		JobsFile:           envOr("SYNCD_JOBS_FILE", "/config/jobs.json"),
		FilenameIssuesFile: envOr("SYNCD_FILENAME_ISSUES_FILE", "/config/filename_issues.json"),
		ErrorLogPath:       envOr("SYNCD_ERROR_LOG", "/var/log/syncd/errors.log"),
		DefaultConcurrency: envInt("SYNCD_DEFAULT_CONCURRENCY", 4),
		DefaultToolOptions: envOr("SYNCD_DEFAULT_TOOL_OPTIONS", "-av --progress"),
		DefaultExcludes:    splitExcludes(envOr("SYNCD_DEFAULT_EXCLUDES", ".DS_Store,Thumbs.db,*.tmp")),
		ShutdownTimeout:    envDuration("SYNCD_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitExcludes(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	excludes := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			excludes = append(excludes, p)
		}
	}
	return excludes
}

// Validate ensures required fields are present and numeric ranges are
// sane. Invalid config is a fatal startup error: syncd never silently
// falls back to a default for a value the operator got wrong.
func (c *Config) Validate() error {
	if c.MountPoint == "" {
		return fmt.Errorf("mount point is required")
	}
	if c.JobsFile == "" {
		return fmt.Errorf("jobs file path is required")
	}
	if c.FilenameIssuesFile == "" {
		return fmt.Errorf("filename issues file path is required")
	}
	if c.ErrorLogPath == "" {
		return fmt.Errorf("error log path is required")
	}
	if c.DefaultConcurrency < 1 {
		return fmt.Errorf("default concurrency must be at least 1")
	}
	if c.ShutdownTimeout < time.Second {
		return fmt.Errorf("shutdown timeout must be at least 1 second")
	}
	return nil
}

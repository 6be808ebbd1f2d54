package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lucidlink/syncd/internal/config"
	"github.com/lucidlink/syncd/internal/engine"
	"github.com/lucidlink/syncd/internal/errorlog"
	"github.com/lucidlink/syncd/internal/filenameissue"
	"github.com/lucidlink/syncd/internal/jobstore"
	"github.com/lucidlink/syncd/internal/logging"
	"github.com/lucidlink/syncd/internal/mounthealth"
	"github.com/lucidlink/syncd/internal/progressbus"
)

// mountCheckInterval is how often the serve loop logs mount-health
// transitions. It is purely informational: per Open Question 3 no timer
// fires a sync from here, jobs are started explicitly.
const mountCheckInterval = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "load the job store and run the supervisor until an OS signal requests shutdown",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("mount-point", "", "FUSE mount point (overrides SYNCD_MOUNT_POINT)")
	serveCmd.Flags().String("jobs-file", "", "path to the jobs JSON document (overrides SYNCD_JOBS_FILE)")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.FromEnv()
	if v, _ := cmd.Flags().GetString("mount-point"); v != "" {
		cfg.MountPoint = v
	}
	if v, _ := cmd.Flags().GetString("jobs-file"); v != "" {
		cfg.JobsFile = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func buildEngine(cfg *config.Config) (*engine.Engine, jobstore.Store, *filenameissue.Store, error) {
	jobs := jobstore.NewFileStore(cfg.JobsFile)
	if err := jobs.Load(); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load job store: %w", err)
	}

	issues := filenameissue.NewStore(cfg.FilenameIssuesFile)
	if err := issues.Load(); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load filename issue store: %w", err)
	}

	eng := engine.New(jobs, issues, mounthealth.New(), progressbus.New(), errorlog.New(cfg.ErrorLogPath), cfg.MountPoint)
	return eng, jobs, issues, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	eng, _, _, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	log := logging.WithComponent("serve")
	log.Info().Str("mount_point", cfg.MountPoint).Str("jobs_file", cfg.JobsFile).Msg("syncd serving")

	stop := make(chan struct{})
	go mountHealthLoop(eng, stop)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	close(stop)

	log.Info().Msg("shutdown requested, stopping running jobs")
	done := make(chan struct{})
	go func() {
		eng.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(cfg.ShutdownTimeout):
		log.Warn().Dur("timeout", cfg.ShutdownTimeout).Msg("shutdown timed out with jobs still stopping")
	}
	return nil
}

// mountHealthLoop periodically logs the mount's health transitions for
// operator visibility. It never starts, stops, or otherwise acts on a
// job: that remains an explicit operator or API decision.
func mountHealthLoop(eng *engine.Engine, stop <-chan struct{}) {
	log := logging.WithComponent("mounthealth")
	ticker := time.NewTicker(mountCheckInterval)
	defer ticker.Stop()

	lastHealthy := true
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			status := eng.Status()
			if status.MountConnected != lastHealthy {
				if status.MountConnected {
					log.Info().Str("mount_point", status.MountPoint).Msg("mount recovered")
				} else {
					log.Warn().Str("mount_point", status.MountPoint).Msg("mount unhealthy")
				}
				lastHealthy = status.MountConnected
			}
		}
	}
}

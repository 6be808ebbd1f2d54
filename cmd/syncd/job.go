package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lucidlink/syncd/internal/model"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "list, create, start, stop, and delete sync jobs",
}

func init() {
	jobCmd.AddCommand(jobListCmd, jobCreateCmd, jobShowCmd, jobStartCmd, jobStopCmd, jobDeleteCmd)

	jobCreateCmd.Flags().String("name", "", "job name")
	jobCreateCmd.Flags().String("source", "", "source path")
	jobCreateCmd.Flags().String("dest", "", "destination path")
	jobCreateCmd.Flags().String("direction", string(model.DirectionLocalToRemote), "local-to-remote or remote-to-local")
	jobCreateCmd.Flags().Int("concurrency", 0, "number of parallel workers (0 uses the configured default)")
	jobCreateCmd.Flags().String("tool-options", "", "transfer tool option string (empty uses the configured default)")
	jobCreateCmd.Flags().StringSlice("exclude", nil, "exclude glob pattern (repeatable)")
}

var jobListCmd = &cobra.Command{
	Use:   "list",
	Short: "list all jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		_, jobs, _, err := buildEngine(cfg)
		if err != nil {
			return err
		}
		for _, j := range jobs.List() {
			fmt.Printf("%s\t%s\t%s\t%s\n", j.ID, j.Name, j.Status, j.SourcePath)
		}
		return nil
	},
}

var jobShowCmd = &cobra.Command{
	Use:   "show <job-id>",
	Short: "show one job's full record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		_, jobs, _, err := buildEngine(cfg)
		if err != nil {
			return err
		}
		job, ok := jobs.Get(args[0])
		if !ok {
			return fmt.Errorf("job %s not found", args[0])
		}
		fmt.Printf("%+v\n", *job)
		return nil
	},
}

var jobCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "create a new job",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		_, jobs, _, err := buildEngine(cfg)
		if err != nil {
			return err
		}

		name, _ := cmd.Flags().GetString("name")
		source, _ := cmd.Flags().GetString("source")
		dest, _ := cmd.Flags().GetString("dest")
		direction, _ := cmd.Flags().GetString("direction")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		if concurrency == 0 {
			concurrency = cfg.DefaultConcurrency
		}
		toolOptions, _ := cmd.Flags().GetString("tool-options")
		if toolOptions == "" {
			toolOptions = cfg.DefaultToolOptions
		}
		excludes, _ := cmd.Flags().GetStringSlice("exclude")
		if len(excludes) == 0 {
			excludes = cfg.DefaultExcludes
		}

		now := time.Now()
		job := &model.Job{
			ID:              uuid.NewString(),
			Name:            name,
			SourcePath:      source,
			DestPath:        dest,
			Direction:       model.Direction(direction),
			Concurrency:     concurrency,
			ToolOptions:     toolOptions,
			ExcludePatterns: excludes,
			Enabled:         true,
			CreatedAt:       now,
			UpdatedAt:       now,
			Status:          model.StatusIdle,
		}
		if err := jobs.Create(job); err != nil {
			return err
		}
		fmt.Println(job.ID)
		return nil
	},
}

var jobStartCmd = &cobra.Command{
	Use:   "start <job-id>",
	Short: "start a job and block until it reaches a terminal state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		eng, jobs, _, err := buildEngine(cfg)
		if err != nil {
			return err
		}
		if err := eng.Start(args[0]); err != nil {
			return err
		}
		for {
			time.Sleep(500 * time.Millisecond)
			job, ok := jobs.Get(args[0])
			if !ok || job.Status != model.StatusRunning {
				if ok {
					fmt.Printf("%s: %s\n", job.Status, job.LastRunMessage)
				}
				return nil
			}
		}
	},
}

var jobStopCmd = &cobra.Command{
	Use:   "stop <job-id>",
	Short: "request cancellation of a running job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		eng, _, _, err := buildEngine(cfg)
		if err != nil {
			return err
		}
		return eng.Stop(args[0])
	},
}

var jobDeleteCmd = &cobra.Command{
	Use:   "delete <job-id>",
	Short: "delete a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		_, jobs, _, err := buildEngine(cfg)
		if err != nil {
			return err
		}
		return jobs.Delete(args[0])
	},
}

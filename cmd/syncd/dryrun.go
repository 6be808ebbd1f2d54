package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucidlink/syncd/internal/dryrun"
)

var dryRunCmd = &cobra.Command{
	Use:   "dry-run <job-id>",
	Short: "plan a job's run without transferring or deleting anything",
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

		summary, err := dryrun.New().Plan(context.Background(), job)
		if err != nil {
			return err
		}

		fmt.Printf("transfers: %d  updates: %d  deletes: %d  bytes: %d\n",
			summary.TransferCount, summary.UpdateCount, summary.DeleteCount, summary.BytesTotal)
		fmt.Printf("filename issues found: %d\n", summary.FilenameIssueCount)
		if len(summary.Errors) > 0 {
			fmt.Println("errors:")
			for _, e := range summary.Errors {
				fmt.Println("  " + e)
			}
		}
		for _, item := range summary.PlannedItems {
			fmt.Printf("  %s %s (%d bytes)\n", item.Action, item.Path, item.Bytes)
		}
		if summary.Truncated {
			fmt.Println("  ... list truncated, counts above reflect the full plan")
		}
		return nil
	},
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucidlink/syncd/internal/filenameissue"
	"github.com/lucidlink/syncd/internal/model"
)

var issuesCmd = &cobra.Command{
	Use:   "issues",
	Short: "list, rename, and skip detected filename issues",
}

func init() {
	issuesCmd.AddCommand(issuesListCmd, issuesRenameCmd, issuesSkipCmd, issuesRenameAllCmd)
	issuesListCmd.Flags().String("job", "", "restrict to one job id")
	issuesRenameCmd.Flags().String("name", "", "explicit new name (defaults to the suggested normalization)")
	issuesRenameAllCmd.Flags().String("job", "", "restrict to one job id")
}

var issuesListCmd = &cobra.Command{
	Use:   "list",
	Short: "list pending filename issues",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store := filenameissue.NewStore(cfg.FilenameIssuesFile)
		if err := store.Load(); err != nil {
			return err
		}

		jobID, _ := cmd.Flags().GetString("job")
		var issues []*issueRow
		if jobID != "" {
			for _, i := range store.ForJob(jobID) {
				if i.Status != model.IssuePending {
					continue
				}
				issues = append(issues, &issueRow{i.ID, i.RelativePath, string(i.IssueType), i.SuggestedName})
			}
		} else {
			for _, i := range store.AllPending() {
				issues = append(issues, &issueRow{i.ID, i.RelativePath, string(i.IssueType), i.SuggestedName})
			}
		}
		for _, row := range issues {
			fmt.Printf("%s\t%s\t%s\t-> %s\n", row.id, row.path, row.issueType, row.suggested)
		}
		return nil
	},
}

type issueRow struct {
	id        string
	path      string
	issueType string
	suggested string
}

var issuesRenameCmd = &cobra.Command{
	Use:   "rename <issue-id>",
	Short: "rename the file behind an issue to its suggested (or given) name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store := filenameissue.NewStore(cfg.FilenameIssuesFile)
		if err := store.Load(); err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		return filenameissue.NewRemediator(store).Rename(args[0], name)
	},
}

var issuesSkipCmd = &cobra.Command{
	Use:   "skip <issue-id>",
	Short: "mark an issue as permanently ignored",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store := filenameissue.NewStore(cfg.FilenameIssuesFile)
		if err := store.Load(); err != nil {
			return err
		}
		return filenameissue.NewRemediator(store).Skip(args[0])
	},
}

var issuesRenameAllCmd = &cobra.Command{
	Use:   "rename-all",
	Short: "rename every pending issue to its suggested name",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store := filenameissue.NewStore(cfg.FilenameIssuesFile)
		if err := store.Load(); err != nil {
			return err
		}
		jobID, _ := cmd.Flags().GetString("job")
		summary := filenameissue.NewRemediator(store).RenameAllPending(jobID)
		fmt.Printf("renamed %d of %d (%d failed)\n", summary.Renamed, summary.Total, summary.Failed)
		for _, e := range summary.Errors {
			fmt.Println("  " + e)
		}
		return nil
	},
}

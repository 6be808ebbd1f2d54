package filenameissue

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lucidlink/syncd/internal/model"
)

// Remediator applies user decisions (rename, rename-to-custom-name, skip)
// against issues tracked in a Store, performing the filesystem rename
// itself and persisting the updated status.
type Remediator struct {
	store *Store
}

// NewRemediator creates a Remediator over store.
func NewRemediator(store *Store) *Remediator {
	return &Remediator{store: store}
}

// Rename renames the file or directory behind issue to newName (or the
// detector's suggestion if newName is empty) and marks it resolved.
func (r *Remediator) Rename(issueID, newName string) error {
	issue, ok := r.store.Get(issueID)
	if !ok {
		return fmt.Errorf("issue %s not found", issueID)
	}
	if issue.Status != model.IssuePending {
		return fmt.Errorf("issue %s already resolved: %s", issueID, issue.Status)
	}

	target := newName
	if target == "" {
		target = issue.SuggestedName
	}
	if target == "" {
		return fmt.Errorf("no target name provided or suggested for issue %s", issueID)
	}
	if target == issue.Name {
		return fmt.Errorf("new name is the same as the original")
	}

	parent := filepath.Dir(issue.SourcePath)
	newPath := filepath.Join(parent, target)
	if _, err := os.Stat(newPath); err == nil {
		return fmt.Errorf("target already exists: %s", newPath)
	}

	if err := os.Rename(issue.SourcePath, newPath); err != nil {
		issue.Status = model.IssueFailed
		_ = r.store.Save()
		return fmt.Errorf("rename failed: %w", err)
	}

	now := time.Now()
	issue.Status = model.IssueRenamed
	issue.ResolvedAt = &now
	return r.store.Save()
}

// Skip marks an issue as permanently ignored without touching the
// filesystem.
func (r *Remediator) Skip(issueID string) error {
	issue, ok := r.store.Get(issueID)
	if !ok {
		return fmt.Errorf("issue %s not found", issueID)
	}
	now := time.Now()
	issue.Status = model.IssueSkipped
	issue.ResolvedAt = &now
	return r.store.Save()
}

// RenameAllPending renames every pending issue (optionally scoped to one
// job) to its suggested name, continuing past individual failures and
// reporting them in the summary rather than aborting the batch.
func (r *Remediator) RenameAllPending(jobID string) model.RenameAllSummary {
	var pending []*model.FilenameIssue
	if jobID != "" {
		for _, issue := range r.store.ForJob(jobID) {
			if issue.Status == model.IssuePending {
				pending = append(pending, issue)
			}
		}
	} else {
		pending = r.store.AllPending()
	}

	summary := model.RenameAllSummary{Total: len(pending)}
	for _, issue := range pending {
		if err := r.Rename(issue.ID, ""); err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", issue.RelativePath, err))
			continue
		}
		summary.Renamed++
	}
	return summary
}

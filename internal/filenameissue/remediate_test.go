package filenameissue

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lucidlink/syncd/internal/model"
)

func setupIssue(t *testing.T, root, name string) (*Store, *model.FilenameIssue) {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	store := NewStore(filepath.Join(root, "issues.json"))
	if err := store.Load(); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	issues, err := Scan("job-1", "myjob", root, nil)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if err := store.ReplaceForJob("job-1", issues); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	var found *model.FilenameIssue
	for _, i := range issues {
		if i.Name == name {
			found = i
		}
	}
	if found == nil {
		t.Fatalf("expected an issue for %s", name)
	}
	return store, found
}

func TestRemediator_Rename_UsesSuggestedName(t *testing.T) {
	root := t.TempDir()
	store, issue := setupIssue(t, root, "bad:name.txt")

	r := NewRemediator(store)
	if err := r.Rename(issue.ID, ""); err != nil {
		t.Fatalf("rename failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "bad-name.txt")); err != nil {
		t.Errorf("expected renamed file to exist: %v", err)
	}
	got, _ := store.Get(issue.ID)
	if got.Status != model.IssueRenamed {
		t.Errorf("expected status renamed, got %s", got.Status)
	}
	if got.ResolvedAt == nil {
		t.Error("expected ResolvedAt to be set")
	}
}

func TestRemediator_Rename_RejectsAlreadyResolvedIssue(t *testing.T) {
	root := t.TempDir()
	store, issue := setupIssue(t, root, "bad:name.txt")
	r := NewRemediator(store)

	if err := r.Skip(issue.ID); err != nil {
		t.Fatalf("skip failed: %v", err)
	}
	if err := r.Rename(issue.ID, ""); err == nil {
		t.Error("expected error renaming an already-resolved issue")
	}
}

func TestRemediator_Rename_RejectsExistingTarget(t *testing.T) {
	root := t.TempDir()
	store, issue := setupIssue(t, root, "bad:name.txt")
	if err := os.WriteFile(filepath.Join(root, "bad-name.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	r := NewRemediator(store)
	if err := r.Rename(issue.ID, ""); err == nil {
		t.Error("expected error when target name already exists")
	}
}

func TestRemediator_Skip_MarksResolvedWithoutTouchingFilesystem(t *testing.T) {
	root := t.TempDir()
	store, issue := setupIssue(t, root, "bad:name.txt")
	r := NewRemediator(store)

	if err := r.Skip(issue.ID); err != nil {
		t.Fatalf("skip failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "bad:name.txt")); err != nil {
		t.Errorf("expected original file to remain untouched: %v", err)
	}
	got, _ := store.Get(issue.ID)
	if got.Status != model.IssueSkipped {
		t.Errorf("expected status skipped, got %s", got.Status)
	}
}

func TestRemediator_RenameAllPending_ContinuesPastFailures(t *testing.T) {
	root := t.TempDir()
	store := NewStore(filepath.Join(root, "issues.json"))
	if err := store.Load(); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(root, "bad:one.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "bad:two.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	// Pre-create the rename target for "two" so its rename fails.
	if err := os.WriteFile(filepath.Join(root, "bad-two.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	issues, err := Scan("job-1", "myjob", root, nil)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if err := store.ReplaceForJob("job-1", issues); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	r := NewRemediator(store)
	summary := r.RenameAllPending("job-1")
	if summary.Total != 2 {
		t.Fatalf("expected 2 pending issues, got %d", summary.Total)
	}
	if summary.Renamed != 1 || summary.Failed != 1 {
		t.Errorf("expected 1 renamed and 1 failed, got renamed=%d failed=%d", summary.Renamed, summary.Failed)
	}
	if len(summary.Errors) != 1 {
		t.Errorf("expected 1 error message, got %d", len(summary.Errors))
	}
}

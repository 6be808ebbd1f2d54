package errorlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLog_AppendWritesJobHeaderAndLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.log")
	l := New(path)
	l.Append("nightly-render", "job-1", []string{"rsync: connection refused"})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "Job: nightly-render (job-1)") {
		t.Errorf("expected job header in log, got: %s", content)
	}
	if !strings.Contains(content, "rsync: connection refused") {
		t.Errorf("expected error line in log, got: %s", content)
	}
}

func TestLog_AppendSkipsEmptyErrorList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.log")
	l := New(path)
	l.Append("job", "id", nil)

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected no file to be created for an empty error list")
	}
}

func TestLog_AppendAccumulatesAcrossCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.log")
	l := New(path)
	l.Append("job-a", "a1", []string{"first failure"})
	l.Append("job-b", "b1", []string{"second failure"})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "first failure") || !strings.Contains(content, "second failure") {
		t.Errorf("expected both entries to be present, got: %s", content)
	}
}

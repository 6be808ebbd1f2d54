package mounthealth

import (
	"path/filepath"
	"testing"
)

func TestProber_Check_HealthyDirectory(t *testing.T) {
	prober := New()
	result := prober.Check(t.TempDir())
	if !result.Healthy {
		t.Errorf("expected healthy result for a real directory, got diagnostic: %s", result.Diagnostic)
	}
}

func TestProber_Check_MissingPath(t *testing.T) {
	prober := New()
	result := prober.Check(filepath.Join(t.TempDir(), "does-not-exist"))
	if result.Healthy {
		t.Error("expected unhealthy result for a missing path")
	}
	if result.Diagnostic != "mount point does not exist" {
		t.Errorf("unexpected diagnostic: %s", result.Diagnostic)
	}
}

func TestProber_Check_EmptyDirectoryIsHealthy(t *testing.T) {
	prober := New()
	dir := t.TempDir()
	result := prober.Check(dir)
	if !result.Healthy {
		t.Errorf("expected an empty but reachable directory to be healthy, got: %s", result.Diagnostic)
	}
}

func TestClassify_UnrecognizedErrorFallsBackToMessage(t *testing.T) {
	diag := classify(errPlain{"boom"})
	if diag != "unclassified mount error: boom" {
		t.Errorf("unexpected diagnostic: %s", diag)
	}
}

type errPlain struct{ msg string }

func (e errPlain) Error() string { return e.msg }

package version

import "testing"

func TestVersion(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}

	if Version != "unknown" {
		t.Logf("Version is: %s (expected 'unknown' or version set via ldflags)", Version)
	}
}

func TestBuildInfo(t *testing.T) {
	if BuildTime == "" {
		t.Error("BuildTime should be initialized")
	}

	if GitCommit == "" {
		t.Error("GitCommit should be initialized")
	}
}

func TestGenerator(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = "unknown"
	if got := Generator(); got != "gendocs" {
		t.Errorf("Generator() = %q, want gendocs", got)
	}

	Version = "v1.2.3"
	if got := Generator(); got != "gendocs v1.2.3" {
		t.Errorf("Generator() = %q, want %q", got, "gendocs v1.2.3")
	}
}

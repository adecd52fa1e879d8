package version

import (
	"strings"
	"testing"
)

func TestInfo_ReturnsFormattedString(t *testing.T) {
	// vars set at build-time, here using default "dev"
	info := Info()

	if !strings.Contains(info, "esaudit") {
		t.Errorf("Expected info to contain 'esaudit', got: %s", info)
	}
	if !strings.Contains(info, Version) {
		t.Errorf("Expected info to contain version '%s'", Version)
	}
	if !strings.Contains(info, Commit) {
		t.Errorf("Expected info to contain commit '%s'", Commit)
	}
	if !strings.Contains(info, BuildDate) {
		t.Errorf("Expected info to contain build date '%s'", BuildDate)
	}
}

func TestGet_ReturnsCorrectStruct(t *testing.T) {
	v := Get()

	if v.Version != Version {
		t.Errorf("Expected version %s, got %s", Version, v.Version)
	}
	if v.Commit != Commit {
		t.Errorf("Expected commit %s, got %s", Commit, v.Commit)
	}
	if v.BuildDate != BuildDate {
		t.Errorf("Expected build date %s, got %s", BuildDate, v.BuildDate)
	}
}

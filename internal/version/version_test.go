package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	origVersion := Version
	origCommit := Commit
	defer func() {
		Version = origVersion
		Commit = origCommit
	}()

	Version = "1.2.3"
	Commit = "unknown"
	if got := Info(); got != "1.2.3" {
		t.Errorf("Info() = %q, want bare version when commit unknown", got)
	}

	Commit = "abcdef1234567890"
	if got := Info(); got != "1.2.3 (abcdef1)" {
		t.Errorf("Info() = %q, want short commit suffix", got)
	}
}

func TestFull(t *testing.T) {
	full := Full()
	for _, want := range []string{"bpa version", "Commit:", "Built:"} {
		if !strings.Contains(full, want) {
			t.Errorf("Full() = %q, missing %q", full, want)
		}
	}
}

package version

import (
	"strings"
	"testing"
)

func TestInfoIncludesBuildMetadata(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = origVersion, origCommit, origDate })

	Version, Commit, Date = "v1.2.3", "abc1234", "2025-07-29"
	got := Info()
	want := "v1.2.3 (commit abc1234, built 2025-07-29, go"
	if !strings.HasPrefix(got, want) {
		t.Fatalf("Info() = %q, want prefix %q", got, want)
	}
}

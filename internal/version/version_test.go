package version

import "testing"

func TestGetInfoShortensCommit(t *testing.T) {
	Version = "v1.0.0"
	CommitHash = "0123456789abcdef"
	if got := GetInfo(); got != "v1.0.0 (0123456)" {
		t.Fatalf("unexpected info: %s", got)
	}
}

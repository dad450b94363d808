package version

import "testing"

func TestString(t *testing.T) {
	oldV, oldSHA, oldTime := Version, GitSHA, BuildTime
	t.Cleanup(func() { Version, GitSHA, BuildTime = oldV, oldSHA, oldTime })

	Version, GitSHA, BuildTime = "1.2.0", "abc123", "2026-10-19T10:00:00Z"
	if got, want := String(), "laser 1.2.0 (abc123, built 2026-10-19T10:00:00Z)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

package version

import (
	"strings"
	"testing"
	"time"
)

func saveAndRestore() func() {
	origVersion, origCommit, origBuildTime := Version, Commit, BuildTime
	return func() {
		Version = origVersion
		Commit = origCommit
		BuildTime = origBuildTime
	}
}

func TestGetLinkTimeValues(t *testing.T) {
	defer saveAndRestore()()
	Version = "1.0.0"
	Commit = "abc1234def"
	BuildTime = "2024-01-15T10:30:00Z"

	info := Get()
	if info.Version != "1.0.0" {
		t.Errorf("expected '1.0.0', got %q", info.Version)
	}
	if info.Commit != "abc1234" {
		t.Errorf("expected commit truncated to 'abc1234', got %q", info.Commit)
	}
	if info.BuildTime.Year() != 2024 {
		t.Errorf("expected build year 2024, got %d", info.BuildTime.Year())
	}
	if info.GoVersion == "" {
		t.Error("expected the toolchain version from build info")
	}
}

func TestIsRelease(t *testing.T) {
	tests := []struct {
		info Info
		want bool
	}{
		{Info{Version: "dev"}, false},
		{Info{Version: "1.0.0"}, true},
		{Info{Version: "1.0.0-dirty"}, false},
		{Info{Version: "1.0.0", Dirty: true}, false},
	}
	for _, tt := range tests {
		if got := tt.info.IsRelease(); got != tt.want {
			t.Errorf("%+v.IsRelease() = %v, want %v", tt.info, got, tt.want)
		}
	}
}

func TestShort(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "dev"}, "dev"},
		{Info{Version: "1.0.0", Commit: "abc1234"}, "1.0.0-abc1234"},
		{Info{Version: "1.0.0", Commit: "abc1234", Dirty: true}, "1.0.0-abc1234-dirty"},
	}
	for _, tt := range tests {
		if got := tt.info.Short(); got != tt.want {
			t.Errorf("Short() = %q, want %q", got, tt.want)
		}
	}
}

func TestString(t *testing.T) {
	info := Info{Version: "1.0.0", Commit: "abc1234"}
	if got := info.String(); got != "1.0.0-abc1234" {
		t.Errorf("expected no build date, got %q", got)
	}

	info.BuildTime = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	if got := info.String(); !strings.Contains(got, "built 2024-01-15T10:30:00Z") {
		t.Errorf("expected build date, got %q", got)
	}
}

func TestFields(t *testing.T) {
	f := Info{Version: "1.0.0", GoVersion: "go1.26.0"}.Fields()
	if f["build"] != "1.0.0" || f["go_version"] != "go1.26.0" || f["release"] != true {
		t.Errorf("unexpected fields %v", f)
	}
}

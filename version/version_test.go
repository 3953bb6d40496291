package version

import "testing"

func saveAndRestore() func() {
	v, c, b := Version, GitCommit, BuildTime
	return func() { Version, GitCommit, BuildTime = v, c, b }
}

func TestGetDefaults(t *testing.T) {
	defer saveAndRestore()()
	Version, GitCommit, BuildTime = "dev", "", ""

	info := Get()
	if info.Version != "dev" || info.IsRelease {
		t.Errorf("unexpected dev info %+v", info)
	}
}

func TestGetLinkerValues(t *testing.T) {
	defer saveAndRestore()()
	Version, GitCommit, BuildTime = "1.2.0", "abc1234def", "2026-01-15T10:30:00Z"

	info := Get()
	if !info.IsRelease {
		t.Error("1.2.0 should be a release")
	}
	if info.GitCommit != "abc1234" {
		t.Errorf("expected commit truncated to abc1234, got %q", info.GitCommit)
	}
	if info.BuildTime != "2026-01-15T10:30:00Z" {
		t.Errorf("unexpected build time %q", info.BuildTime)
	}
}

func TestDirtyVersionIsNotRelease(t *testing.T) {
	defer saveAndRestore()()
	Version = "1.2.0-dirty"
	if Get().IsRelease {
		t.Error("dirty build should not be a release")
	}
}

func TestInfoString(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "dev"}, "dev"},
		{Info{Version: "1.0.0", GitCommit: "abc1234"}, "1.0.0-abc1234"},
		{Info{Version: "1.0.0", GitCommit: "abc1234", IsDirty: true}, "1.0.0-abc1234-dirty"},
	}
	for _, tc := range tests {
		if got := tc.info.String(); got != tc.want {
			t.Errorf("%+v.String() = %q, want %q", tc.info, got, tc.want)
		}
	}
}

func TestInfoFields(t *testing.T) {
	f := Info{Version: "1.0.0", GitCommit: "abc", GoVersion: "go1.26"}.Fields()
	if f["version"] != "1.0.0" || f["git_commit"] != "abc" || f["go_version"] != "go1.26" {
		t.Errorf("unexpected fields %v", f)
	}
}

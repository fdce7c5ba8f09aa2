package version

import (
	"strings"
	"testing"
)

func TestInfo_String(t *testing.T) {
	i := Info{Version: "1.2.0", Commit: "abc123", Date: "2026-01-02"}
	want := "prdrag 1.2.0 (commit abc123, built 2026-01-02)"
	if got := i.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestGet_Defaults(t *testing.T) {
	i := Get()
	if i.Version != "dev" || i.Commit != "unknown" {
		t.Errorf("unexpected defaults %+v", i)
	}
	if !strings.HasPrefix(i.GoVersion, "go") {
		t.Errorf("GoVersion = %q", i.GoVersion)
	}
}

package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	info := Info()
	for _, want := range []string{"Version: " + Version, "Commit: " + Commit, "Build Date: " + Date} {
		if !strings.Contains(info, want) {
			t.Errorf("Info() = %q, missing %q", info, want)
		}
	}
}

func TestUserAgent(t *testing.T) {
	if got := UserAgent(); got != "vmshift/"+Version {
		t.Errorf("UserAgent() = %q", got)
	}
}

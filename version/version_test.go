package version

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()
	if info.Version != Version {
		t.Errorf("expected %q, got %q", Version, info.Version)
	}
}

func TestString(t *testing.T) {
	info := Info{Version: "1.2.3"}
	if info.String() != "1.2.3" {
		t.Errorf("unexpected version string: %q", info.String())
	}

	info.GitCommit = "abc1234"
	if info.String() != "1.2.3-abc1234" {
		t.Errorf("unexpected version string: %q", info.String())
	}

	info.Dirty = true
	if !strings.HasSuffix(info.String(), "-dirty") {
		t.Errorf("expected dirty suffix, got %q", info.String())
	}
}

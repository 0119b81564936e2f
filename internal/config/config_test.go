package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mnohosten/pagingsim/internal/pager"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config fixture: %v", err)
	}
	return path
}

func TestLoadAndConvert(t *testing.T) {
	path := writeConfig(t, `
memory:
  memory_kb: 12
  page_kb: 4
virtual_pages: 8
policy: lru
backing_path: run.swap
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	pc, err := cfg.ToPagerConfig()
	if err != nil {
		t.Fatalf("ToPagerConfig: %v", err)
	}
	if pc.TotalFrames != 3 {
		t.Fatalf("TotalFrames = %d, want 3", pc.TotalFrames)
	}
	if pc.VirtualPages != 8 {
		t.Fatalf("VirtualPages = %d, want 8", pc.VirtualPages)
	}
	if pc.PageSize != 4096 {
		t.Fatalf("PageSize = %d, want 4096", pc.PageSize)
	}
	if pc.Policy != pager.PolicyLRU {
		t.Fatalf("Policy = %v, want PolicyLRU", pc.Policy)
	}
}

func TestMemoryNotMultipleOfPageIsConfigError(t *testing.T) {
	cfg := Default()
	cfg.Memory.MemoryKB = 10
	cfg.Memory.PageKB = 4

	_, err := cfg.ToPagerConfig()
	if _, ok := err.(*pager.ConfigError); !ok {
		t.Fatalf("got %T, want *pager.ConfigError", err)
	}
}

func TestUnknownPolicyIsConfigError(t *testing.T) {
	cfg := Default()
	cfg.Policy = "optimal"

	_, err := cfg.ToPagerConfig()
	if _, ok := err.(*pager.ConfigError); !ok {
		t.Fatalf("got %T, want *pager.ConfigError", err)
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	pc, err := cfg.ToPagerConfig()
	if err != nil {
		t.Fatalf("ToPagerConfig: %v", err)
	}
	if pc.TotalFrames != 3 || pc.VirtualPages != 8 {
		t.Fatalf("default config = %+v, want total_frames=3 virtual_pages=8", pc)
	}
}

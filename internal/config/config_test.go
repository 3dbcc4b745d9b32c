package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultToggles(t *testing.T) {
	cfg := Default()
	if !cfg.Enabled(ToggleAnonymousQuotaBanner) {
		t.Fatalf("expected anonymous quota banner enabled by default")
	}
	if !cfg.Enabled(ToggleWelcomeBanner) {
		t.Fatalf("expected welcome banner enabled by default")
	}
	if cfg.Enabled("banner.unknown") {
		t.Fatalf("unknown toggle should be false")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("unexpected config (-want +got):\n%s", diff)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	workspace := t.TempDir()

	cfg := Default()
	cfg.Banner.Welcome = false
	cfg.UI.Theme = "light"
	if err := cfg.Save(workspace); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(workspace)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Enabled(ToggleWelcomeBanner) {
		t.Fatalf("expected welcome banner disabled after reload")
	}
	if loaded.UI.Theme != "light" {
		t.Fatalf("expected theme persisted, got %q", loaded.UI.Theme)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	workspace := t.TempDir()
	path := Path(workspace)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte("banner: [not a map"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if _, err := Load(workspace); err == nil {
		t.Fatalf("expected parse error for malformed config")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("INKWELL_BANNER_WELCOME", "false")
	t.Setenv("INKWELL_THEME", "light")
	t.Setenv("INKWELL_MODEL", "gemini-2.0-pro")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Enabled(ToggleWelcomeBanner) {
		t.Fatalf("expected env override to disable welcome banner")
	}
	if cfg.UI.Theme != "light" {
		t.Fatalf("expected env override theme, got %q", cfg.UI.Theme)
	}
	if cfg.LLM.Model != "gemini-2.0-pro" {
		t.Fatalf("expected env override model, got %q", cfg.LLM.Model)
	}
}

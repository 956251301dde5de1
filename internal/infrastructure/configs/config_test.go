package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.HTTP.Port != 8080 {
		t.Fatalf("default port = %d, want 8080", cfg.HTTP.Port)
	}
	if cfg.Presence.PublishInterval != 2*time.Second {
		t.Fatalf("default publish interval = %v, want 2s", cfg.Presence.PublishInterval)
	}
	if cfg.Presence.StaleThreshold != 7*time.Second {
		t.Fatalf("default stale threshold = %v, want 7s", cfg.Presence.StaleThreshold)
	}
	if cfg.Presence.RedirectGrace != 1200*time.Millisecond {
		t.Fatalf("default redirect grace = %v, want 1.2s", cfg.Presence.RedirectGrace)
	}
}

func TestLoadPresenceSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
presence:
  publish_interval: 5s
  sweep_interval: 3s
  stale_threshold: 20s
  redirect_grace: 500ms
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Presence.PublishInterval != 5*time.Second {
		t.Fatalf("publish interval = %v, want 5s", cfg.Presence.PublishInterval)
	}
	if cfg.Presence.SweepInterval != 3*time.Second {
		t.Fatalf("sweep interval = %v, want 3s", cfg.Presence.SweepInterval)
	}
	if cfg.Presence.StaleThreshold != 20*time.Second {
		t.Fatalf("stale threshold = %v, want 20s", cfg.Presence.StaleThreshold)
	}
	if cfg.Presence.RedirectGrace != 500*time.Millisecond {
		t.Fatalf("redirect grace = %v, want 500ms", cfg.Presence.RedirectGrace)
	}

	// Untouched sections still carry defaults.
	if cfg.HTTP.Port != 8080 {
		t.Fatalf("port = %d, want default 8080", cfg.HTTP.Port)
	}
}

func TestResolvePath(t *testing.T) {
	if got := ResolvePath("/tmp/explicit.yaml"); got != "/tmp/explicit.yaml" {
		t.Fatalf("explicit path should win, got %q", got)
	}

	t.Setenv("NOWLY_CONFIG", "/tmp/from-env.yaml")
	if got := ResolvePath(""); got != "/tmp/from-env.yaml" {
		t.Fatalf("env var should supply the path, got %q", got)
	}
}

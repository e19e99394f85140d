package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	if cfg.Sim != want.Sim || cfg.StreamRate != want.StreamRate || cfg.Log != want.Log {
		t.Fatalf("Load(\"\") = %+v, want %+v", cfg, want)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orrery.yaml")
	doc := `
log:
  level: debug
  format: json
sim:
  start: "2024-04-08 18:00"
  time_scale: 60
  tick: 50ms
  duration: 2m
  select: Sol/Earth/Moon
scenario: systems/alpha.yaml
stream_rate: 4
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("ORRERY_SIM_TIME_SCALE", "3600")
	t.Setenv("ORRERY_TRACING_ENABLED", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("Log = %+v", cfg.Log)
	}
	if cfg.Sim.Start != "2024-04-08 18:00" || cfg.Sim.Tick != 50*time.Millisecond || cfg.Sim.Duration != 2*time.Minute {
		t.Fatalf("Sim = %+v", cfg.Sim)
	}
	if cfg.Sim.TimeScale != 3600 {
		t.Fatalf("TimeScale = %v, want env override 3600", cfg.Sim.TimeScale)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.ServiceName != "orrery" {
		t.Fatalf("Tracing = %+v", cfg.Tracing)
	}
	if cfg.Scenario != "systems/alpha.yaml" || cfg.StreamRate != 4 || cfg.Sim.Select != "Sol/Earth/Moon" {
		t.Fatalf("Config = %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("sim:\n  tick: 0s\nstream_rate: -1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load should reject a zero tick")
	}
	for _, key := range []string{"sim.tick", "stream_rate"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("error %q does not mention %s", err, key)
		}
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("Load of a missing file should fail")
	}
}

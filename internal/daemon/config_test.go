package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("default host = %q", cfg.API.Host)
	}
	if cfg.API.Port == 0 {
		t.Error("default port unset")
	}
	if cfg.RefreshInterval() != 2*time.Second {
		t.Errorf("default refresh = %v, want 2s", cfg.RefreshInterval())
	}
	if cfg.ToolTimeout() != 5*time.Second {
		t.Errorf("default tool timeout = %v, want 5s", cfg.ToolTimeout())
	}
}

func TestLoadConfigNoFile(t *testing.T) {
	t.Setenv("FORGE_HOME", t.TempDir())
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.API.Port != DefaultConfig().API.Port {
		t.Errorf("port = %d, want default", cfg.API.Port)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FORGE_HOME", dir)

	content := `
[api]
port = 8123

[hardware]
refresh_interval = "500ms"
disable_tools = true

[hardware.sysfs_overrides]
battery_limit = "sys/class/power_supply/BATT/charge_control_end_threshold"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.API.Port != 8123 {
		t.Errorf("port = %d, want 8123", cfg.API.Port)
	}
	// Unset fields keep defaults.
	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("host = %q, want default", cfg.API.Host)
	}
	if cfg.RefreshInterval() != 500*time.Millisecond {
		t.Errorf("refresh = %v, want 500ms", cfg.RefreshInterval())
	}
	if !cfg.Hardware.DisableTools {
		t.Error("disable_tools not loaded")
	}
	if len(cfg.Hardware.SysfsOverrides) != 1 {
		t.Errorf("overrides = %v", cfg.Hardware.SysfsOverrides)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("FORGE_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.API.Port = 9999
	cfg.Telemetry.History = false
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	got, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.API.Port != 9999 || got.Telemetry.History {
		t.Errorf("round trip lost values: %+v", got)
	}
}

func TestDurationFallbacks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Hardware.RefreshInterval = "not a duration"
	if cfg.RefreshInterval() != 2*time.Second {
		t.Errorf("garbage refresh = %v, want fallback 2s", cfg.RefreshInterval())
	}
	cfg.Hardware.ToolTimeout = ""
	if cfg.ToolTimeout() != 5*time.Second {
		t.Errorf("empty tool timeout = %v, want fallback 5s", cfg.ToolTimeout())
	}
}

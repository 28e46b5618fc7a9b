package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Roller.Notation != nil || cfg.History.Last != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `[roller]
notation = "3d8+2"
color = "Cyan"
max-dice = 50

[history]
window = 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Roller.Notation == nil || *cfg.Roller.Notation != "3d8+2" {
		t.Fatalf("unexpected notation: %v", cfg.Roller.Notation)
	}
	if cfg.Roller.MaxDice == nil || *cfg.Roller.MaxDice != 50 {
		t.Fatalf("unexpected max-dice: %v", cfg.Roller.MaxDice)
	}
	if cfg.History.Window == nil || *cfg.History.Window != 5 {
		t.Fatalf("unexpected window: %v", cfg.History.Window)
	}
	if cfg.Roller.User != nil {
		t.Fatalf("expected unset user")
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[roller]\nfaces = 6\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "roller.faces") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestDefaultPathsHonorXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_STATE_HOME", "/state")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "tuidice", "config.toml") {
		t.Fatalf("unexpected config path %s", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/data", "tuidice", "tuidice.db") {
		t.Fatalf("unexpected db path %s", got)
	}
	if got := DefaultLogPath(); got != filepath.Join("/state", "tuidice", "tuidice.log") {
		t.Fatalf("unexpected log path %s", got)
	}
}

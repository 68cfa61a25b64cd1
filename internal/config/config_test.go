package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if cfg.Engines.Mythril != "myth" {
		t.Errorf("Mythril = %q", cfg.Engines.Mythril)
	}
	if cfg.Engines.Python != "python3" {
		t.Errorf("Python = %q", cfg.Engines.Python)
	}
	if cfg.Engines.TimeoutSeconds != 120 {
		t.Errorf("TimeoutSeconds = %d", cfg.Engines.TimeoutSeconds)
	}
	if cfg.Store.Capacity != 1000 {
		t.Errorf("Capacity = %d", cfg.Store.Capacity)
	}
}

func TestLoadOverridesAndFillsGaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  port: 9100
  apiKeys:
    - secret-key
engines:
  slither: /opt/venv/bin/slither
  timeoutSeconds: 300
store:
  capacity: 50
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if len(cfg.Server.APIKeys) != 1 || cfg.Server.APIKeys[0] != "secret-key" {
		t.Errorf("APIKeys = %v", cfg.Server.APIKeys)
	}
	if cfg.Engines.Slither != "/opt/venv/bin/slither" {
		t.Errorf("Slither = %q", cfg.Engines.Slither)
	}
	if cfg.Engines.TimeoutSeconds != 300 {
		t.Errorf("TimeoutSeconds = %d", cfg.Engines.TimeoutSeconds)
	}
	if cfg.Engines.Echidna != "echidna" {
		t.Errorf("Echidna default not applied: %q", cfg.Engines.Echidna)
	}
	if cfg.Store.Capacity != 50 {
		t.Errorf("Capacity = %d", cfg.Store.Capacity)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not: a: mapping"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load accepted malformed yaml")
	}
}

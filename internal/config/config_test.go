package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if cfg.Surface.Host != "localhost" {
		t.Fatalf("unexpected default host %q", cfg.Surface.Host)
	}
	if cfg.Surface.Port != 9877 {
		t.Fatalf("unexpected default port %d", cfg.Surface.Port)
	}
	if err := Validate(&cfg); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Addr() != "localhost:9877" {
		t.Fatalf("unexpected addr %q", cfg.Addr())
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "[surface]\nhost = \"filehost\"\nport = 9000\n\n[log]\nlevel = \"debug\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	// env beats file
	t.Setenv("LIVE2MCP_PORT", "9100")

	// flag beats env
	host := "flaghost"
	cfg, err := Load(Options{
		ConfigPath: path,
		Overrides:  &Overrides{Host: &host},
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Surface.Host != "flaghost" {
		t.Fatalf("expected flag host to win, got %q", cfg.Surface.Host)
	}
	if cfg.Surface.Port != 9100 {
		t.Fatalf("expected env port to win, got %d", cfg.Surface.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected file log level, got %q", cfg.Log.Level)
	}
}

func TestLoadRejectsBadEnvPort(t *testing.T) {
	t.Setenv("LIVE2MCP_PORT", "ninety-eight")
	if _, err := Load(Options{ConfigPath: filepath.Join(t.TempDir(), "none.toml")}); err == nil {
		t.Fatal("expected error for non-numeric LIVE2MCP_PORT")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty host", func(c *Config) { c.Surface.Host = "" }},
		{"port zero", func(c *Config) { c.Surface.Port = 0 }},
		{"port too high", func(c *Config) { c.Surface.Port = 70000 }},
		{"bad level", func(c *Config) { c.Log.Level = "verbose" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
		{"snapshot keep", func(c *Config) { c.Surface.SnapshotKeep = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := Validate(&cfg); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected default host 0.0.0.0, got %q", cfg.Server.Host)
	}
	if cfg.Server.Port != 8181 {
		t.Errorf("expected default port 8181, got %d", cfg.Server.Port)
	}
	if cfg.Catalog.Retries != 3 {
		t.Errorf("expected default retries 3, got %d", cfg.Catalog.Retries)
	}
	if cfg.MCP.OutputFormat != "text" {
		t.Errorf("expected default output format text, got %q", cfg.MCP.OutputFormat)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %q", cfg.Logging.Level)
	}
}

func TestLoadFromFiles_MissingFilesSkipped(t *testing.T) {
	cfg, err := LoadFromFiles("/nonexistent/mcpinvoke.toml")
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}
	if cfg.Server.Port != 8181 {
		t.Errorf("expected defaults when file is missing, got port %d", cfg.Server.Port)
	}
}

func TestLoadFromFiles_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, "mcpinvoke.toml", `
[server]
host = "127.0.0.1"
port = 9000

[catalog]
url = "http://localhost:5000"
retries = 5

[mcp]
output_format = "raw"
`)

	cfg, err := LoadFromFiles(path)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("file values not applied: %+v", cfg.Server)
	}
	if cfg.Catalog.URL != "http://localhost:5000" || cfg.Catalog.Retries != 5 {
		t.Errorf("catalog values not applied: %+v", cfg.Catalog)
	}
	if cfg.MCP.OutputFormat != "raw" {
		t.Errorf("expected raw output format, got %q", cfg.MCP.OutputFormat)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected untouched logging defaults, got %q", cfg.Logging.Level)
	}
}

func TestLoadFromFiles_LaterFileWins(t *testing.T) {
	base := writeConfig(t, "base.toml", `
[server]
port = 9000
`)
	override := writeConfig(t, "override.toml", `
[server]
port = 9100
`)

	cfg, err := LoadFromFiles(base, override)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("expected later file to win, got port %d", cfg.Server.Port)
	}
}

func TestLoadFromFiles_MalformedTOML(t *testing.T) {
	path := writeConfig(t, "bad.toml", `[server`)
	if _, err := LoadFromFiles(path); err == nil {
		t.Fatal("expected error for malformed TOML")
	}
}

func TestLoadFromFiles_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "mcpinvoke.toml", `
[server]
port = 9000
`)

	t.Setenv("MCPINVOKE_SERVER_PORT", "9999")
	t.Setenv("MCPINVOKE_SERVER_HOST", "10.0.0.1")
	t.Setenv("MCPINVOKE_CATALOG_URL", "http://catalog:8080")
	t.Setenv("MCPINVOKE_OUTPUT_FORMAT", "raw")
	t.Setenv("MCPINVOKE_LOG_LEVEL", "debug")

	cfg, err := LoadFromFiles(path)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("expected env port override, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "10.0.0.1" {
		t.Errorf("expected env host override, got %q", cfg.Server.Host)
	}
	if cfg.Catalog.URL != "http://catalog:8080" {
		t.Errorf("expected env catalog override, got %q", cfg.Catalog.URL)
	}
	if cfg.MCP.OutputFormat != "raw" {
		t.Errorf("expected env output format override, got %q", cfg.MCP.OutputFormat)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected env log level override, got %q", cfg.Logging.Level)
	}
}

func TestLoadFromFiles_InvalidEnvPortIgnored(t *testing.T) {
	t.Setenv("MCPINVOKE_SERVER_PORT", "not-a-number")

	cfg, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}
	if cfg.Server.Port != 8181 {
		t.Errorf("expected invalid env port to be ignored, got %d", cfg.Server.Port)
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := NewDefaultConfig()

	ApplyFlagOverrides(cfg, 7777, "192.168.1.1")
	if cfg.Server.Port != 7777 || cfg.Server.Host != "192.168.1.1" {
		t.Errorf("flag overrides not applied: %+v", cfg.Server)
	}

	ApplyFlagOverrides(cfg, 0, "")
	if cfg.Server.Port != 7777 || cfg.Server.Host != "192.168.1.1" {
		t.Errorf("zero-valued flags must not override: %+v", cfg.Server)
	}
}

func TestNormalizeOutputFormat(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"text", "text"},
		{"raw", "raw"},
		{"json", "raw"},
		{"RAW", "raw"},
		{" Text ", "text"},
		{"", "text"},
		{"garbage", "text"},
	}
	for _, tt := range tests {
		cfg := &Config{MCP: MCPConfig{OutputFormat: tt.in}}
		normalizeOutputFormat(cfg)
		if cfg.MCP.OutputFormat != tt.want {
			t.Errorf("normalizeOutputFormat(%q) = %q, want %q", tt.in, cfg.MCP.OutputFormat, tt.want)
		}
	}
}

func TestGetFullVersion(t *testing.T) {
	if GetFullVersion() == "" {
		t.Error("expected non-empty version string")
	}
}

func TestGetFullVersion_ShortensLongCommit(t *testing.T) {
	old := GitCommit
	GitCommit = "0123456789abcdef0123456789abcdef01234567"
	defer func() { GitCommit = old }()

	v := GetFullVersion()
	if !strings.Contains(v, "0123456789ab") {
		t.Errorf("expected shortened commit in %q", v)
	}
	if strings.Contains(v, "0123456789abcdef") {
		t.Errorf("expected commit to be truncated to 12 chars, got %q", v)
	}
}

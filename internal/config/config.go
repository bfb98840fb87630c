package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Catalog CatalogConfig `toml:"catalog"`
	MCP     MCPConfig     `toml:"mcp"`
	Logging LoggingConfig `toml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// CatalogConfig contains tool catalog import settings.
// URL points at an HTTP catalog endpoint; Path at a local YAML file.
// When both are set, URL wins.
type CatalogConfig struct {
	URL     string `toml:"url"`
	Path    string `toml:"path"`
	Retries int    `toml:"retries"`
}

// MCPConfig contains protocol-level settings.
// OutputFormat controls result shaping: "text" wraps tool results in a
// content block envelope, "raw" returns them unchanged.
type MCPConfig struct {
	OutputFormat string `toml:"output_format"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files. Missing files are skipped.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)
	normalizeOutputFormat(config)

	return config, nil
}

// applyEnvOverrides applies MCPINVOKE_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if port := os.Getenv("MCPINVOKE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("MCPINVOKE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if url := os.Getenv("MCPINVOKE_CATALOG_URL"); url != "" {
		config.Catalog.URL = url
	}
	if path := os.Getenv("MCPINVOKE_CATALOG_PATH"); path != "" {
		config.Catalog.Path = path
	}
	if format := os.Getenv("MCPINVOKE_OUTPUT_FORMAT"); format != "" {
		config.MCP.OutputFormat = format
	}
	if level := os.Getenv("MCPINVOKE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// normalizeOutputFormat maps output format aliases to their canonical forms.
// Unrecognized values fall back to "text".
func normalizeOutputFormat(config *Config) {
	switch strings.ToLower(strings.TrimSpace(config.MCP.OutputFormat)) {
	case "raw", "json":
		config.MCP.OutputFormat = "raw"
	default:
		config.MCP.OutputFormat = "text"
	}
}

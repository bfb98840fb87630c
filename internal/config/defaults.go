package config

// NewDefaultConfig returns a Config with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8181,
		},
		Catalog: CatalogConfig{
			Retries: 3,
		},
		MCP: MCPConfig{
			OutputFormat: "text",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Outputs:    []string{"console", "file"},
			FilePath:   "./logs/mcpinvoke.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

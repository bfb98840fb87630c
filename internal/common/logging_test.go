package common

import (
	"testing"

	"github.com/grparry/MCPInvoke-sub000/internal/config"
)

func TestNewSilentLogger(t *testing.T) {
	logger := NewSilentLogger()
	if logger == nil {
		t.Fatal("expected logger instance")
	}
	// Must not panic or write anywhere observable.
	logger.Info().Str("key", "value").Msg("discarded")
	logger.Error().Msg("also discarded")
}

func TestNewLoggerFromConfig_Defaults(t *testing.T) {
	logger := NewLoggerFromConfig(config.LoggingConfig{
		Level:    "debug",
		Outputs:  []string{"console"},
		FilePath: "",
	})
	if logger == nil {
		t.Fatal("expected logger instance")
	}
	logger.Debug().Msg("configured logger works")
}

func TestWithCorrelationId(t *testing.T) {
	logger := NewSilentLogger()
	scoped := logger.WithCorrelationId("abc-123")
	if scoped == nil {
		t.Fatal("expected scoped logger")
	}
	scoped.Info().Msg("correlated message")
}

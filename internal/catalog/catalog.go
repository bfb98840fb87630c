// Package catalog supplies tool definitions to the registry at startup.
// A Provider enumerates available tools from an external source (an HTTP
// catalog endpoint or a local YAML file); the registry imports the result.
package catalog

import (
	"context"
	"fmt"

	"github.com/grparry/MCPInvoke-sub000/internal/common"
	"github.com/grparry/MCPInvoke-sub000/internal/schema"
)

// Entry represents one tool definition supplied by a catalog.
// Handler names the registered handler identity; Method names the
// target method to locate on it.
type Entry struct {
	Name        string              `json:"name" yaml:"name"`
	Description string              `json:"description" yaml:"description"`
	Handler     string              `json:"handler" yaml:"handler"`
	Method      string              `json:"method" yaml:"method"`
	Params      []*schema.Parameter `json:"params" yaml:"params"`
}

// Provider enumerates the tools available from an external catalog.
// Called once at startup by the registry's bulk import.
type Provider interface {
	ListTools(ctx context.Context) ([]Entry, error)
}

// ValidateEntry validates a single catalog entry.
func ValidateEntry(e Entry) error {
	if e.Name == "" {
		return fmt.Errorf("catalog entry has empty name")
	}
	if e.Handler == "" {
		return fmt.Errorf("catalog entry %q has empty handler", e.Name)
	}
	if e.Method == "" {
		return fmt.Errorf("catalog entry %q has empty method", e.Name)
	}
	return nil
}

// Validate filters and validates catalog entries, logging warnings for
// invalid or duplicate tools. Invalid entries never abort the rest.
func Validate(entries []Entry, logger *common.Logger) []Entry {
	seen := make(map[string]bool, len(entries))
	valid := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if err := ValidateEntry(e); err != nil {
			logger.Warn().Str("error", err.Error()).Msg("skipping invalid catalog entry")
			continue
		}
		if seen[e.Name] {
			logger.Warn().Str("name", e.Name).Msg("skipping duplicate catalog entry")
			continue
		}
		seen[e.Name] = true
		valid = append(valid, e)
	}
	return valid
}

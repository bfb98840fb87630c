package app

import (
	"github.com/grparry/MCPInvoke-sub000/internal/common"
	"github.com/grparry/MCPInvoke-sub000/internal/config"
	"github.com/grparry/MCPInvoke-sub000/internal/registry"
	"github.com/grparry/MCPInvoke-sub000/internal/schema"
)

// getVersion is the built-in get_version tool target.
func getVersion() map[string]string {
	return map[string]string{
		"version":    config.GetVersion(),
		"build":      config.GetBuild(),
		"git_commit": config.GetGitCommit(),
	}
}

// registerBuiltins registers tools that exist regardless of catalog
// availability. get_version doubles as a connectivity check.
func registerBuiltins(reg *registry.Registry, logger *common.Logger) {
	callable, err := registry.NewFunc(getVersion, nil)
	if err != nil {
		logger.Warn().Str("error", err.Error()).Msg("failed to build get_version tool")
		return
	}

	err = reg.Register(&registry.ToolDescriptor{
		Name:        "get_version",
		Description: "Get MCPInvoke server version and status. Use this to verify connectivity.",
		Method:      callable,
		Schema:      map[string]*schema.Parameter{},
	})
	if err != nil {
		logger.Warn().Str("error", err.Error()).Msg("failed to register get_version tool")
	}
}

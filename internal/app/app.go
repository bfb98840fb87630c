// Package app wires the dispatch pipeline together: configuration, logger,
// registry, binder, invoker, protocol dispatcher, and the startup catalog
// import.
package app

import (
	"context"
	"time"

	"github.com/grparry/MCPInvoke-sub000/internal/binder"
	"github.com/grparry/MCPInvoke-sub000/internal/catalog"
	"github.com/grparry/MCPInvoke-sub000/internal/common"
	"github.com/grparry/MCPInvoke-sub000/internal/config"
	"github.com/grparry/MCPInvoke-sub000/internal/handlers"
	"github.com/grparry/MCPInvoke-sub000/internal/invoker"
	"github.com/grparry/MCPInvoke-sub000/internal/protocol"
	"github.com/grparry/MCPInvoke-sub000/internal/registry"
)

// catalogRetryDelay is the delay between catalog fetch retry attempts.
const catalogRetryDelay = 2 * time.Second

// App holds all application components and dependencies.
type App struct {
	Config *config.Config
	Logger *common.Logger

	Registry *registry.Registry
	Binder   *binder.Binder
	Invoker  *invoker.Invoker
	Resolver *invoker.StaticResolver

	// HTTP handlers
	MCPHandler     *protocol.Handler
	HealthHandler  *handlers.HealthHandler
	VersionHandler *handlers.VersionHandler
}

// New initializes the application with all dependencies. The tool catalog
// is imported at startup with bounded retry; an unreachable catalog is
// non-fatal and the server starts with only built-in tools.
func New(cfg *config.Config, logger *common.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	a.Registry = registry.New(logger)
	a.Binder = binder.New()
	a.Resolver = invoker.NewStaticResolver()
	a.Invoker = invoker.New(
		invoker.WithResolver(a.Resolver),
		invoker.WithInstantiationStrategy(invoker.FieldInjection{}),
		invoker.WithLogger(logger),
	)

	registerBuiltins(a.Registry, logger)
	a.ImportCatalog()

	dispatcher := protocol.NewDispatcher(
		a.Registry, a.Binder, a.Invoker,
		protocol.WithTextContent(cfg.MCP.OutputFormat == "text"),
		protocol.WithLogger(logger),
	)

	a.MCPHandler = protocol.NewHandler(dispatcher, logger)
	a.HealthHandler = handlers.NewHealthHandler(logger)
	a.VersionHandler = handlers.NewVersionHandler(logger)

	logger.Info().Msg("application initialization complete")

	return a, nil
}

// RegisterHandler exposes a handler instance under a catalog identity name
// and makes it resolvable by the invoker. Catalog entries referencing an
// identity registered after startup need a follow-up ImportCatalog call.
func (a *App) RegisterHandler(identity string, instance any) error {
	if err := a.Registry.RegisterHandler(identity, instance); err != nil {
		return err
	}
	a.Resolver.Provide(instance)
	return nil
}

// ImportCatalog fetches the tool catalog from the configured provider with
// retry and imports it into the registry. Fetch failure after all retries
// is logged, never fatal. Safe to call again after registering handlers;
// re-imported entries replace their previous descriptors.
func (a *App) ImportCatalog() {
	provider := a.catalogProvider()
	if provider == nil {
		a.Logger.Debug().Msg("no catalog configured, skipping import")
		return
	}

	maxAttempts := a.Config.Catalog.Retries
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var entries []catalog.Entry
	var fetchErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		entries, fetchErr = provider.ListTools(ctx)
		cancel()
		if fetchErr == nil {
			break
		}
		a.Logger.Warn().
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Str("error", fetchErr.Error()).
			Msg("failed to fetch tool catalog, retrying")
		if attempt < maxAttempts {
			time.Sleep(catalogRetryDelay)
		}
	}

	if fetchErr != nil {
		a.Logger.Warn().
			Int("attempts", maxAttempts).
			Str("error", fetchErr.Error()).
			Msg("failed to fetch tool catalog after retries, starting without catalog tools")
		return
	}

	count := a.Registry.ImportCatalog(entries)
	a.Logger.Info().
		Int("tools", count).
		Int("entries", len(entries)).
		Msg("tool catalog imported")
}

// catalogProvider selects the configured catalog source. URL wins over path.
func (a *App) catalogProvider() catalog.Provider {
	switch {
	case a.Config.Catalog.URL != "":
		return catalog.NewHTTPProvider(a.Config.Catalog.URL, a.Logger)
	case a.Config.Catalog.Path != "":
		return catalog.NewFileProvider(a.Config.Catalog.Path)
	default:
		return nil
	}
}

// Close closes all application resources.
func (a *App) Close() error {
	return nil
}

// Package registry maintains the mapping from tool names to their
// descriptors: handler identity, target method, and parameter schema.
// It is populated once at startup (direct registration or catalog import)
// and read concurrently during dispatch.
package registry

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/grparry/MCPInvoke-sub000/internal/catalog"
	"github.com/grparry/MCPInvoke-sub000/internal/common"
	"github.com/grparry/MCPInvoke-sub000/internal/schema"
)

// ToolDescriptor binds a tool name to its target method and published
// parameter schema. Descriptors are immutable after registration;
// re-registering the same name replaces the descriptor wholesale.
type ToolDescriptor struct {
	Name        string
	Description string
	// HandlerType identifies the receiver type for instance methods.
	// Nil for free functions.
	HandlerType reflect.Type
	Method      Callable
	Schema      map[string]*schema.Parameter
}

// Registry is the concurrent tool store. Lookups during dispatch fully
// overlap with registrations; the lock is held only around map access,
// never across a binding or invocation.
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]*ToolDescriptor
	handlers map[string]any
	logger   *common.Logger
}

// New creates an empty registry.
func New(logger *common.Logger) *Registry {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Registry{
		tools:    make(map[string]*ToolDescriptor),
		handlers: make(map[string]any),
		logger:   logger,
	}
}

// Register inserts or overwrites a descriptor by name. Last write wins.
func (r *Registry) Register(d *ToolDescriptor) error {
	if d == nil {
		return fmt.Errorf("descriptor is nil")
	}
	if d.Name == "" {
		return fmt.Errorf("descriptor has empty name")
	}
	if d.Method == nil {
		return fmt.Errorf("descriptor %q has no target method", d.Name)
	}

	r.mu.Lock()
	r.tools[d.Name] = d
	r.mu.Unlock()

	r.logger.Debug().Str("tool", d.Name).Msg("tool registered")
	return nil
}

// Lookup returns the current descriptor for a tool name.
func (r *Registry) Lookup(name string) (*ToolDescriptor, bool) {
	r.mu.RLock()
	d, ok := r.tools[name]
	r.mu.RUnlock()
	return d, ok
}

// List returns all registered descriptors sorted by name, for stable
// catalog snapshots.
func (r *Registry) List() []*ToolDescriptor {
	r.mu.RLock()
	out := make([]*ToolDescriptor, 0, len(r.tools))
	for _, d := range r.tools {
		out = append(out, d)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RegisterHandler registers a handler prototype under a catalog identity
// name. Catalog entries reference handlers by this name; method lookup
// happens against the prototype's type during import.
func (r *Registry) RegisterHandler(identity string, prototype any) error {
	if identity == "" {
		return fmt.Errorf("handler identity is empty")
	}
	if prototype == nil {
		return fmt.Errorf("handler prototype is nil")
	}
	r.mu.Lock()
	r.handlers[identity] = prototype
	r.mu.Unlock()
	return nil
}

// handlerPrototype looks up a registered handler prototype by identity.
func (r *Registry) handlerPrototype(identity string) (any, bool) {
	r.mu.RLock()
	h, ok := r.handlers[identity]
	r.mu.RUnlock()
	return h, ok
}

// ImportCatalog registers tools from externally supplied catalog entries.
// Each entry is resolved independently: a handler or method resolution
// failure is logged and the entry skipped, never aborting the rest of the
// import. Returns the number of tools registered.
func (r *Registry) ImportCatalog(entries []catalog.Entry) int {
	count := 0
	for _, e := range validateEntries(entries, r.logger) {
		prototype, ok := r.handlerPrototype(e.Handler)
		if !ok {
			r.logger.Warn().Str("tool", e.Name).Str("handler", e.Handler).Msg("skipping catalog entry: handler identity not registered")
			continue
		}

		names := make([]string, 0, len(e.Params))
		for _, p := range e.Params {
			if p != nil && p.Name != "" {
				names = append(names, p.Name)
			}
		}

		callable, err := NewMethod(prototype, e.Method, names)
		if err != nil {
			r.logger.Warn().Str("tool", e.Name).Str("method", e.Method).Str("error", err.Error()).Msg("skipping catalog entry: method resolution failed")
			continue
		}

		d := &ToolDescriptor{
			Name:        e.Name,
			Description: e.Description,
			HandlerType: reflect.TypeOf(prototype),
			Method:      callable,
			Schema:      schema.Map(e.Params),
		}
		if err := r.Register(d); err != nil {
			r.logger.Warn().Str("tool", e.Name).Str("error", err.Error()).Msg("skipping catalog entry: registration failed")
			continue
		}
		count++
	}
	return count
}

// validateEntries delegates to the catalog package's validation, which
// drops malformed and duplicate entries with a warning.
func validateEntries(entries []catalog.Entry, logger *common.Logger) []catalog.Entry {
	return catalog.Validate(entries, logger)
}

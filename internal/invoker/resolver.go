package invoker

import (
	"fmt"
	"reflect"
	"sync"
)

// Resolver obtains a handler instance for a declaring type. Implementations
// may return shared singletons or construct fresh instances per call.
type Resolver interface {
	Resolve(t reflect.Type) (any, error)
}

// ScopedResolver is a Resolver that can open short-lived resolution scopes.
// The invoker opens one scope per call and releases it on every exit path.
type ScopedResolver interface {
	Resolver
	OpenScope() (Scope, error)
}

// Scope is a request-scoped resolution context.
type Scope interface {
	Resolver
	Close() error
}

// InstantiationStrategy constructs a handler instance when the resolver
// cannot supply one. It is a compatibility shim for framework DI
// boundaries, swappable and never part of the core contract.
type InstantiationStrategy interface {
	Instantiate(t reflect.Type, r Resolver) (any, error)
}

// StaticResolver is a simple type-keyed instance store. Exact type matches
// win; otherwise the first provided instance assignable to the requested
// type is returned.
type StaticResolver struct {
	mu        sync.RWMutex
	instances map[reflect.Type]any
}

// NewStaticResolver creates an empty StaticResolver.
func NewStaticResolver() *StaticResolver {
	return &StaticResolver{instances: make(map[reflect.Type]any)}
}

// Provide registers an instance under its concrete type.
func (r *StaticResolver) Provide(instance any) {
	if instance == nil {
		return
	}
	r.mu.Lock()
	r.instances[reflect.TypeOf(instance)] = instance
	r.mu.Unlock()
}

// Resolve returns the instance registered for t, or the first assignable one.
func (r *StaticResolver) Resolve(t reflect.Type) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if inst, ok := r.instances[t]; ok {
		return inst, nil
	}
	for it, inst := range r.instances {
		if it.AssignableTo(t) {
			return inst, nil
		}
	}
	return nil, fmt.Errorf("no instance registered for %s", t)
}

// FieldInjection is the default instantiation fallback: it constructs the
// handler directly and resolves each exported dependency field individually
// via the same resolver. Any unresolvable dependency fails instantiation.
type FieldInjection struct{}

// Instantiate builds a fresh instance of t with dependencies injected.
func (FieldInjection) Instantiate(t reflect.Type, r Resolver) (any, error) {
	elem := t
	wantPtr := false
	if elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
		wantPtr = true
	}
	if elem.Kind() != reflect.Struct {
		return nil, fmt.Errorf("cannot instantiate %s: not a struct type", t)
	}

	v := reflect.New(elem)
	for i := 0; i < elem.NumField(); i++ {
		f := elem.Field(i)
		if !f.IsExported() {
			continue
		}
		if r == nil {
			return nil, fmt.Errorf("cannot instantiate %s: dependency %s (%s): no resolver available", t, f.Name, f.Type)
		}
		dep, err := r.Resolve(f.Type)
		if err != nil {
			return nil, fmt.Errorf("cannot instantiate %s: dependency %s (%s): %w", t, f.Name, f.Type, err)
		}
		dv := reflect.ValueOf(dep)
		if !dv.Type().AssignableTo(f.Type) {
			return nil, fmt.Errorf("cannot instantiate %s: resolved %s is not assignable to field %s (%s)", t, dv.Type(), f.Name, f.Type)
		}
		v.Elem().Field(i).Set(dv)
	}

	if wantPtr {
		return v.Interface(), nil
	}
	return v.Elem().Interface(), nil
}

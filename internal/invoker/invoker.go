// Package invoker resolves handler instances and performs the actual
// method call with bound arguments, awaiting asynchronous results and
// stripping known result envelopes before the value reaches the wire.
package invoker

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/grparry/MCPInvoke-sub000/internal/common"
	"github.com/grparry/MCPInvoke-sub000/internal/registry"
)

// maxUnwrapDepth bounds the result adapter loop against adapters that
// keep claiming a value.
const maxUnwrapDepth = 8

// HandlerError marks a fault raised by the invoked business logic itself
// (a returned error or a panic inside the handler), as opposed to
// dispatch plumbing failures.
type HandlerError struct {
	Err error
}

func (e *HandlerError) Error() string {
	return e.Err.Error()
}

func (e *HandlerError) Unwrap() error { return e.Err }

// Awaitable is an asynchronous handler result the invoker must suspend on.
type Awaitable interface {
	Await(ctx context.Context) (any, error)
}

// Invoker performs the call phase of dispatch.
type Invoker struct {
	resolver Resolver
	fallback InstantiationStrategy
	adapters []ResultAdapter
	logger   *common.Logger
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithResolver sets the handler resolver used for instance methods.
func WithResolver(r Resolver) Option {
	return func(inv *Invoker) { inv.resolver = r }
}

// WithInstantiationStrategy sets the fallback used when the resolver
// cannot supply a handler instance. Nil disables the fallback.
func WithInstantiationStrategy(s InstantiationStrategy) Option {
	return func(inv *Invoker) { inv.fallback = s }
}

// WithResultAdapters replaces the result adapter chain.
func WithResultAdapters(adapters ...ResultAdapter) Option {
	return func(inv *Invoker) { inv.adapters = adapters }
}

// WithLogger sets the invoker's logger.
func WithLogger(logger *common.Logger) Option {
	return func(inv *Invoker) { inv.logger = logger }
}

// New creates an Invoker. Defaults: no resolver, field-injection
// instantiation fallback (without a resolver it can only construct
// handlers with no exported dependencies), and the standard envelope
// adapter.
func New(opts ...Option) *Invoker {
	inv := &Invoker{
		fallback: FieldInjection{},
		adapters: []ResultAdapter{envelopeAdapter{}},
		logger:   common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Invoke resolves a handler instance (for instance methods), calls the
// target method with the bound arguments, awaits asynchronous completion,
// and unwraps known result envelopes. Handler faults come back as
// *HandlerError; everything else is a plumbing failure.
func (inv *Invoker) Invoke(ctx context.Context, d *registry.ToolDescriptor, args []any) (any, error) {
	if d == nil || d.Method == nil {
		return nil, fmt.Errorf("invoke: nil descriptor")
	}
	if got, want := len(args), len(d.Method.Params()); got != want {
		return nil, fmt.Errorf("invoke %s: bound %d arguments for %d parameters", d.Name, got, want)
	}

	receiver, release, err := inv.resolveReceiver(d)
	if err != nil {
		return nil, err
	}
	// The resolution scope is owned for the duration of this call and
	// released on every exit path.
	defer release()

	result, err := inv.call(ctx, d, receiver, args)
	if err != nil {
		return nil, err
	}

	result, err = inv.await(ctx, result)
	if err != nil {
		return nil, err
	}

	return inv.unwrap(result), nil
}

// resolveReceiver obtains the handler instance for instance methods,
// opening a per-call scope when the resolver supports it. The returned
// release func is always safe to call.
func (inv *Invoker) resolveReceiver(d *registry.ToolDescriptor) (any, func(), error) {
	release := func() {}
	if d.HandlerType == nil {
		return nil, release, nil
	}

	resolver := inv.resolver
	if scoped, ok := inv.resolver.(ScopedResolver); ok {
		scope, err := scoped.OpenScope()
		if err != nil {
			return nil, release, fmt.Errorf("invoke %s: opening resolution scope: %w", d.Name, err)
		}
		release = func() {
			if cerr := scope.Close(); cerr != nil {
				inv.logger.Warn().Str("tool", d.Name).Str("error", cerr.Error()).Msg("resolution scope close failed")
			}
		}
		resolver = scope
	}

	var receiver any
	var err error
	if resolver != nil {
		receiver, err = resolver.Resolve(d.HandlerType)
	} else {
		err = fmt.Errorf("no resolver configured")
	}
	if err != nil && inv.fallback != nil {
		inv.logger.Debug().Str("tool", d.Name).Str("handler", d.HandlerType.String()).Msg("resolver miss, falling back to direct instantiation")
		receiver, err = inv.fallback.Instantiate(d.HandlerType, resolver)
	}
	if err != nil {
		release()
		return nil, func() {}, fmt.Errorf("invoke %s: resolving handler %s: %w", d.Name, d.HandlerType, err)
	}
	return receiver, release, nil
}

// call performs the method call with panic recovery. A returned error or
// a panic inside the handler is a handler fault; plumbing mismatches
// (ErrArgumentCount) stay plain errors.
func (inv *Invoker) call(ctx context.Context, d *registry.ToolDescriptor, receiver any, args []any) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &HandlerError{Err: fmt.Errorf("handler panic: %v", p)}
		}
	}()

	result, err = d.Method.Call(ctx, receiver, args)
	if err != nil {
		if errors.Is(err, registry.ErrArgumentCount) {
			return nil, err
		}
		return nil, &HandlerError{Err: err}
	}
	return result, nil
}

// await suspends until an asynchronous handler result completes. This is
// the only suspension point in the dispatch pipeline. Channel results
// yield their first received value; a closed channel yields nil.
func (inv *Invoker) await(ctx context.Context, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	if aw, ok := v.(Awaitable); ok {
		result, err := aw.Await(ctx)
		if err != nil {
			if ctx != nil && errors.Is(err, ctx.Err()) && ctx.Err() != nil {
				return nil, err
			}
			return nil, &HandlerError{Err: err}
		}
		return result, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Chan && rv.Type().ChanDir() != reflect.SendDir {
		cases := []reflect.SelectCase{
			{Dir: reflect.SelectRecv, Chan: rv},
		}
		if ctx != nil {
			cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())})
		}
		chosen, recv, ok := reflect.Select(cases)
		if chosen == 1 {
			return nil, ctx.Err()
		}
		if !ok {
			return nil, nil
		}
		received := recv.Interface()
		if err, isErr := received.(error); isErr {
			return nil, &HandlerError{Err: err}
		}
		return received, nil
	}

	return v, nil
}

// unwrap strips known result envelopes layer by layer; unknown values
// pass through unchanged.
func (inv *Invoker) unwrap(v any) any {
	for depth := 0; depth < maxUnwrapDepth; depth++ {
		stripped := false
		for _, a := range inv.adapters {
			if inner, ok := a.Unwrap(v); ok {
				v = inner
				stripped = true
				break
			}
		}
		if !stripped {
			return v
		}
	}
	return v
}

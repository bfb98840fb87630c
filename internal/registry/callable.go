package registry

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// ErrArgumentCount is returned by Call when the bound argument list does not
// match the target method's arity. It indicates a dispatch defect, not a
// handler fault.
var ErrArgumentCount = errors.New("bound argument count does not match method arity")

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Param describes one formal parameter of a target method.
type Param struct {
	Name       string
	Type       reflect.Type
	Default    any
	HasDefault bool
}

// Callable abstracts a target method so the registry never stores raw
// reflection handles. Params returns the ordered formal parameters
// (receiver excluded); Call invokes the method with one value per
// parameter. Nil values in context-typed slots are filled from ctx.
type Callable interface {
	Params() []Param
	Call(ctx context.Context, receiver any, args []any) (any, error)
}

// CallableOption configures a reflection-backed callable.
type CallableOption func(*callableOpts)

type callableOpts struct {
	defaults map[string]any
}

// WithDefault declares a method-level default for the named parameter,
// used by the binder when neither the schema nor the caller supplies a value.
func WithDefault(name string, value any) CallableOption {
	return func(o *callableOpts) {
		if o.defaults == nil {
			o.defaults = map[string]any{}
		}
		o.defaults[name] = value
	}
}

// reflectCallable adapts a func value (or method func with explicit receiver
// slot) to the Callable interface.
type reflectCallable struct {
	fn           reflect.Value
	params       []Param
	hasReceiver  bool
	receiverType reflect.Type
	name         string
}

// NewFunc builds a Callable from a plain function value. Go reflection does
// not expose parameter names, so names are supplied positionally for every
// non-context parameter; context.Context parameters are named "ctx".
func NewFunc(fn any, names []string, opts ...CallableOption) (Callable, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		return nil, fmt.Errorf("target is not a function: %T", fn)
	}
	if err := validateReturns(v.Type()); err != nil {
		return nil, err
	}

	params, err := buildParams(v.Type(), 0, names, applyOpts(opts))
	if err != nil {
		return nil, err
	}
	return &reflectCallable{fn: v, params: params, name: runtimeFuncName(v)}, nil
}

// NewMethod builds a Callable from a named method on a handler prototype.
// The receiver slot is excluded from Params and filled at call time.
func NewMethod(handler any, methodName string, names []string, opts ...CallableOption) (Callable, error) {
	if handler == nil {
		return nil, fmt.Errorf("handler is nil")
	}
	ht := reflect.TypeOf(handler)
	m, ok := ht.MethodByName(methodName)
	if !ok {
		return nil, fmt.Errorf("method %q not found on %s", methodName, ht)
	}
	if err := validateReturns(m.Func.Type()); err != nil {
		return nil, fmt.Errorf("method %q: %w", methodName, err)
	}

	// m.Func takes the receiver as its first argument.
	params, err := buildParams(m.Func.Type(), 1, names, applyOpts(opts))
	if err != nil {
		return nil, fmt.Errorf("method %q: %w", methodName, err)
	}
	return &reflectCallable{
		fn:           m.Func,
		params:       params,
		hasReceiver:  true,
		receiverType: ht,
		name:         ht.String() + "." + methodName,
	}, nil
}

func applyOpts(opts []CallableOption) *callableOpts {
	o := &callableOpts{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// buildParams maps reflected input types to named Params, skipping the
// receiver slot. Context parameters consume no name.
func buildParams(ft reflect.Type, skip int, names []string, o *callableOpts) ([]Param, error) {
	params := make([]Param, 0, ft.NumIn()-skip)
	next := 0
	for i := skip; i < ft.NumIn(); i++ {
		in := ft.In(i)
		if in.Implements(contextType) {
			params = append(params, Param{Name: "ctx", Type: in})
			continue
		}
		if next >= len(names) {
			return nil, fmt.Errorf("parameter %d has no declared name (%d names for %d bindable parameters)", i-skip, len(names), ft.NumIn()-skip)
		}
		p := Param{Name: names[next], Type: in}
		if def, ok := o.defaults[p.Name]; ok {
			p.Default = def
			p.HasDefault = true
		}
		params = append(params, p)
		next++
	}
	if next < len(names) {
		return nil, fmt.Errorf("%d parameter names declared for %d bindable parameters", len(names), next)
	}
	return params, nil
}

// validateReturns accepts (), (T), (error), and (T, error) shapes.
func validateReturns(ft reflect.Type) error {
	switch ft.NumOut() {
	case 0, 1:
		return nil
	case 2:
		if !ft.Out(1).Implements(errorType) {
			return fmt.Errorf("second return value must be error, got %s", ft.Out(1))
		}
		return nil
	default:
		return fmt.Errorf("too many return values: %d", ft.NumOut())
	}
}

func (c *reflectCallable) Params() []Param {
	out := make([]Param, len(c.params))
	copy(out, c.params)
	return out
}

// Call invokes the target with the bound arguments. Errors returned here are
// the handler's own; arity and receiver mismatches return ErrArgumentCount
// style plumbing errors before the target runs.
func (c *reflectCallable) Call(ctx context.Context, receiver any, args []any) (any, error) {
	if len(args) != len(c.params) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrArgumentCount, len(args), len(c.params))
	}

	in := make([]reflect.Value, 0, len(args)+1)
	if c.hasReceiver {
		if receiver == nil {
			return nil, fmt.Errorf("%w: missing receiver for %s", ErrArgumentCount, c.name)
		}
		rv := reflect.ValueOf(receiver)
		if !rv.Type().AssignableTo(c.receiverType) {
			return nil, fmt.Errorf("%w: receiver %s is not assignable to %s", ErrArgumentCount, rv.Type(), c.receiverType)
		}
		in = append(in, rv)
	}

	for i, arg := range args {
		pt := c.params[i].Type
		if arg == nil {
			// Ambient context slots are filled from the call context;
			// other nils become typed zero values.
			if pt.Implements(contextType) && ctx != nil {
				in = append(in, reflect.ValueOf(ctx))
				continue
			}
			in = append(in, reflect.Zero(pt))
			continue
		}
		av := reflect.ValueOf(arg)
		if !av.Type().AssignableTo(pt) {
			if av.Type().ConvertibleTo(pt) {
				av = av.Convert(pt)
			} else {
				return nil, fmt.Errorf("%w: argument %q is %s, want %s", ErrArgumentCount, c.params[i].Name, av.Type(), pt)
			}
		}
		in = append(in, av)
	}

	out := c.fn.Call(in)
	return splitReturns(out)
}

// splitReturns maps reflected return values onto (result, err).
func splitReturns(out []reflect.Value) (any, error) {
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if out[0].Type().Implements(errorType) {
			if out[0].IsNil() {
				return nil, nil
			}
			return nil, out[0].Interface().(error)
		}
		return out[0].Interface(), nil
	default:
		var err error
		if !out[1].IsNil() {
			err = out[1].Interface().(error)
		}
		return out[0].Interface(), err
	}
}

// runtimeFuncName returns a best-effort display name for a func value.
func runtimeFuncName(v reflect.Value) string {
	return v.Type().String()
}

// Package binder converts an untyped argument bag into concrete, correctly
// typed call arguments for a target method, following the tool's published
// parameter schema. Binding is fail-atomic: the caller receives either a
// complete ordered argument list or an error, never a partial list.
package binder

import (
	"context"
	"reflect"
	"strings"

	"github.com/grparry/MCPInvoke-sub000/internal/registry"
	"github.com/grparry/MCPInvoke-sub000/internal/schema"
)

var contextType = reflect.TypeOf((*context.Context)(nil)).Elem()

// Binder binds wire arguments to method parameters. The zero configuration
// excludes context.Context from client binding and matches argument names
// case-insensitively when no exact match exists.
type Binder struct {
	exclusions      []reflect.Type
	caseInsensitive bool
	strategies      []strategy
}

// Option configures a Binder.
type Option func(*Binder)

// WithExclusions replaces the ambient-type exclusion list. Excluded types
// are never bound from client data; their slots are filled with zero
// values (context slots are filled from the call context at invoke time).
func WithExclusions(types ...reflect.Type) Option {
	return func(b *Binder) { b.exclusions = types }
}

// WithCaseSensitiveNames disables the case-insensitive fallback when
// matching argument and schema names.
func WithCaseSensitiveNames() Option {
	return func(b *Binder) { b.caseInsensitive = false }
}

// New creates a Binder with the default conversion strategy chain:
// enum (name then ordinal), passthrough, structured object, sequence,
// scalar widening.
func New(opts ...Option) *Binder {
	b := &Binder{
		exclusions:      []reflect.Type{contextType},
		caseInsensitive: true,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.strategies = []strategy{
		(*Binder).convertEnum,
		(*Binder).convertPassthrough,
		(*Binder).convertStruct,
		(*Binder).convertSlice,
		(*Binder).convertScalar,
	}
	return b
}

// Bind produces the complete ordered argument list for the target method's
// formal parameters, or a typed failure. Resolution per parameter, in
// declaration order:
//
//   - ambient/excluded type: zero value, never bound from client data
//   - no schema entry: method-declared default, else a SchemaError
//   - schema entry, argument absent: schema default, method default,
//     required failure, zero value — in that strict order
//   - both present: shape validation then strategy-chain conversion
func (b *Binder) Bind(params []registry.Param, schemaMap map[string]*schema.Parameter, args map[string]any) ([]any, error) {
	bound := make([]any, 0, len(params))

	for _, p := range params {
		if b.isExcluded(p.Type) {
			bound = append(bound, nil)
			continue
		}

		sc := b.lookupSchema(schemaMap, p.Name)
		if sc == nil {
			if p.HasDefault {
				v, err := b.convert(p.Default, p.Type, nil, p.Name)
				if err != nil {
					return nil, err
				}
				bound = append(bound, v)
				continue
			}
			return nil, &SchemaError{Name: p.Name, Reason: "no schema entry and no declared default"}
		}

		value, present := b.lookupArg(args, p.Name)
		if !present {
			v, err := b.resolveAbsent(p, sc)
			if err != nil {
				return nil, err
			}
			bound = append(bound, v)
			continue
		}

		if err := b.validateShape(value, sc, p.Name); err != nil {
			return nil, err
		}
		v, err := b.convert(value, p.Type, sc, p.Name)
		if err != nil {
			return nil, err
		}
		bound = append(bound, v)
	}

	return bound, nil
}

// resolveAbsent applies the default-resolution order for a parameter that
// has a schema entry but no supplied argument.
func (b *Binder) resolveAbsent(p registry.Param, sc *schema.Parameter) (any, error) {
	switch {
	case sc.Default != nil:
		return b.convert(sc.Default, p.Type, sc, p.Name)
	case p.HasDefault:
		return b.convert(p.Default, p.Type, sc, p.Name)
	case sc.Required:
		return nil, &MissingParamError{Name: p.Name}
	default:
		return reflect.Zero(p.Type).Interface(), nil
	}
}

// isExcluded reports whether a parameter type is on the ambient exclusion
// list. Interface exclusions match any implementing type.
func (b *Binder) isExcluded(t reflect.Type) bool {
	for _, e := range b.exclusions {
		if t == e {
			return true
		}
		if e.Kind() == reflect.Interface && t.Implements(e) {
			return true
		}
	}
	return false
}

// lookupSchema finds the schema entry for a parameter name, falling back
// to a case-insensitive scan when enabled.
func (b *Binder) lookupSchema(schemaMap map[string]*schema.Parameter, name string) *schema.Parameter {
	if sc, ok := schemaMap[name]; ok {
		return sc
	}
	if !b.caseInsensitive {
		return nil
	}
	for k, sc := range schemaMap {
		if strings.EqualFold(k, name) {
			return sc
		}
	}
	return nil
}

// lookupArg finds the supplied value for a parameter name, falling back
// to a case-insensitive scan when enabled.
func (b *Binder) lookupArg(args map[string]any, name string) (any, bool) {
	if v, ok := args[name]; ok {
		return v, true
	}
	if !b.caseInsensitive {
		return nil, false
	}
	for k, v := range args {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

// validateShape rejects supplied values whose wire shape contradicts the
// schema type tag before conversion is attempted. Enum-typed parameters
// accept either a string or a number regardless of the declared tag, since
// an enumeration may be transmitted either way.
func (b *Binder) validateShape(value any, sc *schema.Parameter, name string) error {
	if value == nil {
		return nil
	}
	if sc.IsEnum() {
		switch value.(type) {
		case string, float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return nil
		}
		return &TypeMismatchError{Name: name, Expected: "enum name or ordinal"}
	}
	switch sc.Type {
	case schema.TypeObject:
		if _, ok := value.(map[string]any); !ok {
			return &TypeMismatchError{Name: name, Expected: "object"}
		}
	case schema.TypeArray:
		if _, ok := value.([]any); !ok {
			rv := reflect.ValueOf(value)
			if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
				return &TypeMismatchError{Name: name, Expected: "array"}
			}
		}
	}
	return nil
}

package binder

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/grparry/MCPInvoke-sub000/internal/schema"
)

// strategy is one conversion attempt in the ordered chain. It returns the
// converted value and true when it applied, or false to pass the value to
// the next strategy. A returned error aborts the entire binding.
type strategy func(b *Binder, value any, target reflect.Type, sc *schema.Parameter, name string) (any, bool, error)

// convert runs the strategy chain for one value. A value no strategy can
// place is a type mismatch naming the parameter and its expected type.
func (b *Binder) convert(value any, target reflect.Type, sc *schema.Parameter, name string) (any, error) {
	for _, s := range b.strategies {
		v, ok, err := s(b, value, target, sc, name)
		if err != nil {
			return nil, err
		}
		if ok {
			return v, nil
		}
	}
	return nil, &TypeMismatchError{Name: name, Expected: target.String()}
}

// convertPassthrough accepts values already assignable to the target type,
// including interface{} targets.
func (b *Binder) convertPassthrough(value any, target reflect.Type, sc *schema.Parameter, name string) (any, bool, error) {
	if value == nil {
		return reflect.Zero(target).Interface(), true, nil
	}
	if target.Kind() == reflect.Interface && target.NumMethod() == 0 {
		return value, true, nil
	}
	if reflect.TypeOf(value).AssignableTo(target) {
		return value, true, nil
	}
	return nil, false, nil
}

// convertEnum maps a wire value onto an enumerated target. Strategies in
// order: case-insensitive match against the symbolic names, then numeric
// ordinal (accepting numeric text). Only fails if no strategy succeeds.
func (b *Binder) convertEnum(value any, target reflect.Type, sc *schema.Parameter, name string) (any, bool, error) {
	if sc == nil || !sc.IsEnum() {
		return nil, false, nil
	}

	if s, ok := value.(string); ok {
		for i, symbol := range sc.Enum {
			if strings.EqualFold(symbol, s) {
				v, err := enumToTarget(i, symbol, target, name)
				return v, true, err
			}
		}
		// Numeric text maps to the ordinal position.
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			v, cerr := enumOrdinal(n, sc, target, name)
			return v, true, cerr
		}
		return nil, true, &TypeMismatchError{
			Name:     name,
			Expected: fmt.Sprintf("one of %v", sc.Enum),
		}
	}

	if f, err := cast.ToFloat64E(value); err == nil {
		n := int(f)
		if float64(n) != f {
			return nil, true, &TypeMismatchError{Name: name, Expected: "integral enum ordinal"}
		}
		v, cerr := enumOrdinal(n, sc, target, name)
		return v, true, cerr
	}

	return nil, true, &TypeMismatchError{Name: name, Expected: "enum name or ordinal"}
}

// enumOrdinal bounds-checks an ordinal and converts it to the target type.
func enumOrdinal(n int, sc *schema.Parameter, target reflect.Type, name string) (any, error) {
	if n < 0 || n >= len(sc.Enum) {
		return nil, &TypeMismatchError{
			Name:     name,
			Expected: fmt.Sprintf("enum ordinal in [0,%d)", len(sc.Enum)),
		}
	}
	return enumToTarget(n, sc.Enum[n], target, name)
}

// enumToTarget renders a resolved enum member as the target type: the
// ordinal for integer-kind targets, the canonical symbol for string-kind
// targets. Binding by name and by ordinal therefore yield identical values.
func enumToTarget(ordinal int, symbol string, target reflect.Type, name string) (any, error) {
	switch target.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return reflect.ValueOf(ordinal).Convert(target).Interface(), nil
	case reflect.String:
		return reflect.ValueOf(symbol).Convert(target).Interface(), nil
	case reflect.Interface:
		return symbol, nil
	default:
		return nil, &TypeMismatchError{Name: name, Expected: "integer or string enum target, got " + target.String()}
	}
}

// convertStruct recursively converts a wire object into the target
// structure's fields. Missing nested required fields hard-fail; optional
// fields take their nested default or zero value.
func (b *Binder) convertStruct(value any, target reflect.Type, sc *schema.Parameter, name string) (any, bool, error) {
	elem := target
	isPtr := false
	if elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
		isPtr = true
	}

	switch {
	case elem.Kind() == reflect.Struct:
		// handled below
	case target.Kind() == reflect.Map && target.Key().Kind() == reflect.String:
		return b.convertMap(value, target, sc, name)
	default:
		return nil, false, nil
	}

	m, ok := value.(map[string]any)
	if !ok {
		return nil, true, &TypeMismatchError{Name: name, Expected: "object"}
	}

	out := reflect.New(elem)
	for i := 0; i < elem.NumField(); i++ {
		f := elem.Field(i)
		if !f.IsExported() {
			continue
		}
		fieldName := jsonFieldName(f)
		qualified := name + "." + fieldName

		var nested *schema.Parameter
		if sc != nil {
			nested = b.lookupSchema(sc.Properties, fieldName)
		}

		raw, present := b.lookupArg(m, fieldName)
		if !present {
			switch {
			case nested != nil && nested.Default != nil:
				v, err := b.convert(nested.Default, f.Type, nested, qualified)
				if err != nil {
					return nil, true, err
				}
				out.Elem().Field(i).Set(reflect.ValueOf(v))
			case nested != nil && nested.Required:
				return nil, true, &MissingParamError{Name: qualified}
			}
			continue
		}

		v, err := b.convert(raw, f.Type, nested, qualified)
		if err != nil {
			return nil, true, err
		}
		if v != nil {
			out.Elem().Field(i).Set(reflect.ValueOf(v))
		}
	}

	if isPtr {
		return out.Interface(), true, nil
	}
	return out.Elem().Interface(), true, nil
}

// convertMap converts a wire object into a string-keyed map, converting
// each value to the map's element type via any matching property schema.
func (b *Binder) convertMap(value any, target reflect.Type, sc *schema.Parameter, name string) (any, bool, error) {
	m, ok := value.(map[string]any)
	if !ok {
		return nil, true, &TypeMismatchError{Name: name, Expected: "object"}
	}

	out := reflect.MakeMapWithSize(target, len(m))
	elemType := target.Elem()
	for k, raw := range m {
		var nested *schema.Parameter
		if sc != nil {
			nested = b.lookupSchema(sc.Properties, k)
		}
		v, err := b.convert(raw, elemType, nested, name+"."+k)
		if err != nil {
			return nil, true, err
		}
		ev := reflect.Zero(elemType)
		if v != nil {
			ev = reflect.ValueOf(v)
		}
		out.SetMapIndex(reflect.ValueOf(k).Convert(target.Key()), ev)
	}
	return out.Interface(), true, nil
}

// convertSlice converts a wire array element-wise using the item schema.
func (b *Binder) convertSlice(value any, target reflect.Type, sc *schema.Parameter, name string) (any, bool, error) {
	if target.Kind() != reflect.Slice {
		return nil, false, nil
	}

	src := reflect.ValueOf(value)
	if !src.IsValid() || (src.Kind() != reflect.Slice && src.Kind() != reflect.Array) {
		return nil, true, &TypeMismatchError{Name: name, Expected: "array"}
	}

	var items *schema.Parameter
	if sc != nil {
		items = sc.Items
	}

	out := reflect.MakeSlice(target, src.Len(), src.Len())
	for i := 0; i < src.Len(); i++ {
		v, err := b.convert(src.Index(i).Interface(), target.Elem(), items, fmt.Sprintf("%s[%d]", name, i))
		if err != nil {
			return nil, true, err
		}
		if v != nil {
			out.Index(i).Set(reflect.ValueOf(v))
		}
	}
	return out.Interface(), true, nil
}

// convertScalar performs direct numeric/boolean/string conversion with
// standard widening rules.
func (b *Binder) convertScalar(value any, target reflect.Type, sc *schema.Parameter, name string) (any, bool, error) {
	var (
		out any
		err error
	)

	switch target.Kind() {
	case reflect.String:
		out, err = cast.ToStringE(value)
	case reflect.Bool:
		out, err = cast.ToBoolE(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		out, err = cast.ToInt64E(value)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		out, err = cast.ToUint64E(value)
	case reflect.Float32, reflect.Float64:
		out, err = cast.ToFloat64E(value)
	default:
		return nil, false, nil
	}

	if err != nil {
		return nil, true, &TypeMismatchError{Name: name, Expected: target.String(), Err: err}
	}
	return reflect.ValueOf(out).Convert(target).Interface(), true, nil
}

// jsonFieldName returns the wire name for a struct field: the json tag
// when present, the Go field name otherwise.
func jsonFieldName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" || tag == "-" {
		return f.Name
	}
	if idx := strings.Index(tag, ","); idx >= 0 {
		tag = tag[:idx]
	}
	if tag == "" {
		return f.Name
	}
	return tag
}

// Package schema defines the parameter schema model consumed by the binder
// and published through the tools/list catalog snapshot.
package schema

// Type is the wire-level type tag for a parameter.
type Type string

// Supported type tags.
const (
	TypeString  Type = "string"
	TypeInteger Type = "integer"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeObject  Type = "object"
	TypeArray   Type = "array"
)

// Parameter describes one expected argument of a tool: its wire type,
// whether it is required, an optional schema-declared default, allowed
// enum values, and nested shapes for objects and arrays.
//
// Annotations carry diagnostic source metadata (e.g. which wire location
// a value nominally originates from). Binding logic never reads them.
type Parameter struct {
	Name        string                `json:"name" yaml:"name"`
	Type        Type                  `json:"type" yaml:"type"`
	Description string                `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool                  `json:"required,omitempty" yaml:"required,omitempty"`
	Default     any                   `json:"default,omitempty" yaml:"default,omitempty"`
	Enum        []string              `json:"enum,omitempty" yaml:"enum,omitempty"`
	Properties  map[string]*Parameter `json:"properties,omitempty" yaml:"properties,omitempty"`
	Items       *Parameter            `json:"items,omitempty" yaml:"items,omitempty"`
	Annotations map[string]string     `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// Normalize fills in a missing type tag. Untyped parameters are treated
// as strings, matching how untagged catalog entries behave.
func (p *Parameter) Normalize() {
	if p == nil {
		return
	}
	if p.Type == "" {
		p.Type = TypeString
	}
	for _, nested := range p.Properties {
		nested.Normalize()
	}
	p.Items.Normalize()
}

// IsEnum reports whether the parameter restricts values to a symbolic set.
func (p *Parameter) IsEnum() bool {
	return p != nil && len(p.Enum) > 0
}

// Map converts a parameter list into a name-keyed schema map, normalizing
// each entry. Later entries with duplicate names overwrite earlier ones.
func Map(params []*Parameter) map[string]*Parameter {
	m := make(map[string]*Parameter, len(params))
	for _, p := range params {
		if p == nil || p.Name == "" {
			continue
		}
		p.Normalize()
		m[p.Name] = p
	}
	return m
}

package schema

import (
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
)

// BuildTool converts a tool's parameter list into an mcp.Tool carrying the
// published input schema. The parameter order defines the property set;
// nested object and array shapes are emitted as raw JSON Schema fragments.
func BuildTool(name, description string, params []*Parameter) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(description)}
	for _, p := range params {
		if p == nil || p.Name == "" {
			continue
		}
		p.Normalize()
		opts = append(opts, buildParamOption(p))
	}
	return mcp.NewTool(name, opts...)
}

// buildParamOption maps a Parameter to the appropriate mcp-go tool option.
func buildParamOption(p *Parameter) mcp.ToolOption {
	var opts []mcp.PropertyOption
	if p.Description != "" {
		opts = append(opts, mcp.Description(p.Description))
	}
	if p.Required {
		opts = append(opts, mcp.Required())
	}
	if len(p.Enum) > 0 {
		opts = append(opts, mcp.Enum(p.Enum...))
	}

	switch p.Type {
	case TypeInteger, TypeNumber:
		if def, ok := p.Default.(float64); ok {
			opts = append(opts, mcp.DefaultNumber(def))
		} else if def, ok := p.Default.(int); ok {
			opts = append(opts, mcp.DefaultNumber(float64(def)))
		}
		return mcp.WithNumber(p.Name, opts...)
	case TypeBoolean:
		if def, ok := p.Default.(bool); ok {
			opts = append(opts, mcp.DefaultBool(def))
		}
		return mcp.WithBoolean(p.Name, opts...)
	case TypeArray:
		if p.Items != nil {
			opts = append([]mcp.PropertyOption{mcp.Items(propertyFragment(p.Items))}, opts...)
		} else {
			opts = append([]mcp.PropertyOption{mcp.WithStringItems()}, opts...)
		}
		return mcp.WithArray(p.Name, opts...)
	case TypeObject:
		props := make(map[string]any, len(p.Properties))
		var required []string
		for name, nested := range p.Properties {
			props[name] = propertyFragment(nested)
			if nested.Required {
				required = append(required, name)
			}
		}
		opts = append([]mcp.PropertyOption{mcp.Properties(props)}, opts...)
		if len(required) > 0 {
			sort.Strings(required)
			opts = append(opts, func(schema map[string]any) {
				schema["required"] = required
			})
		}
		return mcp.WithObject(p.Name, opts...)
	default:
		if def, ok := p.Default.(string); ok {
			opts = append(opts, mcp.DefaultString(def))
		}
		return mcp.WithString(p.Name, opts...)
	}
}

// propertyFragment renders a nested parameter as a raw JSON Schema fragment.
func propertyFragment(p *Parameter) map[string]any {
	if p == nil {
		return map[string]any{"type": "string"}
	}
	p.Normalize()

	frag := map[string]any{"type": string(p.Type)}
	if p.Description != "" {
		frag["description"] = p.Description
	}
	if len(p.Enum) > 0 {
		frag["enum"] = p.Enum
	}
	if p.Default != nil {
		frag["default"] = p.Default
	}
	if p.Type == TypeArray && p.Items != nil {
		frag["items"] = propertyFragment(p.Items)
	}
	if p.Type == TypeObject && len(p.Properties) > 0 {
		props := make(map[string]any, len(p.Properties))
		var required []string
		for name, nested := range p.Properties {
			props[name] = propertyFragment(nested)
			if nested.Required {
				required = append(required, name)
			}
		}
		frag["properties"] = props
		if len(required) > 0 {
			sort.Strings(required)
			frag["required"] = required
		}
	}
	return frag
}

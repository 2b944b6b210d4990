package core

import (
	"encoding/json"
	"sort"
)

// Kind tags the structural category of a schema node.
type Kind int

const (
	KindObject Kind = iota
	KindArray
	KindString
	KindNumber
	KindInteger
	KindBoolean
	KindAny
)

// String provides the type name used when rendering schemas into prompts.
func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindInteger:
		return "integer"
	case KindBoolean:
		return "boolean"
	default:
		return "any"
	}
}

// Shape is a nested descriptor of the structure an oracle response must
// satisfy: a mapping of required keys to nested shapes, a list with a single
// prototype element, or a primitive type tag. Shapes are treated as values;
// functions that derive new shapes return copies and never mutate inputs.
type Shape struct {
	Kind   Kind
	Fields map[string]Shape // populated when Kind == KindObject
	Elem   *Shape           // prototype element when Kind == KindArray; nil accepts any elements
}

// Object builds an object shape from its required fields.
func Object(fields map[string]Shape) Shape {
	return Shape{Kind: KindObject, Fields: fields}
}

// Array builds an array shape whose every element must match the prototype.
func Array(elem Shape) Shape {
	return Shape{Kind: KindArray, Elem: &elem}
}

// String builds a string primitive shape.
func String() Shape { return Shape{Kind: KindString} }

// Number builds a floating-point primitive shape.
func Number() Shape { return Shape{Kind: KindNumber} }

// Integer builds an integer primitive shape.
func Integer() Shape { return Shape{Kind: KindInteger} }

// Boolean builds a boolean primitive shape.
func Boolean() Shape { return Shape{Kind: KindBoolean} }

// Any builds a shape that matches any value.
func Any() Shape { return Shape{Kind: KindAny} }

// WithField returns a copy of an object shape with one extra required field.
// Non-object shapes are returned unchanged.
func (s Shape) WithField(key string, field Shape) Shape {
	if s.Kind != KindObject {
		return s
	}
	fields := make(map[string]Shape, len(s.Fields)+1)
	for k, v := range s.Fields {
		fields[k] = v
	}
	fields[key] = field
	return Shape{Kind: KindObject, Fields: fields}
}

// Serializable converts the shape into plain maps/slices/type-name strings
// suitable for JSON rendering inside a prompt.
func (s Shape) Serializable() any {
	switch s.Kind {
	case KindObject:
		out := make(map[string]any, len(s.Fields))
		for k, v := range s.Fields {
			out[k] = v.Serializable()
		}
		return out
	case KindArray:
		if s.Elem == nil {
			return []any{}
		}
		return []any{s.Elem.Serializable()}
	default:
		return s.Kind.String()
	}
}

// String renders the shape as indented JSON. encoding/json sorts object keys,
// so the rendering is deterministic.
func (s Shape) String() string {
	data, err := json.MarshalIndent(s.Serializable(), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// SortedKeys returns the object field names in lexical order. Empty for
// non-object shapes.
func (s Shape) SortedKeys() []string {
	if s.Kind != KindObject {
		return nil
	}
	keys := make([]string, 0, len(s.Fields))
	for k := range s.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

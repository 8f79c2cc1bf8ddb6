package document

import (
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// Value holds a YAML node whose type is checked by validation rules rather
// than by the decoder. A zero Value means the key was absent (or null).
type Value struct {
	node *yaml.Node
}

// UnmarshalYAML records the node as-is.
func (v *Value) UnmarshalYAML(n *yaml.Node) error {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	v.node = n
	return nil
}

// JSONSchema makes Value accept any JSON value in the shape schema.
func (Value) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{}
}

// ValueOf wraps a node. Mostly useful in tests.
func ValueOf(n *yaml.Node) Value {
	var v Value
	if n != nil {
		_ = v.UnmarshalYAML(n)
	}
	return v
}

// Present reports whether the key carried a non-null value.
func (v Value) Present() bool {
	return v.node != nil && v.node.ShortTag() != "!!null"
}

// Text returns the scalar text, or "" for non-scalars.
func (v Value) Text() string {
	if v.node == nil || v.node.Kind != yaml.ScalarNode {
		return ""
	}
	return v.node.Value
}

// IsString reports whether the value is a string scalar.
func (v Value) IsString() bool {
	return v.node != nil && v.node.Kind == yaml.ScalarNode && v.node.ShortTag() == "!!str"
}

// Int returns the value if it is an integer scalar.
func (v Value) Int() (int, bool) {
	if v.node == nil || v.node.Kind != yaml.ScalarNode || v.node.ShortTag() != "!!int" {
		return 0, false
	}
	var i int
	if err := v.node.Decode(&i); err != nil {
		return 0, false
	}
	return i, true
}

// Float returns the value if it is an integer or float scalar.
func (v Value) Float() (float64, bool) {
	if v.node == nil || v.node.Kind != yaml.ScalarNode {
		return 0, false
	}
	switch v.node.ShortTag() {
	case "!!int", "!!float":
	default:
		return 0, false
	}
	var f float64
	if err := v.node.Decode(&f); err != nil {
		return 0, false
	}
	return f, true
}

// Bool returns the value if it is a boolean scalar.
func (v Value) Bool() (bool, bool) {
	if v.node == nil || v.node.Kind != yaml.ScalarNode || v.node.ShortTag() != "!!bool" {
		return false, false
	}
	var b bool
	if err := v.node.Decode(&b); err != nil {
		return false, false
	}
	return b, true
}

// IsMapping reports whether the value is a mapping.
func (v Value) IsMapping() bool { return v.node != nil && v.node.Kind == yaml.MappingNode }

// IsSequence reports whether the value is a sequence.
func (v Value) IsSequence() bool { return v.node != nil && v.node.Kind == yaml.SequenceNode }

// Items returns the elements of a sequence.
func (v Value) Items() []Value {
	if !v.IsSequence() {
		return nil
	}
	out := make([]Value, 0, len(v.node.Content))
	for _, c := range v.node.Content {
		out = append(out, ValueOf(c))
	}
	return out
}

// Get returns the value under key in a mapping. The result is absent when v
// is not a mapping or has no such key.
func (v Value) Get(key string) Value {
	if !v.IsMapping() {
		return Value{}
	}
	for i := 0; i+1 < len(v.node.Content); i += 2 {
		if v.node.Content[i].Value == key {
			return ValueOf(v.node.Content[i+1])
		}
	}
	return Value{}
}

// Has reports whether a mapping contains key, including keys with null values.
func (v Value) Has(key string) bool {
	if !v.IsMapping() {
		return false
	}
	for i := 0; i+1 < len(v.node.Content); i += 2 {
		if v.node.Content[i].Value == key {
			return true
		}
	}
	return false
}

// Keys returns mapping keys in document order.
func (v Value) Keys() []string {
	if !v.IsMapping() {
		return nil
	}
	keys := make([]string, 0, len(v.node.Content)/2)
	for i := 0; i+1 < len(v.node.Content); i += 2 {
		keys = append(keys, v.node.Content[i].Value)
	}
	return keys
}

// Strings returns the scalar texts of a sequence.
func (v Value) Strings() []string {
	var out []string
	for _, it := range v.Items() {
		if it.node.Kind == yaml.ScalarNode {
			out = append(out, it.Text())
		}
	}
	return out
}

// Contains reports whether a mapping has key name or a sequence has a scalar
// element equal to name.
func (v Value) Contains(name string) bool {
	switch {
	case v.IsMapping():
		return v.Has(name)
	case v.IsSequence():
		for _, s := range v.Strings() {
			if s == name {
				return true
			}
		}
	}
	return false
}

// Truthy follows the usual YAML-config reading: absent, null, false, zero,
// empty strings and empty collections are false.
func (v Value) Truthy() bool {
	if !v.Present() {
		return false
	}
	switch v.node.Kind {
	case yaml.MappingNode, yaml.SequenceNode:
		return len(v.node.Content) > 0
	}
	if b, ok := v.Bool(); ok {
		return b
	}
	if f, ok := v.Float(); ok {
		return f != 0
	}
	return v.node.Value != ""
}

// ExplicitlyFalse reports whether the key is present with a falsy value.
// Security switches default to enabled when absent.
func (v Value) ExplicitlyFalse() bool {
	return v.node != nil && !v.Truthy()
}

// Display renders the value for messages.
func (v Value) Display() string {
	if v.node == nil {
		return "<missing>"
	}
	switch v.node.Kind {
	case yaml.ScalarNode:
		return v.node.Value
	case yaml.SequenceNode:
		return "[" + strings.Join(v.Strings(), ", ") + "]"
	case yaml.MappingNode:
		return "{" + strings.Join(v.Keys(), ", ") + "}"
	}
	return strconv.Quote(v.node.Value)
}

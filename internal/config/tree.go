package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tree is a read-only configuration node with ordered keys and typed
// accessors. Values are scalars (string, bool, int, float64), []any or *Tree.
// Missing or malformed values resolve to the caller's default.
type Tree struct {
	keys   []string
	values map[string]any
}

// NewTree creates an empty Tree.
func NewTree() *Tree {
	return &Tree{values: make(map[string]any)}
}

// FromMap builds a Tree from nested maps. Keys are sorted since maps carry no order.
func FromMap(m map[string]any) *Tree {
	t := NewTree()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		t.Set(k, fromAny(m[k]))
	}
	return t
}

func fromAny(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return FromMap(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = fromAny(e)
		}
		return out
	default:
		return v
	}
}

// Set adds or replaces a direct child, keeping first-insertion order.
// Used while building; a published Tree is never modified.
func (t *Tree) Set(key string, v any) {
	if _, ok := t.values[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.values[key] = v
}

// ParseYAML decodes YAML into a Tree preserving mapping order.
func ParseYAML(data []byte) (*Tree, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return NewTree(), nil
	}
	v, err := decodeNode(doc.Content[0])
	if err != nil {
		return nil, err
	}
	t, ok := v.(*Tree)
	if !ok {
		return nil, fmt.Errorf("parsing yaml: top level is not a mapping")
	}
	return t, nil
}

// LoadTree reads a YAML file into a Tree and returns its content digest.
func LoadTree(path string) (*Tree, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", path, err)
	}
	t, err := ParseYAML(data)
	if err != nil {
		return nil, "", fmt.Errorf("loading %s: %w", path, err)
	}
	return t, Digest(data), nil
}

func decodeNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return decodeNode(n.Alias)
	case yaml.MappingNode:
		t := NewTree()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			v, err := decodeNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			t.Set(key, v)
		}
		return t, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := decodeNode(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	default:
		return nil, nil
	}
}

// Keys returns direct child keys in document order.
func (t *Tree) Keys() []string {
	if t == nil {
		return nil
	}
	return slices.Clone(t.keys)
}

// Child returns the direct child Tree named key (literal, no path splitting).
func (t *Tree) Child(key string) *Tree {
	if t == nil {
		return nil
	}
	sub, _ := t.values[key].(*Tree)
	return sub
}

// Raw returns the value at a dot-separated path.
func (t *Tree) Raw(path string) (any, bool) {
	if t == nil {
		return nil, false
	}
	cur := t
	parts := strings.Split(path, ".")
	for i, p := range parts {
		v, ok := cur.values[p]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		next, ok := v.(*Tree)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return nil, false
}

// Has reports whether path exists.
func (t *Tree) Has(path string) bool {
	_, ok := t.Raw(path)
	return ok
}

// Sub returns the Tree at path, or nil.
func (t *Tree) Sub(path string) *Tree {
	v, _ := t.Raw(path)
	sub, _ := v.(*Tree)
	return sub
}

// List returns the mapping elements of the sequence at path.
// Non-mapping elements are skipped.
func (t *Tree) List(path string) []*Tree {
	v, _ := t.Raw(path)
	seq, _ := v.([]any)
	var out []*Tree
	for _, e := range seq {
		if sub, ok := e.(*Tree); ok {
			out = append(out, sub)
		}
	}
	return out
}

// String returns the string at path or def.
func (t *Tree) String(path, def string) string {
	v, ok := t.Raw(path)
	if !ok || v == nil {
		return def
	}
	switch x := v.(type) {
	case string:
		return x
	case *Tree, []any:
		defaulted(path, v)
		return def
	default:
		return fmt.Sprint(x)
	}
}

// Number returns the number at path or def. Numeric strings are accepted.
func (t *Tree) Number(path string, def float64) float64 {
	v, ok := t.Raw(path)
	if !ok || v == nil {
		return def
	}
	switch x := v.(type) {
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case uint64:
		return float64(x)
	case float64:
		return x
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err == nil {
			return f
		}
	}
	defaulted(path, v)
	return def
}

// Int returns the number at path truncated to int, or def.
func (t *Tree) Int(path string, def int) int {
	return int(t.Number(path, float64(def)))
}

// Bool returns the bool at path or def.
func (t *Tree) Bool(path string, def bool) bool {
	v, ok := t.Raw(path)
	if !ok || v == nil {
		return def
	}
	switch x := v.(type) {
	case bool:
		return x
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err == nil {
			return b
		}
	}
	defaulted(path, v)
	return def
}

func defaulted(path string, v any) {
	slog.Debug("config value malformed, default applied", "path", path, "value", v)
}

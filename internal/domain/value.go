package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Value is a section value: Text, List, Rows or *Map.
type Value interface {
	isValue()
}

// Text is a scalar section value.
type Text string

// List is a list of text fragments.
type List []string

// Rows is a table whose body rows were zipped against the header cells.
type Rows []*Map

// Map is an insertion ordered map from section name to Value.
// The zero value is ready to use.
type Map struct {
	keys   []string
	values map[string]Value
}

func (Text) isValue() {}
func (List) isValue() {}
func (Rows) isValue() {}
func (*Map) isValue() {}

func NewMap() *Map {
	return &Map{values: make(map[string]Value)}
}

// Set stores v under key. A new key is appended; an existing key keeps its position.
func (m *Map) Set(key string, v Value) {
	if m.values == nil {
		m.values = make(map[string]Value)
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Each calls fn for every entry in insertion order.
func (m *Map) Each(fn func(key string, v Value)) {
	if m == nil {
		return
	}
	for _, key := range m.keys {
		fn(key, m.values[key])
	}
}

// Merge appends a list value to an existing list under the same key, and
// otherwise replaces it.
func (m *Map) Merge(key string, v Value) {
	existing, ok := m.Get(key)
	if !ok {
		m.Set(key, v)
		return
	}
	prev, prevIsList := existing.(List)
	next, nextIsList := v.(List)
	if prevIsList && nextIsList {
		m.Set(key, append(append(List{}, prev...), next...))
		return
	}
	m.Set(key, v)
}

// IsEmpty reports whether v carries no content.
func IsEmpty(v Value) bool {
	switch t := v.(type) {
	case nil:
		return true
	case Text:
		return t == ""
	case List:
		return len(t) == 0
	case Rows:
		return len(t) == 0
	case *Map:
		return t.Len() == 0
	}
	return false
}

// Flatten collapses single element lists to their element, recursively.
// Applying it twice yields the same value.
func Flatten(v Value) Value {
	switch t := v.(type) {
	case List:
		if len(t) == 1 {
			return Text(t[0])
		}
	case Rows:
		if len(t) == 1 {
			return t[0].Flatten()
		}
		rows := make(Rows, len(t))
		for i, row := range t {
			rows[i] = row.Flatten()
		}
		return rows
	case *Map:
		return t.Flatten()
	}
	return v
}

// Flatten returns a copy of m with Flatten applied to every value.
func (m *Map) Flatten() *Map {
	out := NewMap()
	m.Each(func(key string, v Value) {
		out.Set(key, Flatten(v))
	})
	return out
}

// DescriptionText renders a description the way the indexing loader reads
// it: one "key: value" line per section, lists joined by newline.
func DescriptionText(m *Map) string {
	lines := make([]string, 0, m.Len())
	m.Each(func(key string, v Value) {
		lines = append(lines, fmt.Sprintf("%s: %s", key, renderValue(v)))
	})
	return strings.Join(lines, "\n")
}

func renderValue(v Value) string {
	switch t := v.(type) {
	case Text:
		return string(t)
	case List:
		return strings.Join(t, "\n")
	case Rows:
		parts := make([]string, 0, len(t))
		for _, row := range t {
			parts = append(parts, renderValue(row))
		}
		return strings.Join(parts, "\n")
	case *Map:
		b, err := marshalJSON(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
	return ""
}

// marshalJSON encodes without HTML escaping so stored text stays readable.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshalJSON(key)
		if err != nil {
			return nil, err
		}
		v, err := marshalJSON(m.values[key])
		if err != nil {
			return nil, fmt.Errorf("failed to encode section %q: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *Map) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("failed to decode section %q: %w", key, err)
		}
		v, err := decodeJSONValue(raw)
		if err != nil {
			return fmt.Errorf("failed to decode section %q: %w", key, err)
		}
		if v != nil {
			m.Set(key, v)
		}
	}
	return nil
}

func decodeJSONValue(raw json.RawMessage) (Value, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, err
		}
		return Text(s), nil
	case '{':
		m := NewMap()
		if err := m.UnmarshalJSON(trimmed); err != nil {
			return nil, err
		}
		return m, nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return decodeJSONArray(items)
	case 'n':
		return nil, nil
	default:
		// numbers and booleans are kept verbatim
		return Text(string(trimmed)), nil
	}
}

func decodeJSONArray(items []json.RawMessage) (Value, error) {
	if len(items) > 0 && bytes.HasPrefix(bytes.TrimSpace(items[0]), []byte("{")) {
		rows := make(Rows, 0, len(items))
		for _, item := range items {
			row := NewMap()
			if err := row.UnmarshalJSON(item); err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}
		return rows, nil
	}

	list := make(List, 0, len(items))
	for _, item := range items {
		v, err := decodeJSONValue(item)
		if err != nil {
			return nil, err
		}
		if text, ok := v.(Text); ok {
			list = append(list, string(text))
		}
	}
	return list, nil
}

func (m *Map) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, key := range m.Keys() {
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(m.values[key]); err != nil {
			return nil, fmt.Errorf("failed to encode section %q: %w", key, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			valueNode,
		)
	}
	return node, nil
}

func (m *Map) UnmarshalYAML(node *yaml.Node) error {
	node = resolveAlias(node)
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("expected mapping at line %d", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		v, err := decodeYAMLValue(node.Content[i+1])
		if err != nil {
			return fmt.Errorf("failed to decode section %q: %w", key, err)
		}
		if v != nil {
			m.Set(key, v)
		}
	}
	return nil
}

func decodeYAMLValue(node *yaml.Node) (Value, error) {
	node = resolveAlias(node)
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil, nil
		}
		return Text(node.Value), nil
	case yaml.MappingNode:
		m := NewMap()
		if err := m.UnmarshalYAML(node); err != nil {
			return nil, err
		}
		return m, nil
	case yaml.SequenceNode:
		if len(node.Content) > 0 && resolveAlias(node.Content[0]).Kind == yaml.MappingNode {
			rows := make(Rows, 0, len(node.Content))
			for _, item := range node.Content {
				row := NewMap()
				if err := row.UnmarshalYAML(item); err != nil {
					return nil, err
				}
				rows = append(rows, row)
			}
			return rows, nil
		}
		list := make(List, 0, len(node.Content))
		for _, item := range node.Content {
			list = append(list, resolveAlias(item).Value)
		}
		return list, nil
	}
	return nil, fmt.Errorf("unsupported yaml node kind %d at line %d", node.Kind, node.Line)
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

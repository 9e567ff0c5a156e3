package metadata

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Entry is one key→label declaration from a plugin header.
type Entry struct {
	Key   string
	Label string
}

// OrderedMap preserves the document order of a YAML mapping. Iteration order
// matters: for required_files it decides the order in which the user is
// prompted.
type OrderedMap struct {
	entries []Entry
}

// UnmarshalYAML decodes a YAML mapping node while keeping its key order.
// A bare `required_files:` with no entries arrives as a null scalar and
// decodes as an empty mapping.
func (m *OrderedMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		m.entries = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping, got %s", node.Line, node.Tag)
	}

	entries := make([]Entry, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var key, label string
		if err := node.Content[i].Decode(&key); err != nil {
			return fmt.Errorf("line %d: mapping key: %w", node.Content[i].Line, err)
		}
		if err := node.Content[i+1].Decode(&label); err != nil {
			return fmt.Errorf("line %d: value for %q: %w", node.Content[i+1].Line, key, err)
		}
		entries = append(entries, Entry{Key: key, Label: label})
	}

	m.entries = entries
	return nil
}

// Entries returns the declarations in document order.
func (m OrderedMap) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Keys returns the keys in document order.
func (m OrderedMap) Keys() []string {
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.Key
	}
	return keys
}

// Get returns the label declared for key.
func (m OrderedMap) Get(key string) (string, bool) {
	for _, e := range m.entries {
		if e.Key == key {
			return e.Label, true
		}
	}
	return "", false
}

// Len returns the number of declarations.
func (m OrderedMap) Len() int {
	return len(m.entries)
}

// Metadata is the immutable record parsed from a plugin's header block.
// It is rebuilt from scratch on every discovery scan.
type Metadata struct {
	Name          string            `yaml:"name" validate:"required,min=1,max=100"`
	Description   string            `yaml:"description"`
	RequiredFiles OrderedMap        `yaml:"required_files"`
	Outputs       OrderedMap        `yaml:"outputs"`
	FileFilters   map[string]string `yaml:"file_filters"`
}

// Filter returns the file-selection pattern declared for a required-file
// key, or the empty string when the header narrows nothing.
func (m *Metadata) Filter(key string) string {
	if m.FileFilters == nil {
		return ""
	}
	return m.FileFilters[key]
}

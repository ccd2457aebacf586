// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Store is a key-value view of the top-level mapping of a YAML file.
// The zero value is not usable; create one with [Open].
type Store struct {
	path string
}

// Item is a single top-level key-value pair, as returned by
// [Store.Items].
type Item struct {
	Key   string
	Value any
}

// Open returns a Store bound to path. The file is not read until the
// first operation and does not need to exist: reads of a missing file
// behave as reads of an empty mapping, and the first write creates it.
func Open(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Get returns the decoded value of a top-level key. Mappings decode to
// map[string]any, sequences to []any. Returns a [KeyNotFoundError] if
// the key is absent or the file does not exist.
func (s *Store) Get(key string) (any, error) {
	document, err := s.read()
	if err != nil {
		return nil, err
	}
	valueNode := lookup(document, key)
	if valueNode == nil {
		return nil, &KeyNotFoundError{Path: s.path, Key: key}
	}
	var value any
	if err := valueNode.Decode(&value); err != nil {
		return nil, fmt.Errorf("decoding %q in %s: %w", key, s.path, err)
	}
	return value, nil
}

// GetString returns a top-level scalar as a string. Non-string scalars
// (numbers, booleans) are returned in their YAML spelling, so an
// instance_id written as 1 reads back as "1".
func (s *Store) GetString(key string) (string, error) {
	document, err := s.read()
	if err != nil {
		return "", err
	}
	valueNode := lookup(document, key)
	if valueNode == nil {
		return "", &KeyNotFoundError{Path: s.path, Key: key}
	}
	if valueNode.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("%q in %s is not a scalar", key, s.path)
	}
	return valueNode.Value, nil
}

// Contains reports whether key is present at the top level.
func (s *Store) Contains(key string) (bool, error) {
	document, err := s.read()
	if err != nil {
		return false, err
	}
	return lookup(document, key) != nil, nil
}

// Keys returns the top-level keys in document order.
func (s *Store) Keys() ([]string, error) {
	document, err := s.read()
	if err != nil {
		return nil, err
	}
	mapping := document.Content[0]
	keys := make([]string, 0, len(mapping.Content)/2)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keys = append(keys, mapping.Content[i].Value)
	}
	return keys, nil
}

// Items returns every top-level key-value pair in document order.
func (s *Store) Items() ([]Item, error) {
	document, err := s.read()
	if err != nil {
		return nil, err
	}
	mapping := document.Content[0]
	items := make([]Item, 0, len(mapping.Content)/2)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		var value any
		if err := mapping.Content[i+1].Decode(&value); err != nil {
			return nil, fmt.Errorf("decoding %q in %s: %w", mapping.Content[i].Value, s.path, err)
		}
		items = append(items, Item{Key: mapping.Content[i].Value, Value: value})
	}
	return items, nil
}

// Map returns every top-level key-value pair as a map.
func (s *Store) Map() (map[string]any, error) {
	items, err := s.Items()
	if err != nil {
		return nil, err
	}
	result := make(map[string]any, len(items))
	for _, item := range items {
		result[item.Key] = item.Value
	}
	return result, nil
}

// Set writes a single top-level key. Comments attached to an existing
// key and its old value are carried over to the new value.
func (s *Store) Set(key string, value any) error {
	return s.Update(map[string]any{key: value})
}

// SetNode writes a pre-built YAML node as the value of key. Callers use
// this to attach comments to nested values, which [Store.Set] cannot
// express.
func (s *Store) SetNode(key string, valueNode *yaml.Node) error {
	document, err := s.read()
	if err != nil {
		return err
	}
	put(document.Content[0], key, valueNode)
	return s.write(document)
}

// Update merges values into the top-level mapping. Keys not present in
// values are preserved; new keys are appended in sorted order so the
// resulting file is deterministic.
func (s *Store) Update(values map[string]any) error {
	document, err := s.read()
	if err != nil {
		return err
	}
	for _, key := range sortedKeys(values) {
		valueNode := new(yaml.Node)
		if err := valueNode.Encode(values[key]); err != nil {
			return fmt.Errorf("encoding %q for %s: %w", key, s.path, err)
		}
		put(document.Content[0], key, valueNode)
	}
	return s.write(document)
}

// String renders the current document as YAML. Read errors render as
// an empty string.
func (s *Store) String() string {
	document, err := s.read()
	if err != nil {
		return ""
	}
	data, err := encode(document)
	if err != nil {
		return ""
	}
	return string(data)
}

// read loads the document node. A missing or empty file yields a
// document wrapping an empty mapping.
func (s *Store) read() (*yaml.Node, error) {
	data, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}

	var document yaml.Node
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &document); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", s.path, err)
		}
	}
	if document.Kind == 0 || len(document.Content) == 0 {
		return &yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
		}, nil
	}
	if document.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s: top level is not a mapping", s.path)
	}
	return &document, nil
}

func (s *Store) write(document *yaml.Node) error {
	data, err := encode(document)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", s.path, err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	return nil
}

func encode(document *yaml.Node) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(2)
	if err := encoder.Encode(document); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// lookup returns the value node for key in the document's top-level
// mapping, or nil.
func lookup(document *yaml.Node, key string) *yaml.Node {
	mapping := document.Content[0]
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// put replaces or appends key in mapping. A replaced value inherits the
// comments of the node it replaces unless the new node carries its own.
func put(mapping *yaml.Node, key string, valueNode *yaml.Node) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value != key {
			continue
		}
		previous := mapping.Content[i+1]
		if valueNode.HeadComment == "" {
			valueNode.HeadComment = previous.HeadComment
		}
		if valueNode.LineComment == "" {
			valueNode.LineComment = previous.LineComment
		}
		if valueNode.FootComment == "" {
			valueNode.FootComment = previous.FootComment
		}
		mapping.Content[i+1] = valueNode
		return
	}
	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	mapping.Content = append(mapping.Content, keyNode, valueNode)
}

func sortedKeys(values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package notebook reads and writes Jupyter notebook documents
// (nbformat version 4).
//
// Only the fields nbreport works with are typed: the cell list, each
// cell's type, source, outputs, and execution count, and the notebook
// metadata block. Every other field at the notebook and cell level is
// kept as raw JSON and written back unchanged, so documents produced
// by newer Jupyter releases survive a read-modify-write cycle.
//
// Output follows the nbformat writer conventions: one-space
// indentation, sorted keys, unescaped HTML characters, cell sources
// split into a list of lines, and a trailing newline.
package notebook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Cell types defined by nbformat 4.
const (
	CodeCell     = "code"
	MarkdownCell = "markdown"
	RawCell      = "raw"
)

// Notebook is an ordered sequence of cells plus notebook-level
// metadata.
type Notebook struct {
	// Cells in document order.
	Cells []*Cell

	// Metadata is the notebook-level metadata block, keyed by
	// top-level metadata field.
	Metadata map[string]json.RawMessage

	// Format and FormatMinor are the nbformat and nbformat_minor
	// fields.
	Format      int
	FormatMinor int

	extra map[string]json.RawMessage
}

// Cell is a single notebook cell.
type Cell struct {
	// Type is one of CodeCell, MarkdownCell, or RawCell.
	Type string

	// Source is the cell text. It is the template string before
	// rendering and the rendered text afterwards.
	Source string

	// Metadata is the cell metadata block, kept as raw JSON.
	Metadata json.RawMessage

	// Outputs holds the output records of a code cell, each kept as
	// raw JSON. Always empty for other cell types.
	Outputs []json.RawMessage

	// ExecutionCount is the code cell's execution counter, nil when
	// the cell has not run.
	ExecutionCount *int

	extra map[string]json.RawMessage
}

// New returns an empty nbformat 4.4 notebook.
func New() *Notebook {
	return &Notebook{
		Metadata:    map[string]json.RawMessage{},
		Format:      4,
		FormatMinor: 4,
	}
}

// NewCodeCell returns a code cell with the given source and no outputs.
func NewCodeCell(source string) *Cell {
	return &Cell{Type: CodeCell, Source: source}
}

// NewMarkdownCell returns a markdown cell with the given source.
func NewMarkdownCell(source string) *Cell {
	return &Cell{Type: MarkdownCell, Source: source}
}

// Parse decodes a notebook document.
func Parse(data []byte) (*Notebook, error) {
	var notebook Notebook
	if err := json.Unmarshal(data, &notebook); err != nil {
		return nil, fmt.Errorf("parsing notebook: %w", err)
	}
	return &notebook, nil
}

// ReadFile reads and decodes the notebook at path.
func ReadFile(path string) (*Notebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading notebook: %w", err)
	}
	notebook, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return notebook, nil
}

// Bytes encodes the notebook with nbformat's writer conventions.
func (n *Notebook) Bytes() ([]byte, error) {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", " ")
	if err := encoder.Encode(n); err != nil {
		return nil, fmt.Errorf("encoding notebook: %w", err)
	}
	return buffer.Bytes(), nil
}

// WriteFile encodes the notebook and writes it to path.
func (n *Notebook) WriteFile(path string) error {
	data, err := n.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing notebook: %w", err)
	}
	return nil
}

// SetMetadata stores value under key in the notebook metadata block.
func (n *Notebook) SetMetadata(key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding notebook metadata %q: %w", key, err)
	}
	if n.Metadata == nil {
		n.Metadata = map[string]json.RawMessage{}
	}
	n.Metadata[key] = encoded
	return nil
}

// GetMetadata decodes the metadata entry key into target. Returns false
// if the key is absent.
func (n *Notebook) GetMetadata(key string, target any) (bool, error) {
	raw, ok := n.Metadata[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return true, fmt.Errorf("decoding notebook metadata %q: %w", key, err)
	}
	return true, nil
}

func (n *Notebook) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	if raw, ok := fields["cells"]; ok {
		if err := json.Unmarshal(raw, &n.Cells); err != nil {
			return fmt.Errorf("cells: %w", err)
		}
		delete(fields, "cells")
	}
	n.Metadata = map[string]json.RawMessage{}
	if raw, ok := fields["metadata"]; ok {
		if err := json.Unmarshal(raw, &n.Metadata); err != nil {
			return fmt.Errorf("metadata: %w", err)
		}
		delete(fields, "metadata")
	}
	if raw, ok := fields["nbformat"]; ok {
		if err := json.Unmarshal(raw, &n.Format); err != nil {
			return fmt.Errorf("nbformat: %w", err)
		}
		delete(fields, "nbformat")
	}
	if raw, ok := fields["nbformat_minor"]; ok {
		if err := json.Unmarshal(raw, &n.FormatMinor); err != nil {
			return fmt.Errorf("nbformat_minor: %w", err)
		}
		delete(fields, "nbformat_minor")
	}
	if n.Format != 4 {
		return fmt.Errorf("unsupported nbformat %d (want 4)", n.Format)
	}
	n.extra = fields
	return nil
}

func (n *Notebook) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(n.extra)+4)
	for key, value := range n.extra {
		fields[key] = value
	}
	cells := n.Cells
	if cells == nil {
		cells = []*Cell{}
	}
	metadata := n.Metadata
	if metadata == nil {
		metadata = map[string]json.RawMessage{}
	}
	fields["cells"] = cells
	fields["metadata"] = metadata
	fields["nbformat"] = n.Format
	fields["nbformat_minor"] = n.FormatMinor
	return marshalNoEscape(fields)
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	if raw, ok := fields["cell_type"]; ok {
		if err := json.Unmarshal(raw, &c.Type); err != nil {
			return fmt.Errorf("cell_type: %w", err)
		}
		delete(fields, "cell_type")
	}
	if raw, ok := fields["source"]; ok {
		source, err := decodeMultiline(raw)
		if err != nil {
			return fmt.Errorf("source: %w", err)
		}
		c.Source = source
		delete(fields, "source")
	}
	if raw, ok := fields["metadata"]; ok {
		c.Metadata = raw
		delete(fields, "metadata")
	}
	if raw, ok := fields["outputs"]; ok {
		if err := json.Unmarshal(raw, &c.Outputs); err != nil {
			return fmt.Errorf("outputs: %w", err)
		}
		delete(fields, "outputs")
	}
	if raw, ok := fields["execution_count"]; ok {
		if err := json.Unmarshal(raw, &c.ExecutionCount); err != nil {
			return fmt.Errorf("execution_count: %w", err)
		}
		delete(fields, "execution_count")
	}
	c.extra = fields
	return nil
}

func (c *Cell) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(c.extra)+5)
	for key, value := range c.extra {
		fields[key] = value
	}
	metadata := c.Metadata
	if len(metadata) == 0 {
		metadata = json.RawMessage("{}")
	}
	fields["cell_type"] = c.Type
	fields["metadata"] = metadata
	fields["source"] = splitLines(c.Source)
	if c.Type == CodeCell {
		outputs := c.Outputs
		if outputs == nil {
			outputs = []json.RawMessage{}
		}
		fields["outputs"] = outputs
		fields["execution_count"] = c.ExecutionCount
	}
	return marshalNoEscape(fields)
}

// Output is the decoded form of the output fields nbreport inspects.
type Output struct {
	OutputType string                     `json:"output_type"`
	Name       string                     `json:"name,omitempty"`
	Text       json.RawMessage            `json:"text,omitempty"`
	Data       map[string]json.RawMessage `json:"data,omitempty"`
	ErrorName  string                     `json:"ename,omitempty"`
	ErrorValue string                     `json:"evalue,omitempty"`
	Traceback  []string                   `json:"traceback,omitempty"`
}

// Output types defined by nbformat 4.
const (
	StreamOutput        = "stream"
	DisplayDataOutput   = "display_data"
	ExecuteResultOutput = "execute_result"
	ErrorOutput         = "error"
)

// DecodeOutputs decodes the cell's outputs.
func (c *Cell) DecodeOutputs() ([]Output, error) {
	outputs := make([]Output, 0, len(c.Outputs))
	for index, raw := range c.Outputs {
		var output Output
		if err := json.Unmarshal(raw, &output); err != nil {
			return nil, fmt.Errorf("output %d: %w", index, err)
		}
		outputs = append(outputs, output)
	}
	return outputs, nil
}

// PlainText concatenates the textual content of the cell's outputs:
// stream text and the text/plain representation of results and
// display data. An error output contributes its "name: value" line.
func (c *Cell) PlainText() (string, error) {
	outputs, err := c.DecodeOutputs()
	if err != nil {
		return "", err
	}
	var builder strings.Builder
	for _, output := range outputs {
		switch output.OutputType {
		case StreamOutput:
			text, err := decodeMultiline(output.Text)
			if err != nil {
				return "", err
			}
			builder.WriteString(text)
		case ExecuteResultOutput, DisplayDataOutput:
			raw, ok := output.Data["text/plain"]
			if !ok {
				continue
			}
			text, err := decodeMultiline(raw)
			if err != nil {
				return "", err
			}
			builder.WriteString(text)
		case ErrorOutput:
			fmt.Fprintf(&builder, "%s: %s", output.ErrorName, output.ErrorValue)
		}
	}
	return builder.String(), nil
}

// decodeMultiline accepts nbformat's multiline string encoding: either
// a single JSON string or a list of strings that are concatenated.
func decodeMultiline(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}
	var lines []string
	if err := json.Unmarshal(raw, &lines); err != nil {
		return "", fmt.Errorf("expected string or list of strings: %w", err)
	}
	return strings.Join(lines, ""), nil
}

// splitLines splits text into lines that keep their trailing newline,
// the way nbformat stores multiline strings.
func splitLines(text string) []string {
	lines := []string{}
	for text != "" {
		index := strings.IndexByte(text, '\n')
		if index < 0 {
			lines = append(lines, text)
			break
		}
		lines = append(lines, text[:index+1])
		text = text[index+1:]
	}
	return lines
}

// marshalNoEscape encodes fields with sorted keys and without HTML
// escaping. The indentation applied by Notebook.Bytes reflows the
// nested output.
func marshalNoEscape(fields map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var buffer bytes.Buffer
	buffer.WriteByte('{')
	for index, key := range keys {
		if index > 0 {
			buffer.WriteByte(',')
		}
		encodedKey, err := encodeNoEscape(key)
		if err != nil {
			return nil, err
		}
		buffer.Write(encodedKey)
		buffer.WriteByte(':')
		encodedValue, err := encodeNoEscape(fields[key])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		buffer.Write(encodedValue)
	}
	buffer.WriteByte('}')
	return buffer.Bytes(), nil
}

func encodeNoEscape(value any) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(value); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buffer.Bytes(), "\n"), nil
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package templating builds the template context for a report instance
// and renders notebook cells against it.
//
// A context has two tiers. The "cookiecutter" namespace holds the
// report's own variables: defaults declared in the repository's
// cookiecutter.json with user overrides layered on top. The system tier
// holds a fixed set of instance metadata fields (handle, title,
// instance_id, and so on) exposed as top-level names next to
// cookiecutter, so report authors can write both
// {{ cookiecutter.title }} and {{ instance_handle }} without the two
// sets of names colliding.
//
// Load builds a Context and an Engine bound to it. Cells are Jinja
// templates, rendered with gonja. The engine is strict: a reference to a name or key the context does not define is
// an [UndefinedVariableError], never an empty substitution.
package templating

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"

	"github.com/nikolalohinski/gonja/v2/exec"
	"github.com/tidwall/jsonc"
)

// CookiecutterKey is the top-level name of the report variable
// namespace.
const CookiecutterKey = "cookiecutter"

// Overrides are user-supplied template variables, typically from
// repeated "-c key value" command-line flags. Values are always
// strings and are applied without coercion to the type of the default
// they replace.
//
// A nil Overrides means no rendering was requested. A non-nil empty
// Overrides means render using only defaults and system fields. Callers
// upstream of Load rely on the distinction.
type Overrides map[string]string

// ParseOverrides converts "key=value" pairs into Overrides. The value
// may contain further "=" characters; the key may not be empty.
func ParseOverrides(pairs []string) (Overrides, error) {
	overrides := make(Overrides, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid template variable %q: expected key=value", pair)
		}
		overrides[key] = value
	}
	return overrides, nil
}

// Context is the merged variable set used to render a notebook.
type Context struct {
	// Cookiecutter holds the report variables. Values decoded from
	// the defaults file keep their JSON types: integers are int64
	// (*big.Int beyond its range), other numbers float64, plus bool,
	// string, nested map[string]any and []any. Override values are
	// strings.
	Cookiecutter map[string]any

	// System holds instance metadata fields exposed as top-level
	// template names.
	System map[string]any
}

// Map returns the two-level mapping templates are evaluated against:
// the system fields at the top level plus the cookiecutter namespace
// under CookiecutterKey.
func (c *Context) Map() map[string]any {
	result := make(map[string]any, len(c.System)+1)
	for key, value := range c.System {
		result[key] = value
	}
	cookiecutter := c.Cookiecutter
	if cookiecutter == nil {
		cookiecutter = map[string]any{}
	}
	result[CookiecutterKey] = cookiecutter
	return result
}

// LoadOptions configures Load.
type LoadOptions struct {
	// DefaultsPath is the cookiecutter.json file declaring default
	// variables. Empty means the context is built from Overrides
	// alone.
	DefaultsPath string

	// Overrides replace defaults with the same key. Keys without a
	// default are added.
	Overrides Overrides

	// System fields are injected outside the cookiecutter namespace.
	// Keys must be valid template identifiers and must not be
	// CookiecutterKey.
	System map[string]any
}

// Load builds the merged template context and an engine bound to it.
//
// Merge order, lowest to highest priority:
//
//  1. Defaults declared in DefaultsPath
//  2. Overrides
//
// System fields live in their own tier and never merge with the
// cookiecutter namespace.
func Load(options LoadOptions) (*Context, *Engine, error) {
	cookiecutter := map[string]any{}
	var defaults *Defaults
	if options.DefaultsPath != "" {
		var err error
		defaults, err = ReadDefaults(options.DefaultsPath)
		if err != nil {
			return nil, nil, err
		}
		for key, value := range defaults.Values {
			cookiecutter[key] = value
		}
	}

	for _, key := range sortedKeys(options.Overrides) {
		value := options.Overrides[key]
		if defaults != nil {
			if err := defaults.checkOverride(key, value); err != nil {
				return nil, nil, err
			}
		}
		cookiecutter[key] = value
	}

	system := make(map[string]any, len(options.System))
	for key, value := range options.System {
		system[key] = value
	}

	context := &Context{Cookiecutter: cookiecutter, System: system}
	engine, err := NewEngine(context)
	if err != nil {
		return nil, nil, err
	}
	return context, engine, nil
}

// Defaults is a parsed cookiecutter.json file.
type Defaults struct {
	// Values maps each variable to its default. A choice variable's
	// default is its first choice.
	Values map[string]any

	// Choices lists the allowed values of each choice variable, as
	// declared in the file.
	Choices map[string][]any
}

// ParseDefaults decodes a cookiecutter.json document. Comments and
// trailing commas are accepted. The top level must be an object.
//
// A list-valued entry declares a choice variable: its default is the
// first entry and an override must equal one of the entries. Keys
// beginning with an underscore are private; they are loaded but cannot
// be overridden.
func ParseDefaults(data []byte) (*Defaults, error) {
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.UseNumber()

	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing template defaults: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("parsing template defaults: top level must be an object")
	}

	defaults := &Defaults{
		Values:  make(map[string]any, len(raw)),
		Choices: map[string][]any{},
	}
	for key, value := range raw {
		value = normalizeNumbers(value)
		if choices, isList := value.([]any); isList && !isPrivate(key) {
			if len(choices) == 0 {
				return nil, fmt.Errorf("choice variable %q declares no choices", key)
			}
			defaults.Choices[key] = choices
			value = choices[0]
		}
		defaults.Values[key] = value
	}
	return defaults, nil
}

// ReadDefaults reads and parses a cookiecutter.json file.
func ReadDefaults(path string) (*Defaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template defaults: %w", err)
	}
	defaults, err := ParseDefaults(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defaults, nil
}

func (d *Defaults) checkOverride(key, value string) error {
	if isPrivate(key) {
		if _, declared := d.Values[key]; declared {
			return fmt.Errorf("template variable %q is private and cannot be overridden", key)
		}
	}
	choices, isChoice := d.Choices[key]
	if !isChoice {
		return nil
	}
	formatted := make([]string, len(choices))
	for index, choice := range choices {
		formatted[index] = exec.ToValue(choice).String()
		if formatted[index] == value {
			return nil
		}
	}
	return fmt.Errorf("template variable %q must be one of [%s], got %q", key, strings.Join(formatted, ", "), value)
}

// normalizeNumbers replaces json.Number values, recursing into objects
// and arrays. A literal without a fraction or exponent is an integer:
// int64 when it fits, otherwise an exact *big.Int. Any other literal is
// a float64, so 1.0 and 1e3 keep rendering as floats (1.0, 1000.0).
func normalizeNumbers(value any) any {
	switch typed := value.(type) {
	case json.Number:
		literal := typed.String()
		if !strings.ContainsAny(literal, ".eE") {
			if integer, err := typed.Int64(); err == nil {
				return integer
			}
			if integer, ok := new(big.Int).SetString(literal, 10); ok {
				return integer
			}
		}
		if float, err := typed.Float64(); err == nil {
			return float
		}
		return literal
	case map[string]any:
		for key, nested := range typed {
			typed[key] = normalizeNumbers(nested)
		}
		return typed
	case []any:
		for index, nested := range typed {
			typed[index] = normalizeNumbers(nested)
		}
		return typed
	default:
		return value
	}
}

func isPrivate(key string) bool {
	return strings.HasPrefix(key, "_")
}

func sortedKeys(overrides Overrides) []string {
	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

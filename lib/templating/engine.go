// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package templating

import (
	"fmt"
	"regexp"

	"github.com/nikolalohinski/gonja/v2"
	"github.com/nikolalohinski/gonja/v2/config"
	"github.com/nikolalohinski/gonja/v2/exec"
	"github.com/nikolalohinski/gonja/v2/loaders"
)

// identifierPattern matches names a Jinja expression can refer to
// directly.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var (
	// undefinedNamePattern matches gonja's strict-mode error for a
	// top-level name the context does not define.
	undefinedNamePattern = regexp.MustCompile(`nable to evaluate name "([^"]+)"`)

	// missingMemberPattern matches gonja's strict-mode error for an
	// attribute or item lookup that found nothing. The group is the
	// full expression, such as cookiecutter.author.
	missingMemberPattern = regexp.MustCompile(`nable to evaluate ([^\s:]+): (?:attribute|item) \S+ not found`)
)

// engineConfig is the Jinja dialect report notebooks are written in:
// the default delimiters, no autoescaping, undefined references are
// errors, and a cell's trailing newline survives rendering.
func engineConfig() *config.Config {
	cfg := config.New()
	cfg.StrictUndefined = true
	cfg.KeepTrailingNewline = true
	return cfg
}

// Engine renders Jinja template strings against a fixed Context, the
// way cookiecutter renders the notebook templates report authors write.
//
// The cookiecutter namespace and every system field are top-level
// names, so {{ cookiecutter.title }} and {{ instance_handle }} both
// resolve. Statements ({% if %}, {% for %}), comments ({# #}), filters
// and arithmetic follow Jinja. Any reference to a name, attribute or
// item the context does not define is an [UndefinedVariableError].
type Engine struct {
	context *Context
	data    map[string]any
	config  *config.Config
}

// NewEngine returns an engine bound to context. Returns an error if a
// system field name cannot be used as a template identifier.
func NewEngine(context *Context) (*Engine, error) {
	if _, collides := context.System[CookiecutterKey]; collides {
		return nil, fmt.Errorf("system template field %q is reserved", CookiecutterKey)
	}
	data := context.Map()
	for name := range data {
		if !identifierPattern.MatchString(name) {
			return nil, fmt.Errorf("system template field %q is not a valid identifier", name)
		}
	}
	return &Engine{context: context, data: data, config: engineConfig()}, nil
}

// Context returns the context the engine renders against.
func (e *Engine) Context() *Context {
	return e.context
}

// Render expands text. The name identifies the template in error
// messages.
func (e *Engine) Render(name, text string) (string, error) {
	identifier := "/" + name
	loader, err := loaders.NewMemoryLoader(map[string]string{identifier: text})
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	tmpl, err := exec.NewTemplate(identifier, e.config, loader, gonja.DefaultEnvironment)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", name, err)
	}
	rendered, err := tmpl.ExecuteToString(exec.NewContext(e.data))
	if err != nil {
		return "", classifyError(name, err)
	}
	return rendered, nil
}

// classifyError converts gonja's strict-mode errors for undefined names
// and missing members into UndefinedVariableError. Other errors are
// wrapped unchanged.
func classifyError(name string, err error) error {
	message := err.Error()
	if match := missingMemberPattern.FindStringSubmatch(message); match != nil {
		return &UndefinedVariableError{Name: match[1], Template: name, Err: err}
	}
	if match := undefinedNamePattern.FindStringSubmatch(message); match != nil {
		return &UndefinedVariableError{Name: match[1], Template: name, Err: err}
	}
	return fmt.Errorf("rendering %s: %w", name, err)
}

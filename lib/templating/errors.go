// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package templating

import "fmt"

// UndefinedVariableError reports a template reference to a name or key
// the context does not define.
type UndefinedVariableError struct {
	// Name is the unresolved reference as written in the template,
	// for example "cookiecutter.author" or "instance_handle".
	Name string

	// Template identifies the template being rendered.
	Template string

	// Err is the underlying template package error.
	Err error
}

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("undefined template variable %q in %s", e.Name, e.Template)
}

func (e *UndefinedVariableError) Unwrap() error {
	return e.Err
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/bureau-foundation/nbreport/lib/secret"
)

// Prompter reads interactive answers from one input stream. All prompts
// of a command share a Prompter so buffered input is not lost between
// questions.
type Prompter struct {
	reader   *bufio.Reader
	terminal *os.File
	out      io.Writer
}

// NewPrompter creates a Prompter reading from in and writing prompts to
// out. Password prompts require in to be a terminal.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	prompter := &Prompter{reader: bufio.NewReader(in), out: out}
	if file, ok := in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		prompter.terminal = file
	}
	return prompter
}

// Line prints prompt and returns the next input line with surrounding
// whitespace removed. An empty answer is a validation error.
func (p *Prompter) Line(prompt string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", prompt)
	line, err := p.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", Internal("reading answer: %w", err)
	}
	answer := strings.TrimSpace(line)
	if answer == "" {
		return "", Validation("no answer given for %q", prompt)
	}
	return answer, nil
}

// Confirm asks a yes/no question. Only "y" and "yes" (any case) confirm;
// anything else, including end of input, declines.
func (p *Prompter) Confirm(question string) (bool, error) {
	fmt.Fprintf(p.out, "%s [y/N]: ", question)
	line, err := p.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, Internal("reading answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Password prompts for a secret with echo disabled and returns it in
// protected memory; the caller must close it. Fails when input is not
// a terminal; callers offer a --password-file alternative.
func (p *Prompter) Password(prompt string) (*secret.Buffer, error) {
	if p.terminal == nil {
		return nil, Validation("no terminal available for interactive password prompt (use --password-file)")
	}
	fmt.Fprintf(p.out, "%s: ", prompt)
	passwordBytes, err := term.ReadPassword(int(p.terminal.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return nil, Internal("reading password: %w", err)
	}
	if len(passwordBytes) == 0 {
		return nil, Validation("empty password")
	}
	password, err := secret.NewFromBytes(passwordBytes)
	if err != nil {
		return nil, Internal("protecting password: %w", err)
	}
	return password, nil
}

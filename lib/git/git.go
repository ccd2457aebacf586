// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package git provides typed access to the git CLI. nbreport uses git
// to fetch remote report repositories: cloning a URL into a local
// directory and checking out a branch, tag, or commit. Commands that
// act on an existing repository target it with the -C flag, which is
// injected by every Repository method.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Repository represents a git working tree at a specific directory.
type Repository struct {
	dir string
}

// NewRepository returns a Repository targeting the given directory.
func NewRepository(dir string) *Repository {
	return &Repository{dir: dir}
}

// Dir returns the repository directory.
func (r *Repository) Dir() string {
	return r.dir
}

// Run executes a git command targeting this repository and returns
// stdout. Stderr is captured separately and included in error messages
// on failure.
func (r *Repository) Run(ctx context.Context, args ...string) (string, error) {
	fullArgs := append([]string{"-C", r.dir}, args...)
	output, err := run(ctx, fullArgs)
	if err != nil {
		return "", fmt.Errorf("git %s in %s: %w", strings.Join(args, " "), r.dir, err)
	}
	return output, nil
}

// Checkout checks out ref, which may be a branch, tag, or commit.
func (r *Repository) Checkout(ctx context.Context, ref string) error {
	_, err := r.Run(ctx, "checkout", "--quiet", ref)
	return err
}

// Head returns the commit hash of HEAD.
func (r *Repository) Head(ctx context.Context) (string, error) {
	output, err := r.Run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// Clone clones url into dir, which must not exist or be empty. With an
// empty ref the remote's default branch is checked out; otherwise the
// clone is made without a checkout and ref is checked out afterwards,
// so any branch, tag, or commit reachable from the remote works.
func Clone(ctx context.Context, url, dir, ref string) (*Repository, error) {
	args := []string{"clone", "--quiet"}
	if ref != "" {
		args = append(args, "--no-checkout")
	}
	args = append(args, url, dir)
	if _, err := run(ctx, args); err != nil {
		return nil, fmt.Errorf("git clone %s: %w", url, err)
	}

	repository := NewRepository(dir)
	if ref != "" {
		if err := repository.Checkout(ctx, ref); err != nil {
			return nil, fmt.Errorf("checking out %q from %s: %w", ref, url, err)
		}
	}
	return repository, nil
}

// run executes git with the given arguments. Terminal credential
// prompts are disabled: a clone that needs credentials fails instead
// of blocking on stdin.
func run(ctx context.Context, args []string) (string, error) {
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, "git", args...)
	command.Stdout = &stdout
	command.Stderr = &stderr
	command.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	if err := command.Run(); err != nil {
		return "", fmt.Errorf("%w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package repo

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/bureau-foundation/nbreport/lib/git"
)

// CloneOptions configures Clone.
type CloneOptions struct {
	// URL is the remote repository.
	URL string

	// Dir is the local directory to clone into. It must not exist
	// or be empty. Callers typically pass a fresh temporary directory
	// and remove it when the command finishes.
	Dir string

	// Ref is the branch, tag, or commit to check out. Empty means
	// the remote's default branch.
	Ref string

	// Subdir is the report's directory within the Git repository,
	// relative to its root. Empty means the root.
	Subdir string

	// Logger defaults to slog.Default() when nil.
	Logger *slog.Logger
}

// Clone fetches a remote report repository and opens it. Returns a
// *NotFoundError if Subdir does not exist in the checkout.
func Clone(ctx context.Context, options CloneOptions) (*Repository, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	checkout, err := git.Clone(ctx, options.URL, options.Dir, options.Ref)
	if err != nil {
		return nil, err
	}
	if head, err := checkout.Head(ctx); err == nil {
		logger.Debug("cloned report repository", "url", options.URL, "ref", options.Ref, "commit", head)
	}

	dir := options.Dir
	if options.Subdir != "" {
		dir = filepath.Join(dir, filepath.FromSlash(options.Subdir))
	}
	repository, err := Open(dir)
	if err != nil {
		return nil, fmt.Errorf("cloning %s: %w", options.URL, err)
	}
	return repository, nil
}

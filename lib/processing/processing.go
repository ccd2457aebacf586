// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package processing carries out the multi-step work behind the nbreport
// commands: resolving a report repository from a path or URL, reserving
// instance identifiers with the publication service, creating instances,
// and registering reports.
package processing

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bureau-foundation/nbreport/lib/apiclient"
	"github.com/bureau-foundation/nbreport/lib/instance"
	"github.com/bureau-foundation/nbreport/lib/repo"
	"github.com/bureau-foundation/nbreport/lib/templating"
)

// IsURL reports whether pathOrURL names a remote repository rather than
// a local path. Anything with a URL scheme counts.
func IsURL(pathOrURL string) bool {
	parsed, err := url.Parse(pathOrURL)
	return err == nil && parsed.Scheme != ""
}

// SourceOptions configures OpenRepository for remote repositories.
type SourceOptions struct {
	// GitRef is the branch, tag, or commit to check out. Empty means
	// the remote's default branch.
	GitRef string

	// GitSubdir is the report's directory inside the Git repository.
	GitSubdir string

	// Logger defaults to slog.Default() when nil.
	Logger *slog.Logger
}

// OpenRepository opens the report repository at pathOrURL. A URL is
// cloned into a new temporary directory first.
//
// The returned cleanup function removes that directory and must be
// called once the caller is done with the repository and anything
// created from it. It is a no-op for local repositories.
func OpenRepository(ctx context.Context, pathOrURL string, options SourceOptions) (*repo.Repository, func(), error) {
	noop := func() {}
	if !IsURL(pathOrURL) {
		repository, err := repo.Open(pathOrURL)
		if err != nil {
			return nil, noop, err
		}
		return repository, noop, nil
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	temporary, err := os.MkdirTemp("", "nbreport-repo-*")
	if err != nil {
		return nil, noop, fmt.Errorf("creating clone directory: %w", err)
	}
	cleanup := func() {
		if err := os.RemoveAll(temporary); err != nil {
			logger.Warn("removing cloned repository", "path", temporary, "error", err)
		}
	}

	logger.Info("cloning report repository", "url", pathOrURL, "ref", options.GitRef)
	repository, err := repo.Clone(ctx, repo.CloneOptions{
		URL:    pathOrURL,
		Dir:    filepath.Join(temporary, cloneName(pathOrURL)),
		Ref:    options.GitRef,
		Subdir: options.GitSubdir,
		Logger: logger,
	})
	if err != nil {
		cleanup()
		return nil, noop, err
	}
	return repository, cleanup, nil
}

// cloneName names the clone directory after the remote repository, so
// instances of a cloned repository get the same default path as
// instances of a local checkout: "https://github.com/org/TESTR-000.git"
// clones into "TESTR-000".
func cloneName(remote string) string {
	parsed, err := url.Parse(remote)
	if err != nil {
		return "repo"
	}
	name := strings.TrimSuffix(path.Base(strings.TrimRight(parsed.Path, "/")), ".git")
	if name == "" || name == "." || name == "/" {
		return "repo"
	}
	return name
}

// CreateOptions configures CreateInstance.
type CreateOptions struct {
	// InstanceID, when set, is used as is. Empty reserves a new
	// identifier from the publication service through Client.
	InstanceID string

	// Overrides are passed to instance.FromReportRepo. Nil leaves the
	// instance unrendered.
	Overrides templating.Overrides

	// InstancePath is the instance directory. Empty means
	// DefaultInstancePath in the current directory.
	InstancePath string

	Overwrite bool

	// Client is the publication service. Required when InstanceID is
	// empty.
	Client *apiclient.Client

	// Logger defaults to slog.Default() when nil.
	Logger *slog.Logger
}

// CreateInstance creates an instance of repository, reserving its
// identifier and publication URLs from the service when no InstanceID
// is given.
func CreateInstance(ctx context.Context, repository *repo.Repository, options CreateOptions) (*instance.Instance, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	createOptions := instance.CreateOptions{
		InstanceID: options.InstanceID,
		Overrides:  options.Overrides,
		Overwrite:  options.Overwrite,
		Logger:     logger,
	}
	if options.InstanceID == "" {
		reservation, err := ReserveInstance(ctx, repository, options.Client)
		if err != nil {
			return nil, err
		}
		logger.Info("reserved report instance", "instance_id", reservation.InstanceID, "published_url", reservation.PublishedURL)
		createOptions.InstanceID = reservation.InstanceID
		createOptions.PublishedInstanceURL = reservation.PublishedURL
		createOptions.EditionURL = reservation.LTDEditionURL
	}

	instancePath := options.InstancePath
	if instancePath == "" {
		instancePath = DefaultInstancePath(repository, createOptions.InstanceID)
	}
	return instance.FromReportRepo(repository, instancePath, createOptions)
}

// DefaultInstancePath is "{repository directory name}-{instanceID}",
// relative to the current directory.
func DefaultInstancePath(repository *repo.Repository, instanceID string) string {
	return filepath.Base(repository.Dir()) + "-" + instanceID
}

// ReserveInstance reserves a new instance of repository's report. The
// repository must have been registered (it needs an ltd_product).
func ReserveInstance(ctx context.Context, repository *repo.Repository, client *apiclient.Client) (*apiclient.Reservation, error) {
	product, err := repo.MetadataString(repository.Config(), repo.ProductField, repo.RegisterRemedy)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("reserving an instance of %s requires publication service credentials", product)
	}
	return client.ReserveInstance(ctx, product)
}

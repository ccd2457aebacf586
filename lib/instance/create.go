// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package instance

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/nbreport/lib/repo"
	"github.com/bureau-foundation/nbreport/lib/templating"
)

// CreateOptions configures FromReportRepo.
type CreateOptions struct {
	// InstanceID identifies the instance. Either reserved from the
	// publication service or chosen locally (for example "test").
	InstanceID string

	// Overrides, when non-nil, renders the instance immediately with
	// these template overrides. An empty non-nil map renders from the
	// repository defaults alone. Nil leaves the notebook unrendered.
	Overrides templating.Overrides

	// Overwrite deletes an existing instance directory first instead
	// of failing with a *DirectoryExistsError.
	Overwrite bool

	// PublishedInstanceURL and EditionURL are stamped into the
	// metadata when set.
	PublishedInstanceURL string
	EditionURL           string

	// Logger defaults to slog.Default() when nil.
	Logger *slog.Logger
}

// FromReportRepo creates an instance of repository at dir.
//
// The repository's cookiecutter.json, notebook, nbreport.yaml, and
// assets are copied to the same relative paths under dir. A missing
// cookiecutter.json or asset is logged and skipped. The copied metadata
// gains instance_id and instance_handle, and the publication URLs when
// given. The repository must declare "handle" and "ipynb".
//
// A failure after dir was created leaves the partial directory in
// place; a later call with Overwrite replaces it.
func FromReportRepo(repository *repo.Repository, dir string, options CreateOptions) (*Instance, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if options.InstanceID == "" {
		return nil, fmt.Errorf("creating an instance of %s: instance ID is required", repository.Dir())
	}

	absolute, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}
	if _, err := os.Lstat(absolute); err == nil {
		if !options.Overwrite {
			return nil, &DirectoryExistsError{Path: absolute}
		}
		logger.Debug("removing existing instance directory", "path", absolute)
		if err := os.RemoveAll(absolute); err != nil {
			return nil, fmt.Errorf("removing existing instance directory: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("checking instance directory: %w", err)
	}
	if err := os.MkdirAll(absolute, 0755); err != nil {
		return nil, fmt.Errorf("creating instance directory: %w", err)
	}
	created := &Instance{dir: absolute}

	if err := copyRepositoryFiles(repository, absolute, logger); err != nil {
		return nil, err
	}
	if err := created.stampIdentifiers(options); err != nil {
		return nil, err
	}
	logger.Info("created report instance", "path", absolute, "instance_id", options.InstanceID)

	if options.Overrides != nil {
		if err := created.Render(options.Overrides, logger); err != nil {
			return nil, err
		}
	}
	return created, nil
}

func copyRepositoryFiles(repository *repo.Repository, dir string, logger *slog.Logger) error {
	notebookFilename, err := repository.NotebookFilename()
	if err != nil {
		return err
	}
	if err := copyFile(repository.ConfigPath(), filepath.Join(dir, repo.MetadataFilename)); err != nil {
		return err
	}
	if err := copyFile(filepath.Join(repository.Dir(), notebookFilename), filepath.Join(dir, notebookFilename)); err != nil {
		return err
	}

	err = copyFile(repository.ContextPath(), filepath.Join(dir, repo.ContextFilename))
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("report repository has no template defaults; rendering will use overrides only",
			"path", repository.ContextPath())
	} else if err != nil {
		return err
	}

	assets, err := repository.AssetPaths()
	if err != nil {
		return err
	}
	for _, asset := range assets {
		source := filepath.Join(repository.Dir(), asset)
		err := copyFile(source, filepath.Join(dir, asset))
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("asset not found; skipping", "path", source)
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// stampIdentifiers records the instance identifiers in one write, so a
// report without a handle leaves the copied metadata untouched.
func (i *Instance) stampIdentifiers(options CreateOptions) error {
	store := i.Config()
	handle, err := repo.MetadataString(store, "handle", "")
	if err != nil {
		return err
	}
	values := map[string]any{
		IDField:     options.InstanceID,
		HandleField: handle + "-" + options.InstanceID,
	}
	if options.PublishedInstanceURL != "" {
		values[PublishedInstanceURLField] = options.PublishedInstanceURL
	}
	if options.EditionURL != "" {
		values[EditionURLField] = options.EditionURL
	}
	return store.Update(values)
}

// copyFile copies source to target with source's permission bits,
// creating target's parent directories. A missing source satisfies
// errors.Is(err, fs.ErrNotExist).
func copyFile(source, target string) error {
	input, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("copying %s: %w", source, err)
	}
	defer input.Close()

	info, err := input.Stat()
	if err != nil {
		return fmt.Errorf("copying %s: %w", source, err)
	}
	if info.IsDir() {
		return fmt.Errorf("copying %s: is a directory", source)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", target, err)
	}

	output, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("copying %s: %w", source, err)
	}
	if _, err := io.Copy(output, input); err != nil {
		output.Close()
		return fmt.Errorf("copying %s to %s: %w", source, target, err)
	}
	if err := output.Close(); err != nil {
		return fmt.Errorf("copying %s to %s: %w", source, target, err)
	}
	return nil
}

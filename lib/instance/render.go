// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package instance

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/bureau-foundation/nbreport/lib/config"
	"github.com/bureau-foundation/nbreport/lib/templating"
)

// SystemFields are the metadata fields offered to templates as
// top-level variables, outside the cookiecutter namespace.
var SystemFields = []string{
	"handle",
	"title",
	"git_repo",
	"git_repo_subdir",
	IDField,
	HandleField,
}

// Render renders the instance notebook against the repository defaults,
// overrides, and the instance's system fields, and saves it.
//
// The resolved cookiecutter variables are written to the instance
// metadata, and a snapshot of the whole metadata is stored in the
// notebook's own metadata under NotebookMetadataKey. Rendering is not
// reversible and must happen at most once per instance.
func (i *Instance) Render(overrides templating.Overrides, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	store := i.Config()

	document, err := i.OpenNotebook()
	if err != nil {
		return err
	}
	path, err := i.NotebookPath()
	if err != nil {
		return err
	}

	system, err := systemContext(store, logger)
	if err != nil {
		return err
	}
	options := templating.LoadOptions{Overrides: overrides, System: system}
	if _, err := os.Stat(i.ContextPath()); err == nil {
		options.DefaultsPath = i.ContextPath()
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking template defaults: %w", err)
	}

	resolved, engine, err := templating.Load(options)
	if err != nil {
		return err
	}
	if err := store.Set(ContextField, resolved.Cookiecutter); err != nil {
		return err
	}
	if err := templating.RenderNotebook(document, engine); err != nil {
		return fmt.Errorf("rendering %s: %w", path, err)
	}

	snapshot, err := store.Map()
	if err != nil {
		return err
	}
	if err := document.SetMetadata(NotebookMetadataKey, snapshot); err != nil {
		return err
	}
	if err := document.WriteFile(path); err != nil {
		return err
	}
	logger.Info("rendered report instance", "path", path)
	return nil
}

// systemContext collects SystemFields from the metadata, skipping
// (with a warning) any the metadata does not declare.
func systemContext(store *config.Store, logger *slog.Logger) (map[string]any, error) {
	system := make(map[string]any, len(SystemFields))
	for _, field := range SystemFields {
		value, err := store.GetString(field)
		if errors.Is(err, config.ErrKeyNotFound) {
			logger.Warn("metadata field not available to the template", "field", field, "path", store.Path())
			continue
		}
		if err != nil {
			return nil, err
		}
		system[field] = value
	}
	return system, nil
}

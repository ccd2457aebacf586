// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package repo provides a read-only view of a report repository: the
// directory holding a report's notebook template, its cookiecutter.json
// template defaults, its nbreport.yaml metadata, and any auxiliary
// asset files the notebook reads at run time.
//
// Report repositories are usually Git repositories. [Clone] fetches a
// remote one into a local directory at a given ref.
package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bureau-foundation/nbreport/lib/config"
	"github.com/bureau-foundation/nbreport/lib/notebook"
)

const (
	// ContextFilename is the template defaults file.
	ContextFilename = "cookiecutter.json"

	// MetadataFilename is the report metadata file.
	MetadataFilename = "nbreport.yaml"

	// AssetsField is the optional metadata list of asset paths,
	// relative to the repository root.
	AssetsField = "assets"

	// ProductField holds the product identifier the publication
	// service assigned when the report was registered.
	ProductField = "ltd_product"
)

// RegisterRemedy is the MissingMetadataError remedy for a report that
// has no ProductField yet.
const RegisterRemedy = `Try registering the report by running "nbreport register".`

// Repository is a report repository on the local filesystem.
type Repository struct {
	dir string
}

// Open returns the repository at dir. Returns a *NotFoundError if dir
// does not exist or is not a directory.
func Open(dir string) (*Repository, error) {
	absolute, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}
	info, err := os.Stat(absolute)
	if err != nil || !info.IsDir() {
		return nil, &NotFoundError{Kind: "report repository", Path: absolute}
	}
	return &Repository{dir: absolute}, nil
}

// Dir returns the absolute repository directory.
func (r *Repository) Dir() string {
	return r.dir
}

// ContextPath returns the path of the cookiecutter.json defaults file.
func (r *Repository) ContextPath() string {
	return filepath.Join(r.dir, ContextFilename)
}

// ConfigPath returns the path of the nbreport.yaml metadata file.
func (r *Repository) ConfigPath() string {
	return filepath.Join(r.dir, MetadataFilename)
}

// Config returns the metadata store. Every call reads the file afresh.
func (r *Repository) Config() *config.Store {
	return config.Open(r.ConfigPath())
}

// NotebookFilename returns the notebook template's filename as
// declared by the metadata "ipynb" field.
func (r *Repository) NotebookFilename() (string, error) {
	return MetadataString(r.Config(), "ipynb", "")
}

// NotebookPath returns the path of the notebook template.
func (r *Repository) NotebookPath() (string, error) {
	filename, err := r.NotebookFilename()
	if err != nil {
		return "", err
	}
	return filepath.Join(r.dir, filename), nil
}

// OpenNotebook reads the notebook template.
func (r *Repository) OpenNotebook() (*notebook.Notebook, error) {
	path, err := r.NotebookPath()
	if err != nil {
		return nil, err
	}
	return notebook.ReadFile(path)
}

// AssetPaths lists the repository's asset files as paths relative to
// the repository root.
//
// When the metadata declares an "assets" list, that list is returned
// as written: entries need not exist on disk, and callers copying them
// decide how to treat a missing one. Otherwise every regular file under
// the repository is an asset except the notebook, the metadata, the
// template defaults, and anything inside a .git directory. Order is
// not significant.
func (r *Repository) AssetPaths() ([]string, error) {
	store := r.Config()
	declared, err := store.Contains(AssetsField)
	if err != nil {
		return nil, err
	}
	if declared {
		return declaredAssets(store)
	}

	excluded := map[string]bool{
		ContextFilename:  true,
		MetadataFilename: true,
	}
	if filename, err := r.NotebookFilename(); err == nil {
		excluded[filepath.Clean(filename)] = true
	} else if !isMissingMetadata(err) {
		return nil, err
	}

	var assets []string
	err = filepath.WalkDir(r.dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if entry.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		relative, err := filepath.Rel(r.dir, path)
		if err != nil {
			return err
		}
		if !excluded[relative] {
			assets = append(assets, relative)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing assets in %s: %w", r.dir, err)
	}
	return assets, nil
}

func declaredAssets(store *config.Store) ([]string, error) {
	value, err := store.Get(AssetsField)
	if err != nil {
		return nil, err
	}
	list, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: %q must be a list of paths", store.Path(), AssetsField)
	}
	assets := make([]string, 0, len(list))
	for _, item := range list {
		path, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%s: %q entries must be strings, got %v", store.Path(), AssetsField, item)
		}
		cleaned := filepath.Clean(filepath.FromSlash(path))
		if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("%s: asset path %q is outside the repository", store.Path(), path)
		}
		assets = append(assets, cleaned)
	}
	return assets, nil
}

// MetadataString reads a required string field from a metadata store.
// A missing or empty field, or a missing file, is a
// *MissingMetadataError carrying remedy.
func MetadataString(store *config.Store, field, remedy string) (string, error) {
	value, err := store.GetString(field)
	if errors.Is(err, config.ErrKeyNotFound) || (err == nil && value == "") {
		return "", &MissingMetadataError{Path: store.Path(), Field: field, Remedy: remedy}
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func isMissingMetadata(err error) bool {
	var missing *MissingMetadataError
	return errors.As(err, &missing)
}

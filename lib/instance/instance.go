// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package instance manages report instances: directories materialized
// from a report repository, stamped with an instance identifier,
// rendered once against a template context, computed, and uploaded to
// the publication service.
//
// An instance directory has the same layout as its repository (the
// notebook, cookiecutter.json, nbreport.yaml, and assets at the same
// relative paths). Its nbreport.yaml is a superset of the repository's:
//
//	instance_id: "1"
//	instance_handle: TESTR-000-1
//	published_instance_url: https://testr-000.lsst.io/v/1
//	ltd_edition_url: https://keeper.lsst.codes/editions/1
//	cookiecutter:           # written by Render
//	  title: Test Report
//
// [FromReportRepo] is the only way to create one. [Open] reopens an
// existing instance for the later lifecycle steps.
package instance

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/nbreport/lib/apiclient"
	"github.com/bureau-foundation/nbreport/lib/compute"
	"github.com/bureau-foundation/nbreport/lib/config"
	"github.com/bureau-foundation/nbreport/lib/notebook"
	"github.com/bureau-foundation/nbreport/lib/repo"
)

// Metadata fields added to an instance's nbreport.yaml.
const (
	IDField                   = "instance_id"
	HandleField               = "instance_handle"
	PublishedInstanceURLField = "published_instance_url"
	EditionURLField           = "ltd_edition_url"
	ContextField              = "cookiecutter"
)

// NotebookMetadataKey is the notebook metadata entry holding the
// snapshot of the instance metadata taken at render time.
const NotebookMetadataKey = "nbreport"

// Instance is a report instance directory.
type Instance struct {
	dir string
}

// Open returns the instance at dir. Returns a *repo.NotFoundError if
// dir does not exist or is not a directory.
func Open(dir string) (*Instance, error) {
	absolute, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}
	info, err := os.Stat(absolute)
	if err != nil || !info.IsDir() {
		return nil, &repo.NotFoundError{Kind: "report instance", Path: absolute}
	}
	return &Instance{dir: absolute}, nil
}

// Dir returns the absolute instance directory.
func (i *Instance) Dir() string {
	return i.dir
}

// ContextPath returns the path of the copied cookiecutter.json. The
// file may be absent when the repository had none.
func (i *Instance) ContextPath() string {
	return filepath.Join(i.dir, repo.ContextFilename)
}

// ConfigPath returns the path of the instance's nbreport.yaml.
func (i *Instance) ConfigPath() string {
	return filepath.Join(i.dir, repo.MetadataFilename)
}

// Config returns the instance metadata store.
func (i *Instance) Config() *config.Store {
	return config.Open(i.ConfigPath())
}

// ID returns the instance identifier.
func (i *Instance) ID() (string, error) {
	return repo.MetadataString(i.Config(), IDField, "")
}

// Handle returns the instance handle, "{handle}-{instance_id}".
func (i *Instance) Handle() (string, error) {
	return repo.MetadataString(i.Config(), HandleField, "")
}

// NotebookPath returns the path of the instance notebook.
func (i *Instance) NotebookPath() (string, error) {
	filename, err := repo.MetadataString(i.Config(), "ipynb", "")
	if err != nil {
		return "", err
	}
	return filepath.Join(i.dir, filename), nil
}

// OpenNotebook reads the instance notebook.
func (i *Instance) OpenNotebook() (*notebook.Notebook, error) {
	path, err := i.NotebookPath()
	if err != nil {
		return nil, err
	}
	return notebook.ReadFile(path)
}

// Compute executes the instance notebook with engine and saves the
// outputs in place. The kernel runs in options.Dir, or in a temporary
// directory when it is empty, so files the notebook writes never land
// in the instance.
func (i *Instance) Compute(ctx context.Context, engine compute.Engine, options compute.Options) error {
	path, err := i.NotebookPath()
	if err != nil {
		return err
	}
	return compute.ComputeFile(ctx, engine, path, options)
}

// Upload sends the instance notebook to the publication service. The
// instance needs both the report's product identifier and its own
// instance identifier.
func (i *Instance) Upload(ctx context.Context, client *apiclient.Client) (*apiclient.UploadResult, error) {
	store := i.Config()
	product, err := repo.MetadataString(store, repo.ProductField, repo.RegisterRemedy)
	if err != nil {
		return nil, err
	}
	instanceID, err := repo.MetadataString(store, IDField, "")
	if err != nil {
		return nil, err
	}
	path, err := i.NotebookPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading instance notebook: %w", err)
	}
	return client.UploadNotebook(ctx, product, instanceID, data)
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package compute executes notebooks through an external Jupyter
// execution engine.
//
// [Compute] runs a notebook in a working directory (a fresh temporary
// directory unless one is given, so relative paths in notebook code do
// not touch the caller's directory) and copies the resulting outputs
// back into the caller's notebook in place. A failing cell is always
// fatal: Compute saves the partially computed notebook to an
// errored-{uuid}.ipynb recovery file in the current directory, logs its
// path, and returns a [CellExecutionError].
//
// The [Engine] interface separates this bookkeeping from the process
// that actually talks to a kernel. [NbclientEngine] is the production
// implementation, driving the Python nbclient library.
package compute

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/nbreport/lib/notebook"
)

// Request describes one notebook execution.
type Request struct {
	// KernelName selects the Jupyter kernel. Empty means the kernel
	// named by the notebook's kernelspec metadata.
	KernelName string

	// Timeout bounds each cell's execution. Zero means unbounded.
	Timeout time.Duration

	// Dir is the working directory for the kernel.
	Dir string
}

// Engine executes notebooks.
//
// Execute runs every cell of document in order and returns the
// executed notebook, which must have the same cells in the same order.
// document itself is not modified. When a cell fails, Execute returns a
// *CellExecutionError and, if available, the notebook as computed up to
// and including the failing cell, with later cells left unexecuted. A
// nil notebook with a *CellExecutionError means no partial result
// exists.
type Engine interface {
	Execute(ctx context.Context, document *notebook.Notebook, request Request) (*notebook.Notebook, error)
}

// Options configures Compute.
type Options struct {
	// KernelName and Timeout are passed to the engine.
	KernelName string
	Timeout    time.Duration

	// Dir is the kernel working directory. Empty means a temporary
	// directory created for this computation and removed afterwards.
	Dir string

	// RecoveryDir is where the recovery notebook is written on a cell
	// failure. Empty means the current directory.
	RecoveryDir string

	// Logger defaults to slog.Default() when nil.
	Logger *slog.Logger
}

// Compute executes document with engine and stores the outputs in
// document's cells, in place. Returns document.
//
// On a cell failure document holds the partial outputs, a recovery copy
// is written, and the returned error is a *CellExecutionError with
// RecoveryPath set.
func Compute(ctx context.Context, engine Engine, document *notebook.Notebook, options Options) (*notebook.Notebook, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dir := options.Dir
	if dir == "" {
		temporary, err := os.MkdirTemp("", "nbreport-compute-*")
		if err != nil {
			return nil, fmt.Errorf("creating compute directory: %w", err)
		}
		defer os.RemoveAll(temporary)
		dir = temporary
	}

	logger.Debug("computing notebook", "kernel", options.KernelName, "timeout", options.Timeout, "dir", dir)
	executed, err := engine.Execute(ctx, document, Request{
		KernelName: options.KernelName,
		Timeout:    options.Timeout,
		Dir:        dir,
	})

	var cellError *CellExecutionError
	if err != nil && !errors.As(err, &cellError) {
		return nil, err
	}
	if executed != nil {
		if mergeErr := mergeOutputs(document, executed); mergeErr != nil {
			return nil, mergeErr
		}
	}
	if cellError == nil {
		return document, nil
	}

	recoveryPath, writeErr := writeRecovery(document, options.RecoveryDir)
	if writeErr != nil {
		logger.Error("error executing the notebook; could not save the recovery notebook", "error", writeErr)
		return document, err
	}
	cellError.RecoveryPath = recoveryPath
	logger.Error("error executing the notebook; see the recovery notebook for the traceback",
		"path", recoveryPath, "cell", cellError.CellIndex)
	return document, err
}

// ComputeFile computes the notebook at path and saves it in place. On
// failure the file is left unchanged.
func ComputeFile(ctx context.Context, engine Engine, path string, options Options) error {
	document, err := notebook.ReadFile(path)
	if err != nil {
		return err
	}
	if _, err := Compute(ctx, engine, document, options); err != nil {
		return err
	}
	return document.WriteFile(path)
}

// mergeOutputs copies outputs and execution counts from executed into
// document cell by cell, plus the notebook metadata the kernel adds
// (such as language_info).
func mergeOutputs(document, executed *notebook.Notebook) error {
	if len(executed.Cells) != len(document.Cells) {
		return fmt.Errorf("executed notebook has %d cells, want %d", len(executed.Cells), len(document.Cells))
	}
	for index, cell := range document.Cells {
		cell.Outputs = executed.Cells[index].Outputs
		cell.ExecutionCount = executed.Cells[index].ExecutionCount
	}
	for key, value := range executed.Metadata {
		if document.Metadata == nil {
			document.Metadata = map[string]json.RawMessage{}
		}
		document.Metadata[key] = value
	}
	return nil
}

func writeRecovery(document *notebook.Notebook, dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	path, err := filepath.Abs(filepath.Join(dir, fmt.Sprintf("errored-%s.ipynb", uuid.New())))
	if err != nil {
		return "", err
	}
	if err := document.WriteFile(path); err != nil {
		return "", err
	}
	return path, nil
}

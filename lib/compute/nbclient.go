// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compute

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/bureau-foundation/nbreport/lib/notebook"
)

// cellFailureExitCode is the driver's exit status when a cell raised or
// timed out. Its stdout then carries the partial notebook.
const cellFailureExitCode = 3

// driverScript executes a notebook read from stdin with nbclient, in the
// current directory, and stops at the first cell that raises (cells
// tagged raises-exception excepted, as nbclient does). It writes one
// JSON object to stdout: the executed notebook and, on a failure, the
// failing cell's index and exception.
//
// Arguments: the per-cell timeout in seconds (-1 for none) and the
// kernel name (empty for the notebook's own kernelspec).
const driverScript = `
import json
import os
import sys

import nbformat
from nbclient import NotebookClient
from nbclient.exceptions import CellControlSignal, DeadKernelError

timeout = int(sys.argv[1])
kernel_name = sys.argv[2]

nb = nbformat.read(sys.stdin, as_version=4)
options = {
    "timeout": None if timeout < 0 else timeout,
    "resources": {"metadata": {"path": os.getcwd()}},
}
if kernel_name:
    options["kernel_name"] = kernel_name
client = NotebookClient(nb, **options)

current = {"index": -1}


def on_cell_start(cell, cell_index, **kwargs):
    current["index"] = cell_index


client.on_cell_start = on_cell_start

failure = None
try:
    client.execute()
except (CellControlSignal, DeadKernelError) as error:
    index = current["index"]
    failure = {
        "cell_index": index,
        "ename": type(error).__name__,
        "evalue": str(error),
        "traceback": [],
    }
    if index >= 0:
        for output in nb.cells[index].get("outputs", []):
            if output.get("output_type") == "error":
                failure["ename"] = output.get("ename", "")
                failure["evalue"] = output.get("evalue", "")
                failure["traceback"] = output.get("traceback", [])
                break

json.dump({"notebook": nb, "failure": failure}, sys.stdout)
sys.exit(3 if failure else 0)
`

// NbclientEngine executes notebooks with the Python nbclient library,
// the executor behind "jupyter nbconvert --execute". A small driver
// program runs in the request directory, streams the notebook through
// stdin and stdout, and stops at the first failing cell so that no
// later cell runs.
type NbclientEngine struct {
	// Command is the Python interpreter with nbclient installed.
	// Empty means "python3" on PATH.
	Command string
}

// driverResult is the driver's stdout document.
type driverResult struct {
	Notebook json.RawMessage `json:"notebook"`
	Failure  *driverFailure  `json:"failure"`
}

type driverFailure struct {
	CellIndex int      `json:"cell_index"`
	Name      string   `json:"ename"`
	Value     string   `json:"evalue"`
	Traceback []string `json:"traceback"`
}

// Execute implements Engine.
func (e *NbclientEngine) Execute(ctx context.Context, document *notebook.Notebook, request Request) (*notebook.Notebook, error) {
	input, err := document.Bytes()
	if err != nil {
		return nil, err
	}

	command := e.Command
	if command == "" {
		command = "python3"
	}

	var stdout, stderr bytes.Buffer
	process := exec.CommandContext(ctx, command, e.arguments(request)...)
	process.Dir = request.Dir
	process.Stdin = bytes.NewReader(input)
	process.Stdout = &stdout
	process.Stderr = &stderr

	if err := process.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != cellFailureExitCode {
			return nil, fmt.Errorf("executing notebook with %s: %w (stderr: %s)",
				command, err, strings.TrimSpace(stderr.String()))
		}
	}

	var result driverResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return nil, fmt.Errorf("reading executed notebook: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}
	executed, err := notebook.Parse(result.Notebook)
	if err != nil {
		return nil, fmt.Errorf("reading executed notebook: %w", err)
	}
	if result.Failure == nil {
		return executed, nil
	}
	return executed, &CellExecutionError{
		CellIndex: result.Failure.CellIndex,
		Name:      result.Failure.Name,
		Value:     result.Failure.Value,
		Traceback: result.Failure.Traceback,
	}
}

// arguments returns the interpreter's command line: the driver program,
// the timeout in whole seconds (at least one when bounded), and the
// kernel name.
func (e *NbclientEngine) arguments(request Request) []string {
	timeout := -1
	if request.Timeout > 0 {
		timeout = max(int(request.Timeout.Seconds()), 1)
	}
	return []string{"-c", driverScript, strconv.Itoa(timeout), request.KernelName}
}

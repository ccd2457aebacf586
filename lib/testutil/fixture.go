// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// Fixture contents of the TESTR-000 repository.
const (
	ReportHandle   = "TESTR-000"
	ReportTitle    = "Test Report"
	ReportNotebook = "TESTR-000.ipynb"
	ReportAsset    = "data/values.csv"

	ReportMetadata = `# Report repository metadata.
handle: TESTR-000
title: Test Report  # shown on the landing page
ipynb: TESTR-000.ipynb
git_repo: https://github.com/lsst-sqre/nbreport
`

	ReportDefaults = `{
  "title": "Test Report",
  "username": "Test Bot",
  "date": "2018-07-18",
  "a": 10,
  "b": 32
}
`

	// The markdown cell renders to "# Test Report\n- By: Test Bot"
	// and the code cell computes to an execute_result of 42.
	ReportNotebookSource = `{
 "cells": [
  {
   "cell_type": "markdown",
   "metadata": {},
   "source": [
    "# {{ cookiecutter.title }}\n",
    "- By: {{ cookiecutter.username }}"
   ]
  },
  {
   "cell_type": "code",
   "execution_count": null,
   "metadata": {},
   "outputs": [],
   "source": [
    "answer = {{ cookiecutter.a }} + {{ cookiecutter.b }}\n",
    "answer"
   ]
  }
 ],
 "metadata": {
  "kernelspec": {
   "display_name": "Python 3",
   "language": "python",
   "name": "python3"
  }
 },
 "nbformat": 4,
 "nbformat_minor": 2
}
`

	ReportAssetContent = "x,y\n1,2\n"
)

// ReportRepo writes the TESTR-000 report repository into a new
// temporary directory and returns its path.
func ReportRepo(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "TESTR-000")
	WriteFiles(t, dir, map[string]string{
		"nbreport.yaml":     ReportMetadata,
		"cookiecutter.json": ReportDefaults,
		ReportNotebook:      ReportNotebookSource,
		ReportAsset:         ReportAssetContent,
	})
	return dir
}

// WriteFiles writes each path-to-content entry under dir, creating
// parent directories as needed. Paths use forward slashes.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("creating directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
}

// RequireBinary skips the test when name is not on PATH and returns
// its resolved path otherwise.
func RequireBinary(t *testing.T, name string) string {
	t.Helper()
	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not installed", name)
	}
	return path
}

// RequirePythonModule skips the test unless python3 is on PATH and can
// import module. Returns the interpreter's path.
func RequirePythonModule(t *testing.T, module string) string {
	t.Helper()
	python := RequireBinary(t, "python3")
	if err := exec.Command(python, "-c", "import "+module).Run(); err != nil {
		t.Skipf("python module %s not installed", module)
	}
	return python
}

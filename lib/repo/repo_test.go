// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package repo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/nbreport/lib/testutil"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	dir := testutil.ReportRepo(t)
	repository, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if repository.Dir() != dir {
		t.Errorf("Dir = %q, want %q", repository.Dir(), dir)
	}
	if repository.ContextPath() != filepath.Join(dir, "cookiecutter.json") {
		t.Errorf("ContextPath = %q", repository.ContextPath())
	}
	if repository.ConfigPath() != filepath.Join(dir, "nbreport.yaml") {
		t.Errorf("ConfigPath = %q", repository.ConfigPath())
	}

	notebookPath, err := repository.NotebookPath()
	if err != nil {
		t.Fatalf("NotebookPath: %v", err)
	}
	if notebookPath != filepath.Join(dir, testutil.ReportNotebook) {
		t.Errorf("NotebookPath = %q", notebookPath)
	}

	document, err := repository.OpenNotebook()
	if err != nil {
		t.Fatalf("OpenNotebook: %v", err)
	}
	if len(document.Cells) != 2 {
		t.Errorf("notebook has %d cells, want 2", len(document.Cells))
	}

	handle, err := repository.Config().GetString("handle")
	if err != nil {
		t.Fatalf("GetString(handle): %v", err)
	}
	if handle != testutil.ReportHandle {
		t.Errorf("handle = %q, want %q", handle, testutil.ReportHandle)
	}
}

func TestOpen_RelativePath(t *testing.T) {
	dir := testutil.ReportRepo(t)
	t.Chdir(filepath.Dir(dir))

	repository, err := Open(filepath.Base(dir))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !filepath.IsAbs(repository.Dir()) {
		t.Errorf("Dir = %q, want absolute path", repository.Dir())
	}
}

func TestOpen_NotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nonexistent") }},
		{"file", func(t *testing.T) string {
			path := filepath.Join(t.TempDir(), "file")
			if err := os.WriteFile(path, nil, 0644); err != nil {
				t.Fatal(err)
			}
			return path
		}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			_, err := Open(test.path(t))
			var notFound *NotFoundError
			if !errors.As(err, &notFound) {
				t.Fatalf("expected NotFoundError, got %v", err)
			}
			if notFound.Kind != "report repository" {
				t.Errorf("Kind = %q", notFound.Kind)
			}
		})
	}
}

func TestNotebookPath_MissingField(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{"nbreport.yaml": "handle: TESTR-000\n"})

	repository, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_, err = repository.NotebookPath()
	var missing *MissingMetadataError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingMetadataError, got %v", err)
	}
	if missing.Field != "ipynb" {
		t.Errorf("Field = %q, want ipynb", missing.Field)
	}
}

func TestAssetPaths_Walk(t *testing.T) {
	t.Parallel()

	dir := testutil.ReportRepo(t)
	testutil.WriteFiles(t, dir, map[string]string{
		"README.md":        "readme\n",
		"lib/helpers.py":   "pass\n",
		".git/config":      "[core]\n",
		".git/objects/abc": "blob",
	})

	repository, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	assets, err := repository.AssetPaths()
	if err != nil {
		t.Fatalf("AssetPaths: %v", err)
	}
	sort.Strings(assets)

	want := []string{
		"README.md",
		filepath.FromSlash("data/values.csv"),
		filepath.FromSlash("lib/helpers.py"),
	}
	if diff := cmp.Diff(want, assets); diff != "" {
		t.Errorf("assets mismatch (-want +got):\n%s", diff)
	}
}

func TestAssetPaths_Declared(t *testing.T) {
	t.Parallel()

	dir := testutil.ReportRepo(t)
	metadata := testutil.ReportMetadata + "assets:\n  - data/values.csv\n  - data/missing.csv\n"
	testutil.WriteFiles(t, dir, map[string]string{"nbreport.yaml": metadata, "unlisted.txt": "x"})

	repository, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	assets, err := repository.AssetPaths()
	if err != nil {
		t.Fatalf("AssetPaths: %v", err)
	}
	want := []string{filepath.FromSlash("data/values.csv"), filepath.FromSlash("data/missing.csv")}
	if diff := cmp.Diff(want, assets); diff != "" {
		t.Errorf("assets mismatch (-want +got):\n%s", diff)
	}
}

func TestAssetPaths_DeclaredOutsideRepository(t *testing.T) {
	t.Parallel()

	dir := testutil.ReportRepo(t)
	metadata := testutil.ReportMetadata + "assets:\n  - ../secrets.txt\n"
	testutil.WriteFiles(t, dir, map[string]string{"nbreport.yaml": metadata})

	repository, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := repository.AssetPaths(); err == nil || !strings.Contains(err.Error(), "outside the repository") {
		t.Errorf("expected outside-repository error, got %v", err)
	}
}

func TestMetadataString(t *testing.T) {
	t.Parallel()

	dir := testutil.ReportRepo(t)
	repository, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	title, err := MetadataString(repository.Config(), "title", "")
	if err != nil {
		t.Fatalf("MetadataString(title): %v", err)
	}
	if title != testutil.ReportTitle {
		t.Errorf("title = %q", title)
	}

	_, err = MetadataString(repository.Config(), ProductField, RegisterRemedy)
	var missing *MissingMetadataError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingMetadataError, got %v", err)
	}
	if !strings.HasSuffix(err.Error(), `Try registering the report by running "nbreport register".`) {
		t.Errorf("error = %q, want remedy suffix", err)
	}
}

// gitCommand runs git in dir with a fixed identity.
func TestClone(t *testing.T) {
	t.Parallel()

	remote := testutil.ReportRemote(t)
	repository, err := Clone(context.Background(), CloneOptions{
		URL:    remote,
		Dir:    filepath.Join(t.TempDir(), "clone"),
		Ref:    "main",
		Subdir: testutil.ReportRemoteSubdir,
	})
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	notebookPath, err := repository.NotebookPath()
	if err != nil {
		t.Fatalf("NotebookPath: %v", err)
	}
	if _, err := os.Stat(notebookPath); err != nil {
		t.Errorf("cloned notebook missing: %v", err)
	}

	assets, err := repository.AssetPaths()
	if err != nil {
		t.Fatalf("AssetPaths: %v", err)
	}
	if diff := cmp.Diff([]string{filepath.FromSlash("data/values.csv")}, assets); diff != "" {
		t.Errorf("assets mismatch (-want +got):\n%s", diff)
	}
}

func TestClone_MissingSubdir(t *testing.T) {
	t.Parallel()

	remote := testutil.ReportRemote(t)
	_, err := Clone(context.Background(), CloneOptions{
		URL:    remote,
		Dir:    filepath.Join(t.TempDir(), "clone"),
		Subdir: "reports/TESTR-999",
	})
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestClone_MissingRef(t *testing.T) {
	t.Parallel()

	remote := testutil.ReportRemote(t)
	_, err := Clone(context.Background(), CloneOptions{
		URL: remote,
		Dir: filepath.Join(t.TempDir(), "clone"),
		Ref: "no-such-branch",
	})
	if err == nil {
		t.Fatal("expected error for missing ref")
	}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// ReportRemoteSubdir is where ReportRemote places the fixture report
// inside the Git repository.
const ReportRemoteSubdir = "reports/TESTR-000"

// GitCommand runs git in dir with a fixed test identity and fails the
// test on error.
func GitCommand(t *testing.T, dir string, args ...string) {
	t.Helper()
	command := exec.Command("git", append([]string{"-C", dir}, args...)...)
	command.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Test",
		"GIT_AUTHOR_EMAIL=test@test.local",
		"GIT_COMMITTER_NAME=Test",
		"GIT_COMMITTER_EMAIL=test@test.local",
	)
	if output, err := command.CombinedOutput(); err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, output)
	}
}

// ReportRemote creates a Git repository holding the TESTR-000 fixture
// under ReportRemoteSubdir, committed on branch main, and returns its
// directory. Skips the test when git is not installed.
func ReportRemote(t *testing.T) string {
	t.Helper()
	RequireBinary(t, "git")

	remote := t.TempDir()
	source := ReportRepo(t)
	GitCommand(t, remote, "init", "--quiet", "--initial-branch", "main")
	target := filepath.Join(remote, filepath.FromSlash(ReportRemoteSubdir))
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(source, target); err != nil {
		t.Fatalf("moving fixture: %v", err)
	}
	GitCommand(t, remote, "add", ".")
	GitCommand(t, remote, "commit", "--quiet", "-m", "add report")
	return remote
}

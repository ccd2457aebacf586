// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for nbreport packages.
//
// [ReportRepo] writes the standard TESTR-000 report repository into a
// temporary directory: an nbreport.yaml, a cookiecutter.json, a
// two-cell templated notebook, and a nested asset file. Tests across
// the repo, instance, processing, and command packages build on it so
// they agree on one fixture.
//
// [RequireBinary] skips a test when an external program such as git is
// not installed, and [RequirePythonModule] when the Jupyter execution
// libraries are missing.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation, used for instance IDs.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil

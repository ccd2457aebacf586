// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for the nbreport
// binary.
//
// Four package-level variables are injected at build time via
// -ldflags -X:
//
//   - [GitCommit]: short git SHA of the build
//   - [GitDirty]: "true" if there were uncommitted changes
//   - [BuildTime]: UTC timestamp of the build
//   - [Version]: semantic version string (set manually for releases)
//
// For example:
//
//	go build -ldflags "-X github.com/bureau-foundation/nbreport/lib/version.GitCommit=$(git rev-parse --short HEAD)" ./cmd/nbreport
//
// When GitCommit is not injected, the VCS stamp the Go toolchain embeds
// in module builds is used instead, so "go install" binaries still
// report their revision. Test runs carry neither and report "unknown".
//
// Formatting functions produce human-readable version strings:
//
//   - [Info]: "0.1.0-dev (abc1234, 2026-02-10T...)" for "nbreport version"
//   - [Full]: Info plus Go version and GOOS/GOARCH
//   - [Short]: just the version number
//   - [Commit]: just the git SHA
package version

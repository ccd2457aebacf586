// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds passwords outside the Go heap while they are in
// use.
//
// "nbreport login" holds the user's GitHub password only long enough
// to exchange it for a personal access token. [Buffer] keeps it in an
// anonymous mmap region that is locked into RAM (mlock) and excluded
// from core dumps (MADV_DONTDUMP), and zeroes it on Close. The garbage
// collector never sees the region, so no stray copies outlive Close.
//
// Constructors:
//
//   - [NewFromBytes]: copies into protected memory and zeros the source
//   - [ReadFile]: reads a password file, such as --password-file
//
// [Buffer.String] makes a heap copy and is meant only for the API
// boundary that needs a string (HTTP basic auth).
//
// Depends on golang.org/x/sys/unix.
package secret

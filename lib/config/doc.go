// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides a key-value store over a single YAML file.
//
// A [Store] backs both report repository metadata and report instance
// metadata (the nbreport.yaml file), as well as the user configuration
// file. These files are edited by hand, so the store works on the
// yaml.v3 node tree rather than on decoded Go values: comments, key
// order, and scalar styles that a write does not touch are written
// back unchanged.
//
// Every operation is a full read-modify-write cycle. [Store.Set] reads
// the current document, replaces one top-level key, and rewrites the
// whole file. Nothing is cached between calls, so edits made by another
// process between two operations are observed. There is no locking:
// the store assumes a single writer.
//
// Key exports:
//
//   - [Open] -- bind a Store to a path (the file need not exist yet)
//   - [Store.Get], [Store.GetString], [Store.Contains] -- reads
//   - [Store.Set], [Store.SetNode], [Store.Update] -- writes
//   - [Store.Keys], [Store.Items] -- enumeration in document order
//   - [KeyNotFoundError] and [ErrKeyNotFound] -- missing keys
//
// This package depends on no other nbreport packages.
package config

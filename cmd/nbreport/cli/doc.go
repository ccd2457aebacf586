// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for nbreport.
//
// The central type is [Command], which represents a named subcommand with
// optional nested [Command.Subcommands], flags bound from a tagged params
// struct (see [BindFlags]), and a Run function receiving a context and a
// per-invocation logger. Commands are assembled into a tree in
// cmd/nbreport/commands and dispatched via [Command.Execute], which
// handles flag parsing, subcommand routing, and structured help output
// with examples.
//
// When a user types an unknown subcommand or flag, the framework computes
// Levenshtein edit distance against all known names and suggests the
// closest match (threshold: distance <= 3).
//
// [Pairs] collects repeatable key/value flags, accepted both as
// "-c key=value" and as "-c key value".
//
// Commands report failures as categorized [ToolError] values and use
// [Prompter] for interactive input (usernames, passwords, confirmation).
// Passwords are returned in a lib/secret buffer.
package cli

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// NewCommandLogger creates a structured logger for one CLI invocation.
// When stderr is a terminal, uses slog.TextHandler for human-readable
// output. When stderr is piped or redirected (CI jobs, scripts), uses
// slog.JSONHandler for machine-parseable output.
//
// Library packages never build their own logger; commands pass this one
// down through each operation's options:
//
//	logger := cli.NewCommandLogger(level).With("command", "compute")
//	err := target.Compute(ctx, engine, compute.Options{Logger: logger})
func NewCommandLogger(level slog.Level) *slog.Logger {
	var handler slog.Handler
	options := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}

// ParseLevel parses a --log-level value: debug, info, warn (or
// warning), or error, case-insensitively.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, Validation("unknown log level %q (want debug, info, warn, or error)", name)
	}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestPrompter_LineAndConfirm(t *testing.T) {
	var out bytes.Buffer
	prompter := NewPrompter(strings.NewReader("  octocat \nYes\n123456"), &out)

	username, err := prompter.Line("GitHub username")
	if err != nil || username != "octocat" {
		t.Errorf("Line = %q (err %v), want octocat", username, err)
	}
	confirmed, err := prompter.Confirm("Register this report?")
	if err != nil || !confirmed {
		t.Errorf("Confirm = %v (err %v), want true", confirmed, err)
	}
	// The last line has no trailing newline.
	code, err := prompter.Line("One-time password")
	if err != nil || code != "123456" {
		t.Errorf("Line = %q (err %v), want 123456", code, err)
	}
	if !strings.Contains(out.String(), "GitHub username: ") || !strings.Contains(out.String(), "[y/N]") {
		t.Errorf("prompts = %q", out.String())
	}

	if _, err := prompter.Line("anything"); err == nil {
		t.Error("Line at end of input should fail")
	}
	if confirmed, _ := prompter.Confirm("again?"); confirmed {
		t.Error("Confirm at end of input should decline")
	}
}

func TestPrompter_PasswordNeedsTerminal(t *testing.T) {
	prompter := NewPrompter(strings.NewReader("secret\n"), &bytes.Buffer{})
	if _, err := prompter.Password("GitHub password"); err == nil {
		t.Error("Password without a terminal should fail")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for name, want := range tests {
		got, err := ParseLevel(name)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v (err %v), want %v", name, got, err, want)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("expected error for an unknown level")
	}
}

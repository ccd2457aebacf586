// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"testing"
)

func TestNewFromBytes(t *testing.T) {
	source := []byte("super-secret-password")
	originalContent := string(source)

	buffer, err := NewFromBytes(source)
	if err != nil {
		t.Fatalf("NewFromBytes failed: %v", err)
	}
	defer buffer.Close()

	if got := buffer.String(); got != originalContent {
		t.Errorf("expected %q, got %q", originalContent, got)
	}
	if buffer.Len() != len(originalContent) {
		t.Errorf("Len = %d, want %d", buffer.Len(), len(originalContent))
	}

	// The source should have been zeroed.
	for index, value := range source {
		if value != 0 {
			t.Fatalf("source not zeroed at index %d: got %d", index, value)
		}
	}
}

func TestNewFromBytes_Empty(t *testing.T) {
	if _, err := NewFromBytes(nil); err == nil {
		t.Fatal("expected error for empty source")
	}
}

func TestBuffer_Close(t *testing.T) {
	buffer, err := NewFromBytes([]byte("hunter2"))
	if err != nil {
		t.Fatalf("NewFromBytes failed: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
	if buffer.Len() != 0 {
		t.Errorf("Len after Close = %d, want 0", buffer.Len())
	}

	defer func() {
		if recover() == nil {
			t.Error("Bytes after Close should panic")
		}
	}()
	buffer.Bytes()
}

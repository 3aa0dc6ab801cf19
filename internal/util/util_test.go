// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxRunes int
		want     string
	}{
		{"shorter than max", "hello", 10, "hello"},
		{"exactly max", "hello", 5, "hello"},
		{"truncated with ellipsis", "hello world", 8, "hello..."},
		{"zero max", "hello", 0, ""},
		{"tiny max", "hello", 2, "he"},
		{"multibyte preserved", "héllo wörld", 8, "héllo..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateRunes(tt.input, tt.maxRunes); got != tt.want {
				t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.input, tt.maxRunes, got, tt.want)
			}
		})
	}
}

func TestTruncateRunesNoEllipsis(t *testing.T) {
	if got := TruncateRunesNoEllipsis("héllo", 2); got != "hé" {
		t.Errorf("expected %q, got %q", "hé", got)
	}
	if got := TruncateRunesNoEllipsis("hi", 10); got != "hi" {
		t.Errorf("expected %q, got %q", "hi", got)
	}
}

func TestIntToString(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{7, "7"},
		{42, "42"},
		{-13, "-13"},
		{1000000, "1000000"},
	}

	for _, tt := range tests {
		if got := IntToString(tt.n); got != tt.want {
			t.Errorf("IntToString(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFirstLine(t *testing.T) {
	if got := FirstLine("one\ntwo"); got != "one" {
		t.Errorf("expected %q, got %q", "one", got)
	}
	if got := FirstLine("single"); got != "single" {
		t.Errorf("expected %q, got %q", "single", got)
	}
}

func TestAtomicWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.json")

	if err := AtomicWriteFile(path, []byte(`{"ok":true}`), 0600); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != `{"ok":true}` {
		t.Errorf("unexpected content: %s", data)
	}

	// Overwrite must replace the previous content completely.
	if err := AtomicWriteFile(path, []byte("x"), 0600); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "x" {
		t.Errorf("expected overwritten content, got %s", data)
	}
}

package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Plain Title", "Plain Title"},
		{"A/B: The \"Sequel\"?", "A-B- The 'Sequel'"},
		{"  padded  ", "padded"},
		{"***", "untitled"},
		{"<tag> | pipe", "(tag) - pipe"},
	}
	for _, tc := range cases {
		if got := SanitizeTitle(tc.in); got != tc.want {
			t.Errorf("SanitizeTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRenewOutputPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "song.wav")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	renewed := RenewOutputPath(path)
	if renewed != filepath.Join(dir, "song-(1).wav") {
		t.Errorf("expected first renewal, got %q", renewed)
	}

	if err := os.WriteFile(renewed, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if again := RenewOutputPath(path); again != filepath.Join(dir, "song-(2).wav") {
		t.Errorf("expected second renewal, got %q", again)
	}
}

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   uint64
		want string
	}{
		{512, "512 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
	}
	for _, tc := range cases {
		if got := FormatBytes(tc.in); got != tc.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

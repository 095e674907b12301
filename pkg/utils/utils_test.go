package utils

import (
	"strings"
	"testing"
)

func TestGenerateRandomID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := GenerateRandomID(8)
		if len(id) != 8 {
			t.Fatalf("len(%q) = %d, want 8", id, len(id))
		}
		for _, r := range id {
			if !strings.ContainsRune(charset, r) {
				t.Fatalf("unexpected character %q in %q", r, id)
			}
		}
		seen[id] = true
	}
	if len(seen) < 49 {
		t.Errorf("expected unique IDs, got %d distinct of 50", len(seen))
	}
}

func TestNormalizePersianNumbers(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"۱۲۳۴۵", "12345"},
		{"٦٧٨٩٠", "67890"},
		{"ab۳cd", "ab3cd"},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		if got := NormalizePersianNumbers(tt.input); got != tt.expected {
			t.Errorf("NormalizePersianNumbers(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestNormalizePersianText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"علي", "علی"},
		{"كتاب", "کتاب"},
		{"  مدرسة ", "مدرسه"},
	}

	for _, tt := range tests {
		if got := NormalizePersianText(tt.input); got != tt.expected {
			t.Errorf("NormalizePersianText(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestStripBidiMarks(t *testing.T) {
	if got := StripBidiMarks("\u200fabc\u200eDEF\u2067"); got != "abcDEF" {
		t.Errorf("StripBidiMarks = %q, want %q", got, "abcDEF")
	}
	if got := StripBidiMarks("a\u200cb"); got != "a\u200cb" {
		t.Errorf("StripBidiMarks dropped a non-joiner: %q", got)
	}
}

package security

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Plain name",
			input:    "Alice",
			expected: "Alice",
		},
		{
			name:     "Markup stripped",
			input:    "<b>Bob</b><script>alert(1)</script>",
			expected: "Bob",
		},
		{
			name:     "Whitespace collapsed",
			input:    "  Carol \t\n  Smith  ",
			expected: "Carol Smith",
		},
		{
			name:     "Arabic yeh normalised",
			input:    "علي",
			expected: "علی",
		},
		{
			name:     "Ampersand kept",
			input:    "Tom & Jerry",
			expected: "Tom & Jerry",
		},
		{
			name:     "Plain text, not HTML",
			input:    "Tom < Jerry &amp; Co",
			expected: "Tom < Jerry & Co",
		},
		{
			name:     "Only markup",
			input:    "<i></i>",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeName(tt.input); got != tt.expected {
				t.Errorf("SanitizeName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeName_Truncates(t *testing.T) {
	got := SanitizeName(strings.Repeat("ن", MaxNameLength+10))
	if n := utf8.RuneCountInString(got); n != MaxNameLength {
		t.Errorf("SanitizeName() length = %d, want %d", n, MaxNameLength)
	}
}

func TestValidatePublicID(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantID string
		wantOK bool
	}{
		{"Latin", "aB3dE5gH", "aB3dE5gH", true},
		{"Persian digits", "ab۱۲۳۴cd", "ab1234cd", true},
		{"Copied with RTL mark", "\u200faB3dE5gH ", "aB3dE5gH", true},
		{"Too short", "abc", "abc", false},
		{"Symbols", "abc$%^&*", "abc$%^&*", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ValidatePublicID(tt.input)
			if id != tt.wantID || ok != tt.wantOK {
				t.Errorf("ValidatePublicID(%q) = (%q, %v), want (%q, %v)", tt.input, id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

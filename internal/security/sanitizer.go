package security

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/mroshb/friendly/pkg/utils"
)

const MaxNameLength = 64

var (
	htmlPolicy    = bluemonday.StrictPolicy()
	publicIDRegex = regexp.MustCompile(`^[a-zA-Z0-9]{8}$`)
	spaceRegex    = regexp.MustCompile(`\s+`)
)

// SanitizeString removes potentially dangerous characters
func SanitizeString(input string) string {
	// Trim whitespace
	input = strings.TrimSpace(input)

	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Limit length
	if len(input) > 1000 {
		input = input[:1000]
	}

	return input
}

// SanitizeHTML removes all HTML tags
func SanitizeHTML(input string) string {
	return htmlPolicy.Sanitize(input)
}

// SanitizeName turns user input into a display name: markup and control
// characters are stripped, whitespace collapsed and the result cut to
// MaxNameLength runes. The result is plain text and must be escaped before
// it goes into an HTML message. An empty result means the name is unusable.
func SanitizeName(input string) string {
	name := html.UnescapeString(SanitizeHTML(SanitizeString(input)))
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, name)
	name = utils.NormalizePersianText(spaceRegex.ReplaceAllString(name, " "))

	if utf8.RuneCountInString(name) > MaxNameLength {
		name = strings.TrimSpace(string([]rune(name)[:MaxNameLength]))
	}
	return name
}

// ValidatePublicID checks the shape of a public ID after digit normalisation
// and returns the normalised form.
func ValidatePublicID(input string) (string, bool) {
	id := strings.TrimSpace(utils.StripBidiMarks(utils.NormalizePersianNumbers(input)))
	return id, publicIDRegex.MatchString(id)
}

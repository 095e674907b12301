package utils

import "strings"

var digitReplacer = strings.NewReplacer(
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4", "۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4", "٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

var letterReplacer = strings.NewReplacer(
	"ي", "ی", // Arabic Yeh to Farsi Yeh
	"ك", "ک", // Arabic Kaf to Farsi Kaf
	"ة", "ه", // Teh Marbuta to Heh
)

// Direction marks the bot prefixes to outgoing text. They come back when a
// user copies an ID out of a message.
var bidiReplacer = strings.NewReplacer(
	"\u200e", "", "\u200f", "",
	"\u202a", "", "\u202b", "", "\u202c", "", "\u202d", "", "\u202e", "",
	"\u2066", "", "\u2067", "", "\u2068", "", "\u2069", "",
)

// NormalizePersianNumbers converts Persian and Arabic numerals to English numerals
func NormalizePersianNumbers(input string) string {
	return digitReplacer.Replace(input)
}

// NormalizePersianText handles Arabic/Farsi character variants
func NormalizePersianText(input string) string {
	return strings.TrimSpace(letterReplacer.Replace(input))
}

// StripBidiMarks removes directional formatting characters.
func StripBidiMarks(input string) string {
	return bidiReplacer.Replace(input)
}

package utils

import (
	"crypto/rand"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Largest multiple of len(charset) that fits in a byte; bytes at or above it
// are redrawn so every character is equally likely.
const unbiasedLimit = 256 - 256%len(charset)

// GenerateRandomID returns n characters drawn from [a-zA-Z0-9], or "" if the
// system random source fails.
func GenerateRandomID(n int) string {
	out := make([]byte, 0, n)
	buf := make([]byte, n+n/2)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return ""
		}
		for _, b := range buf {
			if int(b) >= unbiasedLimit {
				continue
			}
			out = append(out, charset[int(b)%len(charset)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out)
}

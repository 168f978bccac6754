package textproc

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Zero-width and byte-order-mark characters stripped during normalization
// (U+200B..U+200D, U+FEFF).
func isInvisible(r rune) bool {
	return (r >= 0x200B && r <= 0x200D) || r == 0xFEFF
}

// Normalize collapses whitespace runs to single spaces, strips zero-width
// characters, and trims the result. Two texts with the same visible content
// always normalize identically.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if isInvisible(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Fingerprint returns the hex-encoded SHA-256 digest of the normalized text.
// The digest is computed only after normalization so that whitespace-only
// edits never change the fingerprint; it is the dedup key for tracks.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:])
}

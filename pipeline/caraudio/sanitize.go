package caraudio

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxNameLength is the longest sanitized title the head unit displays
// without truncation artifacts.
const maxNameLength = 50

// forbiddenChars are illegal on the FAT filesystems car stereos use.
const forbiddenChars = `/\:*?"<>|`

var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// sanitizeName derives a filesystem-safe display name: accents folded to
// ASCII, forbidden and control characters stripped, whitespace collapsed,
// length capped at maxNameLength runes.
func sanitizeName(name string) string {
	if folded, _, err := transform.String(accentFolder, name); err == nil {
		name = folded
	}

	// Whitespace runes (tabs, newlines) separate words, so they become
	// spaces; non-whitespace control characters are dropped outright.
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsSpace(r) {
			b.WriteRune(' ')
			continue
		}
		if r < 0x20 || r == 0x7F || strings.ContainsRune(forbiddenChars, r) {
			continue
		}
		b.WriteRune(r)
	}

	name = strings.Join(strings.Fields(b.String()), " ")

	if r := []rune(name); len(r) > maxNameLength {
		name = strings.TrimSpace(string(r[:maxNameLength]))
	}
	return name
}

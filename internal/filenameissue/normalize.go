package filenameissue

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// charReplacements mirrors the problematic-character table, mapping each
// one to a destination-safe substitute rather than simply stripping it.
var charReplacements = []struct {
	from byte
	to   string
}{
	{'\\', "-"},
	{':', "-"},
	{'*', "_"},
	{'?', "_"},
	{'"', "'"},
	{'<', "("},
	{'>', ")"},
	{'|', "-"},
	{0x00, ""},
}

// Normalize produces a destination-safe suggestion for name: known
// problem characters are replaced with readable substitutes, control
// characters are dropped, leading/trailing spaces and trailing dots are
// stripped, an empty result falls back to a placeholder, and an
// overlength result is truncated to 255 UTF-8 bytes while preserving the
// extension.
func Normalize(name string) string {
	if name == "." || name == ".." {
		return name
	}

	result := name
	for _, r := range charReplacements {
		result = strings.ReplaceAll(result, string(r.from), r.to)
	}

	result = stripControlChars(result)
	result = strings.TrimLeft(result, " ")
	result = strings.TrimRight(result, " .")

	if result == "" {
		result = "_renamed_"
	}

	if len(result) > 255 {
		result = truncatePreservingExtension(result, 255)
	}

	return result
}

func stripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= 0x20 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func truncatePreservingExtension(name string, maxBytes int) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	maxBase := maxBytes - len(ext)

	for len(base) > maxBase {
		_, size := utf8.DecodeLastRuneInString(base)
		base = base[:len(base)-size]
	}
	return base + ext
}

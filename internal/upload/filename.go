package upload

import (
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var allowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
}

// Allowed reports whether filename carries one of the accepted image
// extensions. The comparison is case-insensitive and only looks at the text
// after the last dot.
func Allowed(filename string) bool {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return false
	}
	return allowedExtensions[strings.ToLower(filename[i+1:])]
}

// Extension returns the lower-cased extension of filename without the dot.
func Extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
}

// SecureFilename reduces a client supplied name to something safe to use as
// a single path element, the way werkzeug does on a POSIX host: only "/"
// separates words, everything outside [A-Za-z0-9_.-] is dropped. The result
// may be empty.
func SecureFilename(name string) string {
	name = norm.NFKD.String(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r > unicode.MaxASCII:
		case r == '/':
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}

	joined := strings.Join(strings.Fields(b.String()), "_")

	b.Reset()
	for _, r := range joined {
		if isSafeRune(r) {
			b.WriteRune(r)
		}
	}

	return strings.Trim(b.String(), "._")
}

func isSafeRune(r rune) bool {
	return r >= 'a' && r <= 'z' ||
		r >= 'A' && r <= 'Z' ||
		r >= '0' && r <= '9' ||
		r == '_' || r == '.' || r == '-'
}

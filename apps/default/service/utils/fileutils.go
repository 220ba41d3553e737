package utils

import (
	"path"
	"strings"
	"time"
	"unicode"
)

const maxFileNameLength = 120

// SanitiseFileName reduces a client supplied file name to a safe object key segment.
func SanitiseFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))

	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}

	cleaned := strings.Trim(b.String(), ".")
	if cleaned == "" {
		cleaned = "document"
	}
	if len(cleaned) > maxFileNameLength {
		cleaned = cleaned[len(cleaned)-maxFileNameLength:]
	}
	return cleaned
}

// BlobKey places a document under a month partition and its own id.
func BlobKey(at time.Time, id string, name string) string {
	return path.Join("documents", at.UTC().Format("2006/01"), id, SanitiseFileName(name))
}

package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitiseFileName(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain_name", input: "minutes.pdf", expected: "minutes.pdf"},
		{name: "spaces_become_underscores", input: "board minutes.pdf", expected: "board_minutes.pdf"},
		{name: "unix_traversal_stripped", input: "../../etc/passwd", expected: "passwd"},
		{name: "windows_path_stripped", input: `C:\Users\clerk\memo.docx`, expected: "memo.docx"},
		{name: "symbols_dropped", input: "memo<>:\"|?*.txt", expected: "memo.txt"},
		{name: "empty_falls_back", input: "   ", expected: "document"},
		{name: "dots_only_fall_back", input: "..", expected: "document"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, SanitiseFileName(tc.input))
		})
	}
}

func TestSanitiseFileNameTruncates(t *testing.T) {
	long := strings.Repeat("a", 300) + ".pdf"
	got := SanitiseFileName(long)
	assert.Len(t, got, maxFileNameLength)
	assert.True(t, strings.HasSuffix(got, ".pdf"))
}

func TestBlobKey(t *testing.T) {
	at := time.Date(2026, 7, 3, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "documents/2026/07/att-1/annex_a.pdf", BlobKey(at, "att-1", "annex a.pdf"))
}

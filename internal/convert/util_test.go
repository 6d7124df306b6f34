package convert

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPdfName(t *testing.T) {
	tests := map[string]string{
		"/tmp/My Book (v2).pdf": "My Book _v2_",
		"a.b.pdf":               "a_b",
		"livre-été.pdf":         "livre-_t_",
		"plain":                 "plain",
	}
	for in, want := range tests {
		assert.Equal(t, want, PdfName(in), in)
	}
}

func TestParseMarker(t *testing.T) {
	tests := []struct {
		line string
		n    int
		ok   bool
	}{
		{"1", 1, true},
		{" 12 ", 12, true},
		{"\t999", 999, true},
		{"007", 7, true},
		{"0", 0, false},
		{"1000", 0, false},
		{"1a", 0, false},
		{"1.", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		n, ok := parseMarker(tt.line)
		assert.Equal(t, tt.ok, ok, "%q", tt.line)
		assert.Equal(t, tt.n, n, "%q", tt.line)
	}
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "", "c"}, splitLines("a  \r\nb\t\r\n\nc"))
}

func TestPaths(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "book", "histoire", "2.md"), chapterPath(filepath.Join("out", "book"), 2))
	assert.Equal(t, filepath.Join("out", "book", "sections", "17.md"), sectionPath(filepath.Join("out", "book"), 17))
	assert.Equal(t, "page_3_img_1.png", imageName(3, 1))
}

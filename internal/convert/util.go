package convert

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var nonNameChar = regexp.MustCompile(`[^A-Za-z0-9 _-]`)

// PdfName derives the output directory name from the source filename: the extension is stripped
// and every character outside [A-Za-z0-9 _-] becomes an underscore.
func PdfName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return nonNameChar.ReplaceAllString(base, "_")
}

// sectionMarker matches a line whose only content is a 1-3 digit section number.
var sectionMarker = regexp.MustCompile(`^\s*(\d{1,3})\s*$`)

// parseMarker returns the section number carried by line, if it is a section marker.
func parseMarker(line string) (int, bool) {
	m := sectionMarker.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// splitLines splits page text into lines with trailing whitespace removed.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimRight(ln, " \t\f\v")
	}
	return lines
}

func isBlank(line string) bool { return strings.TrimSpace(line) == "" }

const (
	sectionsDir = "sections"
	chaptersDir = "histoire"
	imagesDir   = "images"
	metadataDir = "metadata"
)

func chapterPath(root string, n int) string {
	return filepath.Join(root, chaptersDir, strconv.Itoa(n)+".md")
}

func sectionPath(root string, n int) string {
	return filepath.Join(root, sectionsDir, strconv.Itoa(n)+".md")
}

func imageName(page, index int) string {
	return "page_" + strconv.Itoa(page) + "_img_" + strconv.Itoa(index) + ".png"
}

package convert

import (
	"strconv"
	"strings"
)

// Segment groups adjacent lines of the same format tag into blocks. A blank line ends the
// current block, and every heading line starts a block of its own.
func Segment(lines []string, preSection bool) []FormattedBlock {
	var (
		out []FormattedBlock
		buf []string
		tag FormatTag
	)
	flush := func() {
		if len(buf) == 0 {
			return
		}
		out = append(out, FormattedBlock{
			Text:     strings.Join(buf, "\n"),
			Tag:      tag,
			Metadata: map[string]string{"lines": strconv.Itoa(len(buf))},
		})
		buf = nil
	}

	for _, ln := range lines {
		ln = strings.TrimRight(ln, " \t\r\f\v")
		if isBlank(ln) {
			flush()
			continue
		}
		t := Classify(ln, preSection)
		if len(buf) > 0 && (t != tag || t.isHeading()) {
			flush()
		}
		if len(buf) == 0 {
			tag = t
		}
		buf = append(buf, ln)
	}
	flush()
	return out
}

// SegmentText is Segment over the lines of text.
func SegmentText(text string, preSection bool) []FormattedBlock {
	if text == "" {
		return nil
	}
	return Segment(splitLines(text), preSection)
}

// joinBlocks concatenates block texts with a blank line between blocks; segmenting the result
// yields the same blocks again.
func joinBlocks(blocks []FormattedBlock) string {
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = b.Text
	}
	return strings.Join(parts, "\n\n")
}

package convert

import (
	"context"
	"strings"
)

// preSection is the front-matter region found before the first section marker.
type preSection struct {
	Text string
	// FirstSectionPage is the 0-based index of the page holding the first marker, or the page
	// count when the document has no marker at all.
	FirstSectionPage int
}

// partitionPreSection walks pages in order until the first section marker. Every non-blank line
// before the marker belongs to the pre-section text; the marker's page starts the numbered region.
func partitionPreSection(ctx context.Context, pages *pageReader) (preSection, error) {
	total := pages.numPages()
	var kept []string
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return preSection{}, err
		}
		lines, ok := pages.lines(i)
		if !ok {
			continue
		}
		for _, ln := range lines {
			if _, marker := parseMarker(ln); marker {
				return preSection{Text: strings.Join(kept, "\n"), FirstSectionPage: i}, nil
			}
			if !isBlank(ln) {
				kept = append(kept, ln)
			}
		}
	}
	return preSection{Text: strings.Join(kept, "\n"), FirstSectionPage: total}, nil
}

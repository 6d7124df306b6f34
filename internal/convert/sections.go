package convert

import (
	"context"
	"strings"
)

// assembleSections walks the numbered region from page index from. Each section marker starts a
// new section; the lines up to the next marker are its body. A section is stamped with the page
// its marker appeared on.
func assembleSections(ctx context.Context, pages *pageReader, from int, progress *progressTracker) ([]Section, error) {
	var (
		out       []Section
		number    int
		startPage int
		body      []string
	)
	finalize := func() {
		out = append(out, newNumberedSection(number, startPage, body))
		progress.setSections(len(out))
	}

	for i := from; i < pages.numPages(); i++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		progress.setPage(i + 1)
		lines, ok := pages.lines(i)
		if !ok {
			continue
		}
		for _, ln := range lines {
			if isBlank(ln) {
				continue
			}
			if n, marker := parseMarker(ln); marker {
				if number != 0 && len(body) > 0 {
					finalize()
				}
				number, startPage, body = n, i+1, nil
				continue
			}
			if number != 0 {
				body = append(body, ln)
			}
		}
	}
	// A marker closing the document still yields its (possibly empty) section.
	if number != 0 {
		finalize()
	}
	return out, nil
}

func newNumberedSection(number, page int, body []string) Section {
	content := strings.Join(body, "\n")
	return Section{
		Number:           number,
		PageNumber:       page,
		Content:          content,
		FormattedContent: SegmentText(content, false),
		IsChapter:        true,
		ChapterNumber:    number,
	}
}

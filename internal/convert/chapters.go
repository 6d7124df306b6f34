package convert

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-to-gamebook/internal/ai"
)

// chapterSplitter subdivides the pre-section text into chapters, asking the classifier about one
// block at a time in document order. Without a classifier a heading rule decides.
type chapterSplitter struct {
	classifier ai.ChapterClassifier
	log        *zap.Logger
}

func (s chapterSplitter) split(ctx context.Context, text string) ([]Section, error) {
	blocks := SegmentText(text, true)

	var (
		chapters []Section
		current  []FormattedBlock
		title    string
	)
	finalize := func() {
		n := len(chapters) + 1
		chapters = append(chapters, newChapter(n, title, current))
		current = nil
		title = ""
	}

	for _, b := range blocks {
		boundary, t, err := s.isBoundary(ctx, b, current)
		if err != nil {
			return nil, err
		}
		if boundary {
			if len(current) > 0 {
				finalize()
			}
			title = t
		}
		current = append(current, b)
	}
	if len(current) > 0 {
		finalize()
	}
	return chapters, nil
}

// isBoundary reports whether b opens a new chapter and, if so, the chapter's title.
// Only a cancelled context is an error; classifier failures count as "not a boundary".
func (s chapterSplitter) isBoundary(ctx context.Context, b FormattedBlock, current []FormattedBlock) (bool, string, error) {
	if s.classifier == nil {
		return headingBoundary(b, current)
	}
	v, err := s.classifier.ClassifyChapter(ctx, b.Text)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, "", ctxErr
		}
		s.log.Warn("chapter classifier unavailable, treating block as chapter text", zap.Error(err))
		return false, "", nil
	}
	if !v.IsBoundary() {
		return false, "", nil
	}
	return true, v.Title, nil
}

// headingBoundary is the deterministic rule: a header opens a chapter unless the chapter so far
// holds nothing but headers, in which case it joins that title cluster.
func headingBoundary(b FormattedBlock, current []FormattedBlock) (bool, string, error) {
	if b.Tag != Header || bareIntegerRe.MatchString(b.Text) {
		return false, "", nil
	}
	for _, c := range current {
		if c.Tag != Header {
			return true, strings.TrimSpace(b.Text), nil
		}
	}
	if len(current) == 0 {
		return true, strings.TrimSpace(b.Text), nil
	}
	return false, "", nil
}

func newChapter(n int, title string, blocks []FormattedBlock) Section {
	texts := make([]string, len(blocks))
	for i, b := range blocks {
		texts[i] = b.Text
	}
	return Section{
		Number:           n,
		Title:            title,
		PageNumber:       1,
		Content:          strings.Join(texts, "\n"),
		FormattedContent: blocks,
		IsChapter:        true,
		ChapterNumber:    n,
		PreSection:       true,
	}
}

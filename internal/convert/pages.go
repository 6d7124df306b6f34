package convert

import (
	"go.uber.org/zap"
)

// pageReader extracts page text on first use and remembers the result, so the partitioner and
// the assembler can both walk the same pages without extracting twice.
type pageReader struct {
	doc    Document
	log    *zap.Logger
	cache  map[int][]string
	failed map[int]error
}

func newPageReader(doc Document, log *zap.Logger) *pageReader {
	return &pageReader{
		doc:    doc,
		log:    log,
		cache:  make(map[int][]string),
		failed: make(map[int]error),
	}
}

func (r *pageReader) numPages() int { return r.doc.NumPages() }

// lines returns the lines of page i (0-based). ok is false for a page whose text could not be
// extracted; the failure is logged once and the page is skipped by every stage.
func (r *pageReader) lines(i int) (lines []string, ok bool) {
	if l, hit := r.cache[i]; hit {
		return l, true
	}
	if _, bad := r.failed[i]; bad {
		return nil, false
	}
	text, err := r.doc.PageText(i)
	if err != nil {
		perr := &PageExtractionError{Page: i + 1, Op: "text", Err: err}
		r.failed[i] = perr
		r.log.Warn("skipping unreadable page", zap.Int("page", i+1), zap.Error(perr))
		return nil, false
	}
	l := splitLines(text)
	r.cache[i] = l
	return l, true
}

// skipped returns the 1-based numbers of pages whose text extraction failed.
func (r *pageReader) skipped() []int {
	var out []int
	for i := 0; i < r.numPages(); i++ {
		if _, bad := r.failed[i]; bad {
			out = append(out, i+1)
		}
	}
	return out
}

package pdfsource

import (
	"math"
	"sort"
	"strings"

	lpdf "github.com/ledongthuc/pdf"
	rpdf "rsc.io/pdf"
)

// run is a piece of text drawn at a position on the page. Both PDF libraries report text as
// positioned glyphs; run is their common shape.
type run struct {
	x, y, w, size float64
	s             string
}

func rowsText(r *lpdf.Reader, pageNr int) (text string, err error) {
	defer recoverAs(&err, "extract text")
	p := r.Page(pageNr)
	if p.V.IsNull() {
		return "", errMissingPage
	}
	return strings.Join(rowLines(p.Content().Text), "\n"), nil
}

func glyphsText(r *rpdf.Reader, pageNr int) (text string, err error) {
	defer recoverAs(&err, "extract text")
	p := r.Page(pageNr)
	if p.V.IsNull() {
		return "", errMissingPage
	}
	return strings.Join(glyphLines(p.Content().Text), "\n"), nil
}

// rowLines buckets glyphs by integer baseline, the way ledongthuc's GetTextByRow groups rows,
// and returns the rows top to bottom, each read left to right.
func rowLines(texts []lpdf.Text) []string {
	rows := make(map[int64][]run)
	var keys []int64
	for _, t := range texts {
		k := int64(t.Y)
		if _, ok := rows[k]; !ok {
			keys = append(keys, k)
		}
		rows[k] = append(rows[k], run{x: t.X, y: t.Y, w: t.W, size: t.FontSize, s: t.S})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] > keys[j] })

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, joinRuns(rows[k]))
	}
	return out
}

// glyphLines rebuilds visual lines from positioned glyphs: glyphs sharing a baseline (within a
// fraction of the font size) form one line. Lines are returned top to bottom.
func glyphLines(texts []rpdf.Text) []string {
	sorted := make([]run, 0, len(texts))
	for _, t := range texts {
		sorted = append(sorted, run{x: t.X, y: t.Y, w: t.W, size: t.FontSize, s: t.S})
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].y != sorted[j].y {
			return sorted[i].y > sorted[j].y
		}
		return sorted[i].x < sorted[j].x
	})

	var lines [][]run
	var lineY, lineSize float64
	for _, g := range sorted {
		if n := len(lines); n > 0 && math.Abs(lineY-g.y) <= baselineTolerance(lineSize, g.size) {
			lines[n-1] = append(lines[n-1], g)
			continue
		}
		lines = append(lines, []run{g})
		lineY, lineSize = g.y, g.size
	}

	out := make([]string, 0, len(lines))
	for _, ln := range lines {
		out = append(out, joinRuns(ln))
	}
	return out
}

// joinRuns reads one line left to right. A horizontal gap wider than a fifth of the font size
// becomes a space.
func joinRuns(line []run) string {
	sort.SliceStable(line, func(i, j int) bool { return line[i].x < line[j].x })
	var sb strings.Builder
	for i, g := range line {
		if i > 0 {
			prev := line[i-1]
			if g.x-(prev.x+prev.w) > 0.2*math.Max(g.size, 1) &&
				!strings.HasSuffix(prev.s, " ") && !strings.HasPrefix(g.s, " ") {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(g.s)
	}
	return strings.TrimRight(sb.String(), " ")
}

func baselineTolerance(a, b float64) float64 {
	return 0.3 * math.Max(math.Max(a, b), 1)
}

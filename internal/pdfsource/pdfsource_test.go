package pdfsource

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
	lpdf "github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	rpdf "rsc.io/pdf"
)

// writeFixture renders one page per entry of pages, each line at its own baseline. When withImage
// is set, a 40x30 JPEG is drawn on the last page.
func writeFixture(t *testing.T, pages [][]string, withImage bool) string {
	t.Helper()
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	for i, lines := range pages {
		pdf.AddPage()
		for j, ln := range lines {
			pdf.Text(20, 30+float64(j)*10, ln)
		}
		if withImage && i == len(pages)-1 {
			opts := gofpdf.ImageOptions{ImageType: "JPG"}
			pdf.RegisterImageOptionsReader("plate", opts, bytes.NewReader(jpegFixture(t, 40, 30)))
			pdf.ImageOptions("plate", 20, 120, 40, 30, false, opts, 0, "")
		}
	}
	path := filepath.Join(t.TempDir(), "fixture.pdf")
	require.NoError(t, pdf.OutputFileAndClose(path))
	return path
}

func jpegFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: uint8(y * 8), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestOpenExtractsTextInReadingOrder(t *testing.T) {
	path := writeFixture(t, [][]string{
		{"THE DARK FORTRESS", "An introduction."},
		{"1", "You stand at the gate.", "Turn to 2."},
	}, false)

	for _, engine := range []Engine{EngineRows, EngineGlyphs} {
		t.Run(string(engine), func(t *testing.T) {
			doc, err := Open(path, Options{TextEngine: engine})
			require.NoError(t, err)
			defer doc.Close()

			assert.Equal(t, 2, doc.NumPages())

			first, err := doc.PageText(0)
			require.NoError(t, err)
			assert.Contains(t, first, "An introduction.")

			second, err := doc.PageText(1)
			require.NoError(t, err)
			lines := strings.Split(second, "\n")
			require.GreaterOrEqual(t, len(lines), 3)
			assert.Equal(t, "1", strings.TrimSpace(lines[0]))
			gate := strings.Index(second, "gate")
			turn := strings.Index(second, "Turn to 2.")
			assert.True(t, gate >= 0 && turn > gate, "lines out of order: %q", second)
		})
	}
}

func TestSeparatelyDrawnWordsKeepTheirSpaces(t *testing.T) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.AddPage()
	pdf.Text(20, 30, "Turn")
	pdf.Text(40, 30, "to")
	pdf.Text(55, 30, "42.")
	pdf.Text(20, 45, "The End")
	path := filepath.Join(t.TempDir(), "words.pdf")
	require.NoError(t, pdf.OutputFileAndClose(path))

	for _, engine := range []Engine{EngineRows, EngineGlyphs} {
		t.Run(string(engine), func(t *testing.T) {
			doc, err := Open(path, Options{TextEngine: engine})
			require.NoError(t, err)
			defer doc.Close()

			text, err := doc.PageText(0)
			require.NoError(t, err)
			assert.Equal(t, []string{"Turn to 42.", "The End"}, strings.Split(text, "\n"))
		})
	}
}

func TestPageTextRejectsOutOfRange(t *testing.T) {
	doc, err := Open(writeFixture(t, [][]string{{"only page"}}, false), Options{})
	require.NoError(t, err)
	defer doc.Close()

	_, err = doc.PageText(1)
	assert.Error(t, err)
	_, err = doc.PageImages(-1)
	assert.Error(t, err)
}

func TestPageImagesReturnsEmbeddedJPEG(t *testing.T) {
	doc, err := Open(writeFixture(t, [][]string{{"1", "A dragon."}}, true), Options{})
	require.NoError(t, err)
	defer doc.Close()

	imgs, err := doc.PageImages(0)
	require.NoError(t, err)
	require.Len(t, imgs, 1)
	assert.Equal(t, 40, imgs[0].Width)
	assert.Equal(t, 30, imgs[0].Height)

	decoded, _, err := image.Decode(bytes.NewReader(imgs[0].Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 30), decoded.Bounds())
}

func TestOpenRejectsUnknownEngine(t *testing.T) {
	_, err := Open(writeFixture(t, [][]string{{"x"}}, false), Options{TextEngine: "ocr"})
	assert.ErrorContains(t, err, "unknown text engine")
}

func TestOpenFailsOnGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\nnot really a pdf\n"), 0o644))

	core, logs := observer.New(zap.WarnLevel)
	_, err := Open(path, Options{Logger: zap.New(core)})
	assert.Error(t, err)
	assert.Zero(t, logs.Len())
}

func TestGlyphLines(t *testing.T) {
	glyph := func(s string, x, y, w float64) rpdf.Text {
		return rpdf.Text{S: s, X: x, Y: y, W: w, FontSize: 10}
	}
	tests := []struct {
		name   string
		glyphs []rpdf.Text
		want   []string
	}{
		{
			name: "top to bottom, left to right",
			glyphs: []rpdf.Text{
				glyph("b", 106, 700, 6), glyph("a", 100, 700, 6),
				glyph("c", 100, 680, 6),
			},
			want: []string{"ab", "c"},
		},
		{
			name: "gap becomes a space",
			glyphs: []rpdf.Text{
				glyph("o", 100, 700, 6), glyph("k", 120, 700, 6),
			},
			want: []string{"o k"},
		},
		{
			name: "baseline jitter stays on one line",
			glyphs: []rpdf.Text{
				glyph("x", 100, 700, 6), glyph("y", 106, 701.5, 6),
			},
			want: []string{"xy"},
		},
		{
			name:   "empty page",
			glyphs: nil,
			want:   []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, glyphLines(tt.glyphs))
		})
	}
}

func TestRowLines(t *testing.T) {
	glyph := func(s string, x, y, w float64) lpdf.Text {
		return lpdf.Text{S: s, X: x, Y: y, W: w, FontSize: 10}
	}
	tests := []struct {
		name   string
		glyphs []lpdf.Text
		want   []string
	}{
		{
			name: "rows top to bottom, runs left to right",
			glyphs: []lpdf.Text{
				glyph("c", 100, 680.2, 6),
				glyph("b", 106, 700.4, 6), glyph("a", 100, 700.9, 6),
			},
			want: []string{"ab", "c"},
		},
		{
			name: "separate words",
			glyphs: []lpdf.Text{
				glyph("Turn", 57, 700, 0), glyph("to", 113, 700, 0), glyph("42.", 156, 700, 0),
			},
			want: []string{"Turn to 42."},
		},
		{
			name: "literal spaces are not doubled",
			glyphs: []lpdf.Text{
				glyph("go ", 100, 700, 6), glyph("north", 130, 700, 6),
			},
			want: []string{"go north"},
		},
		{
			name:   "empty page",
			glyphs: nil,
			want:   []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rowLines(tt.glyphs))
		})
	}
}

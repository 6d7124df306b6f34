package convert

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fakeDoc is an in-memory Document. Pages listed in textErr or imageErr fail extraction.
type fakeDoc struct {
	pages    []string
	images   map[int][]RawImage
	textErr  map[int]bool
	imageErr map[int]bool
	closed   bool
}

var errBrokenPage = errors.New("broken content stream")

func (d *fakeDoc) NumPages() int { return len(d.pages) }

func (d *fakeDoc) PageText(i int) (string, error) {
	if d.textErr[i] {
		return "", errBrokenPage
	}
	return d.pages[i], nil
}

func (d *fakeDoc) PageImages(i int) ([]RawImage, error) {
	if d.imageErr[i] {
		return nil, errBrokenPage
	}
	return d.images[i], nil
}

func (d *fakeDoc) Close() error {
	d.closed = true
	return nil
}

func (d *fakeDoc) opener() Opener {
	return func(string) (Document, error) { return d, nil }
}

// pdfStub writes a file that sniffs as a PDF; its content is served by a fakeDoc.
func pdfStub(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n"), 0o644))
	return path
}

func observed(level zapcore.Level) (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return zap.New(core), logs
}

func testImage(w, h int, shade uint8) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: shade, G: uint8(x), B: uint8(y), A: 255})
		}
	}
	return img
}

func jpegRaw(t *testing.T, w, h int, shade uint8) RawImage {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(w, h, shade), nil))
	return RawImage{Data: buf.Bytes(), Width: w, Height: h, Format: "jpg"}
}

func pngRaw(t *testing.T, w, h int, shade uint8) RawImage {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(w, h, shade)))
	return RawImage{Data: buf.Bytes(), Width: w, Height: h, Format: "png"}
}

func tracker(total int) *progressTracker {
	return &progressTracker{p: &Progress{TotalPages: total}}
}

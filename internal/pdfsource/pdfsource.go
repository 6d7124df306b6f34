// Package pdfsource reads page text and embedded rasters out of PDF files.
//
// Text comes from one of two engines: "rows" (github.com/ledongthuc/pdf, groups text runs by
// baseline) or "glyphs" (rsc.io/pdf, rebuilds lines from positioned glyphs). Images come from
// pdfcpu and are returned encoded as stored in the file.
package pdfsource

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	lpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
	rpdf "rsc.io/pdf"

	"github.com/thywilljoshua/pdf-to-gamebook/internal/convert"
)

// Engine selects the text extraction backend.
type Engine string

const (
	EngineRows   Engine = "rows"
	EngineGlyphs Engine = "glyphs"
)

// Engines lists the accepted engine names.
func Engines() []string { return []string{string(EngineRows), string(EngineGlyphs)} }

type Options struct {
	TextEngine Engine
	Logger     *zap.Logger
}

// Document is an opened PDF. It satisfies convert.Document.
type Document struct {
	file   *os.File
	rows   *lpdf.Reader
	glyphs *rpdf.Reader
	images *model.Context
	pages  int
	log    *zap.Logger
}

var _ convert.Document = (*Document)(nil)

// Opener returns a convert.Opener bound to opts.
func Opener(opts Options) convert.Opener {
	return func(path string) (convert.Document, error) {
		return Open(path, opts)
	}
}

func Open(path string, opts Options) (*Document, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	d := &Document{log: log}

	var err error
	switch opts.TextEngine {
	case EngineRows, "":
		err = d.openRows(path)
	case EngineGlyphs:
		err = d.openGlyphs(path)
	default:
		return nil, fmt.Errorf("unknown text engine %q", opts.TextEngine)
	}
	if err != nil {
		return nil, err
	}

	ctx, err := readImageContext(path)
	if err != nil {
		log.Warn("image extraction disabled for document", zap.String("path", path), zap.Error(err))
	} else {
		d.images = ctx
	}
	return d, nil
}

func (d *Document) openRows(path string) (err error) {
	defer recoverAs(&err, "open pdf")
	f, r, err := lpdf.Open(path)
	if err != nil {
		return fmt.Errorf("open pdf %s: %w", path, err)
	}
	d.file, d.rows, d.pages = f, r, r.NumPage()
	return nil
}

func (d *Document) openGlyphs(path string) (err error) {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
		}
	}()
	defer recoverAs(&err, "open pdf")
	fi, err := f.Stat()
	if err != nil {
		return err
	}
	r, err := rpdf.NewReader(f, fi.Size())
	if err != nil {
		return fmt.Errorf("open pdf %s: %w", path, err)
	}
	d.file, d.glyphs, d.pages = f, r, r.NumPage()
	return nil
}

func readImageContext(path string) (*model.Context, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	return ctx, nil
}

func (d *Document) NumPages() int { return d.pages }

// PageText returns the text of page i (0-based), one visual line per text line.
func (d *Document) PageText(i int) (string, error) {
	if i < 0 || i >= d.pages {
		return "", fmt.Errorf("page index %d out of range", i)
	}
	if d.rows != nil {
		return rowsText(d.rows, i+1)
	}
	return glyphsText(d.glyphs, i+1)
}

// PageImages returns the rasters drawn on page i (0-based) in object-number order.
func (d *Document) PageImages(i int) (imgs []convert.RawImage, err error) {
	if i < 0 || i >= d.pages {
		return nil, fmt.Errorf("page index %d out of range", i)
	}
	if d.images == nil {
		return nil, nil
	}
	defer recoverAs(&err, "extract images")

	found, err := pdfcpu.ExtractPageImages(d.images, i+1, false)
	if err != nil {
		return nil, err
	}
	objNrs := make([]int, 0, len(found))
	for nr := range found {
		objNrs = append(objNrs, nr)
	}
	sort.Ints(objNrs)

	for _, nr := range objNrs {
		img := found[nr]
		if img.Reader == nil {
			continue
		}
		data, err := io.ReadAll(img)
		if err != nil {
			return imgs, fmt.Errorf("read image object %d: %w", nr, err)
		}
		imgs = append(imgs, convert.RawImage{
			Data:   data,
			Width:  img.Width,
			Height: img.Height,
			Format: img.FileType,
		})
	}
	return imgs, nil
}

func (d *Document) Close() error {
	d.images = nil
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

// recoverAs turns a panic raised by a PDF library into an error.
func recoverAs(err *error, op string) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s: %v", op, r)
	}
}

var errMissingPage = errors.New("page object missing")

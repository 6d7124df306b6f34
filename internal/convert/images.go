package convert

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2s"
	_ "golang.org/x/image/tiff"
)

// imageCollector extracts every page's rasters, drops byte-identical repeats and stores the rest
// as PNG under images/.
type imageCollector struct {
	doc      Document
	persist  *persister
	log      *zap.Logger
	root     string
	pdfName  string
	sections []Section
	seen     map[[blake2s.Size]byte]struct{}
}

func (c *imageCollector) collect(ctx context.Context, progress *progressTracker) ([]PdfImage, error) {
	if c.seen == nil {
		c.seen = make(map[[blake2s.Size]byte]struct{})
	}
	out := []PdfImage{}
	for p := 0; p < c.doc.NumPages(); p++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		progress.setPage(p + 1)
		raws, err := c.doc.PageImages(p)
		if err != nil {
			perr := &PageExtractionError{Page: p + 1, Op: "images", Err: err}
			c.log.Warn("skipping page images", zap.Int("page", p+1), zap.Error(perr))
			continue
		}
		for i, raw := range raws {
			img, ok, err := c.store(p, i, raw)
			if err != nil {
				return out, err
			}
			if ok {
				out = append(out, img)
				progress.setImages(len(out))
			}
		}
	}
	return out, nil
}

// store persists one raster; ok is false for duplicates and undecodable images.
func (c *imageCollector) store(page, index int, raw RawImage) (PdfImage, bool, error) {
	sum := blake2s.Sum256(raw.Data)
	if _, dup := c.seen[sum]; dup {
		c.log.Debug("skipping duplicate image", zap.Int("page", page+1), zap.Int("index", index+1))
		return PdfImage{}, false, nil
	}
	decoded, err := decodeImage(raw)
	if err != nil {
		c.log.Warn("skipping undecodable image",
			zap.Int("page", page+1),
			zap.Int("index", index+1),
			zap.String("format", raw.Format),
			zap.Error(err))
		return PdfImage{}, false, nil
	}
	c.seen[sum] = struct{}{}

	path := filepath.Join(c.root, imagesDir, imageName(page+1, index+1))
	if _, err := c.persist.writeImage(path, decoded); err != nil {
		return PdfImage{}, false, err
	}
	b := decoded.Bounds()
	if raw.Width > 0 && raw.Height > 0 && (raw.Width != b.Dx() || raw.Height != b.Dy()) {
		c.log.Debug("decoded size differs from declared size",
			zap.String("path", path),
			zap.Int("declared_width", raw.Width),
			zap.Int("declared_height", raw.Height))
	}
	return PdfImage{
		PageNumber:    page + 1,
		FilePath:      path,
		Width:         b.Dx(),
		Height:        b.Dy(),
		PdfName:       c.pdfName,
		SectionNumber: sectionForPage(c.sections, page+1),
	}, true, nil
}

func decodeImage(raw RawImage) (image.Image, error) {
	if len(raw.Data) == 0 {
		return nil, fmt.Errorf("empty %s image", raw.Format)
	}
	img, _, err := image.Decode(bytes.NewReader(raw.Data))
	if err != nil {
		return nil, fmt.Errorf("decode %s image: %w", raw.Format, err)
	}
	return img, nil
}

// sectionForPage returns the number of the numbered section with the largest start page not after
// page, the first one on ties. Pages before the numbered region have no section.
func sectionForPage(sections []Section, page int) *int {
	var best *Section
	for i := range sections {
		s := &sections[i]
		if s.PreSection || s.PageNumber > page {
			continue
		}
		if best == nil || s.PageNumber > best.PageNumber {
			best = s
		}
	}
	if best == nil {
		return nil
	}
	n := best.ChapterNumber
	return &n
}

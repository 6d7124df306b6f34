package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// Run converts the gamebook PDF at pdfPath into <OutDir>/<pdf_name>/. The returned ProcessedPdf
// is populated as far as the run got; callers read Progress.Status to tell success from failure.
func Run(ctx context.Context, pdfPath string, cfg Config) (*ProcessedPdf, error) {
	cfg.defaults()
	name := PdfName(pdfPath)
	res := &ProcessedPdf{
		PdfName:  name,
		BasePath: cfg.OutDir,
		Sections: []Section{},
		Images:   []PdfImage{},
		Progress: Progress{Status: StatusNotStarted},
	}
	progress := &progressTracker{p: &res.Progress, observer: cfg.OnProgress}
	log := cfg.Logger.With(zap.String("pdf", name))

	if cfg.Open == nil {
		err := errors.New("convert: no PDF opener configured")
		progress.fail(err)
		return res, err
	}
	doc, err := openInput(pdfPath, cfg.Open)
	if err != nil {
		progress.fail(err)
		log.Error("rejecting input", zap.Error(err))
		return res, err
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			log.Warn("closing pdf", zap.Error(cerr))
		}
	}()

	r := &run{
		cfg:      cfg,
		log:      log,
		root:     filepath.Join(cfg.OutDir, name),
		doc:      doc,
		res:      res,
		progress: progress,
		persist:  newPersister(cfg.Fs, log),
	}
	if err := r.execute(ctx); err != nil {
		progress.fail(err)
		if _, werr := r.persist.writeJSON(r.progressPath(), progressFor(res)); werr != nil {
			log.Warn("could not record failed progress", zap.Error(werr))
		}
		log.Error("conversion failed", zap.Error(err))
		return res, err
	}
	return res, nil
}

// openInput rejects missing, non-PDF and empty inputs before anything is written.
func openInput(path string, open Opener) (Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &InputError{Path: path, Err: errors.New("is a directory")}
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	if !mt.Is("application/pdf") {
		return nil, &InputError{Path: path, Err: fmt.Errorf("not a PDF (detected %s)", mt.String())}
	}
	doc, err := open(path)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	if doc.NumPages() == 0 {
		_ = doc.Close()
		return nil, &InputError{Path: path, Err: errors.New("document has no pages")}
	}
	return doc, nil
}

// run carries the state of one conversion; stages execute strictly in sequence.
type run struct {
	cfg      Config
	log      *zap.Logger
	root     string
	doc      Document
	res      *ProcessedPdf
	progress *progressTracker
	persist  *persister
}

func (r *run) progressPath() string { return filepath.Join(r.root, metadataDir, "progress.json") }

func (r *run) execute(ctx context.Context) error {
	total := r.doc.NumPages()
	r.res.Progress.TotalPages = total
	r.progress.setStatus(StatusInitializing)
	if err := r.persist.ensureLayout(r.root); err != nil {
		return err
	}

	r.progress.setStatus(StatusExtractingSections)
	if err := r.extractSections(ctx); err != nil {
		return err
	}

	r.progress.setStatus(StatusExtractingImages)
	collector := &imageCollector{
		doc:      r.doc,
		persist:  r.persist,
		log:      r.log,
		root:     r.root,
		pdfName:  r.res.PdfName,
		sections: r.res.Sections,
	}
	images, err := collector.collect(ctx, r.progress)
	r.res.Images = images
	if err != nil {
		return err
	}
	r.log.Info("images extracted", zap.Int("images", len(images)))

	r.progress.setStatus(StatusSavingMetadata)
	return r.saveMetadata(total)
}

func (r *run) extractSections(ctx context.Context) error {
	pages := newPageReader(r.doc, r.log)
	pre, err := partitionPreSection(ctx, pages)
	if err != nil {
		return err
	}
	r.log.Debug("pre-section partitioned",
		zap.Int("first_section_page", pre.FirstSectionPage+1),
		zap.Int("pre_section_bytes", len(pre.Text)))

	chapters, err := chapterSplitter{classifier: r.cfg.Classifier, log: r.log}.split(ctx, pre.Text)
	if err != nil {
		return err
	}
	numbered, err := assembleSections(ctx, pages, pre.FirstSectionPage, r.progress)
	if err != nil {
		return err
	}

	for i := range chapters {
		chapters[i].PdfName = r.res.PdfName
		chapters[i].FilePath = chapterPath(r.root, chapters[i].ChapterNumber)
	}
	seen := make(map[int]int, len(numbered))
	for i := range numbered {
		numbered[i].PdfName = r.res.PdfName
		numbered[i].FilePath = sectionPath(r.root, numbered[i].ChapterNumber)
		if page, dup := seen[numbered[i].Number]; dup {
			r.log.Warn("duplicate section number, later section overwrites the earlier file; "+
				"processed_sections counts both, section_counts.files counts the file once",
				zap.Int("section", numbered[i].Number),
				zap.Int("first_page", page),
				zap.Int("page", numbered[i].PageNumber))
		}
		seen[numbered[i].Number] = numbered[i].PageNumber
	}
	r.res.Sections = append(append(make([]Section, 0, len(chapters)+len(numbered)), chapters...), numbered...)

	written := 0
	for _, s := range r.res.Sections {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := r.persist.writeSection(s)
		if err != nil {
			return err
		}
		if ok {
			written++
		}
	}
	r.log.Info("sections extracted",
		zap.Int("chapters", len(chapters)),
		zap.Int("sections", len(numbered)),
		zap.Int("files_written", written),
		zap.Ints("skipped_pages", pages.skipped()))
	return nil
}

func (r *run) saveMetadata(total int) error {
	m := buildManifests(r.res, r.root)
	if err := m.validate(total); err != nil {
		return err
	}
	dir := filepath.Join(r.root, metadataDir)
	if _, err := r.persist.writeJSON(filepath.Join(dir, "sections.json"), m.Sections); err != nil {
		return err
	}
	if _, err := r.persist.writeJSON(filepath.Join(dir, "images.json"), m.Images); err != nil {
		return err
	}
	if _, err := r.persist.writeJSON(filepath.Join(dir, "book.json"), m.Book); err != nil {
		return err
	}

	r.res.Progress.CurrentPage = total
	r.progress.setStatus(StatusCompleted)
	if _, err := r.persist.writeJSON(r.progressPath(), progressFor(r.res)); err != nil {
		return err
	}
	r.log.Info("conversion completed",
		zap.Int("sections", len(r.res.Sections)),
		zap.Int("images", len(r.res.Images)))
	return nil
}

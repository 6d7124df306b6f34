package convert

import (
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-to-gamebook/internal/ai"
)

// FormatTag is the style of a line or block of text.
type FormatTag int

const (
	Paragraph FormatTag = iota
	Header
	Subheader
	ListItem
	Quote
	Code
)

var formatTagNames = [...]string{"paragraph", "header", "subheader", "list_item", "quote", "code"}

func (t FormatTag) String() string {
	if int(t) < 0 || int(t) >= len(formatTagNames) {
		return "unknown"
	}
	return formatTagNames[t]
}

func (t FormatTag) isHeading() bool { return t == Header || t == Subheader }

// FormattedBlock is a maximal run of adjacent lines sharing one tag.
type FormattedBlock struct {
	Text     string            `json:"text"`
	Tag      FormatTag         `json:"tag"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Section is one unit of output prose: a front-matter chapter or a numbered gamebook section.
type Section struct {
	Number           int              `json:"number"`
	Title            string           `json:"title,omitempty"`
	PageNumber       int              `json:"page_number"`
	Content          string           `json:"content"`
	FormattedContent []FormattedBlock `json:"formatted_content"`
	IsChapter        bool             `json:"is_chapter"`
	ChapterNumber    int              `json:"chapter_number"`
	PdfName          string           `json:"pdf_name"`
	FilePath         string           `json:"file_path"`
	// PreSection marks chapters stored under histoire/.
	PreSection bool `json:"-"`
}

// PdfImage is an extracted raster persisted under images/.
type PdfImage struct {
	PageNumber    int    `json:"page_number"`
	FilePath      string `json:"file_path"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	PdfName       string `json:"pdf_name"`
	SectionNumber *int   `json:"section_number"`
}

// Status is the lifecycle state of a run.
type Status string

const (
	StatusNotStarted         Status = "not_started"
	StatusInitializing       Status = "initializing"
	StatusExtractingSections Status = "extracting_sections"
	StatusExtractingImages   Status = "extracting_images"
	StatusSavingMetadata     Status = "saving_metadata"
	StatusCompleted          Status = "completed"
	StatusFailed             Status = "failed"
)

// Progress is the observable state of a run.
type Progress struct {
	Status            Status `json:"status"`
	CurrentPage       int    `json:"current_page"`
	TotalPages        int    `json:"total_pages"`
	ProcessedSections int    `json:"processed_sections"`
	ProcessedImages   int    `json:"processed_images"`
	ErrorMessage      string `json:"error_message,omitempty"`
}

// ProcessedPdf is the aggregate result of one run.
type ProcessedPdf struct {
	PdfName  string     `json:"pdf_name"`
	BasePath string     `json:"base_path"`
	Sections []Section  `json:"sections"`
	Images   []PdfImage `json:"images"`
	Progress Progress   `json:"progress"`
}

// Chapters returns the pre-section chapters in order.
func (p *ProcessedPdf) Chapters() []Section {
	var out []Section
	for _, s := range p.Sections {
		if s.PreSection {
			out = append(out, s)
		}
	}
	return out
}

// NumberedSections returns the gamebook sections in marker order.
func (p *ProcessedPdf) NumberedSections() []Section {
	var out []Section
	for _, s := range p.Sections {
		if !s.PreSection {
			out = append(out, s)
		}
	}
	return out
}

// RawImage is an image as stored in the PDF, before decoding.
type RawImage struct {
	Data   []byte
	Width  int
	Height int
	Format string
}

// Document is an opened PDF. Page indices are 0-based.
type Document interface {
	NumPages() int
	PageText(i int) (string, error)
	PageImages(i int) ([]RawImage, error)
	Close() error
}

// Opener opens the PDF at path.
type Opener func(path string) (Document, error)

type Config struct {
	// OutDir is the base directory; each run writes to OutDir/<pdf_name>/.
	OutDir string
	Open   Opener
	// Classifier is optional; nil selects the deterministic heading rule.
	Classifier ai.ChapterClassifier
	Fs         afero.Fs
	Logger     *zap.Logger
	OnProgress func(Progress)
}

func (c *Config) defaults() {
	if c.OutDir == "" {
		c.OutDir = "."
	}
	if c.Fs == nil {
		c.Fs = afero.NewOsFs()
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// progressTracker updates the run's Progress in place and notifies the observer on change.
type progressTracker struct {
	p        *Progress
	observer func(Progress)
}

func (t *progressTracker) notify() {
	if t.observer != nil {
		t.observer(*t.p)
	}
}

func (t *progressTracker) setStatus(s Status) {
	t.p.Status = s
	t.notify()
}

func (t *progressTracker) setPage(page int) {
	if page > t.p.TotalPages {
		page = t.p.TotalPages
	}
	t.p.CurrentPage = page
	t.notify()
}

func (t *progressTracker) setSections(n int) {
	t.p.ProcessedSections = n
	t.notify()
}

func (t *progressTracker) setImages(n int) {
	t.p.ProcessedImages = n
	t.notify()
}

func (t *progressTracker) fail(err error) {
	t.p.Status = StatusFailed
	t.p.ErrorMessage = err.Error()
	t.notify()
}

package convert

import (
	"fmt"
	"path/filepath"
)

type bookManifest struct {
	Title         string        `json:"title"`
	TotalSections int           `json:"total_sections"`
	TotalImages   int           `json:"total_images"`
	Sections      []bookSection `json:"sections"`
	BasePath      string        `json:"base_path"`
}

type bookSection struct {
	Number     int    `json:"number"`
	PageNumber int    `json:"page_number"`
	FilePath   string `json:"file_path"`
}

type sectionsManifest struct {
	Sections             []sectionEntry `json:"sections"`
	TotalSections        int            `json:"total_sections"`
	PreSectionCount      int            `json:"pre_section_count"`
	NumberedSectionCount int            `json:"numbered_section_count"`
}

type sectionEntry struct {
	SectionNumber int     `json:"section_number"`
	ChapterNumber int     `json:"chapter_number"`
	FilePath      string  `json:"file_path"`
	PdfName       string  `json:"pdf_name"`
	PageNumber    int     `json:"page_number"`
	IsChapter     bool    `json:"is_chapter"`
	Title         *string `json:"title"`
	Region        string  `json:"region"`
}

type progressManifest struct {
	Progress
	SectionCounts sectionCounts `json:"section_counts"`
}

type sectionCounts struct {
	PreSection int `json:"pre_section"`
	Numbered   int `json:"numbered"`
	Total      int `json:"total"`
	// Files is the number of distinct section files; repeated section numbers share one.
	Files int `json:"files"`
}

type imageEntry struct {
	PageNumber    int    `json:"page_number"`
	ImagePath     string `json:"image_path"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Filename      string `json:"filename"`
	SectionNumber *int   `json:"section_number"`
}

// manifests is everything written under metadata/.
type manifests struct {
	Book     bookManifest
	Sections sectionsManifest
	Images   []imageEntry
}

func buildManifests(res *ProcessedPdf, root string) manifests {
	var m manifests

	chapters := res.Chapters()
	numbered := res.NumberedSections()

	m.Sections.Sections = make([]sectionEntry, 0, len(res.Sections))
	m.Book.Sections = make([]bookSection, 0, len(res.Sections))
	for _, s := range res.Sections {
		rel := relPath(root, s.FilePath)
		region := sectionsDir
		if s.PreSection {
			region = chaptersDir
		}
		var title *string
		if s.Title != "" {
			t := s.Title
			title = &t
		}
		m.Sections.Sections = append(m.Sections.Sections, sectionEntry{
			SectionNumber: s.Number,
			ChapterNumber: s.ChapterNumber,
			FilePath:      rel,
			PdfName:       s.PdfName,
			PageNumber:    s.PageNumber,
			IsChapter:     s.IsChapter,
			Title:         title,
			Region:        region,
		})
		m.Book.Sections = append(m.Book.Sections, bookSection{
			Number:     s.Number,
			PageNumber: s.PageNumber,
			FilePath:   rel,
		})
	}
	m.Sections.PreSectionCount = len(chapters)
	m.Sections.NumberedSectionCount = len(numbered)
	m.Sections.TotalSections = len(res.Sections)

	m.Images = make([]imageEntry, 0, len(res.Images))
	for _, img := range res.Images {
		m.Images = append(m.Images, imageEntry{
			PageNumber:    img.PageNumber,
			ImagePath:     relPath(root, img.FilePath),
			Width:         img.Width,
			Height:        img.Height,
			Filename:      filepath.Base(img.FilePath),
			SectionNumber: img.SectionNumber,
		})
	}

	m.Book.Title = res.PdfName
	if len(chapters) > 0 && chapters[0].Title != "" {
		m.Book.Title = chapters[0].Title
	}
	m.Book.TotalSections = len(res.Sections)
	m.Book.TotalImages = len(res.Images)
	m.Book.BasePath = res.BasePath
	return m
}

func progressFor(res *ProcessedPdf) progressManifest {
	pre := len(res.Chapters())
	files := make(map[string]struct{}, len(res.Sections))
	for _, s := range res.Sections {
		files[s.FilePath] = struct{}{}
	}
	return progressManifest{
		Progress: res.Progress,
		SectionCounts: sectionCounts{
			PreSection: pre,
			Numbered:   len(res.Sections) - pre,
			Total:      len(res.Sections),
			Files:      len(files),
		},
	}
}

// validate checks the manifests against the book's invariants.
func (m manifests) validate(totalPages int) error {
	var problems []string
	add := func(format string, args ...any) { problems = append(problems, fmt.Sprintf(format, args...)) }

	s := m.Sections
	if s.PreSectionCount+s.NumberedSectionCount != s.TotalSections {
		add("pre_section_count %d + numbered_section_count %d != total_sections %d",
			s.PreSectionCount, s.NumberedSectionCount, s.TotalSections)
	}
	if len(s.Sections) != s.TotalSections {
		add("sections.json lists %d entries, total_sections is %d", len(s.Sections), s.TotalSections)
	}

	numbered := make(map[int]bool)
	nextChapter := 1
	for i, e := range s.Sections {
		if e.FilePath == "" {
			add("section entry %d has no file_path", i)
		}
		if e.PdfName == "" {
			add("section entry %d has no pdf_name", i)
		}
		if e.SectionNumber < 1 || e.ChapterNumber < 1 {
			add("section entry %d has number %d/%d, want >= 1", i, e.SectionNumber, e.ChapterNumber)
		}
		switch e.Region {
		case chaptersDir:
			if e.PageNumber != 1 {
				add("chapter %d has page_number %d, want 1", e.ChapterNumber, e.PageNumber)
			}
			if e.ChapterNumber != nextChapter {
				add("chapter numbers are not dense: got %d, want %d", e.ChapterNumber, nextChapter)
			}
			nextChapter++
		default:
			if e.PageNumber < 1 || e.PageNumber > totalPages {
				add("section %d has page_number %d outside 1..%d", e.ChapterNumber, e.PageNumber, totalPages)
			}
			numbered[e.ChapterNumber] = true
		}
	}

	if m.Book.TotalSections != s.TotalSections || m.Book.TotalImages != len(m.Images) {
		add("book.json totals disagree with sections.json/images.json")
	}

	for i, img := range m.Images {
		if img.ImagePath == "" || img.Filename == "" {
			add("image entry %d has no path", i)
		}
		if img.Width <= 0 || img.Height <= 0 {
			add("image %s has size %dx%d", img.Filename, img.Width, img.Height)
		}
		if img.SectionNumber != nil && !numbered[*img.SectionNumber] {
			add("image %s references unknown section %d", img.Filename, *img.SectionNumber)
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

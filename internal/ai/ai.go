package ai

import (
	"context"
	"fmt"
)

// VerdictKind tags the answer of a chapter classifier.
type VerdictKind int

const (
	Unknown VerdictKind = iota
	NotBoundary
	Boundary
)

func (k VerdictKind) String() string {
	switch k {
	case NotBoundary:
		return "not_boundary"
	case Boundary:
		return "boundary"
	default:
		return "unknown"
	}
}

// Verdict is the answer to "does this block open a new chapter?".
// Title is only meaningful for Boundary and may be empty.
type Verdict struct {
	Kind  VerdictKind `json:"kind"`
	Title string      `json:"title,omitempty"`
}

func BoundaryVerdict(title string) Verdict { return Verdict{Kind: Boundary, Title: title} }

func NotBoundaryVerdict() Verdict { return Verdict{Kind: NotBoundary} }

func (v Verdict) IsBoundary() bool { return v.Kind == Boundary }

// ChapterClassifier decides whether a block of front-matter text starts a chapter.
// Implementations perform network I/O and may fail; failures are never fatal to a run.
type ChapterClassifier interface {
	ClassifyChapter(ctx context.Context, text string) (Verdict, error)
}

// ClassifierFunc adapts a plain function to ChapterClassifier.
type ClassifierFunc func(ctx context.Context, text string) (Verdict, error)

func (f ClassifierFunc) ClassifyChapter(ctx context.Context, text string) (Verdict, error) {
	return f(ctx, text)
}

// ClassifierError reports a classifier that could not produce a verdict.
type ClassifierError struct {
	Attempts int
	Err      error
}

func (e *ClassifierError) Error() string {
	return fmt.Sprintf("chapter classifier failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *ClassifierError) Unwrap() error { return e.Err }

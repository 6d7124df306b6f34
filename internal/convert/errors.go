package convert

import (
	"fmt"
	"strings"
)

// InputError reports an unusable source document. No output is created for it.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string { return fmt.Sprintf("input %s: %v", e.Path, e.Err) }

func (e *InputError) Unwrap() error { return e.Err }

// PageExtractionError reports a single page that could not be read. It is recovered locally.
type PageExtractionError struct {
	Page int // 1-based
	Op   string
	Err  error
}

func (e *PageExtractionError) Error() string {
	return fmt.Sprintf("page %d: extract %s: %v", e.Page, e.Op, e.Err)
}

func (e *PageExtractionError) Unwrap() error { return e.Err }

// PersistenceError reports a failed write of a section, image or manifest.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("persist %s: %v", e.Path, e.Err) }

func (e *PersistenceError) Unwrap() error { return e.Err }

// ValidationError lists the manifest invariants violated at the end of a run.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "manifest validation failed: " + strings.Join(e.Problems, "; ")
}

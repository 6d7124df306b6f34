package convert

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	ruleRe        = regexp.MustCompile(`^[-—=*]{3,}$`)
	bareIntegerRe = regexp.MustCompile(`^\s*\d+\s*$`)
	capsLeadRe    = regexp.MustCompile(`^[A-Z][^a-z]{0,2}[A-Z].*$`)
	shortTitleRe  = regexp.MustCompile(`^[A-Z][a-zA-Z ]{0,50}$`)
	bulletRe      = regexp.MustCompile(`^\s*[-•*]\s+`)
	numberedRe    = regexp.MustCompile(`^\s*\d+\.\s+`)
	sentenceRe    = regexp.MustCompile(`^[A-Z][^.!?]*[.!?\s]*$`)
	attributionRe = regexp.MustCompile(`^(?:[Bb]y|[Ww]ritten by|[Tt]ranslated by)\s+[A-Z]`)
	allCapsRe     = regexp.MustCompile(`^[A-Z ]+$`)
)

// Classify returns the format tag of a line or block. preSection selects the front-matter rules,
// where layout cues (centering, capitals) decide headings and bare integers are plain text.
func Classify(text string, preSection bool) FormatTag {
	text = strings.TrimRight(text, " \t\r\n\f\v")
	if text == "" {
		return Paragraph
	}
	if ruleRe.MatchString(text) {
		return Header
	}
	if !preSection && bareIntegerRe.MatchString(text) {
		return Header
	}
	if preSection && isCentered(text) {
		if attributionRe.MatchString(strings.TrimSpace(text)) {
			// bylines read as body text under the title
			return Paragraph
		}
		trimmed := strings.TrimSpace(text)
		if isUpper(trimmed) || (isTitle(trimmed) && len(strings.Fields(trimmed)) <= 5) {
			return Header
		}
		return Subheader
	}
	if capsLeadRe.MatchString(text) || shortTitleRe.MatchString(text) {
		return Header
	}
	if bulletRe.MatchString(text) || numberedRe.MatchString(text) {
		return ListItem
	}
	if strings.HasPrefix(text, "    ") || strings.HasPrefix(text, "\t") {
		return Code
	}
	if strings.HasPrefix(text, ">") || (len(text) >= 2 && strings.HasPrefix(text, `"`) && strings.HasSuffix(text, `"`)) {
		return Quote
	}
	return Paragraph
}

// isCentered guesses whether a front-matter line was laid out as a centered title.
func isCentered(text string) bool {
	n := utf8.RuneCountInString(text)
	if n > 100 {
		return false
	}
	trimmed := strings.TrimSpace(text)
	switch {
	case isUpper(trimmed):
		return true
	case isTitle(trimmed) && len(strings.Fields(trimmed)) <= 7:
		return true
	case strings.HasPrefix(text, " ") || strings.HasPrefix(text, "\t"):
		return true
	case len(trimmed) >= 2 && strings.HasPrefix(trimmed, "*") && strings.HasSuffix(trimmed, "*"):
		return true
	case ruleRe.MatchString(trimmed):
		return true
	case n < 60 && sentenceRe.MatchString(trimmed):
		return true
	case attributionRe.MatchString(trimmed):
		return true
	case n < 50 && allCapsRe.MatchString(trimmed):
		return true
	}
	return false
}

// isUpper reports whether s has at least one cased letter and no lowercase ones.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}

// isTitle reports whether every word starts with an uppercase letter followed only by
// lowercase ones, with at least one cased letter overall.
func isTitle(s string) bool {
	cased := false
	prevCased := false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			if prevCased {
				return false
			}
			prevCased = true
			cased = true
		case unicode.IsLower(r):
			if !prevCased {
				return false
			}
			prevCased = true
			cased = true
		default:
			prevCased = false
		}
	}
	return cased
}

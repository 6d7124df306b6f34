package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxPromptRunes = 2000

const chapterPrompt = `You are segmenting the front matter of a gamebook (title page, rules, introduction, background story).
Decide whether the text block below starts a NEW chapter of that front matter.
Return ONLY a JSON object, no markdown code blocks, no explanations:
{"is_chapter": true|false, "title": "chapter title or null"}

Rules:
- is_chapter is true only if this block is the heading or first line of a new chapter.
- title is the chapter title as written in the block, or null when none is visible.

Block:
`

// chapterPromptFor builds the classifier prompt for one block of text.
func chapterPromptFor(text string) string {
	return chapterPrompt + truncateRunes(strings.TrimSpace(text), maxPromptRunes)
}

type verdictJSON struct {
	IsChapter *bool   `json:"is_chapter"`
	Title     *string `json:"title"`
}

// parseVerdict decodes a model answer. Anything that is not the expected JSON object is an error
// so the caller's retry policy gets a chance to ask again.
func parseVerdict(raw string) (Verdict, error) {
	js := stripCodeFences(raw)
	if js == "" {
		return Verdict{}, errors.New("empty classifier response")
	}
	var out verdictJSON
	if err := json.Unmarshal([]byte(js), &out); err != nil {
		s := findFirstJSON(js)
		if s == "" {
			return Verdict{}, fmt.Errorf("no JSON object in classifier response: %w", err)
		}
		if err2 := json.Unmarshal([]byte(s), &out); err2 != nil {
			return Verdict{}, fmt.Errorf("decode classifier response: %w", err2)
		}
	}
	if out.IsChapter == nil {
		return Verdict{}, errors.New("classifier response is missing is_chapter")
	}
	if !*out.IsChapter {
		return NotBoundaryVerdict(), nil
	}
	title := ""
	if out.Title != nil {
		title = strings.TrimSpace(*out.Title)
	}
	if strings.EqualFold(title, "null") {
		title = ""
	}
	return BoundaryVerdict(title), nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.Index(s, "\n"); nl != -1 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}

// findFirstJSON returns the first balanced {...} span of s.
func findFirstJSON(s string) string {
	start := -1
	depth := 0
	for i, r := range s {
		switch r {
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			if start != -1 {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

package convert

import (
	"regexp"
	"strings"
)

var (
	bulletPrefixRe = regexp.MustCompile(`^\s*[-•*]\s+`)
	numberedItemRe = regexp.MustCompile(`^\s*(\d+)\.\s+(.*)$`)
	quotePrefixRe  = regexp.MustCompile(`^\s*>\s?`)
)

// renderMarkdown turns a section into the markdown stored on disk. Lines carry no trailing
// whitespace and the document ends with exactly one newline.
func renderMarkdown(s Section) string {
	blocks := s.FormattedContent
	if len(blocks) == 0 && s.Content != "" {
		blocks = SegmentText(s.Content, s.PreSection)
	}

	var parts []string
	title := strings.TrimSpace(s.Title)
	if title != "" {
		parts = append(parts, "# "+title)
		// the opening header usually is the title itself
		if len(blocks) > 0 && strings.TrimSpace(blocks[0].Text) == title {
			blocks = blocks[1:]
		}
	}
	for _, b := range blocks {
		if md := renderBlock(b); md != "" {
			parts = append(parts, md)
		}
	}
	return finishMarkdown(strings.Join(parts, "\n\n"))
}

func renderBlock(b FormattedBlock) string {
	lines := strings.Split(b.Text, "\n")
	switch b.Tag {
	case Header:
		return "## " + joinTrimmed(lines, " ")
	case Subheader:
		return "### " + joinTrimmed(lines, " ")
	case ListItem:
		out := make([]string, 0, len(lines))
		for _, ln := range lines {
			// numbered items stay an ordered list
			if m := numberedItemRe.FindStringSubmatch(ln); m != nil {
				out = append(out, m[1]+". "+strings.TrimSpace(m[2]))
				continue
			}
			out = append(out, "- "+strings.TrimSpace(bulletPrefixRe.ReplaceAllString(ln, "")))
		}
		return strings.Join(out, "\n")
	case Quote:
		out := make([]string, 0, len(lines))
		for _, ln := range lines {
			out = append(out, strings.TrimRight("> "+strings.TrimSpace(quotePrefixRe.ReplaceAllString(ln, "")), " "))
		}
		return strings.Join(out, "\n")
	case Code:
		return "```\n" + strings.Join(lines, "\n") + "\n```"
	default:
		return joinTrimmed(lines, "\n\n")
	}
}

func joinTrimmed(lines []string, sep string) string {
	out := make([]string, 0, len(lines))
	for _, ln := range lines {
		if t := strings.TrimSpace(ln); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, sep)
}

// finishMarkdown strips trailing whitespace from every line and terminates the text with a
// single newline.
func finishMarkdown(md string) string {
	lines := strings.Split(md, "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimRight(ln, " \t\r")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n") + "\n"
}

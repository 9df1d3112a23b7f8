package layout

import (
	"fmt"
	"regexp"
	"strings"

	"stratadoc/internal/domain"
)

// pageDelimiterRegex matches the page-delimiter lines emitted by extraction,
// with or without the " of <total>" suffix. Splitting retains the matched
// header so it can be re-emitted as a markdown comment.
var pageDelimiterRegex = regexp.MustCompile(`(?m)^--- Page \d+(?: of \d+)? ---[ \t]*$`)

// Result is the layout formatting outcome.
type Result struct {
	FormattedText string  `json:"formatted_text"`
	PageCount     int     `json:"page_count"`
	FontMap       FontMap `json:"font_map"`
}

// Format converts raw extracted text with inline font markers into markdown.
// The font map is derived once over the whole document and shared by every
// page block; page count is conserved through formatting.
func Format(fullText string) *Result {
	fm := DeriveFontMap(fullText)
	blocks := splitPages(fullText)

	var out []string
	pageCount := 0
	for _, b := range blocks {
		if b.header != "" {
			out = append(out, fmt.Sprintf("<!-- %s -->", b.header))
			pageCount++
		}
		body := formatBlock(b.body, fm)
		if body != "" {
			out = append(out, body)
		}
	}
	if pageCount == 0 && strings.TrimSpace(fullText) != "" {
		pageCount = 1
	}

	return &Result{
		FormattedText: strings.Join(out, "\n\n"),
		PageCount:     pageCount,
		FontMap:       fm,
	}
}

type pageBlock struct {
	header string
	body   string
}

// splitPages cuts the document at each page delimiter, keeping the delimiter
// text as the block header. Text before the first delimiter becomes a
// headerless preamble block.
func splitPages(text string) []pageBlock {
	matches := pageDelimiterRegex.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return []pageBlock{{body: text}}
	}

	var blocks []pageBlock
	if pre := text[:matches[0][0]]; strings.TrimSpace(pre) != "" {
		blocks = append(blocks, pageBlock{body: pre})
	}
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		blocks = append(blocks, pageBlock{
			header: text[m[0]:m[1]],
			body:   text[m[1]:end],
		})
	}
	return blocks
}

// formatBlock strips font markers from each line and applies the markdown
// rendering for the line's role.
func formatBlock(body string, fm FontMap) string {
	var lines []string
	for _, line := range strings.Split(body, "\n") {
		formatted := formatLine(line, fm)
		if strings.TrimSpace(formatted) == "" {
			continue
		}
		lines = append(lines, formatted)
	}
	return strings.Join(lines, "\n")
}

func formatLine(line string, fm FontMap) string {
	role := domain.RoleBodyText
	if m := markerRegex.FindStringSubmatch(line); m != nil {
		role = fm.RoleFor(m[1])
	}
	text := strings.TrimSpace(markerRegex.ReplaceAllString(line, ""))
	if text == "" {
		return ""
	}

	switch role {
	case domain.RoleMainTitle:
		return "# " + text
	case domain.RoleSectionHeading:
		return "## " + text
	case domain.RoleSubsectionHeading:
		return "### " + text
	case domain.RoleEmphasisText:
		return "**" + text + "**"
	default:
		return text
	}
}

package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat_GlobalFontMapAcrossPages(t *testing.T) {
	// The heading size appears only on page 2. A per-page derivation would
	// have no body size to compare against there; the global map still
	// resolves it as a heading.
	text := "--- Page 1 of 2 ---\n" +
		"clause one[[[10.0]]]\n" +
		"clause two[[[10.0]]]\n" +
		"clause three[[[10.0]]]\n\n" +
		"--- Page 2 of 2 ---\n" +
		"SPECIAL CONDITIONS[[[20.0]]]\n" +
		"clause four[[[10.0]]]\n"

	result := Format(text)

	assert.Equal(t, 2, result.PageCount)
	assert.Contains(t, result.FormattedText, "# SPECIAL CONDITIONS")
	assert.NotContains(t, result.FormattedText, "[[[")
}

func TestFormat_PreservesPageBoundaries(t *testing.T) {
	text := "--- Page 1 of 3 ---\nfirst page text\n\n" +
		"--- Page 2 of 3 ---\n\n\n" +
		"--- Page 3 of 3 ---\nlast page text\n"

	result := Format(text)

	assert.Equal(t, 3, result.PageCount)
	assert.Contains(t, result.FormattedText, "<!-- --- Page 1 of 3 --- -->")
	// An empty page still contributes its boundary comment.
	assert.Contains(t, result.FormattedText, "<!-- --- Page 2 of 3 --- -->")
	assert.Contains(t, result.FormattedText, "<!-- --- Page 3 of 3 --- -->")
}

func TestFormat_DelimiterWithoutTotal(t *testing.T) {
	text := "--- Page 1 ---\nsome text here\n"

	result := Format(text)

	assert.Equal(t, 1, result.PageCount)
	assert.Contains(t, result.FormattedText, "<!-- --- Page 1 --- -->")
}

func TestFormat_NoDelimiters(t *testing.T) {
	result := Format("just a block of text with no page structure")

	assert.Equal(t, 1, result.PageCount)
	assert.Equal(t, "just a block of text with no page structure", result.FormattedText)
}

func TestFormat_EmptyInput(t *testing.T) {
	result := Format("   \n  ")

	assert.Equal(t, 0, result.PageCount)
	assert.Equal(t, "", result.FormattedText)
}

func TestFormat_UnparseableMarkerIsBodyText(t *testing.T) {
	text := "heading[[[20.0]]]\n" +
		"body[[[10.0]]]\nbody[[[10.0]]]\n" +
		"weird[[[1.2.3]]]\n"

	result := Format(text)

	lines := strings.Split(result.FormattedText, "\n")
	assert.Contains(t, lines, "# heading")
	// "1.2.3" is not a valid size; its line is stripped of the marker and
	// rendered as body text, never as a heading.
	assert.Contains(t, lines, "weird")
}

func TestFormat_RoleRendering(t *testing.T) {
	text := "MAIN[[[24.0]]]\n" +
		"SECTION[[[18.0]]]\n" +
		"SUBSECTION[[[14.0]]]\n" +
		"IMPORTANT[[[12.0]]]\n" +
		"body line[[[10.0]]]\nbody line[[[10.0]]]\nbody line[[[10.0]]]\n"

	result := Format(text)

	assert.Contains(t, result.FormattedText, "# MAIN")
	assert.Contains(t, result.FormattedText, "## SECTION")
	assert.Contains(t, result.FormattedText, "### SUBSECTION")
	assert.Contains(t, result.FormattedText, "**IMPORTANT**")
	assert.Contains(t, result.FormattedText, "body line")
}

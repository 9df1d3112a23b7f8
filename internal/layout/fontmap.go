package layout

import (
	"regexp"
	"sort"
	"strconv"

	"stratadoc/internal/domain"
)

// markerRegex matches the inline font-size markers appended during OCR,
// e.g. "1. GENERAL CONDITIONS[[[18.0]]]".
var markerRegex = regexp.MustCompile(`\[\[\[([0-9.]+)\]\]\]`)

// FontMap assigns a layout role to each font size seen in a document. It is
// derived once over the whole document and applied verbatim to every page:
// deriving it per page would classify the same heading size differently
// depending on which other sizes happen to share that page.
type FontMap map[string]domain.LayoutRole

// DeriveFontMap scans every font marker in the document and maps each
// distinct size to a role. The most frequent size is taken as body text;
// larger sizes become headings in descending order, smaller sizes are
// classed as other.
func DeriveFontMap(text string) FontMap {
	counts := map[string]int{}
	for _, m := range markerRegex.FindAllStringSubmatch(text, -1) {
		if _, err := strconv.ParseFloat(m[1], 64); err != nil {
			continue
		}
		counts[m[1]]++
	}

	fm := FontMap{}
	if len(counts) == 0 {
		return fm
	}

	bodySize := ""
	bodyCount := -1
	for size, n := range counts {
		if n > bodyCount {
			bodySize, bodyCount = size, n
		}
	}
	bodyVal, _ := strconv.ParseFloat(bodySize, 64)

	var larger []string
	for size := range counts {
		v, _ := strconv.ParseFloat(size, 64)
		switch {
		case size == bodySize:
			fm[size] = domain.RoleBodyText
		case v > bodyVal:
			larger = append(larger, size)
		default:
			fm[size] = domain.RoleOther
		}
	}

	sort.Slice(larger, func(i, j int) bool {
		vi, _ := strconv.ParseFloat(larger[i], 64)
		vj, _ := strconv.ParseFloat(larger[j], 64)
		return vi > vj
	})
	headingRoles := []domain.LayoutRole{
		domain.RoleMainTitle,
		domain.RoleSectionHeading,
		domain.RoleSubsectionHeading,
		domain.RoleEmphasisText,
	}
	for i, size := range larger {
		if i < len(headingRoles) {
			fm[size] = headingRoles[i]
		} else {
			fm[size] = domain.RoleBodyText
		}
	}
	return fm
}

// RoleFor resolves a marker size to its role. Unknown or unparseable sizes
// default to body text.
func (fm FontMap) RoleFor(size string) domain.LayoutRole {
	if role, ok := fm[size]; ok {
		return role
	}
	return domain.RoleBodyText
}

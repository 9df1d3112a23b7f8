package extract

import "strings"

// diagramKeywords are the case-insensitive substrings that mark a page as a
// likely diagram carrier. The list is fixed; matching a keyword alone never
// triggers OCR (see PageSignals.ShouldEscalate).
var diagramKeywords = []string{
	"diagram",
	"site plan",
	"sewer",
	"flood",
	"easement",
	"title plan",
	"survey",
	"floor plan",
	"elevation",
	"zoning",
	"drainage",
}

// PageSignals are the three per-page escalation heuristics. The same signals
// drive OCR escalation during extraction and candidate selection during
// dedicated diagram detection.
type PageSignals struct {
	LowText         bool `json:"low_text"`
	HasImages       bool `json:"has_images"`
	DiagramKeywords bool `json:"diagram_keywords"`
}

// ComputeSignals evaluates the heuristics for one page's native text.
func ComputeSignals(nativeText string, hasImages bool, lowTextThreshold int) PageSignals {
	return PageSignals{
		LowText:         StrippedLen(nativeText) < lowTextThreshold,
		HasImages:       hasImages,
		DiagramKeywords: HasDiagramKeywords(nativeText),
	}
}

// ShouldEscalate applies the majority vote: at least 2 of the 3 signals must
// fire before an OCR call is spent on the page.
func (s PageSignals) ShouldEscalate() bool {
	n := 0
	if s.LowText {
		n++
	}
	if s.HasImages {
		n++
	}
	if s.DiagramKeywords {
		n++
	}
	return n >= 2
}

// HasDiagramKeywords reports whether the text mentions any diagram keyword.
func HasDiagramKeywords(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range diagramKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// StrippedLen is the whitespace-trimmed length used by every length
// comparison in the extraction stage.
func StrippedLen(s string) int {
	return len(strings.TrimSpace(s))
}

// WordCount counts whitespace-separated tokens.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

package ocr

import (
	"fmt"
	"strings"

	"stratadoc/internal/domain"
)

// ExtractionSystemPrompt frames the vision engine as a contract page reader.
const ExtractionSystemPrompt = "You are a document OCR engine for Australian real-estate contracts. You read a single scanned contract page and return its content as JSON. Accuracy and completeness matter more than formatting."

// ExtractionUserPrompt is the per-page extraction instruction. The engine
// must transcribe every legible character, keep line order, and append a
// [[[<size>]]] font-size marker to each line so the layout stage can infer
// heading structure later.
const ExtractionUserPrompt = `Read the attached contract page image and respond with a single JSON object:

{
  "text": "<full transcription of the page>",
  "diagrams": [{"type": "<diagram type>", "page": <page number>}],
  "confidence": <0.0-1.0>
}

Transcription rules:
1. Transcribe every legible line in reading order. Do not summarize.
2. Append a font-size marker of the form [[[<size>]]] to each line, estimating the point size from the rendered text (e.g. "1. GENERAL CONDITIONS[[[18.0]]]").
3. Preserve clause numbering, schedules, and tables as plain text rows.
4. If the page contains a diagram, plan, or map, add an entry to "diagrams".
5. Return ONLY the JSON object, no surrounding prose or code fences.`

// classifierPromptTemplate is the dedicated diagram classification prompt,
// constrained to the fixed type set.
const classifierPromptTemplate = `Identify every diagram, plan, or map on the attached contract page image.

Respond with a single JSON object: {"diagram": [{"type": "<type>", "page": %d}]}

"type" MUST be one of: %s.
Use "unknown" when a diagram is present but none of the types fit.
If the page contains no diagram at all, respond {"diagram": []}.
Return ONLY the JSON object.`

// BuildExtractionPrompt returns the extraction prompt for one page.
func BuildExtractionPrompt(pageNumber int, focus string) string {
	prompt := ExtractionUserPrompt
	if focus != "" {
		prompt = fmt.Sprintf("Focus: %s.\n\n%s", focus, prompt)
	}
	return fmt.Sprintf("Page number: %d.\n\n%s", pageNumber, prompt)
}

// BuildClassifierPrompt returns the diagram classification prompt for one page.
func BuildClassifierPrompt(pageNumber int) string {
	types := []string{
		string(domain.DiagramSitePlan),
		string(domain.DiagramSewer),
		string(domain.DiagramFloodMap),
		string(domain.DiagramTitlePlan),
		string(domain.DiagramSurvey),
		string(domain.DiagramFloorPlan),
		string(domain.DiagramElevation),
		string(domain.DiagramDrainage),
		string(domain.DiagramZoningMap),
		string(domain.DiagramBodyCorporatePlan),
		string(domain.DiagramUnknown),
	}
	return fmt.Sprintf(classifierPromptTemplate, pageNumber, strings.Join(types, ", "))
}

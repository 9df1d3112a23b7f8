package port

import "context"

// DiagramHint is a diagram observed by a vision engine on a specific page.
type DiagramHint struct {
	Type string `json:"type"`
	Page int    `json:"page"`
}

// VisionInput carries a rendered page image for a vision engine call.
type VisionInput struct {
	ImagePNG   []byte
	PageNumber int
	// Focus narrows the engine's attention, e.g. "full_text" or "diagrams".
	Focus string
}

// PageInsight is the result of a vision engine call on one page.
type PageInsight struct {
	Text       string        `json:"text"`
	Diagrams   []DiagramHint `json:"diagrams"`
	Confidence float64       `json:"confidence"`
}

// VisionEngine abstracts an OCR/VLM capable of reading a page image.
type VisionEngine interface {
	ExtractPage(ctx context.Context, input VisionInput) (*PageInsight, error)
	Name() string
}

// DiagramClassifier abstracts the single-purpose "classify diagrams on this
// page" call, constrained to the fixed diagram type set.
type DiagramClassifier interface {
	ClassifyDiagrams(ctx context.Context, imagePNG []byte, pageNumber int) ([]DiagramHint, error)
}

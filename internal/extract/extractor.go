package extract

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"stratadoc/internal/artifact"
	"stratadoc/internal/config"
	"stratadoc/internal/domain"
	"stratadoc/internal/port"
)

// PageExtraction is the per-page outcome of the extraction stage.
type PageExtraction struct {
	PageNumber int                     `json:"page_number"`
	Text       string                  `json:"text"`
	Confidence float64                 `json:"confidence"`
	Method     domain.ExtractionMethod `json:"method"`
	Signals    PageSignals             `json:"signals"`
	Hints      []port.DiagramHint      `json:"hints,omitempty"`
	WordCount  int                     `json:"word_count"`
}

// Result is the whole-document extraction outcome. Success is a
// document-level floor on total stripped text, independent of any single
// page's pass/fail.
type Result struct {
	Success           bool               `json:"success"`
	FullText          string             `json:"full_text"`
	Pages             []PageExtraction   `json:"pages"`
	TotalPages        int                `json:"total_pages"`
	Methods           map[string]int     `json:"extraction_methods"`
	OverallConfidence float64            `json:"overall_confidence"`
	TotalWords        int                `json:"total_word_count"`
	Timings           map[string]float64 `json:"timings"`
	FromCache         bool               `json:"from_cache"`
}

// Extractor runs the layered text extraction strategy: native text layer
// first, then selective OCR escalation per page, with a secondary fallback
// engine. Results are cached as content-addressed artifacts so a re-run over
// the same bytes and parameters costs zero engine calls.
type Extractor struct {
	artifacts *artifact.Store
	primary   port.VisionEngine
	secondary port.VisionEngine
	cfg       config.PipelineConfig
}

// NewExtractor creates an extractor. secondary may be nil when no fallback
// engine is configured.
func NewExtractor(artifacts *artifact.Store, primary, secondary port.VisionEngine, cfg config.PipelineConfig) *Extractor {
	return &Extractor{
		artifacts: artifacts,
		primary:   primary,
		secondary: secondary,
		cfg:       cfg,
	}
}

// Extract produces per-page and whole-document text for an opened document.
// The page loop is sequential: OCR calls are cost- and rate-limited, and a
// page's escalation decision depends only on its own signals.
func (e *Extractor) Extract(ctx context.Context, key domain.ContentKey, src port.PageSource) (*Result, error) {
	if cached, err := e.fromArtifacts(ctx, key); err == nil {
		log.Printf("extract.Extractor: artifact hit for %s, skipping extraction", key)
		return cached, nil
	}

	start := time.Now()
	totalPages := src.PageCount()
	if totalPages == 0 {
		return nil, fmt.Errorf("%w: document has no pages", domain.ErrInsufficientText)
	}

	result := &Result{
		Pages:      make([]PageExtraction, 0, totalPages),
		TotalPages: totalPages,
		Methods:    map[string]int{},
		Timings:    map[string]float64{},
	}

	var parts []string
	var confidenceSum float64
	for page := 1; page <= totalPages; page++ {
		pe := e.extractPage(ctx, key, src, page)
		result.Pages = append(result.Pages, pe)
		result.Methods[string(pe.Method)]++
		result.TotalWords += pe.WordCount
		confidenceSum += pe.Confidence
		parts = append(parts, fmt.Sprintf("--- Page %d of %d ---\n%s", page, totalPages, pe.Text))
	}

	result.FullText = strings.Join(parts, "\n\n")
	result.OverallConfidence = confidenceSum / float64(totalPages)
	result.Timings["extraction_secs"] = time.Since(start).Seconds()
	result.Success = e.totalStrippedChars(result.Pages) >= e.cfg.MinDocumentChars

	if result.Success {
		e.persistArtifacts(ctx, key, result)
	}
	return result, nil
}

// extractPage runs the per-page state machine: native text, majority-vote
// escalation, primary OCR with never-regress acceptance, then the secondary
// fallback under the same acceptance rule. An OCR failure on one page falls
// back to native text for that page only.
func (e *Extractor) extractPage(ctx context.Context, key domain.ContentKey, src port.PageSource, page int) PageExtraction {
	native, err := src.PageText(page)
	if err != nil {
		log.Printf("extract.Extractor: page %d native text failed: %v", page, err)
		native = ""
	}

	pe := PageExtraction{
		PageNumber: page,
		Text:       native,
		Confidence: nativeConfidence(native),
		Method:     domain.MethodNativeText,
		Signals:    ComputeSignals(native, src.PageHasImages(page), e.cfg.LowTextThreshold),
	}

	if pe.Signals.ShouldEscalate() && e.primary != nil {
		image, err := src.RenderPNG(page, e.cfg.RenderZoom)
		if err != nil {
			log.Printf("extract.Extractor: page %d render failed, keeping native text: %v", page, err)
		} else {
			e.runOCR(ctx, key, image, page, &pe)
		}
	}

	pe.WordCount = WordCount(pe.Text)
	return pe
}

// runOCR invokes the primary engine and, if its output is still below the
// low-text threshold, the secondary engine. Engine output is accepted only
// when its stripped length exceeds the text already held.
func (e *Extractor) runOCR(ctx context.Context, key domain.ContentKey, image []byte, page int, pe *PageExtraction) {
	insight, err := e.primary.ExtractPage(ctx, port.VisionInput{
		ImagePNG:   image,
		PageNumber: page,
		Focus:      "full_text",
	})
	if err != nil {
		log.Printf("extract.Extractor: page %d %s OCR failed, keeping native text: %v", page, e.primary.Name(), err)
	} else {
		if StrippedLen(insight.Text) > StrippedLen(pe.Text) {
			pe.Text = insight.Text
			pe.Confidence = insight.Confidence
			pe.Method = domain.MethodPrimaryOCR
		}
		if len(insight.Diagrams) > 0 {
			pe.Hints = insight.Diagrams
			// Persist the rendered page plus its hints so the diagram stage
			// can reuse them instead of re-rendering and re-calling OCR.
			_, serr := e.artifacts.PutDiagram(ctx, key, page, "page_render", image, insight.Diagrams)
			artifact.LogStoreFailure("extract_text", serr)
		}
	}

	if e.secondary != nil && StrippedLen(pe.Text) < e.cfg.LowTextThreshold {
		fallback, err := e.secondary.ExtractPage(ctx, port.VisionInput{
			ImagePNG:   image,
			PageNumber: page,
			Focus:      "full_text",
		})
		if err != nil {
			log.Printf("extract.Extractor: page %d %s fallback OCR failed: %v", page, e.secondary.Name(), err)
			return
		}
		if StrippedLen(fallback.Text) > StrippedLen(pe.Text) {
			pe.Text = fallback.Text
			pe.Confidence = fallback.Confidence
			pe.Method = domain.MethodSecondaryOCR
		}
	}
}

// fromArtifacts rebuilds a Result from cached artifacts. Returns an error
// when no full-text artifact exists for the key.
func (e *Extractor) fromArtifacts(ctx context.Context, key domain.ContentKey) (*Result, error) {
	fullText, text, err := e.artifacts.GetFullText(ctx, key)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Success:    true,
		FullText:   text,
		TotalPages: fullText.TotalPages,
		TotalWords: fullText.TotalWords,
		Methods:    map[string]int{string(domain.MethodCachedText): fullText.TotalPages},
		Timings:    map[string]float64{},
		FromCache:  true,
	}

	pages, err := e.artifacts.ListPages(ctx, key)
	if err != nil {
		log.Printf("extract.Extractor: page artifact listing failed for %s: %v", key, err)
		return result, nil
	}

	var confidenceSum float64
	for _, pa := range pages {
		_, pageText, err := e.artifacts.GetPage(ctx, key, pa.PageNumber)
		if err != nil {
			log.Printf("extract.Extractor: page %d artifact blob failed for %s: %v", pa.PageNumber, key, err)
			continue
		}
		pe := PageExtraction{
			PageNumber: pa.PageNumber,
			Text:       pageText,
			Confidence: 1.0,
			Method:     domain.MethodCachedText,
			WordCount:  WordCount(pageText),
		}
		confidenceSum += pe.Confidence
		result.Pages = append(result.Pages, pe)
	}
	if len(result.Pages) > 0 {
		result.OverallConfidence = confidenceSum / float64(len(result.Pages))
	}
	return result, nil
}

// persistArtifacts caches the extraction output. A cache write failure never
// voids a successful extraction.
func (e *Extractor) persistArtifacts(ctx context.Context, key domain.ContentKey, result *Result) {
	for _, pe := range result.Pages {
		_, err := e.artifacts.PutPage(ctx, key, pe.PageNumber, pe.Text, artifact.PageMeta{
			ContentType: "text/plain",
			Layout: map[string]bool{
				"has_diagrams": len(pe.Hints) > 0,
				"has_images":   pe.Signals.HasImages,
			},
			Metrics: map[string]float64{
				"confidence": pe.Confidence,
				"word_count": float64(pe.WordCount),
			},
		})
		artifact.LogStoreFailure("extract_text", err)
	}

	_, err := e.artifacts.PutFullText(ctx, key, result.FullText, artifact.FullTextMeta{
		TotalPages: result.TotalPages,
		TotalWords: result.TotalWords,
		Methods:    result.Methods,
		Timings:    result.Timings,
	})
	artifact.LogStoreFailure("extract_text", err)
}

func (e *Extractor) totalStrippedChars(pages []PageExtraction) int {
	total := 0
	for _, pe := range pages {
		total += StrippedLen(pe.Text)
	}
	return total
}

// nativeConfidence assigns a fixed confidence to text read straight from the
// PDF text layer. The layer either exists or it does not.
func nativeConfidence(text string) float64 {
	if StrippedLen(text) == 0 {
		return 0
	}
	return 1.0
}

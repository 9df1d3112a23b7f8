package diagram

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"stratadoc/internal/artifact"
	"stratadoc/internal/config"
	"stratadoc/internal/domain"
	"stratadoc/internal/extract"
	"stratadoc/internal/port"
)

// Result is the aggregated diagram detection outcome. It is derived from the
// extraction output (or a dedicated classification pass), never a primary
// source of truth on its own.
type Result struct {
	TotalDiagrams    int                `json:"total_diagrams"`
	DiagramPages     []int              `json:"diagram_pages"`
	DiagramTypes     map[string]int     `json:"diagram_types"`
	Diagrams         []domain.DiagramHit `json:"diagrams"`
	DetectionSummary string             `json:"detection_summary"`
}

// Detector runs diagram detection in one of two modes. Hint-reuse consumes
// the diagram hints and cached page images recorded during extraction at zero
// additional OCR cost. Dedicated re-evaluates the page heuristics and issues
// a single-purpose classification call per candidate page.
type Detector struct {
	artifacts  *artifact.Store
	classifier port.DiagramClassifier
	cfg        config.PipelineConfig

	// sleep is swappable so retry backoff can be tested without waiting.
	sleep func(d time.Duration)
}

// NewDetector creates a detector. classifier may be nil, in which case
// dedicated mode degrades to an empty result.
func NewDetector(artifacts *artifact.Store, classifier port.DiagramClassifier, cfg config.PipelineConfig) *Detector {
	return &Detector{
		artifacts:  artifacts,
		classifier: classifier,
		cfg:        cfg,
		sleep:      time.Sleep,
	}
}

// Detect aggregates diagrams for a document. src may be nil in hint-reuse
// mode; dedicated mode requires it for rendering candidate pages.
func (d *Detector) Detect(ctx context.Context, key domain.ContentKey, extraction *extract.Result, src port.PageSource) (*Result, error) {
	var hits []domain.DiagramHit
	var mode string

	if d.cfg.ReuseDiagramHints {
		mode = "hint_reuse"
		hits = d.fromHints(ctx, key, extraction)
	} else {
		mode = "dedicated"
		var err error
		hits, err = d.classifyCandidates(ctx, key, extraction, src)
		if err != nil {
			return nil, err
		}
	}

	result := aggregate(hits)
	result.DetectionSummary = fmt.Sprintf("%s: %d diagrams across %d pages", mode, result.TotalDiagrams, len(result.DiagramPages))
	return result, nil
}

// fromHints collects the hints captured during extraction. When the
// extraction itself came from cache its in-memory hints are gone, so the
// stored diagram artifacts are consulted instead.
func (d *Detector) fromHints(ctx context.Context, key domain.ContentKey, extraction *extract.Result) []domain.DiagramHit {
	var hits []domain.DiagramHit
	for _, page := range extraction.Pages {
		for _, h := range page.Hints {
			hits = append(hits, domain.DiagramHit{
				Page: page.PageNumber,
				Type: domain.NormalizeDiagramType(h.Type),
			})
		}
	}
	if len(hits) > 0 || !extraction.FromCache {
		return hits
	}

	artifacts, err := d.artifacts.ListDiagrams(ctx, key)
	if err != nil {
		log.Printf("diagram.Detector: cached hint lookup failed for %s: %v", key, err)
		return nil
	}
	for _, a := range artifacts {
		var meta struct {
			Hints []port.DiagramHint `json:"hints"`
		}
		if err := json.Unmarshal(a.DiagramMeta, &meta); err != nil {
			log.Printf("diagram.Detector: unreadable diagram meta on page %d: %v", a.PageNumber, err)
			continue
		}
		for _, h := range meta.Hints {
			hits = append(hits, domain.DiagramHit{
				Page: a.PageNumber,
				Type: domain.NormalizeDiagramType(h.Type),
			})
		}
	}
	return hits
}

// classifyCandidates runs the dedicated mode: re-evaluate the escalation
// heuristics per page, cap the candidate list, then classify each candidate
// with retry. A page that exhausts its retries is skipped, degrading the
// result rather than failing the stage.
func (d *Detector) classifyCandidates(ctx context.Context, key domain.ContentKey, extraction *extract.Result, src port.PageSource) ([]domain.DiagramHit, error) {
	if d.classifier == nil || src == nil {
		log.Printf("diagram.Detector: dedicated mode unavailable (classifier or page source missing)")
		return nil, nil
	}

	var candidates []int
	for _, page := range extraction.Pages {
		signals := extract.ComputeSignals(page.Text, src.PageHasImages(page.PageNumber), d.cfg.LowTextThreshold)
		if signals.ShouldEscalate() {
			candidates = append(candidates, page.PageNumber)
		}
	}
	if d.cfg.MaxDiagramPages > 0 && len(candidates) > d.cfg.MaxDiagramPages {
		log.Printf("diagram.Detector: capping candidates from %d to %d pages", len(candidates), d.cfg.MaxDiagramPages)
		candidates = candidates[:d.cfg.MaxDiagramPages]
	}

	var hits []domain.DiagramHit
	for _, pageNumber := range candidates {
		image, err := src.RenderPNG(pageNumber, d.cfg.RenderZoom)
		if err != nil {
			log.Printf("diagram.Detector: page %d render failed, skipping: %v", pageNumber, err)
			continue
		}

		hints, err := d.classifyWithRetry(ctx, image, pageNumber)
		if err != nil {
			log.Printf("diagram.Detector: page %d classification exhausted retries, skipping: %v", pageNumber, err)
			continue
		}
		if len(hints) == 0 {
			continue
		}

		_, serr := d.artifacts.PutDiagram(ctx, key, pageNumber, "classified", image, hints)
		artifact.LogStoreFailure("detect_diagrams", serr)

		for _, h := range hints {
			hits = append(hits, domain.DiagramHit{
				Page: pageNumber,
				Type: domain.NormalizeDiagramType(h.Type),
			})
		}
	}
	return hits, nil
}

// classifyWithRetry retries transient classifier failures with exponential
// backoff: base interval doubling per attempt.
func (d *Detector) classifyWithRetry(ctx context.Context, image []byte, pageNumber int) ([]port.DiagramHint, error) {
	backoff := time.Duration(d.cfg.DiagramBackoffSecs) * time.Second
	maxRetries := d.cfg.DiagramMaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		hints, err := d.classifier.ClassifyDiagrams(ctx, image, pageNumber)
		if err == nil {
			return hints, nil
		}
		lastErr = err
		if attempt < maxRetries {
			log.Printf("diagram.Detector: page %d attempt %d/%d failed, retrying in %s: %v", pageNumber, attempt, maxRetries, backoff, err)
			d.sleep(backoff)
			backoff *= 2
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func aggregate(hits []domain.DiagramHit) *Result {
	result := &Result{
		DiagramTypes: map[string]int{},
		Diagrams:     hits,
	}

	pages := map[int]bool{}
	for _, h := range hits {
		result.TotalDiagrams++
		result.DiagramTypes[string(h.Type)]++
		pages[h.Page] = true
	}
	for p := range pages {
		result.DiagramPages = append(result.DiagramPages, p)
	}
	sort.Ints(result.DiagramPages)
	return result
}

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"stratadoc/internal/artifact"
	"stratadoc/internal/config"
	"stratadoc/internal/diagram"
	"stratadoc/internal/domain"
	"stratadoc/internal/extract"
	"stratadoc/internal/layout"
	"stratadoc/internal/port"
)

// Node names, used in error details, degradation records, and metrics.
const (
	nodeFetchRecord      = "fetch_document_record"
	nodeAlreadyProcessed = "already_processed_check"
	nodeMarkStarted      = "mark_processing_started"
	nodeExtractText      = "extract_text"
	nodeDetectDiagrams   = "detect_diagrams"
	nodeLayoutFormat     = "layout_format_cleanup"
	nodeSavePages        = "save_pages"
	nodeSaveDiagrams     = "save_diagrams"
	nodeSaveArtifacts    = "save_artifacts"
	nodeUpdateMetrics    = "update_metrics"
	nodeMarkComplete     = "mark_basic_complete"
	nodeBuildSummary     = "build_summary"
	nodeErrorHandling    = "error_handling"
)

// shortCircuitMinChars is the persisted full-text floor below which an
// already-processed document is reprocessed anyway.
const shortCircuitMinChars = 50

type node struct {
	name string
	fn   func(ctx context.Context, st State) State
}

// Pipeline is the fixed sequence of idempotent stages that takes a queued
// document from record fetch to completion summary. Every stage is a pure
// transformation of the state; no error crosses a stage boundary.
type Pipeline struct {
	docs      port.DocumentRepository
	contracts port.ContractRepository
	pages     port.DocumentPageRepository
	diagrams  port.DocumentDiagramRepository
	storage   port.ObjectStorage
	opener    port.DocumentOpener
	artifacts *artifact.Store
	extractor *extract.Extractor
	detector  *diagram.Detector
	cfg       config.PipelineConfig
}

// Deps bundles the pipeline's collaborators.
type Deps struct {
	Docs      port.DocumentRepository
	Contracts port.ContractRepository
	Pages     port.DocumentPageRepository
	Diagrams  port.DocumentDiagramRepository
	Storage   port.ObjectStorage
	Opener    port.DocumentOpener
	Artifacts *artifact.Store
	Extractor *extract.Extractor
	Detector  *diagram.Detector
}

// New creates a pipeline. The pipeline itself holds no per-run state; each
// Run gets its own metrics collector, so one Pipeline can serve concurrent
// worker goroutines.
func New(deps Deps, cfg config.PipelineConfig) *Pipeline {
	return &Pipeline{
		docs:      deps.Docs,
		contracts: deps.Contracts,
		pages:     deps.Pages,
		diagrams:  deps.Diagrams,
		storage:   deps.Storage,
		opener:    deps.Opener,
		artifacts: deps.Artifacts,
		extractor: deps.Extractor,
		detector:  deps.Detector,
		cfg:       cfg,
	}
}

func (p *Pipeline) nodes() []node {
	return []node{
		{nodeFetchRecord, p.fetchDocumentRecord},
		{nodeAlreadyProcessed, p.alreadyProcessedCheck},
		{nodeMarkStarted, p.markProcessingStarted},
		{nodeExtractText, p.extractText},
		{nodeDetectDiagrams, p.detectDiagrams},
		{nodeLayoutFormat, p.layoutFormat},
		{nodeSavePages, p.savePages},
		{nodeSaveDiagrams, p.saveDiagrams},
		{nodeSaveArtifacts, p.saveArtifacts},
		{nodeUpdateMetrics, p.updateMetrics},
		{nodeMarkComplete, p.markBasicComplete},
		{nodeBuildSummary, p.buildSummary},
	}
}

// Run processes one document through every stage. A fatal failure (auth,
// not-found) routes to the error-handling terminal; any other failure
// degrades the state and the run continues on synthesized minimal data.
func (p *Pipeline) Run(ctx context.Context, documentID uuid.UUID) (State, error) {
	st := State{DocumentID: documentID}
	metrics := NewCollector()
	defer func() {
		if st.Source != nil {
			_ = st.Source.Close()
		}
	}()

	for _, n := range p.nodes() {
		if st.ShortCircuited && n.name != nodeBuildSummary {
			continue
		}

		st = p.runNode(ctx, n, st, metrics)
		if !st.ProcessingFailed {
			continue
		}

		kind := Classify(st.Err)
		if IsFatal(kind) {
			st = p.errorHandling(ctx, st, metrics)
			st.Metrics = metrics.Snapshot()
			return st, st.Err
		}
		log.Printf("pipeline.Run: %s degraded for document %s: %v", n.name, documentID, st.Err)
		st = degrade(n.name, st)
	}

	st.Metrics = metrics.Snapshot()
	if st.Summary != nil {
		st.Summary.NodeMetrics = st.Metrics
	}
	return st, nil
}

// runNode executes one stage with panic containment. A panicking node is
// converted into an ordinary error state, same as any other stage failure.
func (p *Pipeline) runNode(ctx context.Context, n node, st State, metrics *Collector) (out State) {
	defer func() {
		if r := recover(); r != nil {
			out = st.withError(n.name, KindGeneric, fmt.Errorf("panic in %s: %v", n.name, r))
			metrics.record(n.name, true)
		}
	}()
	out = n.fn(ctx, st)
	metrics.record(n.name, out.ProcessingFailed)
	return out
}

// degrade synthesizes minimal valid data for the failed node and clears the
// failure flags, so later stages see well-formed empty results instead of nil.
func degrade(nodeName string, st State) State {
	out := st.withDegraded(nodeName)
	switch nodeName {
	case nodeExtractText:
		if out.Extraction == nil {
			out.Extraction = &extract.Result{
				Methods: map[string]int{},
				Timings: map[string]float64{},
			}
		}
	case nodeDetectDiagrams:
		if out.Diagrams == nil {
			out.Diagrams = &diagram.Result{DiagramTypes: map[string]int{}}
		}
	case nodeLayoutFormat:
		if out.Layout == nil {
			out.Layout = &layout.Result{FontMap: layout.FontMap{}}
		}
	}
	return out
}

func (p *Pipeline) fetchDocumentRecord(ctx context.Context, st State) State {
	doc, err := p.docs.GetByID(ctx, st.DocumentID)
	if err != nil {
		return st.withError(nodeFetchRecord, Classify(err), fmt.Errorf("fetching document %s: %w", st.DocumentID, err))
	}

	out := st.clone()
	out.Document = doc
	out.UserID = doc.UserID
	out.Bucket = doc.S3Bucket
	out.StoragePath = doc.S3Key
	out.FileType = doc.FileType
	out.ContentHash = doc.ContentHash
	out.ContentHMAC = doc.ContentHMAC
	out.Key = p.contentKey(doc.ContentHMAC)
	return out
}

// alreadyProcessedCheck short-circuits a document that already has persisted
// text: status basic_complete or complete with at least 50 chars of raw text.
func (p *Pipeline) alreadyProcessedCheck(ctx context.Context, st State) State {
	if st.Document == nil {
		return st.withError(nodeAlreadyProcessed, KindValidation, fmt.Errorf("document record missing from state"))
	}
	if !st.Document.ProcessingStatus.IsProcessed() {
		return st
	}

	contract, err := p.contracts.GetByContentHash(ctx, st.ContentHash)
	if err != nil || len(contract.RawText) < shortCircuitMinChars {
		return st
	}

	out := st.clone()
	out.ShortCircuited = true
	out.Summary = &Summary{
		DocumentID:     st.DocumentID,
		Status:         st.Document.ProcessingStatus,
		TotalPages:     st.Document.TotalPages,
		TotalWords:     st.Document.TotalWords,
		TotalDiagrams:  st.Document.TotalDiagrams,
		FullTextChars:  len(contract.RawText),
		ShortCircuited: true,
	}
	log.Printf("pipeline.alreadyProcessedCheck: document %s already processed, short-circuiting", st.DocumentID)
	return out
}

func (p *Pipeline) markProcessingStarted(ctx context.Context, st State) State {
	if err := p.docs.MarkProcessingStarted(ctx, st.DocumentID); err != nil {
		return st.withError(nodeMarkStarted, Classify(err), fmt.Errorf("marking processing started: %w", err))
	}
	return st
}

func (p *Pipeline) extractText(ctx context.Context, st State) State {
	if st.Document == nil {
		return st.withError(nodeExtractText, KindValidation, fmt.Errorf("document record missing from state"))
	}

	data, err := p.storage.Download(ctx, st.Bucket, st.StoragePath)
	if err != nil {
		return st.withError(nodeExtractText, Classify(err), fmt.Errorf("downloading document bytes: %w", err))
	}

	src, err := p.opener.Open(data, st.FileType)
	if err != nil {
		return st.withError(nodeExtractText, KindExtraction, fmt.Errorf("opening document: %w", err))
	}

	out := st.clone()
	out.Source = src

	result, err := p.extractor.Extract(ctx, st.Key, src)
	if err != nil {
		return out.withError(nodeExtractText, Classify(err), fmt.Errorf("extracting text: %w", err))
	}
	if !result.Success {
		out.Extraction = result
		return out.withError(nodeExtractText, KindExtraction,
			fmt.Errorf("%w: %d pages extracted", domain.ErrInsufficientText, result.TotalPages))
	}

	out.Extraction = result
	return out
}

func (p *Pipeline) detectDiagrams(ctx context.Context, st State) State {
	if st.Extraction == nil {
		return st.withError(nodeDetectDiagrams, KindValidation, fmt.Errorf("extraction result missing from state"))
	}

	result, err := p.detector.Detect(ctx, st.Key, st.Extraction, st.Source)
	if err != nil {
		return st.withError(nodeDetectDiagrams, Classify(err), fmt.Errorf("detecting diagrams: %w", err))
	}

	out := st.clone()
	out.Diagrams = result
	return out
}

// layoutFormat turns the raw text into markdown and upserts the shared
// contract record. Already-persisted formatted text for the same content
// hash is reused without re-deriving the font mapping.
func (p *Pipeline) layoutFormat(ctx context.Context, st State) State {
	if st.Extraction == nil {
		return st.withError(nodeLayoutFormat, KindValidation, fmt.Errorf("extraction result missing from state"))
	}

	out := st.clone()
	if existing, err := p.contracts.GetByContentHash(ctx, st.ContentHash); err == nil && existing.FormattedText != "" {
		out.Layout = &layout.Result{
			FormattedText: existing.FormattedText,
			PageCount:     st.Extraction.TotalPages,
			FontMap:       layout.FontMap{},
		}
		return out
	}

	out.Layout = layout.Format(st.Extraction.FullText)

	contract := &domain.Contract{
		ID:            uuid.New(),
		ContentHash:   st.ContentHash,
		ContractType:  domain.ContractUnknown,
		RawText:       st.Extraction.FullText,
		FormattedText: out.Layout.FormattedText,
	}
	if err := p.contracts.UpsertByContentHash(ctx, contract); err != nil {
		return out.withError(nodeLayoutFormat, Classify(err), fmt.Errorf("upserting contract record: %w", err))
	}
	return out
}

func (p *Pipeline) savePages(ctx context.Context, st State) State {
	if st.Extraction == nil {
		return st.withError(nodeSavePages, KindValidation, fmt.Errorf("extraction result missing from state"))
	}

	diagramPages := map[int]bool{}
	if st.Diagrams != nil {
		for _, page := range st.Diagrams.DiagramPages {
			diagramPages[page] = true
		}
	}

	rows := make([]domain.DocumentPage, 0, len(st.Extraction.Pages))
	for _, pe := range st.Extraction.Pages {
		rows = append(rows, domain.DocumentPage{
			ID:          uuid.New(),
			DocumentID:  st.DocumentID,
			PageNumber:  pe.PageNumber,
			Text:        pe.Text,
			Confidence:  pe.Confidence,
			Method:      pe.Method,
			WordCount:   pe.WordCount,
			HasDiagrams: diagramPages[pe.PageNumber] || len(pe.Hints) > 0,
		})
	}
	if err := p.pages.ReplacePages(ctx, st.DocumentID, rows); err != nil {
		return st.withError(nodeSavePages, Classify(err), fmt.Errorf("saving pages: %w", err))
	}
	return st
}

func (p *Pipeline) saveDiagrams(ctx context.Context, st State) State {
	if st.Diagrams == nil {
		return st.withError(nodeSaveDiagrams, KindValidation, fmt.Errorf("diagram result missing from state"))
	}

	// Best-effort image URI lookup from the cached diagram artifacts.
	imageURIs := map[int]string{}
	if artifacts, err := p.artifacts.ListDiagrams(ctx, st.Key); err == nil {
		for _, a := range artifacts {
			imageURIs[a.PageNumber] = a.ImageURI
		}
	}

	rows := make([]domain.DocumentDiagram, 0, len(st.Diagrams.Diagrams))
	for _, hit := range st.Diagrams.Diagrams {
		rows = append(rows, domain.DocumentDiagram{
			ID:         uuid.New(),
			DocumentID: st.DocumentID,
			PageNumber: hit.Page,
			Type:       hit.Type,
			ImageURI:   imageURIs[hit.Page],
		})
	}
	if err := p.diagrams.ReplaceDiagrams(ctx, st.DocumentID, rows); err != nil {
		return st.withError(nodeSaveDiagrams, Classify(err), fmt.Errorf("saving diagrams: %w", err))
	}
	return st
}

// saveArtifacts caches the formatted text under a layout-stage key. The
// extraction artifacts were already written by the extractor; a cache write
// failure here never fails the node.
func (p *Pipeline) saveArtifacts(ctx context.Context, st State) State {
	if st.Layout == nil || st.Layout.FormattedText == "" {
		return st
	}

	key := artifact.NewKey(st.ContentHMAC, p.cfg.AlgorithmVersion, map[string]any{
		"stage": "layout_format",
	})
	_, err := p.artifacts.PutFullText(ctx, key, st.Layout.FormattedText, artifact.FullTextMeta{
		TotalPages: st.Layout.PageCount,
		TotalWords: extract.WordCount(st.Layout.FormattedText),
	})
	artifact.LogStoreFailure(nodeSaveArtifacts, err)
	return st
}

func (p *Pipeline) updateMetrics(ctx context.Context, st State) State {
	totalPages, totalWords, totalDiagrams := 0, 0, 0
	if st.Extraction != nil {
		totalPages = st.Extraction.TotalPages
		totalWords = st.Extraction.TotalWords
	}
	if st.Diagrams != nil {
		totalDiagrams = st.Diagrams.TotalDiagrams
	}
	if err := p.docs.UpdateMetrics(ctx, st.DocumentID, totalPages, totalWords, totalDiagrams); err != nil {
		return st.withError(nodeUpdateMetrics, Classify(err), fmt.Errorf("updating metrics: %w", err))
	}
	return st
}

func (p *Pipeline) markBasicComplete(ctx context.Context, st State) State {
	now := time.Now().UTC()
	if err := p.docs.UpdateProcessingStatus(ctx, st.DocumentID, domain.StatusBasicComplete, nil, &now); err != nil {
		return st.withError(nodeMarkComplete, Classify(err), fmt.Errorf("marking basic complete: %w", err))
	}
	return st
}

// buildSummary composes the terminal summary. A short-circuited run returns
// its existing summary untouched.
func (p *Pipeline) buildSummary(ctx context.Context, st State) State {
	if st.ShortCircuited && st.Summary != nil {
		return st
	}

	out := st.clone()
	summary := &Summary{
		DocumentID:    st.DocumentID,
		Status:        domain.StatusBasicComplete,
		Degraded:      st.DegradedProcessing,
		DegradedNodes: out.DegradedNodes,
	}
	if st.Extraction != nil {
		summary.TotalPages = st.Extraction.TotalPages
		summary.TotalWords = st.Extraction.TotalWords
		summary.FullTextChars = len(st.Extraction.FullText)
	}
	if st.Diagrams != nil {
		summary.TotalDiagrams = st.Diagrams.TotalDiagrams
	}
	out.Summary = summary
	return out
}

// errorHandling is the terminal stage for fatal failures. It persists the
// failure on the document row, tolerating its own database failure so that
// error reporting is never a second point of failure.
func (p *Pipeline) errorHandling(ctx context.Context, st State, metrics *Collector) State {
	metrics.record(nodeErrorHandling, false)

	payload, err := json.Marshal(st.ErrorDetails)
	if err != nil {
		payload = []byte(fmt.Sprintf(`{"error_message":%q}`, st.Err))
	}
	if err := p.docs.UpdateProcessingStatus(ctx, st.DocumentID, domain.StatusFailed, payload, nil); err != nil {
		log.Printf("pipeline.errorHandling: status update failed for document %s: %v", st.DocumentID, err)
	}
	return st
}

// contentKey builds the extraction ContentKey for a document. The parameter
// fingerprint covers every knob that changes extraction output.
func (p *Pipeline) contentKey(contentHMAC string) domain.ContentKey {
	return artifact.NewKey(contentHMAC, p.cfg.AlgorithmVersion, map[string]any{
		"low_text_threshold": p.cfg.LowTextThreshold,
		"min_document_chars": p.cfg.MinDocumentChars,
		"render_zoom":        p.cfg.RenderZoom,
	})
}

package pipeline

import (
	"time"

	"github.com/google/uuid"

	"stratadoc/internal/diagram"
	"stratadoc/internal/domain"
	"stratadoc/internal/extract"
	"stratadoc/internal/layout"
	"stratadoc/internal/port"
)

// ErrorDetails is the structured failure record attached to the state and
// persisted on the document row when the pipeline terminates in error.
type ErrorDetails struct {
	Node         string            `json:"node"`
	ErrorType    Kind              `json:"error_type"`
	ErrorMessage string            `json:"error_message"`
	Timestamp    time.Time         `json:"timestamp"`
	Context      map[string]string `json:"context,omitempty"`
}

// Summary is the terminal output of a pipeline run.
type Summary struct {
	DocumentID     uuid.UUID               `json:"document_id"`
	Status         domain.ProcessingStatus `json:"status"`
	TotalPages     int                     `json:"total_pages"`
	TotalWords     int                     `json:"total_words"`
	TotalDiagrams  int                     `json:"total_diagrams"`
	FullTextChars  int                     `json:"full_text_chars"`
	Degraded       bool                    `json:"degraded"`
	DegradedNodes  []string                `json:"degraded_nodes,omitempty"`
	ShortCircuited bool                    `json:"short_circuited"`
	NodeMetrics    map[string]NodeMetrics  `json:"node_metrics,omitempty"`
}

// State is the single record threaded through every pipeline node. Nodes
// treat it as copy-on-write: each node receives a value, works on its own
// copy, and returns a new value with only its own fields updated. A failed
// downstream node can then be diagnosed against the last good state.
type State struct {
	DocumentID  uuid.UUID
	UserID      uuid.UUID
	Bucket      string
	StoragePath string
	FileType    domain.FileType
	ContentHash string
	ContentHMAC string
	Key         domain.ContentKey

	Document  *domain.Document
	FileBytes []byte
	Source    port.PageSource

	Extraction *extract.Result
	Diagrams   *diagram.Result
	Layout     *layout.Result
	Summary    *Summary

	Err              error
	ErrorDetails     *ErrorDetails
	ProcessingFailed bool

	DegradedProcessing bool
	DegradedNodes      []string

	ShortCircuited bool

	// Metrics is the node-execution snapshot for this run, filled in by Run
	// just before it returns.
	Metrics map[string]NodeMetrics
}

// clone copies the state, detaching the slices a later node might append to.
func (s State) clone() State {
	out := s
	out.DegradedNodes = append([]string(nil), s.DegradedNodes...)
	return out
}

// withError returns a copy carrying a structured failure for node.
func (s State) withError(node string, kind Kind, err error) State {
	out := s.clone()
	out.Err = err
	out.ProcessingFailed = true
	out.ErrorDetails = &ErrorDetails{
		Node:         node,
		ErrorType:    kind,
		ErrorMessage: err.Error(),
		Timestamp:    time.Now().UTC(),
		Context:      map[string]string{"document_id": s.DocumentID.String()},
	}
	return out
}

// withDegraded clears the failure flags and records node as degraded, so the
// run can continue on synthesized minimal-valid data.
func (s State) withDegraded(node string) State {
	out := s.clone()
	out.Err = nil
	out.ProcessingFailed = false
	out.DegradedProcessing = true
	out.DegradedNodes = append(out.DegradedNodes, node)
	return out
}

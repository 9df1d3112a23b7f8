package pipeline

import (
	"errors"
	"strings"

	"stratadoc/internal/domain"
)

// Kind classifies a stage failure for the degradation policy.
type Kind string

const (
	KindValidation Kind = "validation_error"
	KindNotFound   Kind = "not_found_error"
	KindExtraction Kind = "extraction_error"
	KindAuth       Kind = "authentication_error"
	KindGeneric    Kind = "generic_processing_error"
)

// StageError tags an error with its kind at the point of origin, so
// classification does not have to rely on message text.
type StageError struct {
	Kind Kind
	Node string
	Err  error
}

func (e *StageError) Error() string {
	return e.Node + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with a kind and the failing node's name.
func NewStageError(kind Kind, node string, err error) *StageError {
	return &StageError{Kind: kind, Node: node, Err: err}
}

// authSubstrings drive the fallback classification for errors that were not
// typed at origin, e.g. provider errors bubbling up through an SDK.
var authSubstrings = []string{
	"authentication",
	"unauthorized",
	"user context",
	"access denied",
}

// Classify determines an error's kind. Typed errors win; untyped errors fall
// back to message-content matching so auth failures raised by external
// clients are still recognized as fatal.
func Classify(err error) Kind {
	if err == nil {
		return KindGeneric
	}

	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrArtifactNotFound):
		return KindNotFound
	case errors.Is(err, domain.ErrAccessDenied):
		return KindAuth
	case errors.Is(err, domain.ErrInsufficientText):
		return KindExtraction
	}

	lower := strings.ToLower(err.Error())
	for _, s := range authSubstrings {
		if strings.Contains(lower, s) {
			return KindAuth
		}
	}
	return KindGeneric
}

// IsFatal reports whether a kind disqualifies the run from graceful
// degradation. Auth and not-found failures always terminate the pipeline.
func IsFatal(kind Kind) bool {
	return kind == KindAuth || kind == KindNotFound
}

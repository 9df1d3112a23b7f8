package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrAccessDenied        = errors.New("access denied")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed        = errors.New("file upload to storage failed")
	ErrBlobIntegrity       = errors.New("blob content does not match stored hash")
	ErrArtifactNotFound    = errors.New("artifact not found")
	ErrInsufficientText    = errors.New("extracted text below minimum content floor")
	ErrAlreadyProcessing   = errors.New("document is already being processed")
	ErrNoValuationData     = errors.New("no valuation data available for property")
)

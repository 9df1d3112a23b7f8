package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Document represents an uploaded contract document and its processing state.
type Document struct {
	ID               uuid.UUID        `db:"id" json:"id"`
	UserID           uuid.UUID        `db:"user_id" json:"user_id"`
	OriginalName     string           `db:"original_name" json:"original_name"`
	FileType         FileType         `db:"file_type" json:"file_type"`
	FileSize         int64            `db:"file_size" json:"file_size"`
	S3Bucket         string           `db:"s3_bucket" json:"s3_bucket"`
	S3Key            string           `db:"s3_key" json:"s3_key"`
	ContentType      string           `db:"content_type" json:"content_type"`
	ContentHash      string           `db:"content_hash" json:"content_hash"`
	ContentHMAC      string           `db:"content_hmac" json:"content_hmac"`
	ProcessingStatus ProcessingStatus `db:"processing_status" json:"processing_status"`
	ProcessingErrors json.RawMessage  `db:"processing_errors" json:"processing_errors"`
	ProcessAttempts  int              `db:"process_attempts" json:"process_attempts"`
	TotalPages       int              `db:"total_pages" json:"total_pages"`
	TotalWords       int              `db:"total_words" json:"total_words"`
	TotalDiagrams    int              `db:"total_diagrams" json:"total_diagrams"`
	StartedAt        *time.Time       `db:"started_at" json:"started_at"`
	CompletedAt      *time.Time       `db:"completed_at" json:"completed_at"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// Contract is the content-addressed contract record shared by every document
// carrying the same bytes. RawText is the extracted whole-document text.
type Contract struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	ContentHash   string          `db:"content_hash" json:"content_hash"`
	ContractType  ContractType    `db:"contract_type" json:"contract_type"`
	RawText       string          `db:"raw_text" json:"raw_text"`
	FormattedText string          `db:"formatted_text" json:"formatted_text"`
	PropertyMeta  json.RawMessage `db:"property_meta" json:"property_meta"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// FullTextArtifact is the cached whole-document extraction result.
type FullTextArtifact struct {
	ID                uuid.UUID       `db:"id" json:"id"`
	ContentHMAC       string          `db:"content_hmac" json:"content_hmac"`
	AlgorithmVersion  int             `db:"algorithm_version" json:"algorithm_version"`
	ParamsFingerprint string          `db:"params_fingerprint" json:"params_fingerprint"`
	FullTextURI       string          `db:"full_text_uri" json:"full_text_uri"`
	FullTextSHA256    string          `db:"full_text_sha256" json:"full_text_sha256"`
	TotalPages        int             `db:"total_pages" json:"total_pages"`
	TotalWords        int             `db:"total_words" json:"total_words"`
	Methods           json.RawMessage `db:"methods" json:"methods"`
	Timings           json.RawMessage `db:"timings" json:"timings"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}

// PageArtifact is the cached extraction result for a single page.
type PageArtifact struct {
	ID                uuid.UUID       `db:"id" json:"id"`
	ContentHMAC       string          `db:"content_hmac" json:"content_hmac"`
	AlgorithmVersion  int             `db:"algorithm_version" json:"algorithm_version"`
	ParamsFingerprint string          `db:"params_fingerprint" json:"params_fingerprint"`
	PageNumber        int             `db:"page_number" json:"page_number"`
	PageTextURI       string          `db:"page_text_uri" json:"page_text_uri"`
	PageTextSHA256    string          `db:"page_text_sha256" json:"page_text_sha256"`
	ContentType       string          `db:"content_type" json:"content_type"`
	Layout            json.RawMessage `db:"layout" json:"layout"`
	Metrics           json.RawMessage `db:"metrics" json:"metrics"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}

// DiagramArtifact is a cached page image plus diagram hints captured during
// extraction, keyed additionally by a per-page diagram key.
type DiagramArtifact struct {
	ID                uuid.UUID       `db:"id" json:"id"`
	ContentHMAC       string          `db:"content_hmac" json:"content_hmac"`
	AlgorithmVersion  int             `db:"algorithm_version" json:"algorithm_version"`
	ParamsFingerprint string          `db:"params_fingerprint" json:"params_fingerprint"`
	PageNumber        int             `db:"page_number" json:"page_number"`
	DiagramKey        string          `db:"diagram_key" json:"diagram_key"`
	ImageURI          string          `db:"image_uri" json:"image_uri"`
	ImageSHA256       string          `db:"image_sha256" json:"image_sha256"`
	DiagramMeta       json.RawMessage `db:"diagram_meta" json:"diagram_meta"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}

// DocumentPage is the per-page row persisted by the save stage for querying.
type DocumentPage struct {
	ID          uuid.UUID        `db:"id" json:"id"`
	DocumentID  uuid.UUID        `db:"document_id" json:"document_id"`
	PageNumber  int              `db:"page_number" json:"page_number"`
	Text        string           `db:"text" json:"text"`
	Confidence  float64          `db:"confidence" json:"confidence"`
	Method      ExtractionMethod `db:"method" json:"method"`
	WordCount   int              `db:"word_count" json:"word_count"`
	HasDiagrams bool             `db:"has_diagrams" json:"has_diagrams"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}

// DiagramHit is one normalized diagram occurrence on a page.
type DiagramHit struct {
	Page int         `json:"page"`
	Type DiagramType `json:"type"`
}

// DocumentDiagram is a detected diagram persisted by the save stage.
type DocumentDiagram struct {
	ID         uuid.UUID   `db:"id" json:"id"`
	DocumentID uuid.UUID   `db:"document_id" json:"document_id"`
	PageNumber int         `db:"page_number" json:"page_number"`
	Type       DiagramType `db:"type" json:"type"`
	ImageURI   string      `db:"image_uri" json:"image_uri"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
}

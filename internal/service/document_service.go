package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"stratadoc/internal/artifact"
	"stratadoc/internal/config"
	"stratadoc/internal/domain"
	"stratadoc/internal/pipeline"
	"stratadoc/internal/port"
)

// DocumentUploadInput is the DTO for document upload requests.
type DocumentUploadInput struct {
	UserID uuid.UUID
	File   multipart.File
	Header *multipart.FileHeader
}

// DocumentService defines the document intake and processing contract.
type DocumentService interface {
	Upload(ctx context.Context, input DocumentUploadInput) (*domain.Document, error)
	GetByID(ctx context.Context, userID, docID uuid.UUID) (*domain.Document, error)
	List(ctx context.Context, userID uuid.UUID, offset, limit int) ([]domain.Document, int, error)
	GetPages(ctx context.Context, userID, docID uuid.UUID) ([]domain.DocumentPage, error)
	GetDiagrams(ctx context.Context, userID, docID uuid.UUID) ([]domain.DocumentDiagram, error)
	GetContract(ctx context.Context, userID, docID uuid.UUID) (*domain.Contract, error)
	GetDownloadURL(ctx context.Context, userID, docID uuid.UUID) (string, error)
	Reprocess(ctx context.Context, userID, docID uuid.UUID) error
	Process(ctx context.Context, doc *domain.Document) (*pipeline.Summary, error)
}

type documentService struct {
	docRepo      port.DocumentRepository
	pageRepo     port.DocumentPageRepository
	diagramRepo  port.DocumentDiagramRepository
	contractRepo port.ContractRepository
	storage      port.ObjectStorage
	pipe         *pipeline.Pipeline
	s3cfg        *config.S3Config
	hmacKey      string
}

// NewDocumentService creates a new DocumentService implementation.
func NewDocumentService(
	docRepo port.DocumentRepository,
	pageRepo port.DocumentPageRepository,
	diagramRepo port.DocumentDiagramRepository,
	contractRepo port.ContractRepository,
	storage port.ObjectStorage,
	pipe *pipeline.Pipeline,
	s3cfg *config.S3Config,
	artifactCfg *config.ArtifactConfig,
) DocumentService {
	return &documentService{
		docRepo:      docRepo,
		pageRepo:     pageRepo,
		diagramRepo:  diagramRepo,
		contractRepo: contractRepo,
		storage:      storage,
		pipe:         pipe,
		s3cfg:        s3cfg,
		hmacKey:      artifactCfg.HMACKey,
	}
}

// Upload validates and stores an uploaded contract document, then queues it
// for processing. The content hash and HMAC are computed at intake so the
// pipeline can address artifacts without re-reading the upload.
func (s *documentService) Upload(ctx context.Context, input DocumentUploadInput) (*domain.Document, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(input.Header.Filename), "."))
	fileType, ok := domain.AllowedExtensions[ext]
	if !ok {
		return nil, domain.ErrUnsupportedFileType
	}

	maxBytes := s.s3cfg.MaxFileSizeMB * 1024 * 1024
	if input.Header.Size > maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	data, err := io.ReadAll(input.File)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	// Magic-byte content type detection; the extension alone is not trusted.
	sniff := data
	if len(sniff) > 512 {
		sniff = sniff[:512]
	}
	detectedType := http.DetectContentType(sniff)
	if _, valid := domain.AllowedContentTypes[detectedType]; !valid {
		return nil, domain.ErrUnsupportedFileType
	}

	docID := uuid.New()
	s3Key := fmt.Sprintf("users/%s/documents/%s/%s", input.UserID, docID, input.Header.Filename)
	contentType := domain.AllowedFileTypes[fileType]

	doc := &domain.Document{
		ID:               docID,
		UserID:           input.UserID,
		OriginalName:     input.Header.Filename,
		FileType:         fileType,
		FileSize:         int64(len(data)),
		S3Bucket:         s.s3cfg.Bucket,
		S3Key:            s3Key,
		ContentType:      contentType,
		ContentHash:      artifact.ComputeContentHash(data),
		ContentHMAC:      artifact.ComputeContentHMAC(s.hmacKey, data),
		ProcessingStatus: domain.StatusUploaded,
	}

	log.Printf("documentService.Upload: uploading %s (%s, %d bytes) for user %s",
		input.Header.Filename, contentType, len(data), input.UserID)

	if err := s.docRepo.Create(ctx, doc); err != nil {
		log.Printf("documentService.Upload: failed to create document record: %v", err)
		return nil, fmt.Errorf("creating document record: %w", err)
	}

	_, err = s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.s3cfg.Bucket,
		Key:         s3Key,
		Body:        bytes.NewReader(data),
		ContentType: contentType,
		Size:        int64(len(data)),
	})
	if err != nil {
		log.Printf("documentService.Upload: S3 upload failed for document %s: %v", doc.ID, err)
		_ = s.docRepo.UpdateProcessingStatus(ctx, doc.ID, domain.StatusFailed, nil, nil)
		return nil, domain.ErrUploadFailed
	}

	if err := s.docRepo.MarkQueued(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("queueing document: %w", err)
	}
	doc.ProcessingStatus = domain.StatusQueued
	return doc, nil
}

func (s *documentService) GetByID(ctx context.Context, userID, docID uuid.UUID) (*domain.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.UserID != userID {
		return nil, domain.ErrAccessDenied
	}
	return doc, nil
}

func (s *documentService) List(ctx context.Context, userID uuid.UUID, offset, limit int) ([]domain.Document, int, error) {
	return s.docRepo.ListByUser(ctx, userID, offset, limit)
}

func (s *documentService) GetPages(ctx context.Context, userID, docID uuid.UUID) ([]domain.DocumentPage, error) {
	if _, err := s.GetByID(ctx, userID, docID); err != nil {
		return nil, err
	}
	return s.pageRepo.ListByDocument(ctx, docID)
}

func (s *documentService) GetDiagrams(ctx context.Context, userID, docID uuid.UUID) ([]domain.DocumentDiagram, error) {
	if _, err := s.GetByID(ctx, userID, docID); err != nil {
		return nil, err
	}
	return s.diagramRepo.ListByDocument(ctx, docID)
}

func (s *documentService) GetContract(ctx context.Context, userID, docID uuid.UUID) (*domain.Contract, error) {
	doc, err := s.GetByID(ctx, userID, docID)
	if err != nil {
		return nil, err
	}
	return s.contractRepo.GetByContentHash(ctx, doc.ContentHash)
}

func (s *documentService) GetDownloadURL(ctx context.Context, userID, docID uuid.UUID) (string, error) {
	doc, err := s.GetByID(ctx, userID, docID)
	if err != nil {
		return "", err
	}
	return s.storage.GetPresignedURL(ctx, doc.S3Bucket, doc.S3Key, s.s3cfg.PresignExpiry)
}

// Reprocess requeues a document. The pipeline's short-circuit check decides
// whether any real recomputation happens.
func (s *documentService) Reprocess(ctx context.Context, userID, docID uuid.UUID) error {
	doc, err := s.GetByID(ctx, userID, docID)
	if err != nil {
		return err
	}
	if doc.ProcessingStatus == domain.StatusProcessing {
		return domain.ErrAlreadyProcessing
	}
	return s.docRepo.MarkQueued(ctx, docID)
}

// Process runs the pipeline for one claimed document.
func (s *documentService) Process(ctx context.Context, doc *domain.Document) (*pipeline.Summary, error) {
	state, err := s.pipe.Run(ctx, doc.ID)
	if err != nil {
		log.Printf("documentService.Process: pipeline failed for document %s: %v", doc.ID, err)
		return nil, err
	}
	if state.DegradedProcessing {
		log.Printf("documentService.Process: document %s completed degraded (nodes: %s)",
			doc.ID, strings.Join(state.DegradedNodes, ", "))
	}
	return state.Summary, nil
}

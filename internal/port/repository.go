package port

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"stratadoc/internal/domain"
)

// DocumentRepository defines the contract for document persistence.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error)
	ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]domain.Document, int, error)
	// ClaimQueued atomically transitions up to limit queued documents to
	// processing and returns them, so concurrent workers never claim the
	// same document twice.
	ClaimQueued(ctx context.Context, limit int) ([]domain.Document, error)
	MarkQueued(ctx context.Context, id uuid.UUID) error
	MarkProcessingStarted(ctx context.Context, id uuid.UUID) error
	UpdateProcessingStatus(ctx context.Context, id uuid.UUID, status domain.ProcessingStatus, errorDetails json.RawMessage, completedAt *time.Time) error
	UpdateMetrics(ctx context.Context, id uuid.UUID, totalPages, totalWords, totalDiagrams int) error
}

// ContractRepository defines the contract for content-addressed contract records.
type ContractRepository interface {
	UpsertByContentHash(ctx context.Context, contract *domain.Contract) error
	GetByContentHash(ctx context.Context, contentHash string) (*domain.Contract, error)
}

// DocumentPageRepository persists per-page extraction rows.
type DocumentPageRepository interface {
	ReplacePages(ctx context.Context, documentID uuid.UUID, pages []domain.DocumentPage) error
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.DocumentPage, error)
}

// DocumentDiagramRepository persists detected diagram rows.
type DocumentDiagramRepository interface {
	ReplaceDiagrams(ctx context.Context, documentID uuid.UUID, diagrams []domain.DocumentDiagram) error
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.DocumentDiagram, error)
}

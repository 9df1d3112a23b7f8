package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"stratadoc/internal/domain"
	"stratadoc/internal/port"
)

type documentRepo struct {
	db *sqlx.DB
}

// NewDocumentRepo creates a new PostgreSQL-backed DocumentRepository.
func NewDocumentRepo(db *sqlx.DB) port.DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) Create(ctx context.Context, doc *domain.Document) error {
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	query := `INSERT INTO documents (
		id, user_id, original_name, file_type, file_size,
		s3_bucket, s3_key, content_type, content_hash, content_hmac,
		processing_status, processing_errors, process_attempts,
		total_pages, total_words, total_diagrams,
		started_at, completed_at, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9, $10,
		$11, $12, $13,
		$14, $15, $16,
		$17, $18, $19, $20
	)`

	_, err := r.db.ExecContext(ctx, query,
		doc.ID, doc.UserID, doc.OriginalName, doc.FileType, doc.FileSize,
		doc.S3Bucket, doc.S3Key, doc.ContentType, doc.ContentHash, doc.ContentHMAC,
		doc.ProcessingStatus, doc.ProcessingErrors, doc.ProcessAttempts,
		doc.TotalPages, doc.TotalWords, doc.TotalDiagrams,
		doc.StartedAt, doc.CompletedAt, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("documentRepo.Create: %w", err)
	}
	return nil
}

func (r *documentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	var doc domain.Document
	err := r.db.GetContext(ctx, &doc,
		"SELECT * FROM documents WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("documentRepo.GetByID: %w", err)
	}
	return &doc, nil
}

func (r *documentRepo) ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]domain.Document, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM documents WHERE user_id = $1", userID)
	if err != nil {
		return nil, 0, fmt.Errorf("documentRepo.ListByUser count: %w", err)
	}

	var docs []domain.Document
	err = r.db.SelectContext(ctx, &docs,
		`SELECT * FROM documents WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("documentRepo.ListByUser: %w", err)
	}
	return docs, total, nil
}

// ClaimQueued transitions up to limit queued documents to processing in a
// single statement, so concurrent workers never claim the same document.
func (r *documentRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.Document, error) {
	var docs []domain.Document
	err := r.db.SelectContext(ctx, &docs,
		`UPDATE documents SET
			processing_status = $1,
			process_attempts = process_attempts + 1,
			updated_at = NOW()
		 WHERE id IN (
			SELECT id FROM documents
			WHERE processing_status = $2
			ORDER BY created_at ASC
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		 )
		 RETURNING *`,
		domain.StatusProcessing, domain.StatusQueued, limit)
	if err != nil {
		return nil, fmt.Errorf("documentRepo.ClaimQueued: %w", err)
	}
	return docs, nil
}

func (r *documentRepo) MarkQueued(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE documents SET processing_status = $1, updated_at = NOW()
		 WHERE id = $2`,
		domain.StatusQueued, id)
	if err != nil {
		return fmt.Errorf("documentRepo.MarkQueued: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *documentRepo) MarkProcessingStarted(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE documents SET
			processing_status = $1, started_at = NOW(), updated_at = NOW()
		 WHERE id = $2`,
		domain.StatusProcessing, id)
	if err != nil {
		return fmt.Errorf("documentRepo.MarkProcessingStarted: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *documentRepo) UpdateProcessingStatus(ctx context.Context, id uuid.UUID, status domain.ProcessingStatus, errorDetails json.RawMessage, completedAt *time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE documents SET
			processing_status = $1, processing_errors = $2,
			completed_at = $3, updated_at = NOW()
		 WHERE id = $4`,
		status, errorDetails, completedAt, id)
	if err != nil {
		return fmt.Errorf("documentRepo.UpdateProcessingStatus: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *documentRepo) UpdateMetrics(ctx context.Context, id uuid.UUID, totalPages, totalWords, totalDiagrams int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE documents SET
			total_pages = $1, total_words = $2, total_diagrams = $3, updated_at = NOW()
		 WHERE id = $4`,
		totalPages, totalWords, totalDiagrams, id)
	if err != nil {
		return fmt.Errorf("documentRepo.UpdateMetrics: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

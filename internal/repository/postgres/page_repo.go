package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"stratadoc/internal/domain"
	"stratadoc/internal/port"
)

type pageRepo struct {
	db *sqlx.DB
}

// NewPageRepo creates a new PostgreSQL-backed DocumentPageRepository.
func NewPageRepo(db *sqlx.DB) port.DocumentPageRepository {
	return &pageRepo{db: db}
}

// ReplacePages atomically swaps a document's page rows. Reprocessing a
// document must not leave stale pages behind.
func (r *pageRepo) ReplacePages(ctx context.Context, documentID uuid.UUID, pages []domain.DocumentPage) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pageRepo.ReplacePages begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM document_pages WHERE document_id = $1", documentID); err != nil {
		return fmt.Errorf("pageRepo.ReplacePages delete: %w", err)
	}

	now := time.Now().UTC()
	for i := range pages {
		pages[i].CreatedAt = now
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO document_pages (
				id, document_id, page_number, text, confidence,
				method, word_count, has_diagrams, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			pages[i].ID, pages[i].DocumentID, pages[i].PageNumber, pages[i].Text,
			pages[i].Confidence, pages[i].Method, pages[i].WordCount,
			pages[i].HasDiagrams, pages[i].CreatedAt); err != nil {
			return fmt.Errorf("pageRepo.ReplacePages insert page %d: %w", pages[i].PageNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pageRepo.ReplacePages commit: %w", err)
	}
	return nil
}

func (r *pageRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.DocumentPage, error) {
	var pages []domain.DocumentPage
	err := r.db.SelectContext(ctx, &pages,
		`SELECT * FROM document_pages WHERE document_id = $1
		 ORDER BY page_number ASC`, documentID)
	if err != nil {
		return nil, fmt.Errorf("pageRepo.ListByDocument: %w", err)
	}
	return pages, nil
}

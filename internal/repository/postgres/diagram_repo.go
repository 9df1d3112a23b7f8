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

type diagramRepo struct {
	db *sqlx.DB
}

// NewDiagramRepo creates a new PostgreSQL-backed DocumentDiagramRepository.
func NewDiagramRepo(db *sqlx.DB) port.DocumentDiagramRepository {
	return &diagramRepo{db: db}
}

func (r *diagramRepo) ReplaceDiagrams(ctx context.Context, documentID uuid.UUID, diagrams []domain.DocumentDiagram) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("diagramRepo.ReplaceDiagrams begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM document_diagrams WHERE document_id = $1", documentID); err != nil {
		return fmt.Errorf("diagramRepo.ReplaceDiagrams delete: %w", err)
	}

	now := time.Now().UTC()
	for i := range diagrams {
		diagrams[i].CreatedAt = now
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO document_diagrams (
				id, document_id, page_number, type, image_uri, created_at
			) VALUES ($1, $2, $3, $4, $5, $6)`,
			diagrams[i].ID, diagrams[i].DocumentID, diagrams[i].PageNumber,
			diagrams[i].Type, diagrams[i].ImageURI, diagrams[i].CreatedAt); err != nil {
			return fmt.Errorf("diagramRepo.ReplaceDiagrams insert page %d: %w", diagrams[i].PageNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("diagramRepo.ReplaceDiagrams commit: %w", err)
	}
	return nil
}

func (r *diagramRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.DocumentDiagram, error) {
	var diagrams []domain.DocumentDiagram
	err := r.db.SelectContext(ctx, &diagrams,
		`SELECT * FROM document_diagrams WHERE document_id = $1
		 ORDER BY page_number ASC`, documentID)
	if err != nil {
		return nil, fmt.Errorf("diagramRepo.ListByDocument: %w", err)
	}
	return diagrams, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"stratadoc/internal/domain"
	"stratadoc/internal/port"
)

type artifactRepo struct {
	db *sqlx.DB
}

// NewArtifactRepo creates a new PostgreSQL-backed ArtifactRepository.
func NewArtifactRepo(db *sqlx.DB) port.ArtifactRepository {
	return &artifactRepo{db: db}
}

func (r *artifactRepo) GetFullText(ctx context.Context, key domain.ContentKey) (*domain.FullTextArtifact, error) {
	var a domain.FullTextArtifact
	err := r.db.GetContext(ctx, &a,
		`SELECT * FROM full_text_artifacts
		 WHERE content_hmac = $1 AND algorithm_version = $2 AND params_fingerprint = $3`,
		key.ContentHMAC, key.AlgorithmVersion, key.ParamsFingerprint)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("artifactRepo.GetFullText: %w", err)
	}
	return &a, nil
}

func (r *artifactRepo) CreateFullText(ctx context.Context, a *domain.FullTextArtifact) error {
	a.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO full_text_artifacts (
			id, content_hmac, algorithm_version, params_fingerprint,
			full_text_uri, full_text_sha256, total_pages, total_words,
			methods, timings, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (content_hmac, algorithm_version, params_fingerprint) DO NOTHING`,
		a.ID, a.ContentHMAC, a.AlgorithmVersion, a.ParamsFingerprint,
		a.FullTextURI, a.FullTextSHA256, a.TotalPages, a.TotalWords,
		a.Methods, a.Timings, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("artifactRepo.CreateFullText: %w", err)
	}
	return nil
}

func (r *artifactRepo) GetPage(ctx context.Context, key domain.ContentKey, pageNumber int) (*domain.PageArtifact, error) {
	var a domain.PageArtifact
	err := r.db.GetContext(ctx, &a,
		`SELECT * FROM page_artifacts
		 WHERE content_hmac = $1 AND algorithm_version = $2 AND params_fingerprint = $3
		   AND page_number = $4`,
		key.ContentHMAC, key.AlgorithmVersion, key.ParamsFingerprint, pageNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("artifactRepo.GetPage: %w", err)
	}
	return &a, nil
}

func (r *artifactRepo) CreatePage(ctx context.Context, a *domain.PageArtifact) error {
	a.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO page_artifacts (
			id, content_hmac, algorithm_version, params_fingerprint,
			page_number, page_text_uri, page_text_sha256, content_type,
			layout, metrics, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (content_hmac, algorithm_version, params_fingerprint, page_number) DO NOTHING`,
		a.ID, a.ContentHMAC, a.AlgorithmVersion, a.ParamsFingerprint,
		a.PageNumber, a.PageTextURI, a.PageTextSHA256, a.ContentType,
		a.Layout, a.Metrics, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("artifactRepo.CreatePage: %w", err)
	}
	return nil
}

func (r *artifactRepo) ListPages(ctx context.Context, key domain.ContentKey) ([]domain.PageArtifact, error) {
	var pages []domain.PageArtifact
	err := r.db.SelectContext(ctx, &pages,
		`SELECT * FROM page_artifacts
		 WHERE content_hmac = $1 AND algorithm_version = $2 AND params_fingerprint = $3
		 ORDER BY page_number ASC`,
		key.ContentHMAC, key.AlgorithmVersion, key.ParamsFingerprint)
	if err != nil {
		return nil, fmt.Errorf("artifactRepo.ListPages: %w", err)
	}
	return pages, nil
}

func (r *artifactRepo) GetDiagram(ctx context.Context, key domain.ContentKey, pageNumber int, diagramKey string) (*domain.DiagramArtifact, error) {
	var a domain.DiagramArtifact
	err := r.db.GetContext(ctx, &a,
		`SELECT * FROM diagram_artifacts
		 WHERE content_hmac = $1 AND algorithm_version = $2 AND params_fingerprint = $3
		   AND page_number = $4 AND diagram_key = $5`,
		key.ContentHMAC, key.AlgorithmVersion, key.ParamsFingerprint, pageNumber, diagramKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("artifactRepo.GetDiagram: %w", err)
	}
	return &a, nil
}

func (r *artifactRepo) CreateDiagram(ctx context.Context, a *domain.DiagramArtifact) error {
	a.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO diagram_artifacts (
			id, content_hmac, algorithm_version, params_fingerprint,
			page_number, diagram_key, image_uri, image_sha256,
			diagram_meta, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (content_hmac, algorithm_version, params_fingerprint, page_number, diagram_key) DO NOTHING`,
		a.ID, a.ContentHMAC, a.AlgorithmVersion, a.ParamsFingerprint,
		a.PageNumber, a.DiagramKey, a.ImageURI, a.ImageSHA256,
		a.DiagramMeta, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("artifactRepo.CreateDiagram: %w", err)
	}
	return nil
}

func (r *artifactRepo) ListDiagrams(ctx context.Context, key domain.ContentKey) ([]domain.DiagramArtifact, error) {
	var diagrams []domain.DiagramArtifact
	err := r.db.SelectContext(ctx, &diagrams,
		`SELECT * FROM diagram_artifacts
		 WHERE content_hmac = $1 AND algorithm_version = $2 AND params_fingerprint = $3
		 ORDER BY page_number ASC, diagram_key ASC`,
		key.ContentHMAC, key.AlgorithmVersion, key.ParamsFingerprint)
	if err != nil {
		return nil, fmt.Errorf("artifactRepo.ListDiagrams: %w", err)
	}
	return diagrams, nil
}

package port

import (
	"context"

	"stratadoc/internal/domain"
)

// ArtifactRepository defines persistence for content-addressed artifacts.
// Lookups are pure reads; writes are append-only (artifacts are never
// mutated once created). Concurrent writers racing on the same key are
// tolerated by callers, so none of these methods need to be serialized.
type ArtifactRepository interface {
	GetFullText(ctx context.Context, key domain.ContentKey) (*domain.FullTextArtifact, error)
	CreateFullText(ctx context.Context, artifact *domain.FullTextArtifact) error

	GetPage(ctx context.Context, key domain.ContentKey, pageNumber int) (*domain.PageArtifact, error)
	CreatePage(ctx context.Context, artifact *domain.PageArtifact) error
	ListPages(ctx context.Context, key domain.ContentKey) ([]domain.PageArtifact, error)

	GetDiagram(ctx context.Context, key domain.ContentKey, pageNumber int, diagramKey string) (*domain.DiagramArtifact, error)
	CreateDiagram(ctx context.Context, artifact *domain.DiagramArtifact) error
	ListDiagrams(ctx context.Context, key domain.ContentKey) ([]domain.DiagramArtifact, error)
}

package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"stratadoc/internal/blob"
	"stratadoc/internal/domain"
	"stratadoc/internal/port"
)

// Store is the content-addressed artifact store. Records live in the
// artifact repository; blob content lives in object storage. Writes follow a
// best-effort idempotency window: each Put re-checks for an existing
// artifact immediately before writing. A race between two producers is
// tolerated — artifacts are immutable and content-addressed, so a duplicate
// write wastes storage but is never incorrect.
//
// There is no garbage collection: orphaned artifacts accumulate. Storage is
// cheap relative to the OCR/LLM recomputation the cache avoids.
type Store struct {
	repo  port.ArtifactRepository
	blobs *blob.Service
}

// NewStore creates an artifact store.
func NewStore(repo port.ArtifactRepository, blobs *blob.Service) *Store {
	return &Store{repo: repo, blobs: blobs}
}

// FullTextMeta carries the kind-specific metadata for a full-text artifact.
type FullTextMeta struct {
	TotalPages int
	TotalWords int
	Methods    map[string]int
	Timings    map[string]float64
}

// GetFullText looks up the full-text artifact for key and downloads its
// blob, verifying the stored hash. Returns domain.ErrArtifactNotFound when
// no artifact exists.
func (s *Store) GetFullText(ctx context.Context, key domain.ContentKey) (*domain.FullTextArtifact, string, error) {
	a, err := s.repo.GetFullText(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrArtifactNotFound
		}
		return nil, "", fmt.Errorf("artifact lookup: %w", err)
	}
	text, err := s.blobs.DownloadText(ctx, a.FullTextURI)
	if err != nil {
		return nil, "", fmt.Errorf("artifact blob: %w", err)
	}
	if blob.SHA256Hex([]byte(text)) != a.FullTextSHA256 {
		return nil, "", domain.ErrBlobIntegrity
	}
	return a, text, nil
}

// PutFullText stores the whole-document text as a full-text artifact. If an
// artifact already exists for the key it is returned unchanged.
func (s *Store) PutFullText(ctx context.Context, key domain.ContentKey, text string, meta FullTextMeta) (*domain.FullTextArtifact, error) {
	if existing, err := s.repo.GetFullText(ctx, key); err == nil {
		return existing, nil
	}

	uri, sha, err := s.blobs.UploadText(ctx, text, key.ContentHMAC, fmt.Sprintf("full_text_%s", shortFingerprint(key)))
	if err != nil {
		return nil, err
	}

	methods, _ := json.Marshal(meta.Methods)
	timings, _ := json.Marshal(meta.Timings)
	a := &domain.FullTextArtifact{
		ID:                uuid.New(),
		ContentHMAC:       key.ContentHMAC,
		AlgorithmVersion:  key.AlgorithmVersion,
		ParamsFingerprint: key.ParamsFingerprint,
		FullTextURI:       uri,
		FullTextSHA256:    sha,
		TotalPages:        meta.TotalPages,
		TotalWords:        meta.TotalWords,
		Methods:           methods,
		Timings:           timings,
	}
	if err := s.repo.CreateFullText(ctx, a); err != nil {
		return nil, fmt.Errorf("artifact create: %w", err)
	}
	return a, nil
}

// PageMeta carries the kind-specific metadata for a page artifact.
type PageMeta struct {
	ContentType string
	Layout      map[string]bool
	Metrics     map[string]float64
}

// GetPage looks up one page artifact and downloads its blob, verifying the
// stored hash.
func (s *Store) GetPage(ctx context.Context, key domain.ContentKey, pageNumber int) (*domain.PageArtifact, string, error) {
	a, err := s.repo.GetPage(ctx, key, pageNumber)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrArtifactNotFound
		}
		return nil, "", fmt.Errorf("artifact lookup: %w", err)
	}
	text, err := s.blobs.DownloadText(ctx, a.PageTextURI)
	if err != nil {
		return nil, "", fmt.Errorf("artifact blob: %w", err)
	}
	if blob.SHA256Hex([]byte(text)) != a.PageTextSHA256 {
		return nil, "", domain.ErrBlobIntegrity
	}
	return a, text, nil
}

// ListPages returns all page artifacts for a key, without blob content.
func (s *Store) ListPages(ctx context.Context, key domain.ContentKey) ([]domain.PageArtifact, error) {
	return s.repo.ListPages(ctx, key)
}

// PutPage stores one page's text as a page artifact.
func (s *Store) PutPage(ctx context.Context, key domain.ContentKey, pageNumber int, text string, meta PageMeta) (*domain.PageArtifact, error) {
	if existing, err := s.repo.GetPage(ctx, key, pageNumber); err == nil {
		return existing, nil
	}

	uri, sha, err := s.blobs.UploadText(ctx, text, key.ContentHMAC, fmt.Sprintf("page_%04d_%s", pageNumber, shortFingerprint(key)))
	if err != nil {
		return nil, err
	}

	layout, _ := json.Marshal(meta.Layout)
	metrics, _ := json.Marshal(meta.Metrics)
	a := &domain.PageArtifact{
		ID:                uuid.New(),
		ContentHMAC:       key.ContentHMAC,
		AlgorithmVersion:  key.AlgorithmVersion,
		ParamsFingerprint: key.ParamsFingerprint,
		PageNumber:        pageNumber,
		PageTextURI:       uri,
		PageTextSHA256:    sha,
		ContentType:       meta.ContentType,
		Layout:            layout,
		Metrics:           metrics,
	}
	if err := s.repo.CreatePage(ctx, a); err != nil {
		return nil, fmt.Errorf("artifact create: %w", err)
	}
	return a, nil
}

// GetDiagram looks up one diagram artifact and downloads its page image,
// verifying the stored hash.
func (s *Store) GetDiagram(ctx context.Context, key domain.ContentKey, pageNumber int, diagramKey string) (*domain.DiagramArtifact, []byte, error) {
	a, err := s.repo.GetDiagram(ctx, key, pageNumber, diagramKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrArtifactNotFound
		}
		return nil, nil, fmt.Errorf("artifact lookup: %w", err)
	}
	image, err := s.blobs.DownloadImage(ctx, a.ImageURI)
	if err != nil {
		return nil, nil, fmt.Errorf("artifact blob: %w", err)
	}
	if blob.SHA256Hex(image) != a.ImageSHA256 {
		return nil, nil, domain.ErrBlobIntegrity
	}
	return a, image, nil
}

// ListDiagrams returns all diagram artifacts for a key, without blobs.
func (s *Store) ListDiagrams(ctx context.Context, key domain.ContentKey) ([]domain.DiagramArtifact, error) {
	return s.repo.ListDiagrams(ctx, key)
}

// PutDiagram stores a rendered page image plus its diagram hints.
func (s *Store) PutDiagram(ctx context.Context, key domain.ContentKey, pageNumber int, diagramKey string, image []byte, hints []port.DiagramHint) (*domain.DiagramArtifact, error) {
	if existing, err := s.repo.GetDiagram(ctx, key, pageNumber, diagramKey); err == nil {
		return existing, nil
	}

	uri, sha, err := s.blobs.UploadImage(ctx, image, key.ContentHMAC, fmt.Sprintf("diagram_%04d_%s", pageNumber, diagramKey))
	if err != nil {
		return nil, err
	}

	meta, _ := json.Marshal(map[string]any{"hints": hints})
	a := &domain.DiagramArtifact{
		ID:                uuid.New(),
		ContentHMAC:       key.ContentHMAC,
		AlgorithmVersion:  key.AlgorithmVersion,
		ParamsFingerprint: key.ParamsFingerprint,
		PageNumber:        pageNumber,
		DiagramKey:        diagramKey,
		ImageURI:          uri,
		ImageSHA256:       sha,
		DiagramMeta:       meta,
	}
	if err := s.repo.CreateDiagram(ctx, a); err != nil {
		return nil, fmt.Errorf("artifact create: %w", err)
	}
	return a, nil
}

// LogStoreFailure is the shared policy for producer stages: a caching
// failure must not void a successful computation. Log and move on.
func LogStoreFailure(stage string, err error) {
	if err != nil {
		log.Printf("artifact.Store: %s: cache write failed (computation kept): %v", stage, err)
	}
}

func shortFingerprint(key domain.ContentKey) string {
	fp := key.ParamsFingerprint
	if len(fp) > 12 {
		fp = fp[:12]
	}
	return fp
}

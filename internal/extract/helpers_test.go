package extract_test

import (
	"context"
	"fmt"
	"io"
	"sync"

	"stratadoc/internal/artifact"
	"stratadoc/internal/blob"
	"stratadoc/internal/domain"
	"stratadoc/internal/port"
)

// memRepo is an in-memory ArtifactRepository for exercising the cache path
// end to end.
type memRepo struct {
	mu        sync.Mutex
	fullTexts map[string]*domain.FullTextArtifact
	pages     map[string]*domain.PageArtifact
	diagrams  map[string]*domain.DiagramArtifact
}

func newMemRepo() *memRepo {
	return &memRepo{
		fullTexts: map[string]*domain.FullTextArtifact{},
		pages:     map[string]*domain.PageArtifact{},
		diagrams:  map[string]*domain.DiagramArtifact{},
	}
}

func (r *memRepo) GetFullText(_ context.Context, key domain.ContentKey) (*domain.FullTextArtifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.fullTexts[key.String()]; ok {
		return a, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memRepo) CreateFullText(_ context.Context, a *domain.FullTextArtifact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := domain.ContentKey{ContentHMAC: a.ContentHMAC, AlgorithmVersion: a.AlgorithmVersion, ParamsFingerprint: a.ParamsFingerprint}
	r.fullTexts[key.String()] = a
	return nil
}

func (r *memRepo) GetPage(_ context.Context, key domain.ContentKey, pageNumber int) (*domain.PageArtifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.pages[fmt.Sprintf("%s/%d", key, pageNumber)]; ok {
		return a, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memRepo) CreatePage(_ context.Context, a *domain.PageArtifact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := domain.ContentKey{ContentHMAC: a.ContentHMAC, AlgorithmVersion: a.AlgorithmVersion, ParamsFingerprint: a.ParamsFingerprint}
	r.pages[fmt.Sprintf("%s/%d", key, a.PageNumber)] = a
	return nil
}

func (r *memRepo) ListPages(_ context.Context, key domain.ContentKey) ([]domain.PageArtifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PageArtifact
	for p := 1; p <= len(r.pages); p++ {
		if a, ok := r.pages[fmt.Sprintf("%s/%d", key, p)]; ok {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memRepo) GetDiagram(_ context.Context, key domain.ContentKey, pageNumber int, diagramKey string) (*domain.DiagramArtifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.diagrams[fmt.Sprintf("%s/%d/%s", key, pageNumber, diagramKey)]; ok {
		return a, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memRepo) CreateDiagram(_ context.Context, a *domain.DiagramArtifact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := domain.ContentKey{ContentHMAC: a.ContentHMAC, AlgorithmVersion: a.AlgorithmVersion, ParamsFingerprint: a.ParamsFingerprint}
	r.diagrams[fmt.Sprintf("%s/%d/%s", key, a.PageNumber, a.DiagramKey)] = a
	return nil
}

func (r *memRepo) ListDiagrams(_ context.Context, key domain.ContentKey) ([]domain.DiagramArtifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.DiagramArtifact
	for _, a := range r.diagrams {
		if a.ContentHMAC == key.ContentHMAC && a.AlgorithmVersion == key.AlgorithmVersion && a.ParamsFingerprint == key.ParamsFingerprint {
			out = append(out, *a)
		}
	}
	return out, nil
}

// memStorage is an in-memory ObjectStorage.
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}}
}

func (s *memStorage) Upload(_ context.Context, input port.UploadInput) (*port.UploadOutput, error) {
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[input.Bucket+"/"+input.Key] = data
	return &port.UploadOutput{Location: input.Key}, nil
}

func (s *memStorage) Download(_ context.Context, bucket, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[bucket+"/"+key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func (s *memStorage) Delete(_ context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, bucket+"/"+key)
	return nil
}

func (s *memStorage) GetPresignedURL(_ context.Context, bucket, key string, _ int64) (string, error) {
	return "https://example.com/" + bucket + "/" + key, nil
}

func newMemArtifactStore() *artifact.Store {
	return artifact.NewStore(newMemRepo(), blob.NewService(newMemStorage(), "test-bucket"))
}

// fakeSource is a scripted PageSource.
type fakeSource struct {
	texts  []string
	images []bool
}

func (f *fakeSource) PageCount() int { return len(f.texts) }

func (f *fakeSource) PageText(page int) (string, error) {
	return f.texts[page-1], nil
}

func (f *fakeSource) RenderPNG(page int, _ float64) ([]byte, error) {
	return []byte(fmt.Sprintf("png-page-%d", page)), nil
}

func (f *fakeSource) PageHasImages(page int) bool {
	if f.images == nil {
		return false
	}
	return f.images[page-1]
}

func (f *fakeSource) Close() error { return nil }

// fakeEngine is a scripted VisionEngine counting its invocations.
type fakeEngine struct {
	mu       sync.Mutex
	calls    int
	text     string
	diagrams []port.DiagramHint
	err      error
}

func (f *fakeEngine) ExtractPage(_ context.Context, _ port.VisionInput) (*port.PageInsight, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &port.PageInsight{Text: f.text, Diagrams: f.diagrams, Confidence: 0.9}, nil
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"stratadoc/internal/domain"
)

// MockArtifactRepo is a mock implementation of port.ArtifactRepository.
type MockArtifactRepo struct {
	mock.Mock
}

func (m *MockArtifactRepo) GetFullText(ctx context.Context, key domain.ContentKey) (*domain.FullTextArtifact, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FullTextArtifact), args.Error(1)
}

func (m *MockArtifactRepo) CreateFullText(ctx context.Context, artifact *domain.FullTextArtifact) error {
	args := m.Called(ctx, artifact)
	return args.Error(0)
}

func (m *MockArtifactRepo) GetPage(ctx context.Context, key domain.ContentKey, pageNumber int) (*domain.PageArtifact, error) {
	args := m.Called(ctx, key, pageNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PageArtifact), args.Error(1)
}

func (m *MockArtifactRepo) CreatePage(ctx context.Context, artifact *domain.PageArtifact) error {
	args := m.Called(ctx, artifact)
	return args.Error(0)
}

func (m *MockArtifactRepo) ListPages(ctx context.Context, key domain.ContentKey) ([]domain.PageArtifact, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PageArtifact), args.Error(1)
}

func (m *MockArtifactRepo) GetDiagram(ctx context.Context, key domain.ContentKey, pageNumber int, diagramKey string) (*domain.DiagramArtifact, error) {
	args := m.Called(ctx, key, pageNumber, diagramKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DiagramArtifact), args.Error(1)
}

func (m *MockArtifactRepo) CreateDiagram(ctx context.Context, artifact *domain.DiagramArtifact) error {
	args := m.Called(ctx, artifact)
	return args.Error(0)
}

func (m *MockArtifactRepo) ListDiagrams(ctx context.Context, key domain.ContentKey) ([]domain.DiagramArtifact, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DiagramArtifact), args.Error(1)
}

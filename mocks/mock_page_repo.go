package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"stratadoc/internal/domain"
)

// MockPageRepo is a mock implementation of port.DocumentPageRepository.
type MockPageRepo struct {
	mock.Mock
}

func (m *MockPageRepo) ReplacePages(ctx context.Context, documentID uuid.UUID, pages []domain.DocumentPage) error {
	args := m.Called(ctx, documentID, pages)
	return args.Error(0)
}

func (m *MockPageRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.DocumentPage, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DocumentPage), args.Error(1)
}

// MockDiagramRepo is a mock implementation of port.DocumentDiagramRepository.
type MockDiagramRepo struct {
	mock.Mock
}

func (m *MockDiagramRepo) ReplaceDiagrams(ctx context.Context, documentID uuid.UUID, diagrams []domain.DocumentDiagram) error {
	args := m.Called(ctx, documentID, diagrams)
	return args.Error(0)
}

func (m *MockDiagramRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.DocumentDiagram, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DocumentDiagram), args.Error(1)
}

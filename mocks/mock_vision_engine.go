package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"stratadoc/internal/port"
)

// MockVisionEngine is a mock implementation of port.VisionEngine.
type MockVisionEngine struct {
	mock.Mock
}

func (m *MockVisionEngine) ExtractPage(ctx context.Context, input port.VisionInput) (*port.PageInsight, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.PageInsight), args.Error(1)
}

func (m *MockVisionEngine) Name() string {
	args := m.Called()
	return args.String(0)
}

// MockDiagramClassifier is a mock implementation of port.DiagramClassifier.
type MockDiagramClassifier struct {
	mock.Mock
}

func (m *MockDiagramClassifier) ClassifyDiagrams(ctx context.Context, imagePNG []byte, pageNumber int) ([]port.DiagramHint, error) {
	args := m.Called(ctx, imagePNG, pageNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]port.DiagramHint), args.Error(1)
}

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"stratadoc/internal/port"
)

// MockPropertyDataClient is a mock implementation of port.PropertyDataClient.
type MockPropertyDataClient struct {
	mock.Mock
}

func (m *MockPropertyDataClient) SuggestProperties(ctx context.Context, query string) ([]port.PropertySuggestion, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]port.PropertySuggestion), args.Error(1)
}

func (m *MockPropertyDataClient) GetValuation(ctx context.Context, propertyID string) (*port.Valuation, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.Valuation), args.Error(1)
}

func (m *MockPropertyDataClient) Name() string {
	args := m.Called()
	return args.String(0)
}

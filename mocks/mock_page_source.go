package mocks

import (
	"github.com/stretchr/testify/mock"

	"stratadoc/internal/domain"
	"stratadoc/internal/port"
)

// MockPageSource is a mock implementation of port.PageSource.
type MockPageSource struct {
	mock.Mock
}

func (m *MockPageSource) PageCount() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockPageSource) PageText(page int) (string, error) {
	args := m.Called(page)
	return args.String(0), args.Error(1)
}

func (m *MockPageSource) RenderPNG(page int, zoom float64) ([]byte, error) {
	args := m.Called(page, zoom)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockPageSource) PageHasImages(page int) bool {
	args := m.Called(page)
	return args.Bool(0)
}

func (m *MockPageSource) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockDocumentOpener is a mock implementation of port.DocumentOpener.
type MockDocumentOpener struct {
	mock.Mock
}

func (m *MockDocumentOpener) Open(data []byte, fileType domain.FileType) (port.PageSource, error) {
	args := m.Called(data, fileType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(port.PageSource), args.Error(1)
}

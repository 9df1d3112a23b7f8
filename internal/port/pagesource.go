package port

import "stratadoc/internal/domain"

// PageSource exposes a document's pages for extraction. Pages are 1-based.
type PageSource interface {
	PageCount() int
	PageText(page int) (string, error)
	RenderPNG(page int, zoom float64) ([]byte, error)
	PageHasImages(page int) bool
	Close() error
}

// DocumentOpener opens raw document bytes as a PageSource.
type DocumentOpener interface {
	Open(data []byte, fileType domain.FileType) (PageSource, error)
}

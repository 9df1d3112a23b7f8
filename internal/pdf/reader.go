package pdf

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"stratadoc/internal/domain"
	"stratadoc/internal/port"
)

// baseDPI is the rendering resolution at zoom 1.0.
const baseDPI = 72

// Opener opens uploaded document bytes as a port.PageSource. PDFs get a
// MuPDF-backed source with pdfcpu structural inspection; single images get a
// one-page wrapper.
type Opener struct{}

// NewOpener creates a document opener.
func NewOpener() *Opener {
	return &Opener{}
}

func (o *Opener) Open(data []byte, fileType domain.FileType) (port.PageSource, error) {
	switch fileType {
	case domain.FileTypePDF:
		return openPDF(data)
	case domain.FileTypeJPG, domain.FileTypePNG:
		return openImage(data)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, fileType)
	}
}

type pdfSource struct {
	doc *fitz.Document
	// pagesWithImages holds 1-based page numbers that carry image XObjects.
	pagesWithImages map[int]bool
}

func openPDF(data []byte) (*pdfSource, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	src := &pdfSource{doc: doc, pagesWithImages: map[int]bool{}}

	// Structural pass: find embedded image streams per page. Failure here
	// only costs a heuristic signal, never the extraction itself.
	if err := src.inspectImages(data); err != nil {
		log.Printf("pdf.Opener: image inspection failed, has_images signal disabled: %v", err)
	}

	return src, nil
}

// inspectImages walks the PDF's XRef structure looking for image XObjects on
// each page.
func (s *pdfSource) inspectImages(data []byte) error {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return fmt.Errorf("pdfcpu read: %w", err)
	}
	if ctx.Optimize == nil {
		return nil
	}
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		if len(pdfcpu.ImageObjNrs(ctx, pageNr)) > 0 {
			s.pagesWithImages[pageNr] = true
		}
	}
	return nil
}

func (s *pdfSource) PageCount() int {
	return s.doc.NumPage()
}

func (s *pdfSource) PageText(page int) (string, error) {
	text, err := s.doc.Text(page - 1)
	if err != nil {
		return "", fmt.Errorf("reading text layer of page %d: %w", page, err)
	}
	return text, nil
}

func (s *pdfSource) RenderPNG(page int, zoom float64) ([]byte, error) {
	if zoom <= 0 {
		zoom = 1.0
	}
	img, err := s.doc.ImageDPI(page-1, baseDPI*zoom)
	if err != nil {
		return nil, fmt.Errorf("rendering page %d: %w", page, err)
	}
	return encodePNG(img)
}

func (s *pdfSource) PageHasImages(page int) bool {
	return s.pagesWithImages[page]
}

func (s *pdfSource) Close() error {
	return s.doc.Close()
}

// imageSource wraps a single uploaded image as a one-page document with no
// native text layer, so the extraction heuristics drive it straight to OCR.
type imageSource struct {
	img image.Image
}

func openImage(data []byte) (*imageSource, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return &imageSource{img: img}, nil
}

func (s *imageSource) PageCount() int { return 1 }

func (s *imageSource) PageText(page int) (string, error) {
	if page != 1 {
		return "", fmt.Errorf("image has a single page, requested %d", page)
	}
	return "", nil
}

func (s *imageSource) RenderPNG(page int, zoom float64) ([]byte, error) {
	if page != 1 {
		return nil, fmt.Errorf("image has a single page, requested %d", page)
	}
	return encodePNG(s.img)
}

func (s *imageSource) PageHasImages(page int) bool { return true }

func (s *imageSource) Close() error { return nil }

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

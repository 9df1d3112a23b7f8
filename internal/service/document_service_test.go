package service_test

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stratadoc/internal/config"
	"stratadoc/internal/domain"
	"stratadoc/internal/port"
	"stratadoc/internal/service"
	"stratadoc/mocks"
)

type serviceFixture struct {
	docs      *mocks.MockDocumentRepo
	pages     *mocks.MockPageRepo
	diagrams  *mocks.MockDiagramRepo
	contracts *mocks.MockContractRepo
	storage   *mocks.MockObjectStorage
	svc       service.DocumentService
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		docs:      new(mocks.MockDocumentRepo),
		pages:     new(mocks.MockPageRepo),
		diagrams:  new(mocks.MockDiagramRepo),
		contracts: new(mocks.MockContractRepo),
		storage:   new(mocks.MockObjectStorage),
	}
	f.svc = service.NewDocumentService(
		f.docs, f.pages, f.diagrams, f.contracts, f.storage, nil,
		&config.S3Config{Bucket: "docs-bucket", MaxFileSizeMB: 1, PresignExpiry: 3600},
		&config.ArtifactConfig{HMACKey: "test-hmac-key"},
	)
	return f
}

// multipartFile builds a real multipart.FileHeader around data, the same shape
// gin hands the service from a form upload.
func multipartFile(t *testing.T, name string, data []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	reader := multipart.NewReader(&buf, w.Boundary())
	form, err := reader.ReadForm(int64(len(data)) + 4096)
	require.NoError(t, err)
	header := form.File["file"][0]
	file, err := header.Open()
	require.NoError(t, err)
	return file, header
}

func pdfBytes() []byte {
	return []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n" + strings.Repeat("stream data ", 10))
}

func TestUpload(t *testing.T) {
	f := newServiceFixture()
	userID := uuid.New()
	file, header := multipartFile(t, "contract.pdf", pdfBytes())

	f.docs.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Bucket == "docs-bucket" && in.ContentType == "application/pdf"
	})).Return(&port.UploadOutput{}, nil)
	f.docs.On("MarkQueued", mock.Anything, mock.Anything).Return(nil)

	doc, err := f.svc.Upload(context.Background(), service.DocumentUploadInput{
		UserID: userID,
		File:   file,
		Header: header,
	})

	require.NoError(t, err)
	assert.Equal(t, userID, doc.UserID)
	assert.Equal(t, domain.FileTypePDF, doc.FileType)
	assert.Equal(t, domain.StatusQueued, doc.ProcessingStatus)
	assert.NotEmpty(t, doc.ContentHash)
	assert.NotEmpty(t, doc.ContentHMAC)
	assert.NotEqual(t, doc.ContentHash, doc.ContentHMAC)
	assert.True(t, strings.HasPrefix(doc.S3Key, "users/"+userID.String()+"/documents/"))
}

func TestUpload_UnsupportedExtension(t *testing.T) {
	f := newServiceFixture()
	file, header := multipartFile(t, "contract.docx", pdfBytes())

	_, err := f.svc.Upload(context.Background(), service.DocumentUploadInput{
		UserID: uuid.New(),
		File:   file,
		Header: header,
	})

	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	f.docs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpload_ContentMismatchRejected(t *testing.T) {
	f := newServiceFixture()
	// Claims to be a PDF by extension, but the bytes are plain text.
	file, header := multipartFile(t, "contract.pdf", []byte("just some plain text, no pdf header"))

	_, err := f.svc.Upload(context.Background(), service.DocumentUploadInput{
		UserID: uuid.New(),
		File:   file,
		Header: header,
	})

	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
}

func TestUpload_FileTooLarge(t *testing.T) {
	f := newServiceFixture()
	big := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("a"), 2*1024*1024)...)
	file, header := multipartFile(t, "contract.pdf", big)

	_, err := f.svc.Upload(context.Background(), service.DocumentUploadInput{
		UserID: uuid.New(),
		File:   file,
		Header: header,
	})

	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
}

func TestUpload_StorageFailureMarksFailed(t *testing.T) {
	f := newServiceFixture()
	file, header := multipartFile(t, "contract.pdf", pdfBytes())

	f.docs.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.storage.On("Upload", mock.Anything, mock.Anything).Return(nil, errors.New("bucket unreachable"))
	f.docs.On("UpdateProcessingStatus", mock.Anything, mock.Anything, domain.StatusFailed, mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Upload(context.Background(), service.DocumentUploadInput{
		UserID: uuid.New(),
		File:   file,
		Header: header,
	})

	assert.ErrorIs(t, err, domain.ErrUploadFailed)
	f.docs.AssertCalled(t, "UpdateProcessingStatus", mock.Anything, mock.Anything, domain.StatusFailed, mock.Anything, mock.Anything)
	f.docs.AssertNotCalled(t, "MarkQueued", mock.Anything, mock.Anything)
}

func TestGetByID_EnforcesOwnership(t *testing.T) {
	f := newServiceFixture()
	owner := uuid.New()
	docID := uuid.New()

	f.docs.On("GetByID", mock.Anything, docID).Return(&domain.Document{ID: docID, UserID: owner}, nil)

	_, err := f.svc.GetByID(context.Background(), uuid.New(), docID)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	doc, err := f.svc.GetByID(context.Background(), owner, docID)
	require.NoError(t, err)
	assert.Equal(t, docID, doc.ID)
}

func TestGetPages_DeniedForForeignDocument(t *testing.T) {
	f := newServiceFixture()
	docID := uuid.New()

	f.docs.On("GetByID", mock.Anything, docID).Return(&domain.Document{ID: docID, UserID: uuid.New()}, nil)

	_, err := f.svc.GetPages(context.Background(), uuid.New(), docID)

	assert.ErrorIs(t, err, domain.ErrAccessDenied)
	f.pages.AssertNotCalled(t, "ListByDocument", mock.Anything, mock.Anything)
}

func TestGetDownloadURL(t *testing.T) {
	f := newServiceFixture()
	userID := uuid.New()
	docID := uuid.New()

	f.docs.On("GetByID", mock.Anything, docID).Return(&domain.Document{
		ID: docID, UserID: userID, S3Bucket: "docs-bucket", S3Key: "users/u/documents/d/contract.pdf",
	}, nil)
	f.storage.On("GetPresignedURL", mock.Anything, "docs-bucket", "users/u/documents/d/contract.pdf", int64(3600)).
		Return("https://signed.example.com/contract.pdf", nil)

	url, err := f.svc.GetDownloadURL(context.Background(), userID, docID)

	require.NoError(t, err)
	assert.Equal(t, "https://signed.example.com/contract.pdf", url)
}

func TestReprocess(t *testing.T) {
	f := newServiceFixture()
	userID := uuid.New()
	docID := uuid.New()

	f.docs.On("GetByID", mock.Anything, docID).Return(&domain.Document{
		ID: docID, UserID: userID, ProcessingStatus: domain.StatusFailed,
	}, nil)
	f.docs.On("MarkQueued", mock.Anything, docID).Return(nil)

	err := f.svc.Reprocess(context.Background(), userID, docID)

	require.NoError(t, err)
	f.docs.AssertCalled(t, "MarkQueued", mock.Anything, docID)
}

func TestReprocess_RejectsInFlightDocument(t *testing.T) {
	f := newServiceFixture()
	userID := uuid.New()
	docID := uuid.New()

	f.docs.On("GetByID", mock.Anything, docID).Return(&domain.Document{
		ID: docID, UserID: userID, ProcessingStatus: domain.StatusProcessing,
	}, nil)

	err := f.svc.Reprocess(context.Background(), userID, docID)

	assert.ErrorIs(t, err, domain.ErrAlreadyProcessing)
	f.docs.AssertNotCalled(t, "MarkQueued", mock.Anything, mock.Anything)
}

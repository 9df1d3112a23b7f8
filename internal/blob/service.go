package blob

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"stratadoc/internal/port"
)

// Service uploads and downloads the raw text and image blobs that artifacts
// reference. Every upload returns the blob's SHA-256 so integrity can be
// checked later, independently of the artifact's content key.
type Service struct {
	storage port.ObjectStorage
	bucket  string
}

// NewService creates a blob service writing under the given bucket.
func NewService(storage port.ObjectStorage, bucket string) *Service {
	return &Service{storage: storage, bucket: bucket}
}

// URI returns the s3:// URI for a key in the service's bucket.
func (s *Service) URI(key string) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, key)
}

// ParseURI splits an s3://bucket/key URI.
func ParseURI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 URI: %s", uri)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("malformed s3 URI: %s", uri)
	}
	return bucket, key, nil
}

// SHA256Hex returns the hex SHA-256 of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// UploadText stores a text blob under the content HMAC namespace and returns
// its URI and SHA-256.
func (s *Service) UploadText(ctx context.Context, text, contentHMAC, suffix string) (uri, sha string, err error) {
	data := []byte(text)
	key := fmt.Sprintf("artifacts/%s/%s.txt", contentHMAC, suffix)
	return s.upload(ctx, data, key, "text/plain; charset=utf-8")
}

// UploadImage stores a PNG blob under the content HMAC namespace.
func (s *Service) UploadImage(ctx context.Context, image []byte, contentHMAC, suffix string) (uri, sha string, err error) {
	key := fmt.Sprintf("artifacts/%s/%s.png", contentHMAC, suffix)
	return s.upload(ctx, image, key, "image/png")
}

func (s *Service) upload(ctx context.Context, data []byte, key, contentType string) (string, string, error) {
	sha := SHA256Hex(data)
	_, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.bucket,
		Key:         key,
		Body:        bytes.NewReader(data),
		ContentType: contentType,
		Size:        int64(len(data)),
	})
	if err != nil {
		return "", "", fmt.Errorf("uploading blob %s: %w", key, err)
	}
	return s.URI(key), sha, nil
}

// DownloadText fetches a text blob by URI.
func (s *Service) DownloadText(ctx context.Context, uri string) (string, error) {
	data, err := s.download(ctx, uri)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DownloadImage fetches an image blob by URI.
func (s *Service) DownloadImage(ctx context.Context, uri string) ([]byte, error) {
	return s.download(ctx, uri)
}

func (s *Service) download(ctx context.Context, uri string) ([]byte, error) {
	bucket, key, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	data, err := s.storage.Download(ctx, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("downloading blob %s: %w", uri, err)
	}
	return data, nil
}

// VerifyIntegrity downloads the blob and checks it against the expected
// SHA-256.
func (s *Service) VerifyIntegrity(ctx context.Context, uri, expectedSHA256 string) (bool, error) {
	data, err := s.download(ctx, uri)
	if err != nil {
		return false, err
	}
	return SHA256Hex(data) == expectedSHA256, nil
}

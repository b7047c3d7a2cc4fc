package avatar

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-auth-redis/internal/domain"
	"github.com/go-auth-redis/internal/pkg/id"
)

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (url string, err error)
	Delete(ctx context.Context, key string) error
}

type UploadInput struct {
	Reader   io.Reader
	Filename string
	Size     int64
	UserID   string
}

// Service stores profile images. It knows nothing about users; callers persist the
// returned Avatar themselves.
type Service interface {
	Upload(ctx context.Context, in UploadInput) (*domain.Avatar, error)
	Delete(ctx context.Context, storageID string) error
}

type service struct {
	store    objectStore
	maxBytes int64
}

func NewService(store objectStore, maxBytes int64) Service {
	return &service{store: store, maxBytes: maxBytes}
}

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

func (s *service) Upload(ctx context.Context, in UploadInput) (*domain.Avatar, error) {
	if in.Reader == nil {
		return nil, domain.NewError(domain.ErrBadRequest, "Please upload an image")
	}
	if s.maxBytes > 0 && in.Size > s.maxBytes {
		return nil, domain.NewError(domain.ErrBadRequest, fmt.Sprintf("Image must be at most %d bytes", s.maxBytes))
	}

	// The content type is sniffed from the bytes, not taken from the client.
	head := make([]byte, 512)
	n, err := io.ReadFull(in.Reader, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("read avatar: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return nil, domain.NewError(domain.ErrBadRequest, "Please upload an image")
	}
	contentType := http.DetectContentType(head)
	if !allowedTypes[contentType] {
		return nil, domain.NewError(domain.ErrBadRequest, "Only JPEG, PNG, GIF or WebP images are allowed")
	}

	key := fmt.Sprintf("avatars/%s/%s-%s", in.UserID, id.New(), sanitizeFilename(in.Filename))
	url, err := s.store.Upload(ctx, key, io.MultiReader(bytes.NewReader(head), in.Reader), contentType)
	if err != nil {
		return nil, err
	}
	return &domain.Avatar{URL: url, StorageID: key}, nil
}

func (s *service) Delete(ctx context.Context, storageID string) error {
	if storageID == "" {
		return nil
	}
	return s.store.Delete(ctx, storageID)
}

// sanitizeFilename strips directory components and keeps only safe characters
// (alphanumeric, dot, dash, underscore) to prevent path traversal in object keys.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if result := b.String(); result != "" && result != "." && result != ".." {
		return result
	}
	return "avatar"
}

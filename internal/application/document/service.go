package document

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/regportal-api/internal/domain"
)

// Upload is one document as received from the applicant.
type Upload struct {
	Reader   io.Reader
	Filename string
}

// Prepared is a validated document held in memory until it is stored.
type Prepared struct {
	Kind        string
	Name        string
	ContentType string
	data        []byte
}

// Stored describes a document written to the object store.
type Stored struct {
	Key         string
	ContentType string
}

// ObjectStore is implemented by the S3 and GCS stores.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type Service interface {
	Prepare(kind string, up Upload) (*Prepared, error)
	Store(ctx context.Context, ownerID string, p *Prepared) (*Stored, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

type service struct {
	store   ObjectStore
	maxSize int
	now     func() time.Time
}

func NewService(store ObjectStore) Service {
	return &service{store: store, maxSize: domain.MaxDocumentSize, now: time.Now}
}

// Prepare reads at most maxSize+1 bytes, so an oversized body is rejected
// without buffering all of it. Only images are accepted.
func (s *service) Prepare(kind string, up Upload) (*Prepared, error) {
	if kind != domain.DocumentPassport && kind != domain.DocumentNIN {
		return nil, fmt.Errorf("unknown document kind %q: %w", kind, domain.ErrInvalidArgument)
	}
	if up.Reader == nil {
		return nil, fmt.Errorf("%s document is required: %w", kind, domain.ErrInvalidArgument)
	}
	data, err := io.ReadAll(io.LimitReader(up.Reader, int64(s.maxSize)+1))
	if err != nil {
		return nil, fmt.Errorf("read %s document: %w", kind, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s document is empty: %w", kind, domain.ErrInvalidArgument)
	}
	if len(data) > s.maxSize {
		return nil, fmt.Errorf("%s document exceeds %d KB: %w", kind, s.maxSize/1024, domain.ErrInvalidArgument)
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%s document must be an image, got %s: %w", kind, mt.String(), domain.ErrInvalidArgument)
	}
	return &Prepared{
		Kind:        kind,
		Name:        sanitizeFilename(up.Filename),
		ContentType: mt.String(),
		data:        data,
	}, nil
}

// Store writes the document under <kind>/<ownerID>/<unixms>_<name>.
func (s *service) Store(ctx context.Context, ownerID string, p *Prepared) (*Stored, error) {
	key := fmt.Sprintf("%s/%s/%d_%s", p.Kind, ownerID, s.now().UnixMilli(), p.Name)
	if _, err := s.store.Upload(ctx, key, bytes.NewReader(p.data), p.ContentType); err != nil {
		return nil, err
	}
	return &Stored{
		Key:         key,
		ContentType: p.ContentType,
	}, nil
}

func (s *service) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.store.Open(ctx, key)
}

func (s *service) Remove(ctx context.Context, key string) error {
	return s.store.Delete(ctx, key)
}

// sanitizeFilename strips directory components and keeps only safe characters
// (alphanumeric, dot, dash, underscore) to prevent path traversal in object keys.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
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
	return "_"
}

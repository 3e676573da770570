package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"galleryapi/internal/model"
	"galleryapi/internal/repository"
	"galleryapi/internal/storage"
)

var (
	// ErrNoImageFiles means the upload batch contained no acceptable image files.
	ErrNoImageFiles = errors.New("no valid image files")
	// ErrUploadFailed wraps any store failure during an upload batch.
	ErrUploadFailed = errors.New("upload failed")
	// ErrDeleteFailed wraps any store failure during a single-image delete.
	ErrDeleteFailed = errors.New("delete failed")
	ErrIDRequired   = errors.New("id is required")
	ErrNotFound     = errors.New("image not found")
)

// UploadFile is one file of an upload batch.
type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// DownloadResult carries a streamed original object plus the metadata needed
// to serve it over HTTP. The caller owns Reader and must close it.
type DownloadResult struct {
	Reader       io.ReadCloser
	ContentType  string
	Size         int64
	OriginalName string
}

// ImageView is an image record joined with its publicly retrievable URL.
type ImageView struct {
	model.Image
	URL string `json:"url"`
}

// GalleryService defines the use cases for the shared gallery.
type GalleryService interface {
	// Upload stores each accepted image as a blob plus metadata record, one
	// file at a time in input order. The batch aborts on the first failure;
	// files already persisted are left in place.
	Upload(ctx context.Context, files []UploadFile) ([]model.Image, error)

	// List returns all images ordered by uploaded_at descending, each joined
	// with its public URL.
	List(ctx context.Context) ([]ImageView, error)

	// Get returns a single image by its ID.
	Get(ctx context.Context, id string) (*model.Image, error)

	// Delete removes an image's blob first, then its record. A record that is
	// already gone counts as success.
	Delete(ctx context.Context, id string) error

	// PresignDownload returns a time-limited URL for downloading the original object.
	PresignDownload(ctx context.Context, id string, expiry time.Duration) (string, error)

	// Download opens the original object for streaming through the API.
	Download(ctx context.Context, id string) (*DownloadResult, error)
}

// galleryService is a concrete implementation of GalleryService.
type galleryService struct {
	store       storage.Storage
	repo        repository.ImageRepository
	maxFileSize int64
	now         func() time.Time
}

// NewGalleryService constructs a new GalleryService. maxFileSize <= 0 disables
// the per-file size limit.
func NewGalleryService(store storage.Storage, repo repository.ImageRepository, maxFileSize int64) GalleryService {
	return &galleryService{
		store:       store,
		repo:        repo,
		maxFileSize: maxFileSize,
		now:         time.Now,
	}
}

// acceptable reports whether a file may enter the gallery. The content type
// must declare an image; the advisory UI limit of 10MB is enforced here as a
// hard boundary.
func (s *galleryService) acceptable(f UploadFile) bool {
	if !strings.HasPrefix(f.ContentType, "image/") {
		return false
	}
	if s.maxFileSize > 0 && f.Size > s.maxFileSize {
		return false
	}
	return true
}

// storageKey builds a collision-resistant object key from the upload instant,
// a random token and the sanitized original name.
func storageKey(originalName string, now time.Time) string {
	token := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("%d-%s-%s", now.UnixMilli(), token, sanitizeName(originalName))
}

// sanitizeName keeps object keys to a safe character set.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "image"
	}
	return b.String()
}

func (s *galleryService) Upload(ctx context.Context, files []UploadFile) ([]model.Image, error) {
	accepted := make([]UploadFile, 0, len(files))
	for _, f := range files {
		if s.acceptable(f) {
			accepted = append(accepted, f)
		}
	}
	if len(accepted) == 0 {
		return nil, ErrNoImageFiles
	}

	ctx, span := otel.Tracer("galleryapi/service").Start(ctx, "gallery.upload")
	defer span.End()

	stored := make([]model.Image, 0, len(accepted))
	for _, f := range accepted {
		uploadedAt := s.now().UTC()
		key := storageKey(f.Name, uploadedAt)

		_, err := s.store.Put(ctx, key, f.Reader, storage.PutObjectOptions{
			Size:        f.Size,
			ContentType: f.ContentType,
			Metadata: map[string]string{
				"original-filename": f.Name,
			},
		})
		if err != nil {
			// Earlier files of the batch stay persisted; no rollback.
			return nil, fmt.Errorf("%w: store object %q: %v", ErrUploadFailed, f.Name, err)
		}

		img, err := s.repo.Create(ctx, &model.Image{
			Filename:     key,
			OriginalName: f.Name,
			FileSize:     f.Size,
			UploadedAt:   uploadedAt,
		})
		if err != nil {
			// The blob just written stays orphaned until the daily purge
			// collects it; orphans are invisible to the listing.
			return nil, fmt.Errorf("%w: save metadata %q: %v", ErrUploadFailed, f.Name, err)
		}
		stored = append(stored, *img)
	}
	return stored, nil
}

// List re-queries the record store on every call and joins each record to a
// locally built public URL. There is no cache to invalidate.
func (s *galleryService) List(ctx context.Context) ([]ImageView, error) {
	items, err := s.repo.List(ctx, repository.PageQuery{})
	if err != nil {
		return nil, err
	}

	views := make([]ImageView, 0, len(items))
	for _, img := range items {
		views = append(views, ImageView{
			Image: img,
			URL:   s.store.PublicURL(img.Filename),
		})
	}
	return views, nil
}

// Get returns an image by ID.
func (s *galleryService) Get(ctx context.Context, id string) (*model.Image, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	img, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return img, nil
}

// Delete removes the blob first, then the record. If the blob delete fails the
// record is left untouched so the pair stays consistent. A concurrent delete
// that already removed the record is treated as success, not a failure.
func (s *galleryService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	img, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("%w: find image: %v", ErrDeleteFailed, err)
	}
	if err := s.store.Delete(ctx, img.Filename); err != nil {
		return fmt.Errorf("%w: delete object: %v", ErrDeleteFailed, err)
	}
	// A failure past this point leaves the record referencing a gone blob; the
	// reference dangles until the next refresh or the daily purge.
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: delete record: %v", ErrDeleteFailed, err)
	}
	return nil
}

// PresignDownload returns a presigned GET URL for the original object.
func (s *galleryService) PresignDownload(ctx context.Context, id string, expiry time.Duration) (string, error) {
	img, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.store.PresignGet(ctx, img.Filename, expiry)
}

// Download streams the original object itself instead of handing out a URL.
// It serves deployments where the object store endpoint is not reachable from
// the admin's browser; PresignDownload is the cheaper path otherwise.
func (s *galleryService) Download(ctx context.Context, id string) (*DownloadResult, error) {
	img, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rc, info, err := s.store.Get(ctx, img.Filename)
	if err != nil {
		return nil, err
	}
	ct := info.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &DownloadResult{
		Reader:       rc,
		ContentType:  ct,
		Size:         info.Size,
		OriginalName: img.OriginalName,
	}, nil
}

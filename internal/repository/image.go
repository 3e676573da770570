package repository

import (
	"context"

	"galleryapi/internal/model"
)

// ImageRepository defines data access for image metadata using SQL queries only.
// No business logic here — strictly persistence operations.
type ImageRepository interface {
	// Create inserts a new image record. ID and CreatedAt may be left to
	// database defaults; the stored row is returned.
	Create(ctx context.Context, img *model.Image) (*model.Image, error)

	// FindByID returns an image by its ID.
	FindByID(ctx context.Context, id string) (*model.Image, error)

	// List returns images ordered by uploaded_at descending (most recent
	// first). A Limit <= 0 returns every row; the cleanup job always passes a
	// bounded page so its enumeration never runs an unbounded read.
	List(ctx context.Context, pq PageQuery) ([]model.Image, error)

	// Count returns the total number of image rows.
	Count(ctx context.Context) (int, error)

	// Delete removes an image by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error

	// DeleteMany removes a set of images by ID in one statement.
	DeleteMany(ctx context.Context, ids []string) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

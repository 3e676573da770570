package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"galleryapi/internal/model"
	"galleryapi/internal/repository"
)

// ImagePostgres is a PostgreSQL implementation of repository.ImageRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type ImagePostgres struct {
	db *sql.DB
}

// NewImagePostgres creates a new ImagePostgres repository.
func NewImagePostgres(db *sql.DB) *ImagePostgres {
	return &ImagePostgres{db: db}
}

var _ repository.ImageRepository = (*ImagePostgres)(nil)

// IsNoRowsError reports whether err means the queried row does not exist.
func IsNoRowsError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// Create inserts a new image row and returns the stored record.
// ID and created_at fall back to database defaults when left empty.
func (r *ImagePostgres) Create(ctx context.Context, img *model.Image) (*model.Image, error) {
	const q = `
		INSERT INTO images (filename, original_name, file_size, uploaded_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, filename, original_name, file_size, uploaded_at, created_at
	`
	row := r.db.QueryRowContext(ctx, q,
		img.Filename,
		img.OriginalName,
		img.FileSize,
		img.UploadedAt,
	)
	var out model.Image
	if err := row.Scan(
		&out.ID,
		&out.Filename,
		&out.OriginalName,
		&out.FileSize,
		&out.UploadedAt,
		&out.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByID fetches a single image by its ID.
func (r *ImagePostgres) FindByID(ctx context.Context, id string) (*model.Image, error) {
	const q = `
		SELECT id, filename, original_name, file_size, uploaded_at, created_at
		FROM images
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, q, id)
	var img model.Image
	if err := row.Scan(
		&img.ID,
		&img.Filename,
		&img.OriginalName,
		&img.FileSize,
		&img.UploadedAt,
		&img.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &img, nil
}

// List returns images ordered most-recent-first. Limit <= 0 drops the LIMIT
// clause entirely so the gallery can fetch the full set in one query.
func (r *ImagePostgres) List(ctx context.Context, pq repository.PageQuery) ([]model.Image, error) {
	const qBase = `
		SELECT id, filename, original_name, file_size, uploaded_at, created_at
		FROM images
		ORDER BY uploaded_at DESC, id DESC
	`

	var (
		rows *sql.Rows
		err  error
	)
	if pq.Limit > 0 {
		rows, err = r.db.QueryContext(ctx, qBase+` LIMIT $1 OFFSET $2`, pq.Limit, pq.Offset)
	} else {
		rows, err = r.db.QueryContext(ctx, qBase)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Image, 0)
	for rows.Next() {
		var img model.Image
		if err := rows.Scan(
			&img.ID,
			&img.Filename,
			&img.OriginalName,
			&img.FileSize,
			&img.UploadedAt,
			&img.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, img)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Count returns the total number of image rows.
func (r *ImagePostgres) Count(ctx context.Context) (int, error) {
	const q = `SELECT COUNT(*) FROM images`
	var total int
	if err := r.db.QueryRowContext(ctx, q).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// Delete removes an image by ID. It does not return an error if the row does
// not exist, which keeps concurrent double-deletes idempotent.
func (r *ImagePostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM images WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

// DeleteMany removes the given IDs in a single statement.
func (r *ImagePostgres) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	q := fmt.Sprintf(`DELETE FROM images WHERE id IN (%s)`, strings.Join(placeholders, ", "))
	_, err := r.db.ExecContext(ctx, q, args...)
	return err
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"galleryapi/internal/model"
	"galleryapi/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

var imageColumns = []string{"id", "filename", "original_name", "file_size", "uploaded_at", "created_at"}

func TestImagePostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewImagePostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	img := &model.Image{
		Filename:     "1700000000000-ab12cd34-cat.png",
		OriginalName: "cat.png",
		FileSize:     1000,
		UploadedAt:   now,
	}

	rows := sqlmock.NewRows(imageColumns).
		AddRow("gen-uuid", img.Filename, img.OriginalName, img.FileSize, img.UploadedAt, now)

	mock.ExpectQuery("INSERT INTO images").
		WithArgs(img.Filename, img.OriginalName, img.FileSize, img.UploadedAt).
		WillReturnRows(rows)

	result, err := repo.Create(ctx, img)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, "gen-uuid", result.ID)
	assert.Equal(t, int64(1000), result.FileSize)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImagePostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewImagePostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows(imageColumns).
			AddRow("test-id", "key-cat.png", "cat.png", 1000, time.Now(), time.Now())

		mock.ExpectQuery("SELECT (.+) FROM images WHERE id = ?").
			WithArgs("test-id").
			WillReturnRows(rows)

		img, err := repo.FindByID(ctx, "test-id")

		assert.NoError(t, err)
		assert.NotNil(t, img)
		assert.Equal(t, "test-id", img.ID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM images WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		img, err := repo.FindByID(ctx, "missing")

		assert.Error(t, err)
		assert.True(t, IsNoRowsError(err))
		assert.Nil(t, img)
	})
}

func TestImagePostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewImagePostgres(db)
	ctx := context.Background()

	t.Run("unbounded when limit is zero", func(t *testing.T) {
		later := time.Now()
		earlier := later.Add(-time.Minute)
		rows := sqlmock.NewRows(imageColumns).
			AddRow("id-b", "key-b.png", "b.png", 2000, later, later).
			AddRow("id-a", "key-a.png", "a.png", 1000, earlier, earlier)

		mock.ExpectQuery("SELECT (.+) FROM images ORDER BY uploaded_at DESC").
			WillReturnRows(rows)

		items, err := repo.List(ctx, repository.PageQuery{})

		assert.NoError(t, err)
		assert.Len(t, items, 2)
		assert.Equal(t, "b.png", items[0].OriginalName)
		assert.Equal(t, "a.png", items[1].OriginalName)
	})

	t.Run("bounded page", func(t *testing.T) {
		rows := sqlmock.NewRows(imageColumns).
			AddRow("id-a", "key-a.png", "a.png", 1000, time.Now(), time.Now())

		mock.ExpectQuery("SELECT (.+) FROM images ORDER BY uploaded_at DESC(.+) LIMIT").
			WithArgs(500, 0).
			WillReturnRows(rows)

		items, err := repo.List(ctx, repository.PageQuery{Limit: 500})

		assert.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("query error", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM images ORDER BY uploaded_at DESC").
			WillReturnError(errors.New("db down"))

		items, err := repo.List(ctx, repository.PageQuery{})

		assert.Error(t, err)
		assert.Nil(t, items)
	})
}

func TestImagePostgres_Count(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewImagePostgres(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM images").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	total, err := repo.Count(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestImagePostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewImagePostgres(db)
	ctx := context.Background()

	t.Run("deletes row", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM images WHERE id = ?").
			WithArgs("test-id").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(ctx, "test-id"))
	})

	t.Run("missing row is not an error", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM images WHERE id = ?").
			WithArgs("already-gone").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, repo.Delete(ctx, "already-gone"))
	})
}

func TestImagePostgres_DeleteMany(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewImagePostgres(db)
	ctx := context.Background()

	t.Run("deletes all ids in one statement", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM images WHERE id IN").
			WithArgs("id-1", "id-2", "id-3").
			WillReturnResult(sqlmock.NewResult(0, 3))

		assert.NoError(t, repo.DeleteMany(ctx, []string{"id-1", "id-2", "id-3"}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty id set is a no-op", func(t *testing.T) {
		assert.NoError(t, repo.DeleteMany(ctx, nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exec error", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM images WHERE id IN").
			WithArgs("id-1").
			WillReturnError(errors.New("db down"))

		assert.Error(t, repo.DeleteMany(ctx, []string{"id-1"}))
	})
}

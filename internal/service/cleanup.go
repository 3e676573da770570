package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"galleryapi/internal/repository"
	"galleryapi/internal/storage"
)

// CleanupSummary is the result of one cleanup invocation. Its JSON shape is
// what the HTTP trigger endpoint returns.
type CleanupSummary struct {
	Success      bool   `json:"success"`
	DeletedCount int    `json:"deleted_count"`
	Message      string `json:"message"`
	Error        string `json:"error,omitempty"`
}

// CleanupRunner purges every stored image: blobs first, then metadata records.
type CleanupRunner interface {
	Run(ctx context.Context) CleanupSummary
}

// cleanupJob is the concrete CleanupRunner. It enumerates records in bounded
// batches and is safe to invoke repeatedly; a run that finds nothing is a
// no-op success.
type cleanupJob struct {
	store     storage.Storage
	repo      repository.ImageRepository
	batchSize int
}

const defaultCleanupBatchSize = 500

// NewCleanupJob constructs a CleanupRunner. batchSize <= 0 falls back to the default.
func NewCleanupJob(store storage.Storage, repo repository.ImageRepository, batchSize int) CleanupRunner {
	if batchSize <= 0 {
		batchSize = defaultCleanupBatchSize
	}
	return &cleanupJob{store: store, repo: repo, batchSize: batchSize}
}

// Run deletes all images. Per batch the blob bulk delete runs first; its
// failure is logged and swallowed because stale metadata would render broken
// images, whereas orphaned blobs stay invisible to readers. A record bulk
// delete failure aborts the run with success=false; blobs already removed are
// not restored.
func (j *cleanupJob) Run(ctx context.Context) CleanupSummary {
	ctx, span := otel.Tracer("galleryapi/service").Start(ctx, "cleanup.run")
	defer span.End()

	start := time.Now()
	deleted := 0
	storageFailures := 0

	total, err := j.repo.Count(ctx)
	if err != nil {
		return j.fail(span, deleted, fmt.Errorf("count images: %w", err))
	}
	if total == 0 {
		cleanupLog(map[string]any{
			"level":       "info",
			"event":       "cleanup_noop",
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return CleanupSummary{
			Success:      true,
			DeletedCount: 0,
			Message:      "no images to clean up",
		}
	}

	for {
		batch, err := j.repo.List(ctx, repository.PageQuery{Limit: j.batchSize})
		if err != nil {
			return j.fail(span, deleted, fmt.Errorf("list images: %w", err))
		}
		if len(batch) == 0 {
			break
		}

		keys := make([]string, len(batch))
		ids := make([]string, len(batch))
		for i, img := range batch {
			keys[i] = img.Filename
			ids[i] = img.ID
		}

		if err := j.store.DeleteMany(ctx, keys); err != nil {
			storageFailures++
			cleanupLog(map[string]any{
				"level":         "error",
				"event":         "cleanup_storage_delete_failed",
				"batch_size":    len(keys),
				"error_message": err.Error(),
			})
		}

		if err := j.repo.DeleteMany(ctx, ids); err != nil {
			return j.fail(span, deleted, fmt.Errorf("delete image records: %w", err))
		}
		deleted += len(batch)
	}

	msg := fmt.Sprintf("cleaned up %d images", deleted)
	if deleted == 0 {
		msg = "no images to clean up"
	}
	if storageFailures > 0 {
		msg = fmt.Sprintf("%s (%d storage delete batches failed)", msg, storageFailures)
	}

	cleanupLog(map[string]any{
		"level":            "info",
		"event":            "cleanup_finished",
		"total_at_start":   total,
		"deleted_count":    deleted,
		"storage_failures": storageFailures,
		"duration_ms":      time.Since(start).Milliseconds(),
	})

	return CleanupSummary{
		Success:      true,
		DeletedCount: deleted,
		Message:      msg,
	}
}

func (j *cleanupJob) fail(span trace.Span, deleted int, err error) CleanupSummary {
	span.RecordError(err)
	cleanupLog(map[string]any{
		"level":         "error",
		"event":         "cleanup_failed",
		"deleted_count": deleted,
		"error_message": err.Error(),
	})
	return CleanupSummary{
		Success:      false,
		DeletedCount: deleted,
		Message:      "cleanup aborted",
		Error:        err.Error(),
	}
}

func cleanupLog(data map[string]any) {
	data["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	data["component"] = "cleanup"
	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal cleanup log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}

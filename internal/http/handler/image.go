package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"galleryapi/internal/service"
)

// downloadURLExpiry is how long a presigned admin download link stays valid.
const downloadURLExpiry = 15 * time.Minute

// ImageListResponse is the payload of GET /images.
type ImageListResponse struct {
	Data  []service.ImageView `json:"data"`
	Count int                 `json:"count"`
}

// ListImages returns the full gallery, most recent upload first.
func ListImages(svc service.GalleryService, timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()

		views, err := svc.List(ctx)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(ImageListResponse{Data: views, Count: len(views)})
	}
}

// UploadImages accepts a multipart/form-data batch under the field name
// "files" and stores each image blob plus its metadata record.
func UploadImages(svc service.GalleryService, timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILES_REQUIRED", "multipart form with files is required")
		}
		headers := form.File["files"]
		if len(headers) == 0 {
			return writeError(c, fiber.StatusBadRequest, "FILES_REQUIRED", "at least one file is required")
		}

		files := make([]service.UploadFile, 0, len(headers))
		for _, fh := range headers {
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			defer f.Close()

			ct := fh.Header.Get(fiber.HeaderContentType)
			if ct == "" {
				ct = "application/octet-stream"
			}
			files = append(files, service.UploadFile{
				Name:        fh.Filename,
				ContentType: ct,
				Size:        fh.Size,
				Reader:      f,
			})
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()

		stored, err := svc.Upload(ctx, files)
		if err != nil {
			if errors.Is(err, service.ErrNoImageFiles) {
				return writeError(c, fiber.StatusBadRequest, "INVALID_INPUT", "please select valid image files")
			}
			// Storage state may be partial; the caller only sees the generic failure.
			return writeError(c, fiber.StatusInternalServerError, "UPLOAD_FAILED", "failed to upload images, please try again")
		}
		return c.Status(fiber.StatusCreated).JSON(stored)
	}
}

// DeleteImage removes a single image (blob first, then record). Deleting an
// image that is already gone succeeds.
func DeleteImage(svc service.GalleryService, timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()

		if err := svc.Delete(ctx, id); err != nil {
			return writeError(c, fiber.StatusInternalServerError, "DELETE_FAILED", "failed to delete image, please try again")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// RawImage streams the original object bytes through the API. It is the
// download path for deployments where the store endpoint is not reachable
// from the admin's browser; DownloadImage's presigned redirect is the cheaper
// path otherwise. No timeout context here: the body is streamed after the
// handler returns, so a deferred cancel would cut the transfer short.
func RawImage(svc service.GalleryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		res, err := svc.Download(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "image not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		c.Set(fiber.HeaderContentType, res.ContentType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", res.OriginalName))
		return c.SendStream(res.Reader, int(res.Size))
	}
}

// DownloadImage redirects to a presigned URL for the original object.
func DownloadImage(svc service.GalleryService, timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()

		url, err := svc.PresignDownload(ctx, id, downloadURLExpiry)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "image not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Redirect(url, fiber.StatusFound)
	}
}

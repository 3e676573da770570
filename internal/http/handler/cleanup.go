package handler

import (
	"github.com/gofiber/fiber/v2"

	"galleryapi/internal/service"
)

// RunCleanup triggers a full gallery purge and returns the job summary. It is
// the endpoint an external scheduler hits once a day; the in-process cron
// scheduler calls the job directly.
func RunCleanup(job service.CleanupRunner) fiber.Handler {
	return func(c *fiber.Ctx) error {
		summary := job.Run(c.UserContext())

		status := fiber.StatusOK
		if !summary.Success {
			status = fiber.StatusInternalServerError
		}
		return c.Status(status).JSON(summary)
	}
}

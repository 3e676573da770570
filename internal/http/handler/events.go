package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"galleryapi/internal/notify"
	"galleryapi/internal/service"
)

const keepaliveInterval = 25 * time.Second

// writeGalleryEvent re-queries the gallery and writes the full list as one SSE
// event. The feed is a push-triggered re-pull: clients replace their whole
// list on every event instead of merging increments.
func writeGalleryEvent(w io.Writer, svc service.GalleryService, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	views, err := svc.List(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(views)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: gallery\ndata: %s\n\n", payload)
	return err
}

// ImageEvents streams the gallery over Server-Sent Events. The current list is
// sent on connect and again after every insert notification from the change
// feed; the subscription is canceled when the client goes away.
func ImageEvents(svc service.GalleryService, feed notify.Listener, timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")

		// Coalesce bursts of inserts into one pending refresh.
		inserts := make(chan struct{}, 1)
		cancel := feed.Subscribe(func(string) {
			select {
			case inserts <- struct{}{}:
			default:
			}
		})

		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer cancel()

			if err := writeGalleryEvent(w, svc, timeout); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}

			ticker := time.NewTicker(keepaliveInterval)
			defer ticker.Stop()

			for {
				select {
				case <-inserts:
					if err := writeGalleryEvent(w, svc, timeout); err != nil {
						return
					}
				case <-ticker.C:
					if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
						return
					}
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}))
		return nil
	}
}

package http

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": "dev",
		})
	}
}

// ReadyHandler checks that the photo directory can be listed.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		checks := make(map[string]string)
		allOK := true

		f, err := os.Open(deps.PhotosDir)
		if err != nil {
			checks["photos_dir"] = "error: " + err.Error()
			allOK = false
		} else {
			if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
				checks["photos_dir"] = "error: " + err.Error()
				allOK = false
			} else {
				checks["photos_dir"] = "ok"
			}
			f.Close()
		}

		status := "ready"
		code := fiber.StatusOK
		if !allOK {
			status = "not ready"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}

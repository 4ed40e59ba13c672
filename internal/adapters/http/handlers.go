package http

import (
	"context"
	"errors"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/photomap/internal/core/usecases"
	"github.com/samirrijal/photomap/internal/pkg/logging"
)

// PhotosHandler rescans the photo directory and returns every geotagged
// photo with the centroid of their positions.
func PhotosHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		result, err := deps.Photos.Scan(c.UserContext(), deps.PhotosDir)
		if err != nil {
			return scanFailed(c, deps, "photo scan failed", err)
		}

		c.Set("Cache-Control", "no-cache")
		return c.JSON(result)
	}
}

// NearbyPhotosHandler returns photos within a radius of a point, closest first.
func NearbyPhotosHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
		lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
		if errLat != nil || errLng != nil {
			return errBadRequest(c, "lat and lng are required")
		}
		radius := c.QueryFloat("radius", 1000)
		if err := validateNearby(lat, lng, radius); err != nil {
			return errBadRequest(c, err.Error())
		}
		limit := c.QueryInt("limit", 50)

		photos, err := deps.Photos.Nearby(c.UserContext(), deps.PhotosDir, lat, lng, radius, limit)
		if err != nil {
			return scanFailed(c, deps, "nearby photo scan failed", err)
		}

		c.Set("Cache-Control", "no-cache")
		return c.JSON(photos)
	}
}

var (
	errLatLngRange = errors.New("lat must be within [-90,90] and lng within [-180,180]")
	errRadiusRange = errors.New("radius must be greater than 0 and at most 100000 meters")
)

// validateNearby checks a nearby query. NaN fails every comparison, so it is
// rejected explicitly.
func validateNearby(lat, lng, radius float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return errLatLngRange
	}
	if math.IsNaN(radius) || radius <= 0 || radius > 100000 {
		return errRadiusRange
	}
	return nil
}

// scanFailed answers 408 when the request ran out of its scan budget and 500
// for anything else.
func scanFailed(c *fiber.Ctx, deps *Dependencies, msg string, err error) error {
	log := logging.FromContext(c.UserContext())
	if errors.Is(err, context.DeadlineExceeded) {
		log.Warn(msg, "dir", deps.PhotosDir, "timeout", deps.scanTimeout(), "error", err)
		return errTimeout(c, "photo scan did not finish in time")
	}
	log.Error(msg, "dir", deps.PhotosDir, "error", err)
	return errInternal(c, "photo directory could not be scanned")
}

// ServePhotoHandler serves an image file from the photo directory.
func ServePhotoHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name, err := url.PathUnescape(c.Params("*"))
		if err != nil {
			return errBadRequest(c, "invalid file path")
		}
		if !usecases.IsAllowedFile(name) {
			return errBadRequest(c, "invalid file type")
		}
		if !isSafeName(name) {
			return errBadRequest(c, "invalid file path")
		}

		path := filepath.Join(deps.PhotosDir, filepath.FromSlash(name))
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return errNotFound(c, "photo not found")
		}

		c.Set("Cache-Control", "public, max-age=3600")
		return c.SendFile(path)
	}
}

// isSafeName rejects absolute paths and anything containing "..".
func isSafeName(name string) bool {
	if name == "" || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) || filepath.IsAbs(name) {
		return false
	}
	return !strings.Contains(name, "..")
}

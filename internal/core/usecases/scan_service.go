package usecases

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/photomap/internal/core/domain"
	"github.com/samirrijal/photomap/internal/core/ports"
	"github.com/samirrijal/photomap/internal/pkg/geospatial"
	"github.com/samirrijal/photomap/internal/pkg/logging"
	"github.com/samirrijal/photomap/internal/pkg/metrics"
	"github.com/samirrijal/photomap/internal/pkg/telemetry"
)

// AllowedExtensions lists the image extensions considered by a scan.
var AllowedExtensions = []string{".png", ".jpg", ".jpeg", ".gif"}

// IsAllowedFile reports whether name ends with an allowed extension, ignoring case.
func IsAllowedFile(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range AllowedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Title strips the extension from a filename. Leading dots are part of the
// name, so ".jpg" keeps its full text.
func Title(filename string) string {
	ext := filepath.Ext(strings.TrimLeft(filename, "."))
	return filename[:len(filename)-len(ext)]
}

// ScanService aggregates photo metadata over a directory.
type ScanService struct {
	extractor ports.MetadataExtractor
	workers   int
}

var _ ports.PhotoScanner = (*ScanService)(nil)

// NewScanService creates a new ScanService. workers bounds concurrent
// extractions; values below 1 mean sequential.
func NewScanService(extractor ports.MetadataExtractor, workers int) *ScanService {
	if workers < 1 {
		workers = 1
	}
	return &ScanService{extractor: extractor, workers: workers}
}

// Scan reads every allowed image in dir and returns the geotagged ones, in
// directory-listing order, with their centroid. Per-file failures are logged
// and skipped; only an unreadable directory or a cancelled ctx is an error.
func (s *ScanService) Scan(ctx context.Context, dir string) (*domain.ScanResult, error) {
	ctx, span := telemetry.Tracer("photomap/usecases").Start(ctx, "ScanService.Scan")
	defer span.End()
	start := time.Now()

	entries, err := os.ReadDir(dir)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("read photo directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !IsAllowedFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	metrics.FilesConsidered.Add(float64(len(names)))

	results, err := s.extractAll(ctx, dir, names)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	log := logging.FromContext(ctx)
	result := &domain.ScanResult{Photos: make([]domain.Photo, 0, len(names))}
	var sumLat, sumLng float64

	for i, res := range results {
		metrics.Extractions.WithLabelValues(res.Status.String()).Inc()

		if res.Status == ports.ExtractionFailed {
			log.Warn("photo metadata extraction failed",
				"path", filepath.Join(dir, names[i]),
				"error", res.Err,
			)
			continue
		}
		// Missing GPS is the common case and is not worth a log line.
		if res.Status != ports.ExtractionOK {
			continue
		}

		md := res.Metadata
		result.Photos = append(result.Photos, domain.Photo{
			Filename: names[i],
			Title:    Title(names[i]),
			Lat:      md.Location.Lat,
			Lng:      md.Location.Lng,
			Comments: md.Comments,
			DateTime: md.DateTime,
			Camera:   md.Camera,
		})
		sumLat += md.Location.Lat
		sumLng += md.Location.Lng
	}

	if n := len(result.Photos); n > 0 {
		result.Center = domain.GeoPoint{Lat: sumLat / float64(n), Lng: sumLng / float64(n)}
	}

	metrics.PhotosGeotagged.Add(float64(len(result.Photos)))
	metrics.LastScanPhotos.Set(float64(len(result.Photos)))
	metrics.ScanDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.String("photos.dir", dir),
		attribute.Int("photos.candidates", len(names)),
		attribute.Int("photos.geotagged", len(result.Photos)),
	)
	log.Debug("photo scan complete",
		"dir", dir,
		"candidates", len(names),
		"geotagged", len(result.Photos),
		"duration", time.Since(start).String(),
	)

	return result, nil
}

// extractAll runs the extractor over names with at most s.workers in flight.
// results[i] always belongs to names[i].
func (s *ScanService) extractAll(ctx context.Context, dir string, names []string) ([]ports.Extraction, error) {
	results := make([]ports.Extraction, len(names))

	if s.workers == 1 {
		for i, name := range names {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("scan aborted: %w", err)
			}
			results[i] = s.extractor.Extract(ctx, filepath.Join(dir, name))
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.extractor.Extract(gctx, filepath.Join(dir, name))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan aborted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan aborted: %w", err)
	}
	return results, nil
}

// Nearby rescans dir and returns the photos within radiusMeters of
// (lat, lng), closest first.
func (s *ScanService) Nearby(ctx context.Context, dir string, lat, lng, radiusMeters float64, limit int) ([]domain.NearbyPhoto, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	scan, err := s.Scan(ctx, dir)
	if err != nil {
		return nil, err
	}

	minLat, minLng, maxLat, maxLng := geospatial.BoundingBox(lat, lng, radiusMeters)
	box := domain.Bounds{MinLat: minLat, MinLng: minLng, MaxLat: maxLat, MaxLng: maxLng}

	nearby := make([]domain.NearbyPhoto, 0)
	for _, p := range scan.Photos {
		if !box.Contains(p.Location()) {
			continue
		}
		d := geospatial.Haversine(lat, lng, p.Lat, p.Lng)
		if d > radiusMeters {
			continue
		}
		nearby = append(nearby, domain.NearbyPhoto{Photo: p, Distance: d})
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].Distance < nearby[j].Distance
	})
	if len(nearby) > limit {
		nearby = nearby[:limit]
	}
	return nearby, nil
}

package ports

import (
	"context"

	"github.com/samirrijal/photomap/internal/core/domain"
)

// ExtractionStatus classifies the outcome of reading one photo's metadata.
type ExtractionStatus int

const (
	// ExtractionOK means GPS coordinates were found; Metadata is populated.
	ExtractionOK ExtractionStatus = iota
	// ExtractionNoData means the file is readable but carries no GPS position.
	ExtractionNoData
	// ExtractionFailed means the file could not be opened or parsed; Err is set.
	ExtractionFailed
)

func (s ExtractionStatus) String() string {
	switch s {
	case ExtractionOK:
		return "ok"
	case ExtractionNoData:
		return "no_data"
	case ExtractionFailed:
		return "failed"
	}
	return "unknown"
}

// Extraction is the typed result of MetadataExtractor.Extract.
type Extraction struct {
	Status   ExtractionStatus
	Metadata domain.PhotoMetadata
	Err      error
}

// MetadataExtractor reads embedded metadata from a single image file.
// Implementations never panic and never return failures any other way than
// through Extraction.
type MetadataExtractor interface {
	Extract(ctx context.Context, path string) Extraction
}

// PhotoScanner scans a directory for geotagged photos.
type PhotoScanner interface {
	Scan(ctx context.Context, dir string) (*domain.ScanResult, error)
	Nearby(ctx context.Context, dir string, lat, lng, radiusMeters float64, limit int) ([]domain.NearbyPhoto, error)
}

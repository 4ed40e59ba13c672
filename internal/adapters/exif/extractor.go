package exifadapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/samirrijal/photomap/internal/core/domain"
	"github.com/samirrijal/photomap/internal/core/ports"
	"github.com/samirrijal/photomap/internal/pkg/geospatial"
)

// Extractor reads GPS position, description, capture time and camera from
// the EXIF block of JPEG and PNG files.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

var _ ports.MetadataExtractor = (*Extractor)(nil)

// Extract opens path and returns its metadata. Every failure is reported
// through the returned Extraction, never by panicking.
func (e *Extractor) Extract(ctx context.Context, path string) ports.Extraction {
	if err := ctx.Err(); err != nil {
		return failed(err)
	}

	f, err := os.Open(path)
	if err != nil {
		return failed(fmt.Errorf("open file: %w", err))
	}
	defer f.Close()

	x, err := decodeExif(f)
	if err != nil {
		return failed(err)
	}
	if x == nil {
		return ports.Extraction{Status: ports.ExtractionNoData}
	}

	md, ok, err := readMetadata(x)
	switch {
	case err != nil:
		return failed(err)
	case !ok:
		return ports.Extraction{Status: ports.ExtractionNoData}
	}
	return ports.Extraction{Status: ports.ExtractionOK, Metadata: md}
}

func failed(err error) ports.Extraction {
	return ports.Extraction{Status: ports.ExtractionFailed, Err: err}
}

// decodeExif validates f as an image and decodes its EXIF block.
// It returns (nil, nil) when the image simply has no EXIF data.
func decodeExif(f io.ReadSeeker) (*exif.Exif, error) {
	format, err := validateImage(f)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind: %w", err)
	}

	var block []byte
	switch format {
	case "jpeg":
		if block, err = findJPEGExif(f); err != nil {
			return nil, fmt.Errorf("read jpeg segments: %w", err)
		}
	case "png":
		if block, err = findPNGExif(f); err != nil {
			return nil, fmt.Errorf("read png chunks: %w", err)
		}
	default:
		// GIF has no EXIF container.
		return nil, nil
	}
	if block == nil {
		return nil, nil
	}

	if err := checkTIFF(block); err != nil {
		return nil, fmt.Errorf("decode exif: %w", err)
	}

	x, err := exif.Decode(bytes.NewReader(block))
	if err == nil {
		return x, nil
	}
	if x != nil && !exif.IsCriticalError(err) {
		return x, nil
	}
	return nil, fmt.Errorf("decode exif: %w", err)
}

// validateImage sniffs the image header and returns its format. JPEGs using
// a coding the decoder does not implement (lossless, arithmetic) are still
// valid containers for EXIF.
func validateImage(r io.Reader) (string, error) {
	_, format, err := image.DecodeConfig(r)
	if err != nil {
		var unsupported jpeg.UnsupportedError
		if format == "jpeg" && errors.As(err, &unsupported) {
			return format, nil
		}
		return "", fmt.Errorf("decode image config: %w", err)
	}
	return format, nil
}

// readMetadata reports ok=false when either GPS coordinate tag is absent.
func readMetadata(x *exif.Exif) (domain.PhotoMetadata, bool, error) {
	latTag, err := x.Get(exif.GPSLatitude)
	if err != nil {
		return domain.PhotoMetadata{}, false, nil
	}
	lngTag, err := x.Get(exif.GPSLongitude)
	if err != nil {
		return domain.PhotoMetadata{}, false, nil
	}

	latDMS, err := readDMS(latTag)
	if err != nil {
		return domain.PhotoMetadata{}, false, fmt.Errorf("GPSLatitude: %w", err)
	}
	lngDMS, err := readDMS(lngTag)
	if err != nil {
		return domain.PhotoMetadata{}, false, fmt.Errorf("GPSLongitude: %w", err)
	}

	latRef, err := readHemisphere(x, exif.GPSLatitudeRef)
	if err != nil {
		return domain.PhotoMetadata{}, false, err
	}
	lngRef, err := readHemisphere(x, exif.GPSLongitudeRef)
	if err != nil {
		return domain.PhotoMetadata{}, false, err
	}

	cameraMake := optionalString(x, exif.Make)
	cameraModel := optionalString(x, exif.Model)

	return domain.PhotoMetadata{
		Location: domain.GeoPoint{
			Lat: geospatial.SignLatitude(latDMS.Decimal(), latRef),
			Lng: geospatial.SignLongitude(lngDMS.Decimal(), lngRef),
		},
		Comments: optionalString(x, exif.ImageDescription),
		DateTime: optionalString(x, exif.DateTimeOriginal),
		Camera:   strings.TrimSpace(cameraMake + " " + cameraModel),
	}, true, nil
}

// readDMS reads the three rational components of a GPS coordinate tag.
func readDMS(tag *tiff.Tag) (geospatial.DMS, error) {
	if tag.Count < 3 {
		return geospatial.DMS{}, fmt.Errorf("expected 3 components, got %d", tag.Count)
	}
	var parts [3]geospatial.Rational
	for i := range parts {
		num, den, err := tag.Rat2(i)
		if err != nil {
			return geospatial.DMS{}, fmt.Errorf("component %d: %w", i, err)
		}
		if den == 0 {
			return geospatial.DMS{}, fmt.Errorf("component %d: zero denominator", i)
		}
		parts[i] = geospatial.Rational{Num: num, Den: den}
	}
	return geospatial.DMS{Degrees: parts[0], Minutes: parts[1], Seconds: parts[2]}, nil
}

// readHemisphere returns an absent Hemisphere when the tag is missing and an
// error when it is present but empty.
func readHemisphere(x *exif.Exif, field exif.FieldName) (geospatial.Hemisphere, error) {
	if _, err := x.Get(field); err != nil {
		return geospatial.Hemisphere{}, nil
	}
	ref := optionalString(x, field)
	if ref == "" {
		return geospatial.Hemisphere{}, fmt.Errorf("%s: empty reference", field)
	}
	return geospatial.Hemisphere{Ref: ref, Present: true}, nil
}

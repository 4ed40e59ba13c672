package exifadapter

import (
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// optionalString returns the value of field as text, or "" when the tag is
// absent. ASCII tags are returned verbatim; other types use goexif's
// printable form without the JSON quoting.
func optionalString(x *exif.Exif, field exif.FieldName) string {
	if x == nil {
		return ""
	}
	tag, err := x.Get(field)
	if err != nil {
		return ""
	}
	if s, err := tag.StringVal(); err == nil {
		return s
	}
	return strings.Trim(tag.String(), `"`)
}

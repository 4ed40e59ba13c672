package geospatial

// Rational is an EXIF RATIONAL value.
type Rational struct {
	Num int64
	Den int64
}

// Float64 returns r as a float. Den must be non-zero.
func (r Rational) Float64() float64 {
	return float64(r.Num) / float64(r.Den)
}

// DMS is a degrees/minutes/seconds triple as stored in the EXIF GPS tags.
type DMS struct {
	Degrees Rational
	Minutes Rational
	Seconds Rational
}

// Decimal converts d to unsigned decimal degrees.
func (d DMS) Decimal() float64 {
	return d.Degrees.Float64() + d.Minutes.Float64()/60.0 + d.Seconds.Float64()/3600.0
}

// Hemisphere is the optional GPSLatitudeRef / GPSLongitudeRef value.
type Hemisphere struct {
	Ref     string
	Present bool
}

// SignLatitude negates v when the reference is present and does not start with 'N'.
// A missing reference leaves v untouched.
func SignLatitude(v float64, h Hemisphere) float64 {
	return applyRef(v, h, 'N')
}

// SignLongitude negates v when the reference is present and does not start with 'E'.
// A missing reference leaves v untouched.
func SignLongitude(v float64, h Hemisphere) float64 {
	return applyRef(v, h, 'E')
}

func applyRef(v float64, h Hemisphere, positive byte) float64 {
	if !h.Present || h.Ref == "" {
		return v
	}
	if h.Ref[0] != positive {
		return -v
	}
	return v
}

package domain

// Photo is a geotagged image found in the photo directory.
type Photo struct {
	Filename string  `json:"filename"`
	Title    string  `json:"title"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Comments string  `json:"comments"`
	DateTime string  `json:"date_time"`
	Camera   string  `json:"camera"`
}

// Location returns the photo's coordinates.
func (p Photo) Location() GeoPoint {
	return GeoPoint{Lat: p.Lat, Lng: p.Lng}
}

// PhotoMetadata is what a single file yields once its GPS tags were found.
type PhotoMetadata struct {
	Location GeoPoint
	Comments string
	DateTime string // raw EXIF DateTimeOriginal, e.g. "2023:07:14 18:02:11"
	Camera   string // make and model joined by a space
}

// ScanResult is the outcome of one pass over the photo directory.
type ScanResult struct {
	Photos []Photo  `json:"photos"`
	Center GeoPoint `json:"center"`
}

// NearbyPhoto is a photo with its distance in meters from a query point.
type NearbyPhoto struct {
	Photo
	Distance float64 `json:"distance"`
}

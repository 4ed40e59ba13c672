package http

import (
	"time"

	"github.com/samirrijal/photomap/internal/core/ports"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Photos      ports.PhotoScanner
	PhotosDir   string
	StaticDir   string        // optional frontend assets served at /
	ScanTimeout time.Duration // per-request scan budget, 30s when zero
}

func (d *Dependencies) scanTimeout() time.Duration {
	if d.ScanTimeout <= 0 {
		return 30 * time.Second
	}
	return d.ScanTimeout
}

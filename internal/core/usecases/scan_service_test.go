package usecases_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/samirrijal/photomap/internal/core/domain"
	"github.com/samirrijal/photomap/internal/core/ports"
	"github.com/samirrijal/photomap/internal/core/usecases"
	"github.com/samirrijal/photomap/internal/pkg/logging"
)

// --- Mock MetadataExtractor ---

type mockExtractor struct {
	mu      sync.Mutex
	results map[string]ports.Extraction // keyed by base filename
	calls   []string
}

func (m *mockExtractor) Extract(ctx context.Context, path string) ports.Extraction {
	name := filepath.Base(path)
	m.mu.Lock()
	m.calls = append(m.calls, name)
	m.mu.Unlock()
	if res, ok := m.results[name]; ok {
		return res
	}
	return ports.Extraction{Status: ports.ExtractionNoData}
}

func at(lat, lng float64) ports.Extraction {
	return ports.Extraction{
		Status:   ports.ExtractionOK,
		Metadata: domain.PhotoMetadata{Location: domain.GeoPoint{Lat: lat, Lng: lng}},
	}
}

func photoDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", n, err)
		}
	}
	return dir
}

// --- Tests ---

func TestScanService_Centroid(t *testing.T) {
	dir := photoDir(t, "a.jpg", "b.jpg", "c.jpg")
	ext := &mockExtractor{results: map[string]ports.Extraction{
		"a.jpg": at(10, 20),
		"b.jpg": at(20, 30),
		"c.jpg": at(30, 40),
	}}

	res, err := usecases.NewScanService(ext, 1).Scan(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Photos) != 3 {
		t.Fatalf("expected 3 photos, got %d", len(res.Photos))
	}
	if res.Center.Lat != 20 || res.Center.Lng != 30 {
		t.Errorf("expected centroid (20,30), got (%v,%v)", res.Center.Lat, res.Center.Lng)
	}
}

func TestScanService_EmptyDirectory(t *testing.T) {
	res, err := usecases.NewScanService(&mockExtractor{}, 1).Scan(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Photos == nil || len(res.Photos) != 0 {
		t.Errorf("expected empty non-nil photo list, got %#v", res.Photos)
	}
	if res.Center != (domain.GeoPoint{}) {
		t.Errorf("expected centroid (0,0), got %+v", res.Center)
	}
}

func TestScanService_NoValidPhotos(t *testing.T) {
	dir := photoDir(t, "a.jpg", "b.png")
	ext := &mockExtractor{results: map[string]ports.Extraction{
		"b.png": {Status: ports.ExtractionFailed, Err: errors.New("corrupt")},
	}}

	res, err := usecases.NewScanService(ext, 1).Scan(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Photos) != 0 || res.Center != (domain.GeoPoint{}) {
		t.Errorf("expected no photos and (0,0), got %+v", res)
	}
}

func TestScanService_ExtensionFilter(t *testing.T) {
	dir := photoDir(t, "a.JPG", "b.Jpeg", "c.png", "d.GIF", "notes.txt", "e.bmp", "f.tiff", "jpg")
	if err := os.Mkdir(filepath.Join(dir, "album.jpg"), 0o755); err != nil {
		t.Fatal(err)
	}
	ext := &mockExtractor{results: map[string]ports.Extraction{
		"a.JPG":     at(1, 1),
		"b.Jpeg":    at(1, 1),
		"c.png":     at(1, 1),
		"d.GIF":     at(1, 1),
		"notes.txt": at(1, 1),
		"e.bmp":     at(1, 1),
		"f.tiff":    at(1, 1),
	}}

	res, err := usecases.NewScanService(ext, 1).Scan(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sort.Strings(ext.calls)
	want := []string{"a.JPG", "b.Jpeg", "c.png", "d.GIF"}
	if strings.Join(ext.calls, ",") != strings.Join(want, ",") {
		t.Errorf("extractor called for %v, want %v", ext.calls, want)
	}
	if len(res.Photos) != 4 {
		t.Errorf("expected 4 photos, got %d", len(res.Photos))
	}
}

func TestScanService_RecordFields(t *testing.T) {
	dir := photoDir(t, "Sunset.Beach.JPEG")
	ext := &mockExtractor{results: map[string]ports.Extraction{
		"Sunset.Beach.JPEG": {
			Status: ports.ExtractionOK,
			Metadata: domain.PhotoMetadata{
				Location: domain.GeoPoint{Lat: -33.9, Lng: 18.4},
				Comments: "Camps Bay",
				DateTime: "2022:01:03 19:45:00",
				Camera:   "Apple iPhone 13",
			},
		},
	}}

	res, err := usecases.NewScanService(ext, 1).Scan(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := domain.Photo{
		Filename: "Sunset.Beach.JPEG",
		Title:    "Sunset.Beach",
		Lat:      -33.9,
		Lng:      18.4,
		Comments: "Camps Bay",
		DateTime: "2022:01:03 19:45:00",
		Camera:   "Apple iPhone 13",
	}
	if len(res.Photos) != 1 || res.Photos[0] != want {
		t.Errorf("got %+v, want %+v", res.Photos, want)
	}
}

func TestScanService_FailuresAreIsolatedAndLogged(t *testing.T) {
	dir := photoDir(t, "a.jpg", "broken.jpg", "nogps.jpg", "z.jpg")
	ext := &mockExtractor{results: map[string]ports.Extraction{
		"a.jpg":      at(0, 0),
		"broken.jpg": {Status: ports.ExtractionFailed, Err: errors.New("decode exif: bad tiff")},
		"z.jpg":      at(10, 10),
	}}

	var buf bytes.Buffer
	ctx := logging.WithLogger(context.Background(), logging.New(&buf, "info", "text"))

	res, err := usecases.NewScanService(ext, 1).Scan(ctx, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Photos) != 2 {
		t.Fatalf("expected 2 photos, got %d", len(res.Photos))
	}
	if res.Center.Lat != 5 || res.Center.Lng != 5 {
		t.Errorf("expected centroid (5,5), got %+v", res.Center)
	}

	out := buf.String()
	if !strings.Contains(out, "broken.jpg") || !strings.Contains(out, "bad tiff") {
		t.Errorf("expected failure to be logged with path and error, got %q", out)
	}
	if strings.Contains(out, "nogps.jpg") {
		t.Errorf("missing GPS must not be logged, got %q", out)
	}
}

func TestScanService_ListingOrder(t *testing.T) {
	dir := photoDir(t, "c.jpg", "a.jpg", "b.jpg")
	ext := &mockExtractor{results: map[string]ports.Extraction{
		"a.jpg": at(1, 1), "b.jpg": at(2, 2), "c.jpg": at(3, 3),
	}}

	res, err := usecases.NewScanService(ext, 1).Scan(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	for i, e := range entries {
		if res.Photos[i].Filename != e.Name() {
			t.Errorf("photo %d = %s, want %s", i, res.Photos[i].Filename, e.Name())
		}
	}
}

func TestScanService_Idempotent(t *testing.T) {
	dir := photoDir(t, "a.jpg", "b.jpg", "c.gif", "d.txt")
	ext := &mockExtractor{results: map[string]ports.Extraction{
		"a.jpg": at(43.26, -2.93), "b.jpg": at(40.41, -3.70), "c.gif": at(41.38, 2.17),
	}}
	svc := usecases.NewScanService(ext, 1)

	first, err := svc.Scan(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Scan(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if first.Center != second.Center {
		t.Errorf("centroids differ: %+v vs %+v", first.Center, second.Center)
	}
	if len(first.Photos) != len(second.Photos) {
		t.Fatalf("photo counts differ: %d vs %d", len(first.Photos), len(second.Photos))
	}
	seen := map[domain.Photo]bool{}
	for _, p := range first.Photos {
		seen[p] = true
	}
	for _, p := range second.Photos {
		if !seen[p] {
			t.Errorf("photo %+v missing from first scan", p)
		}
	}
}

func TestScanService_WorkersMatchSequential(t *testing.T) {
	names := []string{"01.jpg", "02.jpg", "03.jpg", "04.png", "05.gif", "06.jpg", "07.jpg", "08.jpeg"}
	dir := photoDir(t, names...)
	results := map[string]ports.Extraction{}
	for i, n := range names {
		if i%3 == 2 {
			continue
		}
		results[n] = at(float64(i)*1.5, float64(-i)*2.25)
	}

	seq, err := usecases.NewScanService(&mockExtractor{results: results}, 1).Scan(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	par, err := usecases.NewScanService(&mockExtractor{results: results}, 4).Scan(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}

	if len(seq.Photos) != len(par.Photos) {
		t.Fatalf("counts differ: %d vs %d", len(seq.Photos), len(par.Photos))
	}
	for i := range seq.Photos {
		if seq.Photos[i] != par.Photos[i] {
			t.Errorf("photo %d differs: %+v vs %+v", i, seq.Photos[i], par.Photos[i])
		}
	}
	if seq.Center != par.Center {
		t.Errorf("centroids differ: %+v vs %+v", seq.Center, par.Center)
	}
}

func TestScanService_MissingDirectory(t *testing.T) {
	_, err := usecases.NewScanService(&mockExtractor{}, 1).Scan(context.Background(), filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestScanService_CancelledContext(t *testing.T) {
	dir := photoDir(t, "a.jpg")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 3} {
		_, err := usecases.NewScanService(&mockExtractor{}, workers).Scan(ctx, dir)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("workers=%d: expected context.Canceled, got %v", workers, err)
		}
	}
}

func TestScanService_Nearby(t *testing.T) {
	dir := photoDir(t, "abando.jpg", "moyua.jpg", "madrid.jpg")
	ext := &mockExtractor{results: map[string]ports.Extraction{
		"abando.jpg": at(43.2606, -2.9275),
		"moyua.jpg":  at(43.2631, -2.9350),
		"madrid.jpg": at(40.4168, -3.7038),
	}}
	svc := usecases.NewScanService(ext, 1)

	got, err := svc.Nearby(context.Background(), dir, 43.2631, -2.9350, 1000, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 nearby photos, got %d", len(got))
	}
	if got[0].Filename != "moyua.jpg" || got[0].Distance != 0 {
		t.Errorf("expected moyua first at 0m, got %s at %v", got[0].Filename, got[0].Distance)
	}
	if got[1].Filename != "abando.jpg" || math.IsNaN(got[1].Distance) || got[1].Distance > 1000 {
		t.Errorf("unexpected second result %+v", got[1])
	}

	got, _ = svc.Nearby(context.Background(), dir, 43.2631, -2.9350, 1000, 1)
	if len(got) != 1 {
		t.Errorf("expected limit 1 to be honoured, got %d", len(got))
	}
}

func TestIsAllowedFile(t *testing.T) {
	cases := map[string]bool{
		"a.jpg": true, "a.JPG": true, "a.jpeg": true, "a.png": true, "a.gif": true,
		".jpg": true, "a.txt": false, "a.bmp": false, "a.jpg.txt": false, "jpg": false,
	}
	for name, want := range cases {
		if got := usecases.IsAllowedFile(name); got != want {
			t.Errorf("IsAllowedFile(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestTitle(t *testing.T) {
	cases := map[string]string{
		"beach.jpg":     "beach",
		"a.b.c.png":     "a.b.c",
		".jpg":          ".jpg",
		"..x.jpg":       "..x",
		"IMG_0001.JPEG": "IMG_0001",
		"noextension":   "noextension",
	}
	for in, want := range cases {
		if got := usecases.Title(in); got != want {
			t.Errorf("Title(%q) = %q, want %q", in, got, want)
		}
	}
}

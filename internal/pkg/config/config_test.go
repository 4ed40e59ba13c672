package config_test

import (
	"strings"
	"testing"

	"github.com/samirrijal/photomap/internal/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("photomap-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("expected port 5000, got %d", cfg.Server.Port)
	}
	if cfg.Photos.Dir != "photos" {
		t.Errorf("expected photos dir 'photos', got %q", cfg.Photos.Dir)
	}
	if cfg.Photos.Workers != 1 {
		t.Errorf("expected 1 worker, got %d", cfg.Photos.Workers)
	}
	if cfg.Telemetry.ServiceName != "photomap-test" {
		t.Errorf("expected service name from argument, got %q", cfg.Telemetry.ServiceName)
	}
	if cfg.Telemetry.Enabled {
		t.Error("telemetry should be off by default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PHOTOMAP_PHOTOS_DIR", "/srv/photos")
	t.Setenv("PHOTOMAP_PHOTOS_WORKERS", "4")
	t.Setenv("PHOTOMAP_SERVER_PORT", "8081")

	cfg, err := config.Load("photomap-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Photos.Dir != "/srv/photos" {
		t.Errorf("expected /srv/photos, got %q", cfg.Photos.Dir)
	}
	if cfg.Photos.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Photos.Workers)
	}
	if cfg.Server.Port != 8081 {
		t.Errorf("expected port 8081, got %d", cfg.Server.Port)
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PHOTOMAP_PHOTOS_WORKERS", "0")

	if _, err := config.Load("photomap-test"); err == nil {
		t.Fatal("expected validation error for zero workers")
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := config.Config{
		Server: config.ServerConfig{Port: 70000, ReadTimeout: 0, WriteTimeout: 5},
		Photos: config.PhotosConfig{Dir: " ", Workers: 1},
		Log:    config.LogConfig{Format: "xml"},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"server.port", "server.read_timeout", "photos.dir", "log.format"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in error: %v", want, err)
		}
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	exifadapter "github.com/samirrijal/photomap/internal/adapters/exif"
	"github.com/samirrijal/photomap/internal/adapters/http"
	"github.com/samirrijal/photomap/internal/core/usecases"
	"github.com/samirrijal/photomap/internal/pkg/config"
	"github.com/samirrijal/photomap/internal/pkg/logging"
	"github.com/samirrijal/photomap/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("photomap-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// The map starts empty until photos are dropped into the directory.
	if err := os.MkdirAll(cfg.Photos.Dir, 0o755); err != nil {
		log.Fatalf("photo directory: %v", err)
	}

	scanSvc := usecases.NewScanService(exifadapter.NewExtractor(), cfg.Photos.Workers)

	deps := &http.Dependencies{
		Photos:      scanSvc,
		PhotosDir:   cfg.Photos.Dir,
		StaticDir:   cfg.Server.StaticDir,
		ScanTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Photo Map API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting",
			"addr", addr,
			"photos_dir", cfg.Photos.Dir,
			"workers", cfg.Photos.Workers,
		)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight scans up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

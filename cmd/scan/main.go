package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	exifadapter "github.com/samirrijal/photomap/internal/adapters/exif"
	"github.com/samirrijal/photomap/internal/core/usecases"
	"github.com/samirrijal/photomap/internal/pkg/logging"
)

func main() {
	app := &cli.App{
		Name:  "photomap-scan",
		Usage: "print the geotagged photos of a directory as JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Value:   "photos",
				Usage:   "photo directory to scan",
				EnvVars: []string{"PHOTOMAP_PHOTOS_DIR"},
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Value:   1,
				Usage:   "concurrent metadata extractions",
				EnvVars: []string{"PHOTOMAP_PHOTOS_WORKERS"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "debug, info, warn or error",
				EnvVars: []string{"PHOTOMAP_LOG_LEVEL"},
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "indent the JSON output",
			},
		},
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	// Logs go to stderr so stdout stays valid JSON.
	logger := logging.New(os.Stderr, c.String("log-level"), "text")
	ctx := logging.WithLogger(c.Context, logger)

	workers := c.Int("workers")
	if workers < 1 || workers > 64 {
		return fmt.Errorf("workers must be 1-64, got %d", workers)
	}

	svc := usecases.NewScanService(exifadapter.NewExtractor(), workers)
	result, err := svc.Scan(ctx, c.String("dir"))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	if c.Bool("pretty") {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}

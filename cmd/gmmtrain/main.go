// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/gmmtrain/backbone"
	backbonehttp "github.com/poiesic/gmmtrain/backbone/http"
	"github.com/poiesic/gmmtrain/extract"
	"github.com/poiesic/gmmtrain/gmm"
	badgerstore "github.com/poiesic/gmmtrain/storage/badger"
	"github.com/poiesic/gmmtrain/train"
)

func main() {
	app := &cli.App{
		Name:  "gmmtrain",
		Usage: "Train a Gaussian mixture model over image backbone features",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "train",
				Usage:  "Extract features from an image corpus and fit a mixture model",
				Action: trainCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "dataset-path",
						Aliases:  []string{"d"},
						Usage:    "Root directory of the image corpus",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Path the fitted model JSON is written to",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "components",
						Aliases: []string{"k"},
						Usage:   "Number of mixture components",
						Value:   64,
					},
					&cli.IntFlag{
						Name:  "max-samples",
						Usage: "Cap the number of corpus images (0 means all)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of images per backbone call",
						Value: 32,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Preprocessing worker pool size (0 means automatic)",
					},
					&cli.Int64Flag{
						Name:  "seed",
						Usage: "Seed for mixture initialization",
						Value: 42,
					},
					&cli.IntFlag{
						Name:  "max-iterations",
						Usage: "EM iteration budget",
						Value: 100,
					},
					&cli.Float64Flag{
						Name:  "tolerance",
						Usage: "Convergence tolerance on mean per-sample log-likelihood",
						Value: 1e-3,
					},
					&cli.StringFlag{
						Name:  "cache",
						Usage: "Path to a BadgerDB feature cache directory (optional)",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Backbone embedding service host URL",
						Value: "http://localhost:8093/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Backbone model name",
						Value: "mobilenet_v2",
					},
					&cli.IntFlag{
						Name:  "embedding-dim",
						Usage: "Backbone output dimensionality",
						Value: 1280,
					},
					&cli.DurationFlag{
						Name:  "embedding-timeout",
						Usage: "Per-request timeout for backbone calls",
						Value: 60 * time.Second,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func trainCommand(c *cli.Context) error {
	ctx := context.Background()

	backboneConfig := backbone.NewConfig(
		backbone.WithHost(c.String("embedding-host")),
		backbone.WithModel(c.String("embedding-model")),
		backbone.WithDimension(c.Int("embedding-dim")),
		backbone.WithTimeout(c.Duration("embedding-timeout")),
	)
	if err := backboneConfig.Validate(); err != nil {
		return fmt.Errorf("invalid backbone configuration: %w", err)
	}

	embedder, err := backbonehttp.NewEmbedder(backboneConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	trainConfig := &train.Config{
		DatasetPath: c.String("dataset-path"),
		OutputPath:  c.String("output"),
		MaxSamples:  c.Int("max-samples"),
		Extract: &extract.Config{
			BatchSize:      c.Int("batch-size"),
			ReportInterval: 50,
		},
		GMM: gmm.NewConfig(
			gmm.WithComponents(c.Int("components")),
			gmm.WithMaxIterations(c.Int("max-iterations")),
			gmm.WithTolerance(c.Float64("tolerance")),
			gmm.WithSeed(c.Int64("seed")),
		),
	}

	opts := []train.Option{
		train.WithProgress(os.Stderr),
		train.WithWorkers(c.Int("workers")),
	}

	if cachePath := c.String("cache"); cachePath != "" {
		backend, err := badgerstore.OpenBackend(cachePath, false)
		if err != nil {
			return fmt.Errorf("failed to open feature cache: %w", err)
		}
		cache, err := badgerstore.NewFeatureCache(backend)
		if err != nil {
			backend.Close()
			return fmt.Errorf("failed to create feature cache: %w", err)
		}
		defer cache.Close()
		opts = append(opts, train.WithCache(cache, backboneConfig.Model))
	}

	trainer, err := train.NewTrainer(embedder, trainConfig, opts...)
	if err != nil {
		return exitError(err)
	}

	fmt.Fprintf(os.Stderr, "Dataset: %s\n", trainConfig.DatasetPath)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", backboneConfig.Host)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", backboneConfig.Model)
	fmt.Fprintf(os.Stderr, "Components: %d\n", trainConfig.GMM.Components)
	fmt.Fprintln(os.Stderr)

	report, err := trainer.Run(ctx)
	if err != nil {
		return exitError(err)
	}

	fmt.Fprintf(os.Stderr, "Training complete: %d/%d images, %d iterations (converged: %v)\n",
		report.Extracted, report.Samples, report.Iterations, report.Converged)
	fmt.Fprintf(os.Stderr, "Model written to %s\n", report.OutputPath)

	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

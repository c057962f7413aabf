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

// Package train wires the full pipeline together: discover a corpus,
// extract backbone features, fit the mixture, and export it to disk.
package train

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/gmmtrain/backbone"
	"github.com/poiesic/gmmtrain/corpus"
	"github.com/poiesic/gmmtrain/export"
	"github.com/poiesic/gmmtrain/extract"
	"github.com/poiesic/gmmtrain/gmm"
	"github.com/poiesic/gmmtrain/storage"
)

// Config holds configuration for a full training run.
type Config struct {
	// DatasetPath is the corpus root directory.
	DatasetPath string

	// OutputPath is where the fitted model JSON is written.
	OutputPath string

	// MaxSamples caps how many corpus images participate. Zero means
	// all of them.
	MaxSamples int

	// Extract configures the feature extraction stage.
	Extract *extract.Config

	// GMM configures the mixture fit.
	GMM *gmm.Config
}

// Report summarizes a completed training run.
type Report struct {
	Samples            int
	Extracted          int
	Failed             int
	Iterations         int
	Converged          bool
	FinalLogLikelihood float64
	OutputPath         string
	Elapsed            time.Duration
}

// Trainer runs the corpus-to-model pipeline.
type Trainer struct {
	embedder   backbone.Embedder
	config     *Config
	cache      storage.FeatureCache
	cacheModel string
	transform  *extract.Transform
	workers    int
	progress   io.Writer
	logger     *slog.Logger
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Trainer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithProgress sets the writer human progress output goes to.
func WithProgress(w io.Writer) Option {
	return func(t *Trainer) {
		if w != nil {
			t.progress = w
		}
	}
}

// WithCache attaches a feature cache keyed by the given model tag.
func WithCache(cache storage.FeatureCache, model string) Option {
	return func(t *Trainer) {
		t.cache = cache
		t.cacheModel = model
	}
}

// WithTransform replaces the default preprocessing transform.
func WithTransform(tr extract.Transform) Option {
	return func(t *Trainer) {
		t.transform = &tr
	}
}

// WithWorkers sets the preprocessing worker pool size.
func WithWorkers(n int) Option {
	return func(t *Trainer) {
		t.workers = n
	}
}

// NewTrainer creates a Trainer for the given embedder and run config.
func NewTrainer(embedder backbone.Embedder, config *Config, opts ...Option) (*Trainer, error) {
	if embedder == nil {
		return nil, fmt.Errorf("train: embedder is required")
	}
	if config == nil {
		return nil, fmt.Errorf("train: config is required")
	}
	if config.DatasetPath == "" {
		return nil, fmt.Errorf("train: DatasetPath is required")
	}
	if config.OutputPath == "" {
		return nil, fmt.Errorf("train: OutputPath is required")
	}
	if config.GMM == nil {
		config.GMM = gmm.DefaultConfig()
	}
	if err := config.GMM.Validate(); err != nil {
		return nil, err
	}

	t := &Trainer{
		embedder: embedder,
		config:   config,
		progress: io.Discard,
		logger:   slog.Default().With("component", "train"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Run executes the pipeline end to end and returns a run report.
// Errors carry the failing stage's name and wrap the underlying
// sentinel, so callers can both read and classify them.
func (t *Trainer) Run(ctx context.Context) (*Report, error) {
	started := time.Now()

	var loaderOpts []corpus.LoaderOption
	if t.config.MaxSamples > 0 {
		loaderOpts = append(loaderOpts, corpus.WithMaxSamples(t.config.MaxSamples))
	}
	loader, err := corpus.NewDirLoader(t.config.DatasetPath, loaderOpts...)
	if err != nil {
		return nil, fmt.Errorf("corpus: %w", err)
	}
	t.logger.Info("corpus discovered", "path", t.config.DatasetPath, "samples", loader.Len())

	extractOpts := []extract.Option{
		extract.WithLogger(t.logger),
		extract.WithProgress(t.progress),
	}
	if t.cache != nil {
		extractOpts = append(extractOpts, extract.WithCache(t.cache, t.cacheModel))
	}
	if t.transform != nil {
		extractOpts = append(extractOpts, extract.WithTransform(*t.transform))
	}
	if t.workers > 0 {
		extractOpts = append(extractOpts, extract.WithPoolSize(t.workers))
	}
	extractor, err := extract.NewExtractor(t.embedder, t.config.Extract, extractOpts...)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	defer extractor.Release()

	features, failures, err := extractor.Run(ctx, loader)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	estimator, err := gmm.NewEstimator(t.config.GMM, gmm.WithLogger(t.logger))
	if err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}
	result, err := estimator.Fit(ctx, features)
	if err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}

	if err := export.Export(result.Model, t.config.OutputPath); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	t.logger.Info("model exported", "path", t.config.OutputPath,
		"components", result.Model.K(), "dimension", result.Model.Dim())

	return &Report{
		Samples:            loader.Len(),
		Extracted:          features.Rows(),
		Failed:             len(failures),
		Iterations:         result.Iterations,
		Converged:          result.Converged,
		FinalLogLikelihood: result.LogLikelihoods[len(result.LogLikelihoods)-1],
		OutputPath:         t.config.OutputPath,
		Elapsed:            time.Since(started),
	}, nil
}

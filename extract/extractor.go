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


package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/gmmtrain/backbone"
	"github.com/poiesic/gmmtrain/core"
	"github.com/poiesic/gmmtrain/corpus"
	"github.com/poiesic/gmmtrain/storage"
)

// Config holds configuration for an extraction run.
type Config struct {
	// BatchSize is the number of images sent to the backbone per call.
	// Batching amortizes call overhead only; it never changes the values.
	BatchSize int

	// ReportInterval is how often to report progress (number of images).
	ReportInterval int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      32,
		ReportInterval: 50,
	}
}

// Failure records one sample that was dropped from the run.
type Failure struct {
	Path string
	Err  error
}

// Extractor drives feature extraction: it consumes a corpus loader,
// preprocesses samples concurrently, and batches backbone calls into a
// feature matrix.
type Extractor struct {
	embedder   backbone.Embedder
	transform  Transform
	config     *Config
	pool       *ants.Pool
	cache      storage.FeatureCache
	cacheModel string
	progress   io.Writer
	logger     *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor) error

// WithPoolSize sets the worker pool size for concurrent preprocessing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(e *Extractor) error {
		if size < 1 {
			size = 1
		}
		if e.pool != nil {
			e.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		e.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithTransform replaces the default preprocessing transform.
func WithTransform(t Transform) Option {
	return func(e *Extractor) error {
		e.transform = t
		return nil
	}
}

// WithCache attaches a feature cache. Entries are tagged with model and
// only reused when the tag and the run's dimensionality both match.
func WithCache(cache storage.FeatureCache, model string) Option {
	return func(e *Extractor) error {
		e.cache = cache
		e.cacheModel = model
		return nil
	}
}

// WithProgress sets the writer human progress output goes to.
// Default is io.Discard.
func WithProgress(w io.Writer) Option {
	return func(e *Extractor) error {
		if w == nil {
			w = io.Discard
		}
		e.progress = w
		return nil
	}
}

// NewExtractor creates an extraction driver for the given embedder.
func NewExtractor(embedder backbone.Embedder, config *Config, opts ...Option) (*Extractor, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	if config.ReportInterval <= 0 {
		config.ReportInterval = DefaultConfig().ReportInterval
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	e := &Extractor{
		embedder:  embedder,
		transform: DefaultTransform(),
		config:    config,
		pool:      pool,
		progress:  io.Discard,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(e); optErr != nil {
			e.Release()
			return nil, optErr
		}
	}

	return e, nil
}

// Release releases the worker pool.
// The extractor should not be used after calling Release.
func (e *Extractor) Release() {
	if e.pool != nil {
		e.pool.Release()
	}
}

// prepared is the outcome of preprocessing one sample. Exactly one of
// vector (cache hit), tensor (needs embedding) or err is meaningful.
type prepared struct {
	key    core.SampleKey
	vector []float32
	tensor *backbone.Image
	err    error
}

// Run extracts features for every sample the loader yields.
// Surviving rows appear in the matrix in loader order. Per-sample failures
// are returned alongside the matrix; they abort nothing. Returns
// core.ErrNoFeaturesExtracted if no sample survives.
func (e *Extractor) Run(ctx context.Context, loader *corpus.Loader) (*core.FeatureMatrix, []Failure, error) {
	if loader == nil {
		return nil, nil, ErrLoaderRequired
	}

	total := loader.Len()
	dim := e.embedder.Dimension()
	matrix := core.NewFeatureMatrix(dim, total)
	var failures []Failure

	fmt.Fprintf(e.progress, "Extracting features for %d images (batch size: %d)\n",
		total, e.config.BatchSize)

	tracker := NewProgressTracker(e.progress, total, e.config.ReportInterval)
	tracker.Start()

	batch := make([]string, 0, e.config.BatchSize)
	flush := func() error {
		results := e.prepareBatch(ctx, batch)
		batchFailures, err := e.embedBatch(ctx, batch, results, matrix)
		if err != nil {
			return err
		}
		failures = append(failures, batchFailures...)
		tracker.Increment(len(batch))
		batch = batch[:0]
		return nil
	}

	err := loader.ForEach(ctx, func(s corpus.Sample) error {
		batch = append(batch, s.Path)
		if len(batch) == e.config.BatchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if len(batch) > 0 {
		if err := flush(); err != nil {
			return nil, nil, err
		}
	}

	tracker.Finish()

	if matrix.Rows() == 0 {
		return nil, failures, fmt.Errorf("%w: all %d samples failed", core.ErrNoFeaturesExtracted, total)
	}

	elapsed := tracker.Elapsed()
	fmt.Fprintf(e.progress, "Extraction complete: %d/%d images in %v (%d failed)\n",
		matrix.Rows(), total, elapsed.Round(time.Millisecond), len(failures))

	return matrix, failures, nil
}

// prepareBatch preprocesses one batch of samples on the worker pool.
// Each worker writes only its own slot, so reassembly preserves input
// order without locking.
func (e *Extractor) prepareBatch(ctx context.Context, batch []string) []prepared {
	results := make([]prepared, len(batch))
	var wg sync.WaitGroup

	for i, path := range batch {
		wg.Add(1)
		slot, samplePath := i, path
		submitErr := e.pool.Submit(func() {
			defer wg.Done()
			results[slot] = e.prepareSample(ctx, samplePath)
		})
		if submitErr != nil {
			results[slot] = prepared{err: submitErr}
			wg.Done()
		}
	}
	wg.Wait()

	return results
}

// prepareSample reads, keys, and preprocesses a single sample, consulting
// the cache first.
func (e *Extractor) prepareSample(ctx context.Context, path string) prepared {
	data, err := (corpus.Sample{Path: path}).ReadBytes()
	if err != nil {
		return prepared{err: fmt.Errorf("reading: %w", err)}
	}

	key := core.KeyFromBytes(data)

	if e.cache != nil {
		cached, err := e.cache.Get(ctx, key)
		switch {
		case err == nil:
			if cached.Model == e.cacheModel && len(cached.Vector) == e.embedder.Dimension() {
				return prepared{key: key, vector: cached.Vector}
			}
			// Stale entry from another model or dimensionality; re-extract.
		case !errors.Is(err, storage.ErrNotFound):
			e.logger.Warn("feature cache lookup failed", "path", path, "err", err)
		}
	}

	img, err := corpus.Decode(data)
	if err != nil {
		return prepared{err: err}
	}

	tensor, err := e.transform.Apply(img)
	if err != nil {
		return prepared{err: fmt.Errorf("preprocessing: %w", err)}
	}

	return prepared{key: key, tensor: tensor}
}

// embedSingly embeds each tensor in its own call after a failed batch
// call. Per-tensor failures are recorded on the sample's slot. Reports
// whether any call succeeded.
func (e *Extractor) embedSingly(ctx context.Context, slots []int, tensors []*backbone.Image, results []prepared) bool {
	recovered := false
	for j, slot := range slots {
		vectors, err := e.embedder.EmbedImages(ctx, tensors[j:j+1])
		if err != nil {
			results[slot].err = fmt.Errorf("embedding: %w", err)
			continue
		}
		if len(vectors) != 1 {
			results[slot].err = fmt.Errorf("backbone returned %d vectors for 1 input", len(vectors))
			continue
		}
		results[slot].vector = vectors[0]
		recovered = true
	}
	return recovered
}

// embedBatch embeds the uncached tensors of a prepared batch and appends
// all surviving rows to the matrix in input order.
func (e *Extractor) embedBatch(ctx context.Context, batch []string, results []prepared, matrix *core.FeatureMatrix) ([]Failure, error) {
	var tensors []*backbone.Image
	var tensorSlots []int
	for i, res := range results {
		if res.err == nil && res.tensor != nil {
			tensors = append(tensors, res.tensor)
			tensorSlots = append(tensorSlots, i)
		}
	}

	if len(tensors) > 0 {
		vectors, err := e.embedder.EmbedImages(ctx, tensors)
		switch {
		case err != nil:
			// One rejected input can fail the whole call. Retry each
			// tensor alone so its siblings survive; if every retry fails
			// too, the backbone itself is down and the run aborts.
			e.logger.Warn("backbone batch call failed, retrying per image",
				"batch", len(tensors), "err", err)
			if !e.embedSingly(ctx, tensorSlots, tensors, results) {
				return nil, fmt.Errorf("backbone call failed: %w", err)
			}
		case len(vectors) != len(tensors):
			return nil, fmt.Errorf("backbone returned %d vectors for %d inputs", len(vectors), len(tensors))
		default:
			for j, slot := range tensorSlots {
				results[slot].vector = vectors[j]
			}
		}
	}

	var failures []Failure
	for i, res := range results {
		path := batch[i]
		if res.err != nil {
			e.logger.Warn("failed to process image", "path", path, "err", res.err)
			failures = append(failures, Failure{Path: path, Err: res.err})
			continue
		}
		if err := matrix.AppendRowFloat32(res.vector); err != nil {
			e.logger.Warn("dropping embedding with unexpected dimension",
				"path", path, "got", len(res.vector), "want", matrix.Dim())
			failures = append(failures, Failure{Path: path, Err: err})
			continue
		}

		if e.cache != nil && res.tensor != nil {
			if err := e.cache.Put(ctx, res.key, &storage.CachedFeature{
				Model:  e.cacheModel,
				Vector: res.vector,
			}); err != nil {
				e.logger.Warn("feature cache write failed", "path", path, "err", err)
			}
		}
	}

	return failures, nil
}


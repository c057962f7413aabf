package extract

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/gmmtrain/backbone"
	"github.com/poiesic/gmmtrain/backbone/mock"
	"github.com/poiesic/gmmtrain/core"
	"github.com/poiesic/gmmtrain/corpus"
	badgerstore "github.com/poiesic/gmmtrain/storage/badger"
)

// testTransform keeps preprocessing cheap in tests.
var testTransform = Transform{
	ResizeTo: 8,
	CropSize: 4,
	Mean:     [3]float32{0, 0, 0},
	Std:      [3]float32{1, 1, 1},
}

func writePNG(t *testing.T, path string, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// testCorpus writes n distinct images and returns a loader over them.
func testCorpus(t *testing.T, n int) *corpus.Loader {
	t.Helper()
	dir := t.TempDir()
	for i := 0; i < n; i++ {
		writePNG(t, filepath.Join(dir, string(rune('a'+i))+".png"),
			color.RGBA{uint8(20 * (i + 1)), uint8(10 * i), 0, 255})
	}
	loader, err := corpus.NewDirLoader(dir)
	require.NoError(t, err)
	return loader
}

func newTestExtractor(t *testing.T, embedder backbone.Embedder, cfg *Config, opts ...Option) *Extractor {
	t.Helper()
	opts = append([]Option{WithTransform(testTransform)}, opts...)
	e, err := NewExtractor(embedder, cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(e.Release)
	return e
}

func TestExtractor_Run(t *testing.T) {
	loader := testCorpus(t, 5)
	embedder := mock.NewMockEmbedder(16)
	e := newTestExtractor(t, embedder, &Config{BatchSize: 2})

	matrix, failures, err := e.Run(context.Background(), loader)
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Equal(t, 5, matrix.Rows())
	assert.Equal(t, 16, matrix.Dim())
	assert.Equal(t, 5, embedder.EmbeddedCount())
}

func TestExtractor_Run_BatchSizeIndependent(t *testing.T) {
	loader := testCorpus(t, 7)

	run := func(batchSize int) *core.FeatureMatrix {
		e := newTestExtractor(t, mock.NewMockEmbedder(8), &Config{BatchSize: batchSize})
		matrix, _, err := e.Run(context.Background(), loader)
		require.NoError(t, err)
		return matrix
	}

	a := run(1)
	b := run(7)
	c := run(3)

	require.Equal(t, a.Rows(), b.Rows())
	assert.Equal(t, a.RawData(), b.RawData(), "batch boundaries must not change values")
	assert.Equal(t, a.RawData(), c.RawData())
}

func TestExtractor_Run_SkipsFailedSamples(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), color.White)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.png"), []byte("not a png"), 0644))
	writePNG(t, filepath.Join(dir, "c.png"), color.Black)

	loader, err := corpus.NewDirLoader(dir)
	require.NoError(t, err)

	e := newTestExtractor(t, mock.NewMockEmbedder(8), nil)
	matrix, failures, err := e.Run(context.Background(), loader)
	require.NoError(t, err)

	assert.Equal(t, 2, matrix.Rows(), "corrupt sample is dropped, run continues")
	require.Len(t, failures, 1)
	assert.Equal(t, filepath.Join(dir, "b.png"), failures[0].Path)
}

func TestExtractor_Run_AllSamplesFail(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("garbage"), 0644))
	}

	loader, err := corpus.NewDirLoader(dir)
	require.NoError(t, err)

	e := newTestExtractor(t, mock.NewMockEmbedder(8), nil)
	_, failures, err := e.Run(context.Background(), loader)

	assert.ErrorIs(t, err, core.ErrNoFeaturesExtracted)
	assert.Len(t, failures, 3)
}

func TestExtractor_Run_BackboneFailureIsFatal(t *testing.T) {
	loader := testCorpus(t, 2)
	embedder := mock.NewMockEmbedder(8)
	embedder.EmbedImagesFunc = func(ctx context.Context, batch []*backbone.Image) ([][]float32, error) {
		return nil, errors.New("backbone unavailable")
	}

	e := newTestExtractor(t, embedder, nil)
	_, _, err := e.Run(context.Background(), loader)
	assert.ErrorContains(t, err, "backbone unavailable")
}

func TestExtractor_Run_RejectedInputDoesNotSinkBatch(t *testing.T) {
	loader := testCorpus(t, 4)

	// The backbone rejects any batch holding the poisoned input, and the
	// poisoned input itself on retry. Its siblings must still come through.
	embedder := mock.NewMockEmbedder(8)
	rejected := false
	embedder.EmbedImagesFunc = func(ctx context.Context, batch []*backbone.Image) ([][]float32, error) {
		if len(batch) > 1 {
			return nil, errors.New("invalid input in batch")
		}
		if !rejected {
			rejected = true
			return nil, errors.New("invalid input")
		}
		vectors := make([][]float32, len(batch))
		for i := range vectors {
			vectors[i] = make([]float32, 8)
		}
		return vectors, nil
	}

	e := newTestExtractor(t, embedder, &Config{BatchSize: 4})
	matrix, failures, err := e.Run(context.Background(), loader)
	require.NoError(t, err)

	assert.Equal(t, 3, matrix.Rows(), "siblings of a rejected input survive")
	require.Len(t, failures, 1)
	assert.ErrorContains(t, failures[0].Err, "invalid input")
}

func TestExtractor_Run_ContextCancelled(t *testing.T) {
	loader := testCorpus(t, 3)
	e := newTestExtractor(t, mock.NewMockEmbedder(8), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := e.Run(ctx, loader)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractor_Run_WarmCacheSkipsBackbone(t *testing.T) {
	loader := testCorpus(t, 4)
	cache, err := badgerstore.NewMemoryFeatureCache()
	require.NoError(t, err)
	defer cache.Close()

	first := mock.NewMockEmbedder(8)
	e1 := newTestExtractor(t, first, nil, WithCache(cache, "mobilenet_v2"))
	m1, _, err := e1.Run(context.Background(), loader)
	require.NoError(t, err)
	require.Equal(t, 4, first.EmbeddedCount())

	second := mock.NewMockEmbedder(8)
	e2 := newTestExtractor(t, second, nil, WithCache(cache, "mobilenet_v2"))
	m2, _, err := e2.Run(context.Background(), loader)
	require.NoError(t, err)

	assert.Equal(t, 0, second.EmbeddedCount(), "warm cache must bypass the backbone")
	assert.Equal(t, m1.RawData(), m2.RawData(), "cached run reproduces the matrix")
}

func TestExtractor_Run_CacheModelMismatchReextracts(t *testing.T) {
	loader := testCorpus(t, 2)
	cache, err := badgerstore.NewMemoryFeatureCache()
	require.NoError(t, err)
	defer cache.Close()

	first := mock.NewMockEmbedder(8)
	e1 := newTestExtractor(t, first, nil, WithCache(cache, "mobilenet_v2"))
	_, _, err = e1.Run(context.Background(), loader)
	require.NoError(t, err)

	second := mock.NewMockEmbedder(8)
	e2 := newTestExtractor(t, second, nil, WithCache(cache, "efficientnet_b0"))
	_, _, err = e2.Run(context.Background(), loader)
	require.NoError(t, err)

	assert.Equal(t, 2, second.EmbeddedCount(), "entries from another model are not reused")
}

func TestNewExtractor_RequiresEmbedder(t *testing.T) {
	_, err := NewExtractor(nil, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestExtractor_Run_RequiresLoader(t *testing.T) {
	e := newTestExtractor(t, mock.NewMockEmbedder(8), nil)
	_, _, err := e.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrLoaderRequired)
}

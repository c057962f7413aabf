package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/gmmtrain/backbone"
)

func testImage(fill float32) *backbone.Image {
	img := backbone.NewImage(3, 2)
	for i := range img.Data {
		img.Data[i] = fill
	}
	return img
}

func newTestServer(t *testing.T, dim int, handler func(req embedRequest) [][]float32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/embeddings", r.URL.Path)

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		out := embedResponse{Embeddings: handler(req)}
		require.NoError(t, json.NewEncoder(w).Encode(out))
	}))
}

func TestEmbedder_EmbedImages(t *testing.T) {
	const dim = 4

	srv := newTestServer(t, dim, func(req embedRequest) [][]float32 {
		assert.Equal(t, "mobilenet_v2", req.Model)
		assert.Equal(t, 3, req.Channels)
		assert.Equal(t, 2, req.Size)

		embeddings := make([][]float32, len(req.Inputs))
		for i, in := range req.Inputs {
			embeddings[i] = []float32{in[0], in[0], in[0], in[0]}
		}
		return embeddings
	})
	defer srv.Close()

	embedder, err := NewEmbedder(backbone.NewConfig(
		backbone.WithHost(srv.URL),
		backbone.WithDimension(dim),
	))
	require.NoError(t, err)
	assert.Equal(t, dim, embedder.Dimension())

	got, err := embedder.EmbedImages(context.Background(), []*backbone.Image{
		testImage(1), testImage(2),
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []float32{1, 1, 1, 1}, got[0])
	assert.Equal(t, []float32{2, 2, 2, 2}, got[1])
}

func TestEmbedder_EmbedImages_EmptyBatch(t *testing.T) {
	embedder, err := NewEmbedder(backbone.DefaultConfig())
	require.NoError(t, err)

	got, err := embedder.EmbedImages(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEmbedder_EmbedImages_CountMismatch(t *testing.T) {
	srv := newTestServer(t, 4, func(req embedRequest) [][]float32 {
		return [][]float32{{0, 0, 0, 0}} // one short
	})
	defer srv.Close()

	embedder, err := NewEmbedder(backbone.NewConfig(
		backbone.WithHost(srv.URL),
		backbone.WithDimension(4),
	))
	require.NoError(t, err)

	_, err = embedder.EmbedImages(context.Background(), []*backbone.Image{
		testImage(1), testImage(2),
	})
	assert.ErrorContains(t, err, "embedding count mismatch")
}

func TestEmbedder_EmbedImages_DimensionMismatch(t *testing.T) {
	srv := newTestServer(t, 4, func(req embedRequest) [][]float32 {
		return [][]float32{{1, 2}}
	})
	defer srv.Close()

	embedder, err := NewEmbedder(backbone.NewConfig(
		backbone.WithHost(srv.URL),
		backbone.WithDimension(4),
	))
	require.NoError(t, err)

	_, err = embedder.EmbedImages(context.Background(), []*backbone.Image{testImage(1)})
	assert.ErrorContains(t, err, "dimension")
}

func TestEmbedder_EmbedImages_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	embedder, err := NewEmbedder(backbone.NewConfig(backbone.WithHost(srv.URL)))
	require.NoError(t, err)

	_, err = embedder.EmbedImages(context.Background(), []*backbone.Image{testImage(1)})
	assert.ErrorContains(t, err, "model not loaded")
}

func TestEmbedder_EmbedImages_MixedGeometry(t *testing.T) {
	embedder, err := NewEmbedder(backbone.DefaultConfig())
	require.NoError(t, err)

	a := backbone.NewImage(3, 2)
	b := backbone.NewImage(3, 4)
	_, err = embedder.EmbedImages(context.Background(), []*backbone.Image{a, b})
	assert.ErrorContains(t, err, "geometry")
}

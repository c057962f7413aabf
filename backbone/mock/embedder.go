package mock

import (
	"context"
	"encoding/binary"
	"hash/fnv"
	"math"
	"sync"

	"github.com/poiesic/gmmtrain/backbone"
)

// MockEmbedder is a test double for backbone.Embedder.
// It allows custom behavior injection via function fields.
type MockEmbedder struct {
	// EmbedImagesFunc is called by EmbedImages if set.
	// If nil, uses default deterministic behavior.
	EmbedImagesFunc func(ctx context.Context, batch []*backbone.Image) ([][]float32, error)

	dimension int

	mu        sync.Mutex
	callCount int
	embedded  int
}

// NewMockEmbedder creates a mock embedder producing vectors of the given
// dimensionality with default deterministic behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockEmbedder(dimension int) *MockEmbedder {
	return &MockEmbedder{dimension: dimension}
}

// Dimension returns the mock's configured vector length.
func (m *MockEmbedder) Dimension() int {
	return m.dimension
}

// EmbedImages generates deterministic embeddings derived from each tensor's
// contents. Batch boundaries never affect the values.
func (m *MockEmbedder) EmbedImages(ctx context.Context, batch []*backbone.Image) ([][]float32, error) {
	m.mu.Lock()
	m.callCount++
	m.embedded += len(batch)
	m.mu.Unlock()

	if m.EmbedImagesFunc != nil {
		return m.EmbedImagesFunc(ctx, batch)
	}

	embeddings := make([][]float32, len(batch))
	for i, img := range batch {
		embeddings[i] = generateDeterministicVector(img, m.dimension)
	}
	return embeddings, nil
}

// CallCount returns the number of EmbedImages invocations.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// EmbeddedCount returns the total number of images embedded across calls.
func (m *MockEmbedder) EmbeddedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.embedded
}

// Reset clears the call counters and any injected behavior.
func (m *MockEmbedder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.embedded = 0
	m.EmbedImagesFunc = nil
}

// generateDeterministicVector creates a deterministic embedding from the
// tensor contents. It hashes the raw values with FNV so the same image
// always produces the same vector.
func generateDeterministicVector(img *backbone.Image, dim int) []float32 {
	h := fnv.New32a()
	var buf [4]byte
	for _, v := range img.Data {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
		h.Write(buf[:])
	}
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000) / 1000.0
	}
	return vector
}

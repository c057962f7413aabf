package backbone

import "context"

// Embedder generates fixed-length embedding vectors from preprocessed images.
// Implementations must be deterministic (identical inputs produce identical
// outputs), stateless across calls, and thread-safe for concurrent use.
type Embedder interface {
	// EmbedImages generates embeddings for a batch of preprocessed images.
	// The returned slice contains one vector per input image, in input
	// order, each of length Dimension. Batching is a throughput
	// optimization only; batch boundaries must not affect the values.
	// Returns an error if the backbone call fails as a whole.
	EmbedImages(ctx context.Context, batch []*Image) ([][]float32, error)

	// Dimension returns the length of the vectors produced by EmbedImages.
	Dimension() int
}

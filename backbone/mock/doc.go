// Package mock provides test double implementations of backbone interfaces.
//
// This package contains a mock implementation of backbone.Embedder for use
// in unit tests. The mock allows tests to run without an inference server
// and enables controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	embedder := mock.NewMockEmbedder(64)
//	vectors, err := embedder.EmbedImages(ctx, batch)
//
//	// Custom behavior injection
//	embedder.EmbedImagesFunc = func(ctx context.Context, batch []*backbone.Image) ([][]float32, error) {
//	    return nil, errors.New("backbone unavailable")
//	}
//
//	// Check call counts
//	count := embedder.CallCount()
//
// # Default Behavior
//
// MockEmbedder returns deterministic vectors derived from the tensor
// contents, so identical inputs always embed identically regardless of
// batch boundaries.
package mock

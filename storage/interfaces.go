package storage

import (
	"context"

	"github.com/poiesic/gmmtrain/core"
)

// CachedFeature is one stored feature vector together with the backbone
// model that produced it. Entries from a different model are never reused.
type CachedFeature struct {
	Model  string
	Vector []float32
}

// FeatureCache stores extracted feature vectors keyed by sample content.
// Implementations must be thread-safe.
type FeatureCache interface {
	// Get retrieves the cached feature for a sample key.
	// Returns ErrNotFound if no entry exists.
	Get(ctx context.Context, key core.SampleKey) (*CachedFeature, error)

	// Put stores the feature for a sample key, replacing any prior entry.
	Put(ctx context.Context, key core.SampleKey, feature *CachedFeature) error

	// Close closes the storage backend and releases resources.
	Close() error
}

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


package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/gmmtrain/core"
	"github.com/poiesic/gmmtrain/storage"
)

// FeatureCache is a BadgerDB-backed storage.FeatureCache.
type FeatureCache struct {
	backend *Backend
}

// NewFeatureCache creates a feature cache on an open backend.
//
// Returns storage.FeatureCache interface to enforce abstraction.
func NewFeatureCache(backend *Backend) (storage.FeatureCache, error) {
	return newFeatureCache(backend)
}

func newFeatureCache(backend *Backend) (*FeatureCache, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &FeatureCache{backend: backend}, nil
}

// Get retrieves the cached feature for a sample key.
func (c *FeatureCache) Get(ctx context.Context, key core.SampleKey) (*storage.CachedFeature, error) {
	if c.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var feature *storage.CachedFeature
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeFeatureKey(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			feature, err = storage.UnmarshalCachedFeature(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return feature, nil
}

// Put stores the feature for a sample key, replacing any prior entry.
func (c *FeatureCache) Put(ctx context.Context, key core.SampleKey, feature *storage.CachedFeature) error {
	if c.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	return c.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeFeatureKey(key), storage.MarshalCachedFeature(feature)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Close closes the underlying backend.
func (c *FeatureCache) Close() error {
	return c.backend.Close()
}

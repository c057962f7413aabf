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


// Package storage provides the feature-cache abstraction for gmmtrain.
//
// Extracting a feature vector means decoding, preprocessing and running an
// image through the backbone, which dominates a training run's wall time.
// The cache stores extracted vectors keyed by the sample's content hash so
// reruns over an unchanged corpus skip the backbone entirely. A cache entry
// is only reused when its model tag and dimensionality match the run.
//
// Constructors in backend packages return the FeatureCache interface to
// keep callers decoupled from the concrete store:
//
//	cache, err := badger.NewFeatureCache(backend)
//
// Use in tests with in-memory storage:
//
//	cache, err := badger.NewMemoryFeatureCache()
//
// All implementations must be thread-safe; extraction workers hit the
// cache concurrently.
package storage

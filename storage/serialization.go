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


package storage

import (
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/gmmtrain/core"
)

// Cache entries hold a single small struct, so the MUS serializers are
// composed by hand instead of generated.
var vectorSer = ord.NewSliceSer[float32](raw.Float32)

// MarshalSampleKey serializes a SampleKey to bytes.
func MarshalSampleKey(key core.SampleKey) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(key)))
	varint.Uint64.Marshal(uint64(key), buf)
	return buf
}

// UnmarshalSampleKey deserializes a SampleKey from bytes.
func UnmarshalSampleKey(data []byte) (core.SampleKey, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: sample key: %w", ErrSerializationFailed, err)
	}
	return core.SampleKey(v), nil
}

// MarshalCachedFeature serializes a CachedFeature to bytes.
func MarshalCachedFeature(feature *CachedFeature) []byte {
	size := ord.String.Size(feature.Model) + vectorSer.Size(feature.Vector)
	buf := make([]byte, size)
	n := ord.String.Marshal(feature.Model, buf)
	vectorSer.Marshal(feature.Vector, buf[n:])
	return buf
}

// UnmarshalCachedFeature deserializes a CachedFeature from bytes.
func UnmarshalCachedFeature(data []byte) (*CachedFeature, error) {
	model, n, err := ord.String.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: model tag: %w", ErrSerializationFailed, err)
	}
	vector, _, err := vectorSer.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: vector: %w", ErrSerializationFailed, err)
	}
	return &CachedFeature{Model: model, Vector: vector}, nil
}

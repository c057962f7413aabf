package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/gmmtrain/core"
)

func TestCachedFeature_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		feature *CachedFeature
	}{
		{
			name: "typical entry",
			feature: &CachedFeature{
				Model:  "mobilenet_v2",
				Vector: []float32{0.125, -1.5, 3.25, 0},
			},
		},
		{
			name: "empty vector",
			feature: &CachedFeature{
				Model:  "mobilenet_v2",
				Vector: []float32{},
			},
		},
		{
			name: "empty model tag",
			feature: &CachedFeature{
				Model:  "",
				Vector: []float32{1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalCachedFeature(tt.feature)

			got, err := UnmarshalCachedFeature(data)
			require.NoError(t, err)
			assert.Equal(t, tt.feature.Model, got.Model)
			assert.Equal(t, len(tt.feature.Vector), len(got.Vector))
			for i := range tt.feature.Vector {
				assert.Equal(t, tt.feature.Vector[i], got.Vector[i])
			}
		})
	}
}

func TestUnmarshalCachedFeature_Truncated(t *testing.T) {
	data := MarshalCachedFeature(&CachedFeature{
		Model:  "mobilenet_v2",
		Vector: []float32{1, 2, 3},
	})

	_, err := UnmarshalCachedFeature(data[:len(data)-2])
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestSampleKey_RoundTrip(t *testing.T) {
	key := core.KeyFromBytes([]byte("some image bytes"))

	data := MarshalSampleKey(key)
	got, err := UnmarshalSampleKey(data)
	require.NoError(t, err)
	assert.Equal(t, key, got)
}

func TestUnmarshalSampleKey_Empty(t *testing.T) {
	_, err := UnmarshalSampleKey(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

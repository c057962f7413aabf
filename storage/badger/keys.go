package badger

import (
	"encoding/binary"

	"github.com/poiesic/gmmtrain/core"
)

// Key prefix for cached feature vectors
const featurePrefix = "featvec"

// makeFeatureKey generates a key for a cached feature by sample key.
func makeFeatureKey(key core.SampleKey) []byte {
	prefix := featurePrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(key))
	return buf
}

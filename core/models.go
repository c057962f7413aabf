package core

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

// SampleKey is a content-derived identifier for a corpus sample.
// It is used to address cached feature vectors, so identical image
// contents map to the same key regardless of file name or location.
type SampleKey uint64

// KeyFromBytes generates a deterministic SampleKey from raw sample bytes
// using BLAKE2b hashing. Identical contents produce identical keys.
func KeyFromBytes(data []byte) SampleKey {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write(data)
	sum := h.Sum(nil)
	return SampleKey(binary.LittleEndian.Uint64(sum))
}

// FeatureMatrix is a dense, row-major stack of feature vectors.
// Each row is one observation; all rows share the same dimensionality.
// The backing buffer is contiguous so the estimator can iterate rows
// without per-sample allocations.
type FeatureMatrix struct {
	data []float64
	rows int
	dim  int
}

// NewFeatureMatrix creates an empty feature matrix for vectors of the given
// dimensionality, with capacity preallocated for the expected row count.
func NewFeatureMatrix(dim, capacityHint int) *FeatureMatrix {
	if capacityHint < 0 {
		capacityHint = 0
	}
	return &FeatureMatrix{
		data: make([]float64, 0, dim*capacityHint),
		dim:  dim,
	}
}

// Rows returns the number of observations in the matrix.
func (m *FeatureMatrix) Rows() int { return m.rows }

// Dim returns the dimensionality of each row.
func (m *FeatureMatrix) Dim() int { return m.dim }

// Row returns a view of row i. The returned slice aliases the backing
// buffer and must not be retained across appends.
func (m *FeatureMatrix) Row(i int) []float64 {
	start := i * m.dim
	return m.data[start : start+m.dim : start+m.dim]
}

// AppendRow adds one observation to the matrix.
// Returns ErrDimensionMismatch if the vector length differs from Dim.
func (m *FeatureMatrix) AppendRow(v []float64) error {
	if len(v) != m.dim {
		return ErrDimensionMismatch
	}
	m.data = append(m.data, v...)
	m.rows++
	return nil
}

// AppendRowFloat32 widens a float32 vector and appends it as one row.
// Feature vectors arrive from the backbone as float32; fitting is done
// in float64.
func (m *FeatureMatrix) AppendRowFloat32(v []float32) error {
	if len(v) != m.dim {
		return ErrDimensionMismatch
	}
	for _, x := range v {
		m.data = append(m.data, float64(x))
	}
	m.rows++
	return nil
}

// RawData returns the backing row-major buffer of length Rows*Dim.
func (m *FeatureMatrix) RawData() []float64 { return m.data }

// MixtureModel holds the parameters of a fitted diagonal-covariance
// Gaussian mixture: K component weights, K mean vectors and K vectors of
// per-dimension variances. Covariances are diagonal; no cross-dimension
// terms are modeled.
type MixtureModel struct {
	Weights     []float64   // length K, non-negative, sums to 1
	Means       [][]float64 // K rows of D values
	Covariances [][]float64 // K rows of D strictly positive variances
}

// K returns the number of mixture components.
func (mm *MixtureModel) K() int { return len(mm.Weights) }

// Dim returns the dimensionality of the component means.
// Returns 0 for an empty model.
func (mm *MixtureModel) Dim() int {
	if len(mm.Means) == 0 {
		return 0
	}
	return len(mm.Means[0])
}

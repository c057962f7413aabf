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


package core

import (
	"fmt"
	"math"
)

// WeightSumTolerance is the absolute tolerance within which mixture
// weights must sum to 1.
const WeightSumTolerance = 1e-6

// ValidateMixtureModel validates a MixtureModel according to domain rules.
//
// Validation rules:
//   - K >= 1 with consistent lengths across weights, means and covariances
//   - every mean/covariance row has the same dimensionality
//   - weights are non-negative and sum to 1 within WeightSumTolerance
//   - every variance is strictly positive
//   - no parameter is NaN or Inf
//
// NaN/Inf violations wrap ErrNumericalDegeneracy so callers can tell a
// degenerate fit apart from a structurally malformed model.
func ValidateMixtureModel(mm *MixtureModel) error {
	if mm == nil {
		return fmt.Errorf("%w: model is nil", ErrInvalidMixtureModel)
	}

	k := len(mm.Weights)
	if k == 0 {
		return fmt.Errorf("%w: no components", ErrInvalidMixtureModel)
	}
	if len(mm.Means) != k || len(mm.Covariances) != k {
		return fmt.Errorf("%w: got %d weights, %d means, %d covariances",
			ErrInvalidMixtureModel, k, len(mm.Means), len(mm.Covariances))
	}

	dim := len(mm.Means[0])
	if dim == 0 {
		return fmt.Errorf("%w: zero-dimensional means", ErrInvalidMixtureModel)
	}

	var sum float64
	for j, w := range mm.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: weight of component %d is %v", ErrNumericalDegeneracy, j, w)
		}
		if w < 0 {
			return fmt.Errorf("%w: negative weight %v in component %d", ErrInvalidMixtureModel, w, j)
		}
		sum += w
	}
	if math.Abs(sum-1) > WeightSumTolerance {
		return fmt.Errorf("%w: weights sum to %v", ErrInvalidMixtureModel, sum)
	}

	for j := 0; j < k; j++ {
		if len(mm.Means[j]) != dim || len(mm.Covariances[j]) != dim {
			return fmt.Errorf("%w: component %d has inconsistent dimensionality",
				ErrInvalidMixtureModel, j)
		}
		for d, v := range mm.Means[j] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: mean[%d][%d] is %v", ErrNumericalDegeneracy, j, d, v)
			}
		}
		for d, v := range mm.Covariances[j] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: covariance[%d][%d] is %v", ErrNumericalDegeneracy, j, d, v)
			}
			if v <= 0 {
				return fmt.Errorf("%w: non-positive variance %v at [%d][%d]",
					ErrInvalidMixtureModel, v, j, d)
			}
		}
	}

	return nil
}

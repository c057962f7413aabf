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


// Package gmm fits diagonal-covariance Gaussian mixture models with
// Expectation-Maximization.
//
// The estimator alternates a log-space E-step (per-sample component
// responsibilities via log-sum-exp) with a responsibility-weighted M-step,
// tracking the data log-likelihood until the improvement falls below the
// configured tolerance or the iteration budget runs out. Variance and
// weight floors keep dying components numerically harmless; they stay in
// the output with near-zero weight.
//
// Fits are exactly reproducible: initialization is seeded k-means++ over
// the data, and the iteration order is fixed. Fitting the same matrix with
// the same configuration yields bit-identical parameters.
package gmm

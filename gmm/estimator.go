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

package gmm

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/poiesic/gmmtrain/core"
)

const log2Pi = 1.8378770664093453

// FitResult holds the outcome of an EM fit.
type FitResult struct {
	// Model is the fitted mixture.
	Model *core.MixtureModel

	// Iterations is the number of EM iterations performed.
	Iterations int

	// Converged reports whether the tolerance criterion was met before
	// the iteration budget ran out.
	Converged bool

	// LogLikelihoods records the mean per-sample log-likelihood after
	// each E-step, in iteration order.
	LogLikelihoods []float64
}

// Estimator fits diagonal-covariance Gaussian mixtures to feature
// matrices.
type Estimator struct {
	config *Config
	logger *slog.Logger
}

// Option is a functional option for configuring an Estimator.
type Option func(*Estimator)

// WithLogger sets the logger used for per-iteration progress.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Estimator) {
		e.logger = logger
	}
}

// NewEstimator creates an Estimator with the given configuration.
func NewEstimator(config *Config, opts ...Option) (*Estimator, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	est := &Estimator{
		config: config,
		logger: slog.Default().With("component", "gmm"),
	}
	for _, opt := range opts {
		opt(est)
	}
	return est, nil
}

// Fit runs Expectation-Maximization on the feature matrix and returns
// the fitted mixture. The fit is deterministic for a fixed seed and a
// fixed row order. Fit fails with core.ErrInsufficientSamples when the
// matrix holds fewer rows than components, and with
// core.ErrNumericalDegeneracy if the likelihood ever becomes
// non-finite.
func (e *Estimator) Fit(ctx context.Context, features *core.FeatureMatrix) (*FitResult, error) {
	n := features.Rows()
	d := features.Dim()
	k := e.config.Components

	if n < k {
		return nil, fmt.Errorf("%w: %d samples for %d components", core.ErrInsufficientSamples, n, k)
	}

	e.logger.Info("starting EM fit",
		"samples", n,
		"dimension", d,
		"components", k,
		"seed", e.config.Seed)

	weights, means, variances := e.initialize(features)

	// logResp is reused across iterations: logResp[i*k+j] holds the
	// joint log density log w_j + log N(x_i | mu_j, var_j) during the
	// E-step and the normalized log responsibility afterwards.
	logResp := make([]float64, n*k)
	logNorm := make([]float64, k)
	logWeights := make([]float64, k)
	rowBuf := make([]float64, k)

	result := &FitResult{}
	prevLL := math.Inf(-1)

	for iter := 0; iter < e.config.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// E-step. Precompute each component's log normalizer
		// -0.5*(d*log(2pi) + sum log var_j).
		for j := 0; j < k; j++ {
			logWeights[j] = math.Log(weights[j])
			sumLogVar := 0.0
			for t := 0; t < d; t++ {
				sumLogVar += math.Log(variances[j][t])
			}
			logNorm[j] = -0.5 * (float64(d)*log2Pi + sumLogVar)
		}

		totalLL := 0.0
		for i := 0; i < n; i++ {
			x := features.Row(i)
			for j := 0; j < k; j++ {
				mahal := 0.0
				mu := means[j]
				v := variances[j]
				for t := 0; t < d; t++ {
					diff := x[t] - mu[t]
					mahal += diff * diff / v[t]
				}
				rowBuf[j] = logWeights[j] + logNorm[j] - 0.5*mahal
			}
			lse := floats.LogSumExp(rowBuf)
			totalLL += lse
			for j := 0; j < k; j++ {
				logResp[i*k+j] = rowBuf[j] - lse
			}
		}

		meanLL := totalLL / float64(n)
		if math.IsNaN(meanLL) || math.IsInf(meanLL, 0) {
			return nil, fmt.Errorf("%w: log-likelihood is not finite at iteration %d", core.ErrNumericalDegeneracy, iter+1)
		}

		result.Iterations = iter + 1
		result.LogLikelihoods = append(result.LogLikelihoods, meanLL)
		e.logger.Debug("EM iteration", "iteration", iter+1, "log_likelihood", meanLL)

		if iter > 0 && math.Abs(meanLL-prevLL) < e.config.Tolerance {
			result.Converged = true
			break
		}
		prevLL = meanLL

		e.mStep(features, logResp, weights, means, variances)
	}

	model := &core.MixtureModel{
		Weights:     weights,
		Means:       means,
		Covariances: variances,
	}
	if err := core.ValidateMixtureModel(model); err != nil {
		return nil, err
	}
	result.Model = model

	e.logger.Info("EM fit finished",
		"iterations", result.Iterations,
		"converged", result.Converged,
		"log_likelihood", result.LogLikelihoods[len(result.LogLikelihoods)-1])

	return result, nil
}

// mStep recomputes weights, means and variances from the current log
// responsibilities, applying the weight and variance floors.
func (e *Estimator) mStep(features *core.FeatureMatrix, logResp []float64, weights []float64, means, variances [][]float64) {
	n := features.Rows()
	d := features.Dim()
	k := len(weights)

	nk := make([]float64, k)
	for j := 0; j < k; j++ {
		for t := 0; t < d; t++ {
			means[j][t] = 0
			variances[j][t] = 0
		}
	}

	// Accumulate responsibility mass and weighted sums.
	for i := 0; i < n; i++ {
		x := features.Row(i)
		for j := 0; j < k; j++ {
			r := math.Exp(logResp[i*k+j])
			nk[j] += r
			mu := means[j]
			for t := 0; t < d; t++ {
				mu[t] += r * x[t]
			}
		}
	}

	for j := 0; j < k; j++ {
		denom := nk[j]
		if denom < e.config.WeightFloor {
			denom = e.config.WeightFloor
		}
		for t := 0; t < d; t++ {
			means[j][t] /= denom
		}
	}

	// Variances use the updated means.
	for i := 0; i < n; i++ {
		x := features.Row(i)
		for j := 0; j < k; j++ {
			r := math.Exp(logResp[i*k+j])
			mu := means[j]
			v := variances[j]
			for t := 0; t < d; t++ {
				diff := x[t] - mu[t]
				v[t] += r * diff * diff
			}
		}
	}

	total := 0.0
	for j := 0; j < k; j++ {
		denom := nk[j]
		if denom < e.config.WeightFloor {
			denom = e.config.WeightFloor
		}
		for t := 0; t < d; t++ {
			variances[j][t] /= denom
			if variances[j][t] < e.config.VarianceFloor {
				variances[j][t] = e.config.VarianceFloor
			}
		}
		weights[j] = nk[j] / float64(n)
		if weights[j] < e.config.WeightFloor {
			weights[j] = e.config.WeightFloor
		}
		total += weights[j]
	}
	for j := 0; j < k; j++ {
		weights[j] /= total
	}
}

// initialize seeds the mixture with k-means++ centroids, uniform
// weights, and the per-dimension sample variance as every component's
// starting covariance.
func (e *Estimator) initialize(features *core.FeatureMatrix) (weights []float64, means, variances [][]float64) {
	n := features.Rows()
	d := features.Dim()
	k := e.config.Components

	rng := rand.New(rand.NewSource(e.config.Seed))

	means = make([][]float64, k)
	first := rng.Intn(n)
	means[0] = append([]float64(nil), features.Row(first)...)

	// D^2 sampling: each subsequent centroid is drawn with probability
	// proportional to the squared distance to the nearest centroid
	// chosen so far.
	dists := make([]float64, n)
	for i := 0; i < n; i++ {
		dists[i] = squaredDistance(features.Row(i), means[0])
	}
	for j := 1; j < k; j++ {
		total := 0.0
		for i := 0; i < n; i++ {
			total += dists[i]
		}
		var idx int
		if total <= 0 {
			// All remaining mass at existing centroids; fall back to a
			// uniform draw so initialization always completes.
			idx = rng.Intn(n)
		} else {
			target := rng.Float64() * total
			cum := 0.0
			idx = n - 1
			for i := 0; i < n; i++ {
				cum += dists[i]
				if cum >= target {
					idx = i
					break
				}
			}
		}
		means[j] = append([]float64(nil), features.Row(idx)...)
		for i := 0; i < n; i++ {
			if sq := squaredDistance(features.Row(i), means[j]); sq < dists[i] {
				dists[i] = sq
			}
		}
	}

	col := make([]float64, n)
	globalVar := make([]float64, d)
	for t := 0; t < d; t++ {
		for i := 0; i < n; i++ {
			col[i] = features.Row(i)[t]
		}
		v := stat.Variance(col, nil)
		if v < e.config.VarianceFloor {
			v = e.config.VarianceFloor
		}
		globalVar[t] = v
	}

	weights = make([]float64, k)
	variances = make([][]float64, k)
	for j := 0; j < k; j++ {
		weights[j] = 1.0 / float64(k)
		variances[j] = append([]float64(nil), globalVar...)
	}
	return weights, means, variances
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

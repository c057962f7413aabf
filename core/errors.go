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

import "errors"

// Pipeline stage errors
var (
	// ErrNoSamplesFound indicates the corpus contained no usable samples.
	ErrNoSamplesFound = errors.New("no samples found")

	// ErrNoFeaturesExtracted indicates every sample failed extraction.
	// Distinct from ErrNoSamplesFound: samples existed but none survived.
	ErrNoFeaturesExtracted = errors.New("no features extracted")

	// ErrInsufficientSamples indicates fewer observations than mixture
	// components. The caller must reduce K or enlarge the corpus.
	ErrInsufficientSamples = errors.New("insufficient samples for component count")

	// ErrNumericalDegeneracy indicates the fit produced NaN or Inf
	// parameters despite the variance and weight floors.
	ErrNumericalDegeneracy = errors.New("numerical degeneracy in fitted parameters")

	// ErrExportFailed indicates the parameter file could not be written.
	ErrExportFailed = errors.New("export failed")
)

// Domain validation errors
var (
	// ErrDimensionMismatch indicates a vector of the wrong length.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInvalidMixtureModel indicates a MixtureModel failed validation.
	ErrInvalidMixtureModel = errors.New("invalid mixture model")
)

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

// Package export writes fitted mixture models to disk as JSON. Writes
// are atomic: the file is staged next to the target and renamed into
// place, so a crash mid-export never leaves a truncated model behind.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/poiesic/gmmtrain/core"
)

// Params is the on-disk representation of a fitted mixture.
type Params struct {
	Weights     []float64   `json:"weights"`
	Means       [][]float64 `json:"means"`
	Covariances [][]float64 `json:"covariances"`
}

// FromModel converts a mixture model into its exportable form. The
// model is validated first so a degenerate fit never reaches disk.
func FromModel(model *core.MixtureModel) (*Params, error) {
	if err := core.ValidateMixtureModel(model); err != nil {
		return nil, err
	}
	return &Params{
		Weights:     model.Weights,
		Means:       model.Means,
		Covariances: model.Covariances,
	}, nil
}

// Export writes the model to path as JSON, creating parent directories
// as needed and overwriting any existing file. Failures wrap
// core.ErrExportFailed.
func Export(model *core.MixtureModel, path string) error {
	params, err := FromModel(model)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding model: %v", core.ErrExportFailed, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating output directory %s: %v", core.ErrExportFailed, dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: creating staging file in %s: %v", core.ErrExportFailed, dir, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: writing %s: %v", core.ErrExportFailed, tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: syncing %s: %v", core.ErrExportFailed, tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: closing %s: %v", core.ErrExportFailed, tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: renaming into %s: %v", core.ErrExportFailed, path, err)
	}
	return nil
}

// Load reads a previously exported model back from disk.
func Load(path string) (*core.MixtureModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}
	var params Params
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("decoding model file: %w", err)
	}
	model := &core.MixtureModel{
		Weights:     params.Weights,
		Means:       params.Means,
		Covariances: params.Covariances,
	}
	if err := core.ValidateMixtureModel(model); err != nil {
		return nil, err
	}
	return model, nil
}

package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/poiesic/gmmtrain/core"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"no samples", core.ErrNoSamplesFound, 2},
		{"no features", core.ErrNoFeaturesExtracted, 3},
		{"insufficient samples", core.ErrInsufficientSamples, 4},
		{"numerical degeneracy", core.ErrNumericalDegeneracy, 5},
		{"export failed", core.ErrExportFailed, 6},
		{"wrapped sentinel", fmt.Errorf("fit: %w", core.ErrInsufficientSamples), 4},
		{"deeply wrapped sentinel", fmt.Errorf("corpus: %w", fmt.Errorf("under /x: %w", core.ErrNoSamplesFound)), 2},
		{"unclassified", errors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestExitErrorCarriesCode(t *testing.T) {
	err := exitError(fmt.Errorf("export: %w", core.ErrExportFailed))

	var coder interface{ ExitCode() int }
	assert.ErrorAs(t, err, &coder)
	assert.Equal(t, 6, coder.ExitCode())
}

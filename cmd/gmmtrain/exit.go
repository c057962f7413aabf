package main

import (
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/gmmtrain/core"
)

// Exit codes for scripted callers. Each failure class the pipeline can
// report gets a stable code; anything unclassified exits 1.
const (
	exitNoSamples           = 2
	exitNoFeatures          = 3
	exitInsufficientSamples = 4
	exitNumericalDegeneracy = 5
	exitExportFailed        = 6
	exitGeneric             = 1
)

func exitCode(err error) int {
	switch {
	case errors.Is(err, core.ErrNoSamplesFound):
		return exitNoSamples
	case errors.Is(err, core.ErrNoFeaturesExtracted):
		return exitNoFeatures
	case errors.Is(err, core.ErrInsufficientSamples):
		return exitInsufficientSamples
	case errors.Is(err, core.ErrNumericalDegeneracy):
		return exitNumericalDegeneracy
	case errors.Is(err, core.ErrExportFailed):
		return exitExportFailed
	default:
		return exitGeneric
	}
}

func exitError(err error) error {
	return cli.Exit(err.Error(), exitCode(err))
}

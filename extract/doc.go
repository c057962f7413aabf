// Package extract turns a corpus of raw images into a dense feature matrix.
//
// The Extractor consumes a corpus.Loader, preprocesses samples concurrently
// on a worker pool (results are index-tagged and reassembled in input
// order), and calls the backbone in batches. Per-sample failures are
// collected and logged as warnings; they never abort the run. A run that
// loses every sample fails with core.ErrNoFeaturesExtracted.
//
// Preprocessing is a fixed transform: resize shortest side, center crop,
// per-channel mean/std normalization. Batch boundaries never affect the
// extracted values.
package extract

// Package corpus enumerates and loads the raw images a training run
// consumes.
//
// Discovery walks a dataset directory recursively, keeps jpg/jpeg/png
// files, and deduplicates normalized paths while preserving a
// deterministic order. The Loader then yields samples lazily; decoding
// happens per sample so a corrupt file only fails that sample, and
// iteration is restartable because the path list is held in memory.
package corpus

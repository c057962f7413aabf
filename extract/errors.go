package extract

import "errors"

var (
	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrLoaderRequired is returned when a corpus loader is not provided.
	ErrLoaderRequired = errors.New("corpus loader required")
)

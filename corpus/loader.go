package corpus

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"

	// Register decoders for the supported sample formats.
	_ "image/jpeg"
	_ "image/png"

	"github.com/poiesic/gmmtrain/core"
)

// Sample is one corpus entry: a stable identity plus the means to load it.
// The raw image is read lazily and never held by the loader.
type Sample struct {
	// Index is the sample's position in the loader's deterministic order.
	Index int

	// Path identifies the sample; used for logging and diagnostics.
	Path string
}

// ReadBytes reads the sample's raw file contents.
func (s Sample) ReadBytes() ([]byte, error) {
	return os.ReadFile(s.Path)
}

// Decode parses raw sample bytes into an image.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// Loader yields a finite, ordered, restartable sequence of samples.
type Loader struct {
	paths []string
}

// LoaderOption configures a Loader.
type LoaderOption func(*loaderOptions)

type loaderOptions struct {
	maxSamples int
}

// WithMaxSamples caps the number of samples the loader yields.
// Zero or negative means no cap. The cap is applied after deduplication,
// keeping the head of the deterministic order.
func WithMaxSamples(n int) LoaderOption {
	return func(o *loaderOptions) {
		o.maxSamples = n
	}
}

// NewLoader creates a loader over an explicit path list.
// Returns core.ErrNoSamplesFound if the list is empty (after any cap).
func NewLoader(paths []string, opts ...LoaderOption) (*Loader, error) {
	options := &loaderOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.maxSamples > 0 && len(paths) > options.maxSamples {
		paths = paths[:options.maxSamples]
	}
	if len(paths) == 0 {
		return nil, core.ErrNoSamplesFound
	}

	owned := make([]string, len(paths))
	copy(owned, paths)
	return &Loader{paths: owned}, nil
}

// NewDirLoader discovers images beneath root and creates a loader over them.
// Returns core.ErrNoSamplesFound if the directory holds no images.
func NewDirLoader(root string, opts ...LoaderOption) (*Loader, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("dataset path %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("dataset path %s is not a directory", root)
	}

	paths, err := CollectImagePaths(root)
	if err != nil {
		return nil, err
	}
	loader, err := NewLoader(paths, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w under %s", core.ErrNoSamplesFound, root)
	}
	return loader, nil
}

// Len returns the number of samples the loader yields.
func (l *Loader) Len() int { return len(l.paths) }

// Paths returns the loader's path list in iteration order.
func (l *Loader) Paths() []string { return l.paths }

// ForEach iterates over all samples in order, calling fn for each.
// Iteration stops on the first error from fn. Context cancellation is
// checked before each sample. ForEach may be called any number of times;
// each call restarts from the beginning.
func (l *Loader) ForEach(ctx context.Context, fn func(Sample) error) error {
	for i, path := range l.paths {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := fn(Sample{Index: i, Path: path}); err != nil {
			return err
		}
	}
	return nil
}

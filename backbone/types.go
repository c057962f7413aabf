package backbone

import "fmt"

// Image is a preprocessed image tensor in CHW layout: Data holds Channels
// planes of Size x Size values, already normalized for the backbone.
type Image struct {
	Channels int
	Size     int
	Data     []float32
}

// NewImage allocates a zeroed tensor with the given geometry.
func NewImage(channels, size int) *Image {
	return &Image{
		Channels: channels,
		Size:     size,
		Data:     make([]float32, channels*size*size),
	}
}

// At returns the value at channel c, row y, column x.
func (img *Image) At(c, y, x int) float32 {
	return img.Data[(c*img.Size+y)*img.Size+x]
}

// Set stores the value at channel c, row y, column x.
func (img *Image) Set(c, y, x int, v float32) {
	img.Data[(c*img.Size+y)*img.Size+x] = v
}

// Validate checks the tensor geometry against its buffer length.
func (img *Image) Validate() error {
	if img.Channels <= 0 || img.Size <= 0 {
		return fmt.Errorf("backbone image: invalid geometry %dx%dx%d", img.Channels, img.Size, img.Size)
	}
	if want := img.Channels * img.Size * img.Size; len(img.Data) != want {
		return fmt.Errorf("backbone image: buffer length %d, want %d", len(img.Data), want)
	}
	return nil
}

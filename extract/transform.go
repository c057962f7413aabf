package extract

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/poiesic/gmmtrain/backbone"
)

// ImageNet normalization constants used by torchvision-pretrained backbones.
var (
	imageNetMean = [3]float32{0.485, 0.456, 0.406}
	imageNetStd  = [3]float32{0.229, 0.224, 0.225}
)

// Transform converts a decoded image into the normalized CHW tensor the
// backbone expects: resize so the shortest side equals ResizeTo, center
// crop CropSize, scale to [0,1] and normalize per channel. The transform
// is pure and deterministic.
type Transform struct {
	ResizeTo int
	CropSize int
	Mean     [3]float32
	Std      [3]float32
}

// DefaultTransform returns the MobileNetV2 preprocessing: resize 256,
// center-crop 224, ImageNet mean/std.
func DefaultTransform() Transform {
	return Transform{
		ResizeTo: 256,
		CropSize: 224,
		Mean:     imageNetMean,
		Std:      imageNetStd,
	}
}

// Apply preprocesses one image into a backbone input tensor.
func (t Transform) Apply(src image.Image) (*backbone.Image, error) {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("empty image %dx%d", w, h)
	}

	// Scale so the shortest side equals ResizeTo, preserving aspect ratio.
	var nw, nh int
	if w <= h {
		nw = t.ResizeTo
		nh = (h*t.ResizeTo + w/2) / w
	} else {
		nh = t.ResizeTo
		nw = (w*t.ResizeTo + h/2) / h
	}
	if nw < t.CropSize || nh < t.CropSize {
		return nil, fmt.Errorf("image %dx%d resizes to %dx%d, smaller than crop %d",
			w, h, nw, nh, t.CropSize)
	}

	resized := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.BiLinear.Scale(resized, resized.Bounds(), src, bounds, xdraw.Src, nil)

	x0 := (nw - t.CropSize) / 2
	y0 := (nh - t.CropSize) / 2

	out := backbone.NewImage(3, t.CropSize)
	for y := 0; y < t.CropSize; y++ {
		for x := 0; x < t.CropSize; x++ {
			r, g, b, _ := resized.At(x0+x, y0+y).RGBA()
			out.Set(0, y, x, (float32(r)/65535-t.Mean[0])/t.Std[0])
			out.Set(1, y, x, (float32(g)/65535-t.Mean[1])/t.Std[1])
			out.Set(2, y, x, (float32(b)/65535-t.Mean[2])/t.Std[2])
		}
	}
	return out, nil
}

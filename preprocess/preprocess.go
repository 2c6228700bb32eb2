// Package preprocess turns compressed images into inception input tensors
// without a native runtime: decode, drop alpha, bilinear resize, then
// (value - mean) / scale per channel.
package preprocess

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
	"github.com/sdeoras/inception/inception"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Normalizer implements inception.Normalizer. It holds no per call state and
// is safe for concurrent use.
type Normalizer struct {
	height, width int
	mean, scale   float32
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithSize sets the output height and width.
func WithSize(height, width int) Option {
	return func(n *Normalizer) {
		n.height = height
		n.width = width
	}
}

// WithMean sets the value subtracted from every channel.
func WithMean(mean float32) Option {
	return func(n *Normalizer) { n.mean = mean }
}

// WithScale sets the divisor applied after mean subtraction.
func WithScale(scale float32) Option {
	return func(n *Normalizer) { n.scale = scale }
}

// New returns a Normalizer with the inception defaults: 224x224, mean 117,
// scale 1.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		height: inception.Height,
		width:  inception.Width,
		mean:   inception.Mean,
		scale:  inception.Scale,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize decodes b and returns a [1 height width 3] tensor.
func (n *Normalizer) Normalize(b []byte) (*inception.Tensor, error) {
	if len(b) == 0 {
		return nil, &inception.DecodeError{Err: errors.New("empty image")}
	}

	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, &inception.DecodeError{Err: err}
	}
	if img.Bounds().Empty() {
		return nil, &inception.DecodeError{Err: fmt.Errorf("image has no pixels: %v", img.Bounds())}
	}

	rgb := opaque(img)
	resized := resize.Resize(uint(n.width), uint(n.height), rgb, resize.Bilinear)

	tensor := inception.NewImageTensor(n.height, n.width, inception.Channels)
	fill(tensor.Data, resized, n.mean, n.scale)

	return tensor, nil
}

// opaque copies img into an NRGBA image with every alpha set to 255, keeping
// the unpremultiplied color channels.
func opaque(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	// draw premultiplies, which loses color under alpha 0
	switch src := img.(type) {
	case *image.NRGBA:
		for y := 0; y < bounds.Dy(); y++ {
			copy(out.Pix[y*out.Stride:y*out.Stride+4*bounds.Dx()], src.Pix[src.PixOffset(bounds.Min.X, bounds.Min.Y+y):])
		}
	case *image.Paletted, *image.NRGBA64:
		for y := 0; y < bounds.Dy(); y++ {
			for x := 0; x < bounds.Dx(); x++ {
				out.SetNRGBA(x, y, color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA))
			}
		}
	default:
		draw.Draw(out, out.Bounds(), img, bounds.Min, draw.Src)
	}
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out
}

// fill writes img into data in HWC order. img is fully opaque, so the
// premultiplied RGBA layout holds the same channel values as NRGBA.
func fill(data []float32, img image.Image, mean, scale float32) {
	var pix []uint8
	var stride int
	switch img := img.(type) {
	case *image.RGBA:
		pix, stride = img.Pix, img.Stride
	case *image.NRGBA:
		pix, stride = img.Pix, img.Stride
	}

	bounds := img.Bounds()
	i := 0
	if pix != nil {
		for y := 0; y < bounds.Dy(); y++ {
			row := pix[y*stride:]
			for x := 0; x < bounds.Dx(); x++ {
				data[i] = (float32(row[4*x]) - mean) / scale
				data[i+1] = (float32(row[4*x+1]) - mean) / scale
				data[i+2] = (float32(row[4*x+2]) - mean) / scale
				i += 3
			}
		}
		return
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			data[i] = (float32(c.R) - mean) / scale
			data[i+1] = (float32(c.G) - mean) / scale
			data[i+2] = (float32(c.B) - mean) / scale
			i += 3
		}
	}
}

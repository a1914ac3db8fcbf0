// Package preprocess turns uploaded leaf photos into the normalized NHWC
// tensor the plant disease network expects.
package preprocess

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
)

const (
	Height   = 256
	Width    = 256
	Channels = 3
)

// Shape is the input shape of a single-image batch.
var Shape = []int64{1, Height, Width, Channels}

type Tensor struct {
	Shape []int64
	Data  []float32
}

// Error marks any failure while turning bytes into a tensor.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("Error preprocessing image: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// MaxPixels bounds the declared size of an image before its pixels are
// decoded; a few hundred KB of PNG can otherwise claim gigabytes.
const MaxPixels = 2 * 89478485

// Decode reads an encoded image and returns it as a 1x256x256x3 tensor.
func Decode(r io.Reader) (*Tensor, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &Error{Err: err}
	}
	return DecodeBytes(data)
}

func DecodeBytes(data []byte) (*Tensor, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &Error{Err: err}
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > MaxPixels {
		return nil, &Error{Err: fmt.Errorf("image size (%d pixels) exceeds limit of %d pixels", pixels, MaxPixels)}
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &Error{Err: err}
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, &Error{Err: fmt.Errorf("image has no pixels (%dx%d)", b.Dx(), b.Dy())}
	}
	return FromImage(img), nil
}

// FromImage converts, resizes and scales an already decoded image.
func FromImage(img image.Image) *Tensor {
	resized := resize.Resize(Width, Height, toRGB(img), resize.Bicubic)

	bounds := resized.Bounds()
	data := make([]float32, Height*Width*Channels)
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()

			i := (y*Width + x) * Channels
			data[i] = float32(r) / 65535.0
			data[i+1] = float32(g) / 65535.0
			data[i+2] = float32(b) / 65535.0
		}
	}

	return &Tensor{
		Shape: append([]int64(nil), Shape...),
		Data:  data,
	}
}

// toRGB returns an opaque copy of img. Alpha is dropped, not composited, so a
// transparent pixel keeps its stored color.
func toRGB(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

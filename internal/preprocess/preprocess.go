// Package preprocess turns an uploaded photo into the normalized NCHW tensor
// the classifier expects: shorter side resized to 256, center crop to 224,
// per-channel ImageNet normalization.
package preprocess

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"

	"github.com/Brownie44l1/leaf-api/internal/model"
)

const ResizeShorter = 256

var ErrUnreadableImage = errors.New("unreadable image")

var (
	Mean = [model.Channels]float32{0.485, 0.456, 0.406}
	Std  = [model.Channels]float32{0.229, 0.224, 0.225}
)

// File decodes the image at path and preprocesses it.
func File(path string) (*model.Tensor, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	return Image(img), nil
}

// Image preprocesses an already decoded image. Transparent pixels keep their
// stored color; alpha never reaches the tensor.
func Image(img image.Image) *model.Tensor {
	cropped := imaging.CropCenter(resizeShorter(opaque(img), ResizeShorter), model.ImageSize, model.ImageSize)

	t := model.NewTensor()
	plane := model.ImageSize * model.ImageSize
	for y := 0; y < model.ImageSize; y++ {
		for x := 0; x < model.ImageSize; x++ {
			i := y*cropped.Stride + x*4
			pixelIndex := y*model.ImageSize + x
			for ch := 0; ch < model.Channels; ch++ {
				v := float32(cropped.Pix[i+ch]) / 255
				t.Data[ch*plane+pixelIndex] = (v - Mean[ch]) / Std[ch]
			}
		}
	}
	return t
}

// opaque copies img to non-premultiplied RGBA with every alpha set to 255,
// so the premultiplying resize below cannot darken translucent pixels.
func opaque(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// resizeShorter scales img so its shorter side equals size, keeping the aspect ratio.
func resizeShorter(img image.Image, size uint) image.Image {
	b := img.Bounds()
	if b.Dx() <= b.Dy() {
		return resize.Resize(size, 0, img, resize.Bilinear)
	}
	return resize.Resize(0, size, img, resize.Bilinear)
}

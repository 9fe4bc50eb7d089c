package utils

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/roadwatch-ai/signscan/internal/mempool"
)

// ImageProcessingError represents errors that can occur during image processing.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing error in %s: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error { return e.Err }

// ResizeSquare resizes an image to a fixed size×size square, ignoring aspect
// ratio. The detection network consumes a fixed square input; boxes are
// decoded in normalized space and rescaled against the original dimensions,
// so distortion here does not leak into the output.
func ResizeSquare(img image.Image, size int) (image.Image, error) {
	if img == nil {
		return nil, &ImageProcessingError{Operation: "resize", Err: errors.New("input image is nil")}
	}
	if size <= 0 {
		return nil, &ImageProcessingError{Operation: "resize", Err: fmt.Errorf("invalid target size %d", size)}
	}
	return imaging.Resize(img, size, size, imaging.Lanczos), nil
}

// NormalizeImage normalizes an image for detection inference:
// - Converts to RGB (removes alpha channel)
// - Scales pixel values from 0-255 to 0-1
// - Reorders channels to NCHW format for ONNX.
func NormalizeImage(img image.Image) ([]float32, int, int, error) {
	if img == nil {
		return nil, 0, 0, &ImageProcessingError{Operation: "normalize", Err: errors.New("input image is nil")}
	}

	nrgba := imaging.Clone(img)
	bounds := nrgba.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, 0, 0, &ImageProcessingError{Operation: "normalize", Err: errors.New("invalid image dimensions")}
	}

	tensor := make([]float32, 3*height*width)
	normalizeInto(nrgba, tensor, width, height)
	return tensor, width, height, nil
}

// NormalizeImagePooled normalizes an image using memory pooling for the output
// buffer. The caller should return the buffer via mempool.PutFloat32 when the
// inference call has consumed it.
func NormalizeImagePooled(img image.Image) ([]float32, int, int, error) {
	if img == nil {
		return nil, 0, 0, &ImageProcessingError{Operation: "normalize", Err: errors.New("input image is nil")}
	}

	nrgba := imaging.Clone(img)
	bounds := nrgba.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, 0, 0, &ImageProcessingError{Operation: "normalize", Err: errors.New("invalid image dimensions")}
	}

	tensor := mempool.GetFloat32(3 * height * width)
	normalizeInto(nrgba, tensor, width, height)
	return tensor, width, height, nil
}

func normalizeInto(nrgba *image.NRGBA, tensor []float32, width, height int) {
	bounds := nrgba.Bounds()
	for y := range height {
		for x := range width {
			r, g, b, _ := nrgba.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()

			// 0-65535 -> 0-255 -> 0-1
			idx := y*width + x
			tensor[idx] = float32(r>>8) / 255.0
			tensor[height*width+idx] = float32(g>>8) / 255.0
			tensor[2*height*width+idx] = float32(b>>8) / 255.0
		}
	}
}

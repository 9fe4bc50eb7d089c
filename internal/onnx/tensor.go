// Package onnx wraps the ONNX Runtime bindings with the small amount of
// tensor plumbing the detection pipeline needs: NCHW input tensors, output
// layout checks, and runtime/session configuration.
package onnx

import (
	"errors"
	"fmt"
)

// Tensor is a float32 tensor prepared for ONNX Runtime. Data is row-major;
// image inputs use NCHW.
type Tensor struct {
	Data  []float32
	Shape []int64
}

// NewImageTensor builds a single-image input tensor with shape [1, C, H, W].
// data must be length C*H*W in NCHW order.
func NewImageTensor(data []float32, c, h, w int) (Tensor, error) {
	if data == nil {
		return Tensor{}, errors.New("nil data")
	}
	expected := c * h * w
	if len(data) != expected {
		return Tensor{}, fmt.Errorf("unexpected data length: got %d, want %d", len(data), expected)
	}
	return Tensor{
		Data:  data,
		Shape: []int64{1, int64(c), int64(h), int64(w)},
	}, nil
}

// NewBatchImageTensor stacks multiple images into [N, C, H, W]. All images
// must share the same (C, H, W) and be in NCHW order.
func NewBatchImageTensor(images [][]float32, c, h, w int) (Tensor, error) {
	if len(images) == 0 {
		return Tensor{}, errors.New("empty batch")
	}
	per := c * h * w
	out := make([]float32, per*len(images))
	for i, d := range images {
		if len(d) != per {
			return Tensor{}, fmt.Errorf("image %d has length %d, want %d", i, len(d), per)
		}
		copy(out[i*per:(i+1)*per], d)
	}
	return Tensor{
		Data:  out,
		Shape: []int64{int64(len(images)), int64(c), int64(h), int64(w)},
	}, nil
}

// ValidateNCHW ensures a shape is [N, C, H, W] with positive dimensions.
func ValidateNCHW(shape []int64) error {
	if len(shape) != 4 {
		return fmt.Errorf("shape rank %d != 4", len(shape))
	}
	for i, v := range shape {
		if v <= 0 {
			return fmt.Errorf("dimension %d must be > 0, got %d", i, v)
		}
	}
	return nil
}

// VerifyImageTensor checks data length matches the tensor's NCHW shape.
func VerifyImageTensor(t Tensor) error {
	if err := ValidateNCHW(t.Shape); err != nil {
		return err
	}
	n, c, h, w := t.Shape[0], t.Shape[1], t.Shape[2], t.Shape[3]
	expected := int(n * c * h * w)
	if len(t.Data) != expected {
		return fmt.Errorf("tensor data length %d != expected %d for shape %v", len(t.Data), expected, t.Shape)
	}
	return nil
}

// TransposeCHWToHWC rearranges a single-image channels-first buffer into
// channels-last order. Detection heads commonly emit [1, C, H, W]; downstream
// decoding wants per-cell channel vectors, which channels-last provides
// contiguously.
func TransposeCHWToHWC(data []float32, c, h, w int) ([]float32, error) {
	if len(data) != c*h*w {
		return nil, fmt.Errorf("data length %d does not match %dx%dx%d", len(data), c, h, w)
	}
	out := make([]float32, len(data))
	for ch := range c {
		plane := data[ch*h*w : (ch+1)*h*w]
		for y := range h {
			for x := range w {
				out[(y*w+x)*c+ch] = plane[y*w+x]
			}
		}
	}
	return out, nil
}

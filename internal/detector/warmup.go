package detector

import (
	"errors"
	"image"
	"log/slog"

	"github.com/yalue/onnxruntime_go"

	"github.com/roadwatch-ai/signscan/internal/mempool"
	"github.com/roadwatch-ai/signscan/internal/onnx"
)

// runWarmupIteration performs a single warmup inference pass.
func (d *Detector) runWarmupIteration(sess *onnxruntime_go.DynamicAdvancedSession, tensor onnx.Tensor) error {
	inputTensor, err := onnxruntime_go.NewTensor(onnxruntime_go.NewShape(tensor.Shape...), tensor.Data)
	if err != nil {
		return err
	}
	defer func() {
		if err := inputTensor.Destroy(); err != nil {
			slog.Warn("Failed to destroy warmup input tensor", "error", err)
		}
	}()

	outputs := []onnxruntime_go.Value{nil}
	if err := sess.Run([]onnxruntime_go.Value{inputTensor}, outputs); err != nil {
		return err
	}
	for _, o := range outputs {
		if o != nil {
			if err := o.Destroy(); err != nil {
				slog.Warn("Failed to destroy warmup output tensor", "error", err)
			}
		}
	}
	return nil
}

// Warmup runs forward passes with a blank image to reduce first-run latency.
func (d *Detector) Warmup(iterations int) error {
	if iterations <= 0 {
		return nil
	}

	d.mu.RLock()
	sess := d.session
	d.mu.RUnlock()

	if sess == nil {
		return errors.New("detector session is nil")
	}

	size := d.config.InputSize
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	tensor, err := d.preprocessImage(img)
	if err != nil {
		return err
	}
	defer mempool.PutFloat32(tensor.Data)

	for range iterations {
		if err := d.runWarmupIteration(sess, tensor); err != nil {
			return err
		}
	}
	return nil
}

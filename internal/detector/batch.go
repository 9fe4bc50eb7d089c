package detector

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/yalue/onnxruntime_go"

	"github.com/roadwatch-ai/signscan/internal/decode"
	"github.com/roadwatch-ai/signscan/internal/mempool"
	"github.com/roadwatch-ai/signscan/internal/onnx"
)

// BatchResult holds results from batch inference.
type BatchResult struct {
	Results       []*Result
	TotalTime     time.Duration
	ThroughputIPS float64
}

// preprocessBatch preprocesses images into per-image NCHW buffers. The fixed
// square input guarantees uniform dimensions across the batch.
func (d *Detector) preprocessBatch(images []image.Image) ([][]float32, []*Result, error) {
	tensors := make([][]float32, 0, len(images))
	results := make([]*Result, 0, len(images))

	for i, img := range images {
		if img == nil {
			return nil, nil, fmt.Errorf("image at index %d is nil", i)
		}
		bounds := img.Bounds()

		tensor, err := d.preprocessImage(img)
		if err != nil {
			return nil, nil, fmt.Errorf("preprocessing failed for image %d: %w", i, err)
		}
		tensors = append(tensors, tensor.Data)
		results = append(results, &Result{
			OriginalWidth:  bounds.Dx(),
			OriginalHeight: bounds.Dy(),
		})
	}
	return tensors, results, nil
}

// runBatchInferenceCore executes batch inference and copies out the stacked
// head output.
func (d *Detector) runBatchInferenceCore(batchTensor onnx.Tensor) ([]float32, []int64, error) {
	d.mu.RLock()
	session := d.session
	d.mu.RUnlock()

	if session == nil {
		return nil, nil, errors.New("detector session is nil")
	}

	inputTensor, err := onnxruntime_go.NewTensor(onnxruntime_go.NewShape(batchTensor.Shape...), batchTensor.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create batch input tensor: %w", err)
	}
	defer func() {
		if err := inputTensor.Destroy(); err != nil {
			slog.Warn("Failed to destroy batch input tensor", "error", err)
		}
	}()

	outputs := []onnxruntime_go.Value{nil}
	if err := session.Run([]onnxruntime_go.Value{inputTensor}, outputs); err != nil {
		return nil, nil, fmt.Errorf("batch inference failed: %w", err)
	}
	outputTensor := outputs[0]
	defer func() {
		if err := outputTensor.Destroy(); err != nil {
			slog.Warn("Failed to destroy batch output tensor", "error", err)
		}
	}()

	floatTensor, ok := outputTensor.(*onnxruntime_go.Tensor[float32])
	if !ok {
		return nil, nil, fmt.Errorf("expected float32 tensor, got %T", outputTensor)
	}

	raw := floatTensor.GetData()
	data := make([]float32, len(raw))
	copy(data, raw)
	shape := outputTensor.GetShape()
	shapeCopy := make([]int64, len(shape))
	copy(shapeCopy, shape)
	return data, shapeCopy, nil
}

// splitBatchOutput slices a stacked [N, ...] output into per-image
// predictions, reusing the single-image layout interpretation.
func splitBatchOutput(data []float32, shape []int64, count, numAnchors, numClasses int) ([]*decode.RawPrediction, error) {
	if len(shape) != 4 {
		return nil, fmt.Errorf("expected 4D batch output, got %dD", len(shape))
	}
	if int(shape[0]) != count {
		return nil, fmt.Errorf("batch output carries %d images, expected %d", shape[0], count)
	}
	per := len(data) / count
	if per*count != len(data) {
		return nil, fmt.Errorf("batch output length %d not divisible by %d images", len(data), count)
	}

	singleShape := []int64{1, shape[1], shape[2], shape[3]}
	predictions := make([]*decode.RawPrediction, count)
	for i := range count {
		p, err := interpretOutput(data[i*per:(i+1)*per], singleShape, numAnchors, numClasses)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		predictions[i] = p
	}
	return predictions, nil
}

// RunInferenceBatch performs detection inference on multiple images in a
// single forward pass.
func (d *Detector) RunInferenceBatch(images []image.Image) (*BatchResult, error) {
	if len(images) == 0 {
		return nil, errors.New("empty image batch")
	}

	start := time.Now()

	tensors, results, err := d.preprocessBatch(images)
	defer func() {
		for _, t := range tensors {
			mempool.PutFloat32(t)
		}
	}()
	if err != nil {
		return nil, err
	}

	size := d.config.InputSize
	batchTensor, err := onnx.NewBatchImageTensor(tensors, 3, size, size)
	if err != nil {
		return nil, fmt.Errorf("failed to build batch tensor: %w", err)
	}

	data, shape, err := d.runBatchInferenceCore(batchTensor)
	if err != nil {
		return nil, err
	}

	predictions, err := splitBatchOutput(data, shape, len(images), d.config.NumAnchors, d.config.NumClasses)
	if err != nil {
		return nil, fmt.Errorf("unexpected model output: %w", err)
	}

	total := time.Since(start)
	perImage := total / time.Duration(len(images))
	for i, p := range predictions {
		results[i].Prediction = p
		results[i].ProcessingTime = perImage
	}

	return &BatchResult{
		Results:       results,
		TotalTime:     total,
		ThroughputIPS: float64(len(images)) / total.Seconds(),
	}, nil
}

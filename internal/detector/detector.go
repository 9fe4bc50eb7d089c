// Package detector runs the ONNX detection model over images and hands the
// raw head output to the decoding stage as a grid prediction tensor.
package detector

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/yalue/onnxruntime_go"

	"github.com/roadwatch-ai/signscan/internal/decode"
	"github.com/roadwatch-ai/signscan/internal/mempool"
	"github.com/roadwatch-ai/signscan/internal/models"
	"github.com/roadwatch-ai/signscan/internal/onnx"
	"github.com/roadwatch-ai/signscan/internal/utils"
)

// Result holds the output of one inference call: the raw grid prediction and
// the dimensions of the image before network resizing.
type Result struct {
	Prediction     *decode.RawPrediction
	OriginalWidth  int
	OriginalHeight int
	ProcessingTime time.Duration
}

// Detector runs detection inference using ONNX Runtime. It is safe for
// concurrent use; the session is shared read-only after construction.
type Detector struct {
	config     Config
	session    *onnxruntime_go.DynamicAdvancedSession
	inputInfo  onnxruntime_go.InputOutputInfo
	outputInfo onnxruntime_go.InputOutputInfo
	mu         sync.RWMutex
}

// New creates a detector with the given configuration, loading the model and
// warming up the session when configured.
func New(config Config) (*Detector, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	if err := models.ValidateModelPath(config.ModelPath); err != nil {
		return nil, err
	}

	slog.Debug("Initializing detector",
		"model_path", config.ModelPath,
		"input_size", config.InputSize,
		"num_anchors", config.NumAnchors,
		"num_classes", config.NumClasses,
		"gpu_enabled", config.GPU.UseGPU)

	if err := onnx.Initialize(config.GPU.UseGPU); err != nil {
		return nil, err
	}

	inputInfo, outputInfo, err := validateModelInfo(config.ModelPath)
	if err != nil {
		return nil, err
	}

	session, err := createSession(config.ModelPath, inputInfo, outputInfo, config)
	if err != nil {
		return nil, err
	}

	d := &Detector{
		config:     config,
		session:    session,
		inputInfo:  inputInfo,
		outputInfo: outputInfo,
	}

	if config.WarmupIterations > 0 {
		if err := d.Warmup(config.WarmupIterations); err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("warmup failed: %w", err)
		}
	}

	slog.Debug("Detector initialized successfully")
	return d, nil
}

// Close releases the inference session. The ONNX environment itself is shut
// down separately at process exit.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session != nil {
		if err := d.session.Destroy(); err != nil {
			slog.Warn("Failed to destroy detector session", "error", err)
		}
		d.session = nil
	}
	return nil
}

// GetConfig returns a copy of the detector's configuration.
func (d *Detector) GetConfig() Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}

// headChannels returns the per-cell channel count of the detection head.
func (d *Detector) headChannels() int {
	return d.config.NumAnchors * (5 + d.config.NumClasses)
}

// preprocessImage resizes to the fixed square network input and produces an
// NCHW tensor. The aspect-ratio distortion of the square resize does not leak
// into results because decoded boxes are rescaled by the original dimensions.
func (d *Detector) preprocessImage(img image.Image) (onnx.Tensor, error) {
	resized, err := utils.ResizeSquare(img, d.config.InputSize)
	if err != nil {
		return onnx.Tensor{}, fmt.Errorf("failed to resize image: %w", err)
	}

	tensorData, width, height, err := utils.NormalizeImagePooled(resized)
	if err != nil {
		return onnx.Tensor{}, fmt.Errorf("failed to normalize image: %w", err)
	}

	tensor, err := onnx.NewImageTensor(tensorData, 3, height, width)
	if err != nil {
		mempool.PutFloat32(tensorData)
		return onnx.Tensor{}, fmt.Errorf("failed to create tensor: %w", err)
	}
	return tensor, nil
}

// interpretOutput views the model output as a grid prediction. Both
// channels-first [1, A*(5+C), H, W] and channels-last [1, H, W, A*(5+C)]
// head layouts are accepted; channels-first is transposed so decoding sees
// contiguous per-cell vectors.
func interpretOutput(data []float32, shape []int64, numAnchors, numClasses int) (*decode.RawPrediction, error) {
	channels := int64(numAnchors * (5 + numClasses))
	if len(shape) != 4 {
		return nil, fmt.Errorf("expected 4D output tensor, got %dD", len(shape))
	}
	if shape[0] != 1 {
		return nil, fmt.Errorf("expected batch size 1, got %d", shape[0])
	}

	switch {
	case shape[1] == channels:
		gridH, gridW := int(shape[2]), int(shape[3])
		hwc, err := onnx.TransposeCHWToHWC(data, int(channels), gridH, gridW)
		if err != nil {
			return nil, err
		}
		return decode.NewRawPrediction(hwc, gridH, gridW, numAnchors, numClasses)
	case shape[3] == channels:
		gridH, gridW := int(shape[1]), int(shape[2])
		return decode.NewRawPrediction(data, gridH, gridW, numAnchors, numClasses)
	default:
		return nil, fmt.Errorf("output shape %v carries no %d-channel axis", shape, channels)
	}
}

// runInferenceInternal executes the session and copies out the head output.
func (d *Detector) runInferenceInternal(tensor onnx.Tensor) ([]float32, []int64, error) {
	if err := onnx.VerifyImageTensor(tensor); err != nil {
		return nil, nil, fmt.Errorf("invalid tensor: %w", err)
	}

	d.mu.RLock()
	session := d.session
	d.mu.RUnlock()

	if session == nil {
		return nil, nil, errors.New("detector session is nil")
	}

	inputTensor, err := onnxruntime_go.NewTensor(onnxruntime_go.NewShape(tensor.Shape...), tensor.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer func() {
		if err := inputTensor.Destroy(); err != nil {
			slog.Warn("Failed to destroy input tensor", "error", err)
		}
	}()

	outputs := []onnxruntime_go.Value{nil}
	if err := session.Run([]onnxruntime_go.Value{inputTensor}, outputs); err != nil {
		return nil, nil, fmt.Errorf("inference failed: %w", err)
	}
	outputTensor := outputs[0]
	defer func() {
		if err := outputTensor.Destroy(); err != nil {
			slog.Warn("Failed to destroy output tensor", "error", err)
		}
	}()

	floatTensor, ok := outputTensor.(*onnxruntime_go.Tensor[float32])
	if !ok {
		return nil, nil, fmt.Errorf("expected float32 tensor, got %T", outputTensor)
	}

	// Copy before the tensor is destroyed.
	raw := floatTensor.GetData()
	data := make([]float32, len(raw))
	copy(data, raw)
	shape := outputTensor.GetShape()
	shapeCopy := make([]int64, len(shape))
	copy(shapeCopy, shape)

	return data, shapeCopy, nil
}

// RunInference performs detection inference on a single image.
func (d *Detector) RunInference(img image.Image) (*Result, error) {
	if img == nil {
		return nil, errors.New("input image is nil")
	}

	start := time.Now()

	bounds := img.Bounds()
	originalWidth := bounds.Dx()
	originalHeight := bounds.Dy()

	tensor, err := d.preprocessImage(img)
	if err != nil {
		return nil, fmt.Errorf("preprocessing failed: %w", err)
	}
	defer mempool.PutFloat32(tensor.Data)

	data, shape, err := d.runInferenceInternal(tensor)
	if err != nil {
		return nil, err
	}

	prediction, err := interpretOutput(data, shape, d.config.NumAnchors, d.config.NumClasses)
	if err != nil {
		return nil, fmt.Errorf("unexpected model output: %w", err)
	}

	return &Result{
		Prediction:     prediction,
		OriginalWidth:  originalWidth,
		OriginalHeight: originalHeight,
		ProcessingTime: time.Since(start),
	}, nil
}

// GetModelInfo returns information about the loaded detection model.
func (d *Detector) GetModelInfo() map[string]interface{} {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return map[string]interface{}{
		"model_path":    d.config.ModelPath,
		"input_name":    d.inputInfo.Name,
		"output_name":   d.outputInfo.Name,
		"input_shape":   d.inputInfo.Dimensions,
		"output_shape":  d.outputInfo.Dimensions,
		"input_size":    d.config.InputSize,
		"num_anchors":   d.config.NumAnchors,
		"num_classes":   d.config.NumClasses,
		"num_threads":   d.config.NumThreads,
		"compact_model": d.config.UseCompactModel,
		"gpu": map[string]interface{}{
			"enabled":            d.config.GPU.UseGPU,
			"device_id":          d.config.GPU.DeviceID,
			"memory_limit_bytes": d.config.GPU.GPUMemLimit,
		},
	}
}

package detector

import (
	"errors"
	"fmt"

	"github.com/roadwatch-ai/signscan/internal/models"
	"github.com/roadwatch-ai/signscan/internal/onnx"
)

// Config holds configuration for the sign detector.
type Config struct {
	ModelPath        string         // Path to ONNX detection model
	InputSize        int            // Square network input edge in pixels (default: 608)
	NumAnchors       int            // Anchor priors per grid cell
	NumClasses       int            // Class logits per anchor
	NumThreads       int            // CPU threads for inference (0 = auto)
	WarmupIterations int            // Forward passes run at startup (0 = none)
	UseCompactModel  bool           // Select the tiny model variant
	GPU              onnx.GPUConfig // GPU acceleration configuration
}

// DefaultConfig returns a detector configuration matching the trained model.
func DefaultConfig() Config {
	return Config{
		ModelPath:  models.GetDetectionModelPath("", false),
		InputSize:  608,
		NumAnchors: 5,
		NumClasses: 0, // taken from the class-names file at load time
		NumThreads: 0,
		GPU:        onnx.DefaultGPUConfig(),
	}
}

// UpdateModelPath updates ModelPath based on modelsDir and the compact flag.
func (c *Config) UpdateModelPath(modelsDir string) {
	c.ModelPath = models.GetDetectionModelPath(modelsDir, c.UseCompactModel)
}

// validateConfig validates the detector configuration.
func validateConfig(config Config) error {
	if config.ModelPath == "" {
		return errors.New("model path cannot be empty")
	}
	if config.InputSize <= 0 {
		return fmt.Errorf("input size must be positive, got %d", config.InputSize)
	}
	if config.NumAnchors <= 0 {
		return fmt.Errorf("anchor count must be positive, got %d", config.NumAnchors)
	}
	if config.NumClasses <= 0 {
		return fmt.Errorf("class count must be positive, got %d", config.NumClasses)
	}
	return onnx.ValidateGPUConfig(config.GPU)
}

package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roadwatch-ai/signscan/internal/decode"
	"github.com/roadwatch-ai/signscan/internal/detector"
	"github.com/roadwatch-ai/signscan/internal/models"
	"github.com/roadwatch-ai/signscan/internal/pipeline"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	det := detector.DefaultConfig()
	dec := decode.DefaultConfig()
	par := pipeline.DefaultParallelConfig()

	return Config{
		ModelsDir: models.DefaultModelsDir,
		LogLevel:  "info",
		Verbose:   false,
		Pipeline: PipelineConfig{
			Detector: DetectorConfig{
				InputSize:  det.InputSize,
				NumThreads: det.NumThreads,
			},
			Decode: DecodeConfig{
				ScoreMode:      "flat",
				ScoreThreshold: dec.ScoreThreshold,
				IoUThreshold:   dec.IoUThreshold,
				MaxDetections:  dec.MaxDetections,
			},
			Parallel: ParallelConfig{
				MaxWorkers: par.MaxWorkers,
			},
			WarmupIterations: 0,
		},
		Output: OutputConfig{
			Format: "text",
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     50,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
			OverlayEnabled:  true,
		},
		Batch: BatchConfig{
			Workers:         4,
			ContinueOnError: false,
		},
		GPU: GPUConfig{
			Enabled:     false,
			Device:      0,
			MemoryLimit: "auto",
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{"text", "json", "csv"}
	if c.Output.Format != "" && !contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}

	if c.Pipeline.Decode.ScoreMode != "" {
		if _, err := decode.ParseMode(c.Pipeline.Decode.ScoreMode); err != nil {
			return fmt.Errorf("invalid score mode: %w", err)
		}
	}

	if err := validateThreshold(c.Pipeline.Decode.ScoreThreshold, "decode.score_threshold"); err != nil {
		return err
	}
	if err := validateThreshold(c.Pipeline.Decode.IoUThreshold, "decode.iou_threshold"); err != nil {
		return err
	}

	if c.Pipeline.Detector.InputSize <= 0 {
		return fmt.Errorf("invalid input size: %d (must be positive)", c.Pipeline.Detector.InputSize)
	}
	if c.Pipeline.Decode.MaxDetections <= 0 {
		return fmt.Errorf("invalid max detections: %d (must be positive)", c.Pipeline.Decode.MaxDetections)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if c.Pipeline.Parallel.MaxWorkers <= 0 {
		return fmt.Errorf("invalid parallel max workers: %d (must be positive)", c.Pipeline.Parallel.MaxWorkers)
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid batch workers: %d (must be positive)", c.Batch.Workers)
	}

	if c.GPU.MemoryLimit != "auto" && c.GPU.MemoryLimit != "" {
		if err := validateMemoryLimit(c.GPU.MemoryLimit); err != nil {
			return fmt.Errorf("invalid GPU memory limit: %w", err)
		}
	}

	return nil
}

// NewPipelineBuilder creates a pipeline builder seeded from this configuration.
// Command-line flags can further override individual settings on the builder.
func (c *Config) NewPipelineBuilder() *pipeline.Builder {
	b := pipeline.NewBuilder().
		WithModelsDir(c.ModelsDir).
		WithCompactModel(c.Pipeline.Detector.CompactModel).
		WithScoreThreshold(c.Pipeline.Decode.ScoreThreshold).
		WithIoUThreshold(c.Pipeline.Decode.IoUThreshold).
		WithMaxDetections(c.Pipeline.Decode.MaxDetections).
		WithPerClassNMS(c.Pipeline.Decode.PerClassNMS).
		WithWarmupIterations(c.Pipeline.WarmupIterations).
		WithParallelWorkers(c.Pipeline.Parallel.MaxWorkers)

	if c.Pipeline.Detector.ModelPath != "" {
		b = b.WithModelPath(c.Pipeline.Detector.ModelPath)
	}
	if c.Pipeline.Detector.InputSize > 0 {
		b = b.WithInputSize(c.Pipeline.Detector.InputSize)
	}
	if c.Pipeline.Detector.NumThreads > 0 {
		b = b.WithThreads(c.Pipeline.Detector.NumThreads)
	}
	if c.Pipeline.Decode.ClassNamesPath != "" {
		b = b.WithClassNamesPath(c.Pipeline.Decode.ClassNamesPath)
	}
	if c.Pipeline.Decode.TaxonomyPath != "" {
		b = b.WithTaxonomyPath(c.Pipeline.Decode.TaxonomyPath)
	}
	if c.Pipeline.Decode.AnchorsPath != "" {
		b = b.WithAnchorsPath(c.Pipeline.Decode.AnchorsPath)
	}
	if c.Pipeline.Decode.ScoreMode != "" {
		b = b.WithScoreMode(c.Pipeline.Decode.ScoreMode)
	}
	if c.GPU.Enabled {
		b = b.WithGPU(true).WithGPUDevice(c.GPU.Device)
		if limit := parseMemoryLimitBytes(c.GPU.MemoryLimit); limit > 0 {
			b = b.WithGPUMemoryLimit(limit)
		}
	}

	return b
}

// contains checks if a slice contains a string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// validateThreshold validates that a value is between 0.0 and 1.0.
func validateThreshold(value float64, name string) error {
	if value < 0.0 || value > 1.0 {
		return fmt.Errorf("invalid %s: %.2f (must be between 0.0 and 1.0)", name, value)
	}
	return nil
}

// validateMemoryLimit validates GPU memory limit format (e.g., "1GB", "512MB").
func validateMemoryLimit(limit string) error {
	if limit == "" || limit == "auto" {
		return nil
	}

	upper := strings.ToUpper(limit)
	validUnits := []string{"KB", "MB", "GB", "TB", "B"}
	for _, unit := range validUnits {
		if strings.HasSuffix(upper, unit) {
			numStr := strings.TrimSuffix(upper, unit)
			if _, err := strconv.ParseFloat(numStr, 64); err != nil {
				return fmt.Errorf("invalid number in memory limit: %s", limit)
			}
			return nil
		}
	}

	return fmt.Errorf("memory limit must end with one of: %s", strings.Join(validUnits, ", "))
}

// parseMemoryLimitBytes converts a memory limit string into bytes, returning
// zero for "auto", empty, or malformed limits.
func parseMemoryLimitBytes(limit string) uint64 {
	if limit == "" || limit == "auto" {
		return 0
	}

	upper := strings.TrimSpace(strings.ToUpper(limit))
	units := []struct {
		suffix string
		factor uint64
	}{
		{"TB", 1 << 40},
		{"GB", 1 << 30},
		{"MB", 1 << 20},
		{"KB", 1 << 10},
		{"B", 1},
	}

	for _, u := range units {
		if strings.HasSuffix(upper, u.suffix) {
			num, err := strconv.ParseFloat(strings.TrimSuffix(upper, u.suffix), 64)
			if err != nil {
				return 0
			}
			return uint64(num * float64(u.factor))
		}
	}

	num, err := strconv.ParseUint(upper, 10, 64)
	if err != nil {
		return 0
	}
	return num
}

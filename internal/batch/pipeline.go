package batch

import (
	"strconv"
	"strings"

	"github.com/roadwatch-ai/signscan/internal/pipeline"
)

// buildPipeline creates a detection pipeline from the batch configuration.
func buildPipeline(config *Config, progressCallback pipeline.ProgressCallback) (*pipeline.Pipeline, error) {
	b := pipeline.NewBuilder().
		WithModelsDir(config.ModelsDir).
		WithCompactModel(config.CompactModel).
		WithParallelWorkers(config.Workers).
		WithProgressCallback(progressCallback)

	b = configurePipelineModels(b, config)
	b = configurePipelineThresholds(b, config)
	b = configurePipelineRuntime(b, config)

	return b.Build()
}

// configurePipelineModels sets up model-related configuration on the pipeline builder.
func configurePipelineModels(b *pipeline.Builder, config *Config) *pipeline.Builder {
	if config.ModelPath != "" {
		b = b.WithModelPath(config.ModelPath)
	}
	if config.InputSize > 0 {
		b = b.WithInputSize(config.InputSize)
	}
	if config.ClassNamesPath != "" {
		b = b.WithClassNamesPath(config.ClassNamesPath)
	}
	if config.TaxonomyPath != "" {
		b = b.WithTaxonomyPath(config.TaxonomyPath)
	}
	if config.AnchorsPath != "" {
		b = b.WithAnchorsPath(config.AnchorsPath)
	}
	if config.ScoreMode != "" {
		b = b.WithScoreMode(config.ScoreMode)
	}
	return b
}

// configurePipelineThresholds sets up threshold-related configuration on the pipeline builder.
func configurePipelineThresholds(b *pipeline.Builder, config *Config) *pipeline.Builder {
	if config.Confidence > 0 {
		b = b.WithScoreThreshold(config.Confidence)
	}
	if config.IoUThreshold > 0 {
		b = b.WithIoUThreshold(config.IoUThreshold)
	}
	if config.MaxDetections > 0 {
		b = b.WithMaxDetections(config.MaxDetections)
	}
	b = b.WithPerClassNMS(config.PerClassNMS)
	return b
}

// configurePipelineRuntime sets up execution-related configuration on the pipeline builder.
func configurePipelineRuntime(b *pipeline.Builder, config *Config) *pipeline.Builder {
	if config.Threads > 0 {
		b = b.WithThreads(config.Threads)
	}
	if !config.WarmupOnStart {
		b = b.WithWarmupIterations(0)
	}
	if config.GPU {
		b = b.WithGPU(true).WithGPUDevice(config.GPUDevice)
		if limit := parseMemoryLimitOrDefault(config.GPUMemoryStr); limit > 0 {
			b = b.WithGPUMemoryLimit(limit)
		}
	}
	return b
}

// parseMemoryLimitOrDefault parses memory limit or returns 0 if empty.
func parseMemoryLimitOrDefault(limitStr string) uint64 {
	if limitStr == "" {
		return 0
	}
	limit, err := parseMemoryLimit(limitStr)
	if err != nil {
		return 0
	}
	return limit
}

// parseMemoryLimit parses a memory limit string (e.g., "1GB", "512MB") into bytes.
func parseMemoryLimit(limit string) (uint64, error) {
	limit = strings.TrimSpace(strings.ToUpper(limit))

	multipliers := []struct {
		suffix string
		factor uint64
	}{
		{"TB", 1024 * 1024 * 1024 * 1024},
		{"GB", 1024 * 1024 * 1024},
		{"MB", 1024 * 1024},
		{"KB", 1024},
		{"B", 1},
	}

	for _, m := range multipliers {
		if strings.HasSuffix(limit, m.suffix) {
			numStr := strings.TrimSuffix(limit, m.suffix)
			num, err := strconv.ParseFloat(numStr, 64)
			if err != nil {
				return 0, err
			}
			return uint64(num * float64(m.factor)), nil
		}
	}

	num, err := strconv.ParseUint(limit, 10, 64)
	return num, err
}

package batch

import (
	"fmt"
	"os"
	"time"

	"github.com/roadwatch-ai/signscan/internal/common"
	"github.com/roadwatch-ai/signscan/internal/pipeline"
)

// Config holds all configuration for batch processing.
type Config struct {
	// Core detection settings
	ModelsDir      string
	ModelPath      string
	CompactModel   bool
	InputSize      int
	ClassNamesPath string
	TaxonomyPath   string
	AnchorsPath    string
	ScoreMode      string

	// Threshold settings
	Confidence    float64
	IoUThreshold  float64
	MaxDetections int
	PerClassNMS   bool

	// Output settings
	OverlayDir string
	Format     string
	OutputFile string

	// Runtime settings
	Workers        int
	Threads        int
	GPU            bool
	GPUDevice      int
	GPUMemoryStr   string
	WarmupOnStart  bool
	ContinueOnFail bool

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Progress settings
	ShowProgress     bool
	Quiet            bool
	ShowStats        bool
	ProgressInterval time.Duration
}

// Result holds the result of batch processing.
type Result struct {
	Results     []*pipeline.ImageResult
	ImagePaths  []string
	Failed      int
	Duration    time.Duration
	WorkerCount int
}

// FormatResults formats the batch processing results in the specified format.
func (r *Result) FormatResults(format string) (string, error) {
	return formatBatchResults(r.Results, r.ImagePaths, format)
}

// SaveResults saves the formatted results to a file or stdout.
func (r *Result) SaveResults(format, outputFile string, quiet bool) error {
	output, err := r.FormatResults(format)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !quiet {
			_, _ = fmt.Fprintf(os.Stdout, "Results written to %s\n", outputFile)
		}
	} else {
		_, _ = fmt.Fprint(os.Stdout, output)
	}

	return nil
}

// PrintStats prints processing statistics.
func (r *Result) PrintStats(quiet bool) {
	if quiet {
		return
	}
	stats := pipeline.CalculateParallelStats(nil, r.Results, r.Duration, r.WorkerCount)
	total := 0
	for _, res := range r.Results {
		if res != nil {
			total += len(res.Detections)
		}
	}
	_, _ = fmt.Fprintf(os.Stdout, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(os.Stdout, "  Total images: %d\n", len(r.ImagePaths))
	_, _ = fmt.Fprintf(os.Stdout, "  Processed: %d\n", stats.ProcessedImages)
	_, _ = fmt.Fprintf(os.Stdout, "  Failed: %d\n", r.Failed)
	_, _ = fmt.Fprintf(os.Stdout, "  Detections: %d\n", total)
	_, _ = fmt.Fprintf(os.Stdout, "  Workers: %d\n", stats.WorkerCount)
	_, _ = fmt.Fprintf(os.Stdout, "  Duration: %v\n", stats.TotalDuration.Round(time.Millisecond))
	_, _ = fmt.Fprintf(os.Stdout, "  Avg per image: %v\n", stats.AveragePerImage.Round(time.Millisecond))
	_, _ = fmt.Fprintf(os.Stdout, "  Throughput: %.1f images/sec\n", stats.ThroughputPerSec)
	_, _ = fmt.Fprintf(os.Stdout, "  Memory: %s\n", common.GetMemoryStats())
}

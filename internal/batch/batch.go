// Package batch runs the detection pipeline over collections of image files.
package batch

import (
	"errors"
	"fmt"
	"os"

	"github.com/roadwatch-ai/signscan/internal/common"
	"github.com/roadwatch-ai/signscan/internal/pipeline"
)

// ProcessBatch processes a batch of images with the given configuration.
func ProcessBatch(imagePaths []string, config *Config) (*Result, error) {
	files, err := discoverImageFiles(imagePaths, config.Recursive, config.IncludePatterns, config.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover image files: %w", err)
	}

	if len(files) == 0 {
		return nil, errors.New("no image files found")
	}

	var progressCallback pipeline.ProgressCallback
	if config.ShowProgress && !config.Quiet {
		progressCallback = pipeline.NewConsoleProgressCallback(os.Stdout, "Processing: ")
	}

	pl, err := buildPipeline(config, progressCallback)
	if err != nil {
		return nil, fmt.Errorf("failed to build detection pipeline: %w", err)
	}
	defer func() {
		if err := pl.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing pipeline: %v\n", err)
		}
	}()

	timer := common.NewNamedTimer("batch")
	results, failed, err := processImages(pl, files, config)
	duration := timer.Stop()

	if err != nil {
		return nil, fmt.Errorf("batch processing failed: %w", err)
	}

	return &Result{
		Results:     results,
		ImagePaths:  files,
		Failed:      failed,
		Duration:    duration,
		WorkerCount: config.Workers,
	}, nil
}

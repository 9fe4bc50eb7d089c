package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"
	"sync"
	"time"
)

// ParallelConfig holds configuration for parallel multi-image processing.
type ParallelConfig struct {
	MaxWorkers       int                           // Parallel workers (0 = runtime.NumCPU())
	ProgressCallback ProgressCallback              // Optional progress reporting
	ErrorHandler     func(int, image.Image, error) // Optional per-image error handler
}

// DefaultParallelConfig returns sensible defaults for parallel processing.
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{
		MaxWorkers: runtime.NumCPU(),
	}
}

// imageJob is a single image processing job.
type imageJob struct {
	index int
	image image.Image
}

// imageJobResult is the outcome of processing one job.
type imageJobResult struct {
	index  int
	result *ImageResult
	err    error
}

// ProcessImagesParallel processes multiple images using a worker pool.
// Results come back in input order.
func (p *Pipeline) ProcessImagesParallel(images []image.Image, config ParallelConfig) ([]*ImageResult, error) {
	return p.ProcessImagesParallelContext(context.Background(), images, config)
}

// ProcessImagesParallelContext processes images in parallel with context
// cancellation support. Per-image failures leave a nil slot in the result
// slice; the first failure is returned alongside the partial results.
func (p *Pipeline) ProcessImagesParallelContext(ctx context.Context, images []image.Image,
	config ParallelConfig,
) ([]*ImageResult, error) {
	if len(images) == 0 {
		return nil, errors.New("no images provided")
	}
	if p == nil || p.Detector == nil {
		return nil, errors.New("pipeline not initialized")
	}

	if config.MaxWorkers <= 0 {
		config.MaxWorkers = runtime.NumCPU()
	}
	if len(images) == 1 || config.MaxWorkers == 1 {
		return p.ProcessImagesContext(ctx, images)
	}

	if config.ProgressCallback != nil {
		config.ProgressCallback.OnStart(len(images))
		defer config.ProgressCallback.OnComplete()
	}

	jobs := make(chan imageJob, len(images))
	results := make(chan imageJobResult, len(images))

	var wg sync.WaitGroup
	for range config.MaxWorkers {
		wg.Add(1)
		go p.worker(ctx, jobs, results, &wg)
	}

	go func() {
		defer close(jobs)
		for i, img := range images {
			select {
			case jobs <- imageJob{index: i, image: img}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]*ImageResult, len(images))
	errs := make([]error, len(images))
	processed := 0
	for r := range results {
		ordered[r.index] = r.result
		errs[r.index] = r.err
		processed++
		if config.ProgressCallback != nil {
			config.ProgressCallback.OnProgress(processed, len(images))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var firstError error
	for i, err := range errs {
		if err == nil {
			continue
		}
		if firstError == nil {
			firstError = fmt.Errorf("image %d: %w", i, err)
		}
		if config.ErrorHandler != nil {
			config.ErrorHandler(i, images[i], err)
		}
	}
	return ordered, firstError
}

// worker processes images from the jobs channel.
func (p *Pipeline) worker(ctx context.Context, jobs <-chan imageJob, results chan<- imageJobResult,
	wg *sync.WaitGroup,
) {
	defer wg.Done()

	for {
		select {
		case job, ok := <-jobs:
			if !ok {
				return
			}
			result, err := p.ProcessImageContext(ctx, job.image)
			select {
			case results <- imageJobResult{index: job.index, result: result, err: err}:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// ParallelStats holds statistics about a parallel processing run.
type ParallelStats struct {
	TotalImages      int           `json:"total_images"`
	ProcessedImages  int           `json:"processed_images"`
	FailedImages     int           `json:"failed_images"`
	WorkerCount      int           `json:"worker_count"`
	TotalDuration    time.Duration `json:"total_duration_ns"`
	AveragePerImage  time.Duration `json:"average_per_image_ns"`
	ThroughputPerSec float64       `json:"throughput_per_sec"`
}

// CalculateParallelStats summarizes a parallel run for reporting.
func CalculateParallelStats(images []image.Image, results []*ImageResult,
	duration time.Duration, workerCount int,
) ParallelStats {
	processed := 0
	for _, r := range results {
		if r != nil {
			processed++
		}
	}

	var avgPerImage time.Duration
	var throughput float64
	if processed > 0 {
		avgPerImage = duration / time.Duration(processed)
		throughput = float64(processed) / duration.Seconds()
	}

	return ParallelStats{
		TotalImages:      len(images),
		ProcessedImages:  processed,
		FailedImages:     len(images) - processed,
		WorkerCount:      workerCount,
		TotalDuration:    duration,
		AveragePerImage:  avgPerImage,
		ThroughputPerSec: throughput,
	}
}

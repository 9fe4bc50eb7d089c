package batch

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roadwatch-ai/signscan/internal/pipeline"
	"github.com/roadwatch-ai/signscan/internal/utils"
)

// loadBatchImage loads an image for batch processing.
func loadBatchImage(path string) (image.Image, utils.ImageMetadata, error) {
	if !utils.IsSupportedImage(path) {
		return nil, utils.ImageMetadata{}, fmt.Errorf("unsupported image format: %s", path)
	}

	img, meta, err := utils.LoadImage(path)
	if err != nil {
		return nil, utils.ImageMetadata{}, fmt.Errorf("failed to load %s: %w", path, err)
	}

	return img, meta, nil
}

// applyConfidenceFilter drops detections below the given score threshold.
// A zero threshold leaves the result untouched.
func applyConfidenceFilter(res *pipeline.ImageResult, confidence float64) {
	if res == nil || confidence <= 0 {
		return
	}

	filtered := make([]pipeline.DetectionRecord, 0, len(res.Detections))
	for _, d := range res.Detections {
		if d.Score >= confidence {
			filtered = append(filtered, d)
		}
	}
	res.Detections = filtered
}

// generateAndSaveOverlay draws detection boxes on the image and saves it to disk.
func generateAndSaveOverlay(img image.Image, res *pipeline.ImageResult,
	meta utils.ImageMetadata, overlayDir string,
) {
	ov := pipeline.RenderOverlay(img, res)
	if ov == nil {
		return
	}

	if err := os.MkdirAll(overlayDir, 0o750); err != nil {
		return
	}

	base := filepath.Base(meta.Path)
	outPath := filepath.Join(overlayDir, strings.TrimSuffix(base, filepath.Ext(base))+"_overlay.png")
	if f, err := os.Create(outPath); err == nil { //nolint:gosec
		// G304: outPath constructed from CLI overlay-dir flag, expected user input
		_ = png.Encode(f, ov)
		_ = f.Close()
	}
}

// processSingleImage runs one image through the detection pipeline.
func processSingleImage(pl *pipeline.Pipeline, path string, config *Config) (*pipeline.ImageResult, error) {
	img, meta, err := loadBatchImage(path)
	if err != nil {
		return nil, err
	}

	res, err := pl.ProcessImage(img)
	if err != nil {
		return nil, fmt.Errorf("detection failed for %s: %w", path, err)
	}

	applyConfidenceFilter(res, config.Confidence)

	if config.OverlayDir != "" {
		generateAndSaveOverlay(img, res, meta, config.OverlayDir)
	}

	return res, nil
}

// processImages runs all images through the pipeline. With more than one
// worker the pipeline's worker pool is used, otherwise images are processed
// sequentially. With ContinueOnFail set, failures are logged and leave a nil
// slot; otherwise the first failure aborts.
func processImages(pl *pipeline.Pipeline, imagePaths []string, config *Config) ([]*pipeline.ImageResult, int, error) {
	if config.Workers > 1 && len(imagePaths) > 1 {
		return processImagesParallel(pl, imagePaths, config)
	}

	results := make([]*pipeline.ImageResult, len(imagePaths))
	failed := 0

	for i, path := range imagePaths {
		res, err := processSingleImage(pl, path, config)
		if err != nil {
			if !config.ContinueOnFail {
				return nil, failed + 1, err
			}
			slog.Warn("skipping image", "file", path, "error", err)
			failed++
			continue
		}
		results[i] = res
	}

	return results, failed, nil
}

// processImagesParallel loads all images up front and fans them out over the
// pipeline worker pool. Load and processing failures follow the same
// ContinueOnFail policy as the sequential path.
func processImagesParallel(pl *pipeline.Pipeline, imagePaths []string, config *Config) ([]*pipeline.ImageResult, int, error) {
	results := make([]*pipeline.ImageResult, len(imagePaths))
	failed := 0

	type loadedImage struct {
		index int
		img   image.Image
		meta  utils.ImageMetadata
	}
	var loaded []loadedImage
	for i, path := range imagePaths {
		img, meta, err := loadBatchImage(path)
		if err != nil {
			if !config.ContinueOnFail {
				return nil, failed + 1, err
			}
			slog.Warn("skipping image", "file", path, "error", err)
			failed++
			continue
		}
		loaded = append(loaded, loadedImage{index: i, img: img, meta: meta})
	}
	if len(loaded) == 0 {
		return results, failed, nil
	}

	images := make([]image.Image, len(loaded))
	for i, l := range loaded {
		images[i] = l.img
	}

	pcfg := pl.Config().Parallel
	pcfg.MaxWorkers = config.Workers
	if config.ContinueOnFail {
		pcfg.ErrorHandler = func(i int, _ image.Image, err error) {
			slog.Warn("skipping image", "file", loaded[i].meta.Path, "error", err)
		}
	}

	processed, err := pl.ProcessImagesParallel(images, pcfg)
	if err != nil && !config.ContinueOnFail {
		return nil, failed + 1, err
	}

	for i, l := range loaded {
		var res *pipeline.ImageResult
		if i < len(processed) {
			res = processed[i]
		}
		if res == nil {
			failed++
			continue
		}
		applyConfidenceFilter(res, config.Confidence)
		if config.OverlayDir != "" {
			generateAndSaveOverlay(l.img, res, l.meta, config.OverlayDir)
		}
		results[l.index] = res
	}
	return results, failed, nil
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/roadwatch-ai/signscan/internal/decode"
	"github.com/roadwatch-ai/signscan/internal/utils"
)

// ProcessImage runs detection and decoding on a single image.
func (p *Pipeline) ProcessImage(img image.Image) (*ImageResult, error) {
	return p.ProcessImageContext(context.Background(), img)
}

// ProcessImageContext runs detection and decoding with cancellation support.
// The context is checked between the inference and decode stages; a running
// ONNX call itself is not interruptible.
func (p *Pipeline) ProcessImageContext(ctx context.Context, img image.Image) (*ImageResult, error) {
	if p == nil || p.Detector == nil {
		return nil, errors.New("pipeline not initialized")
	}
	if img == nil {
		return nil, errors.New("input image is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	inferred, err := p.Detector.RunInference(img)
	if err != nil {
		return nil, fmt.Errorf("inference: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	decodeStart := time.Now()
	detections, err := p.Decoder.Decode(inferred.Prediction, inferred.OriginalWidth, inferred.OriginalHeight)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	decodeTime := time.Since(decodeStart)

	result := p.assembleResult(detections, inferred.OriginalWidth, inferred.OriginalHeight)
	result.Processing.InferenceNs = inferred.ProcessingTime.Nanoseconds()
	result.Processing.DecodeNs = decodeTime.Nanoseconds()
	result.Processing.TotalNs = time.Since(start).Nanoseconds()
	return result, nil
}

// ProcessImageFile loads an image from disk and processes it.
func (p *Pipeline) ProcessImageFile(path string) (*ImageResult, error) {
	return p.ProcessImageFileContext(context.Background(), path)
}

// ProcessImageFileContext loads and processes an image with cancellation
// support.
func (p *Pipeline) ProcessImageFileContext(ctx context.Context, path string) (*ImageResult, error) {
	img, _, err := utils.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return p.ProcessImageContext(ctx, img)
}

// ProcessImages processes images sequentially, preserving input order.
func (p *Pipeline) ProcessImages(images []image.Image) ([]*ImageResult, error) {
	return p.ProcessImagesContext(context.Background(), images)
}

// ProcessImagesContext processes images sequentially with cancellation
// support.
func (p *Pipeline) ProcessImagesContext(ctx context.Context, images []image.Image) ([]*ImageResult, error) {
	if len(images) == 0 {
		return nil, errors.New("no images provided")
	}
	results := make([]*ImageResult, len(images))
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := p.ProcessImageContext(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		results[i] = res
	}
	return results, nil
}

// assembleResult converts decoded detections into the labelled result record,
// clamping pixel boxes to the image bounds.
func (p *Pipeline) assembleResult(detections []decode.Detection, width, height int) *ImageResult {
	result := &ImageResult{
		Width:      width,
		Height:     height,
		Detections: make([]DetectionRecord, len(detections)),
	}
	for i, det := range detections {
		rec := DetectionRecord{
			ClassID: det.ClassID,
			Label:   p.Label(det.ClassID),
			Score:   det.Score,
		}
		rec.Box.X1 = clampPixel(det.Box.MinX, width)
		rec.Box.Y1 = clampPixel(det.Box.MinY, height)
		rec.Box.X2 = clampPixel(det.Box.MaxX, width)
		rec.Box.Y2 = clampPixel(det.Box.MaxY, height)
		result.Detections[i] = rec
	}
	return result
}

func clampPixel(v float64, limit int) int {
	i := int(math.Round(v))
	if i < 0 {
		return 0
	}
	if i > limit {
		return limit
	}
	return i
}

package batch

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/roadwatch-ai/signscan/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyConfidenceFilter(t *testing.T) {
	res := mockImageResult(
		mockDetection("stop", 0.95, 0, 0, 10, 10),
		mockDetection("yield", 0.40, 0, 0, 10, 10),
		mockDetection("merge", 0.70, 0, 0, 10, 10),
	)

	applyConfidenceFilter(res, 0.6)

	require.Len(t, res.Detections, 2)
	assert.Equal(t, "stop", res.Detections[0].Label)
	assert.Equal(t, "merge", res.Detections[1].Label)
}

func TestApplyConfidenceFilter_ThresholdBoundary(t *testing.T) {
	res := mockImageResult(mockDetection("stop", 0.6, 0, 0, 10, 10))

	applyConfidenceFilter(res, 0.6)

	assert.Len(t, res.Detections, 1)
}

func TestApplyConfidenceFilter_ZeroThresholdNoop(t *testing.T) {
	res := mockImageResult(mockDetection("stop", 0.01, 0, 0, 10, 10))

	applyConfidenceFilter(res, 0)

	assert.Len(t, res.Detections, 1)
}

func TestApplyConfidenceFilter_NilResult(t *testing.T) {
	assert.NotPanics(t, func() {
		applyConfidenceFilter(nil, 0.5)
	})
}

func TestApplyConfidenceFilter_AllFiltered(t *testing.T) {
	res := mockImageResult(mockDetection("stop", 0.2, 0, 0, 10, 10))

	applyConfidenceFilter(res, 0.9)

	assert.Empty(t, res.Detections)
}

func TestLoadBatchImage_Unsupported(t *testing.T) {
	_, _, err := loadBatchImage("/tmp/data.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported image format")
}

func TestGenerateAndSaveOverlay_NilImage(t *testing.T) {
	dir := t.TempDir()
	assert.NotPanics(t, func() {
		generateAndSaveOverlay(nil, nil, utils.ImageMetadata{Path: "x.png"}, dir)
	})

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerateAndSaveOverlay_WritesFile(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	res := mockImageResult(mockDetection("stop", 0.9, 4, 4, 20, 20))

	generateAndSaveOverlay(img, res, utils.ImageMetadata{Path: "/somewhere/photo.png"}, dir)

	_, err := os.Stat(filepath.Join(dir, "photo_overlay.png"))
	require.NoError(t, err)
}

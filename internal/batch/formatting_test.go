package batch

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/roadwatch-ai/signscan/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockDetection(label string, score float64, x1, y1, x2, y2 int) pipeline.DetectionRecord {
	var d pipeline.DetectionRecord
	d.Label = label
	d.Score = score
	d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2 = x1, y1, x2, y2
	return d
}

func mockImageResult(dets ...pipeline.DetectionRecord) *pipeline.ImageResult {
	return &pipeline.ImageResult{Width: 640, Height: 480, Detections: dets}
}

func TestFormatBatchResults_Text(t *testing.T) {
	results := []*pipeline.ImageResult{
		mockImageResult(mockDetection("stop", 0.95, 100, 200, 150, 260)),
		mockImageResult(mockDetection("yield", 0.88, 10, 20, 40, 55)),
	}
	imagePaths := []string{"/path/image1.png", "/path/image2.png"}

	output, err := formatBatchResults(results, imagePaths, "text")
	require.NoError(t, err)

	assert.Contains(t, output, "# /path/image1.png")
	assert.Contains(t, output, "# /path/image2.png")
	assert.Contains(t, output, "stop 0.9500 (100,200)-(150,260)")
	assert.Contains(t, output, "yield 0.8800 (10,20)-(40,55)")
}

func TestFormatBatchResults_TextEmptyAndFailed(t *testing.T) {
	results := []*pipeline.ImageResult{
		mockImageResult(),
		nil,
	}
	imagePaths := []string{"/path/empty.png", "/path/broken.png"}

	output, err := formatBatchResults(results, imagePaths, "text")
	require.NoError(t, err)

	assert.Contains(t, output, "no detections")
	assert.Contains(t, output, "(failed)")
}

func TestFormatBatchResults_JSON(t *testing.T) {
	results := []*pipeline.ImageResult{
		mockImageResult(mockDetection("stop", 0.9, 1, 2, 3, 4)),
	}
	imagePaths := []string{"/path/test.png"}

	output, err := formatBatchResults(results, imagePaths, "json")
	require.NoError(t, err)

	assert.Contains(t, output, `"file": "/path/test.png"`)
	assert.Contains(t, output, `"label": "stop"`)

	var decoded struct {
		Images []struct {
			File string `json:"file"`
		} `json:"images"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &decoded))
	require.Len(t, decoded.Images, 1)
	assert.Equal(t, "/path/test.png", decoded.Images[0].File)
}

func TestFormatBatchResults_CSV(t *testing.T) {
	results := []*pipeline.ImageResult{
		mockImageResult(
			mockDetection("stop", 0.95, 100, 200, 150, 260),
			mockDetection("yield", 0.72, 10, 20, 40, 55),
		),
		nil,
	}
	imagePaths := []string{"/path/test.png", "/path/broken.png"}

	output, err := formatBatchResults(results, imagePaths, "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(output), "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, "file,x1,y1,x2,y2,label,score", lines[0])
	assert.Equal(t, "/path/test.png,100,200,150,260,stop,0.9500", lines[1])
	assert.Equal(t, "/path/test.png,10,20,40,55,yield,0.7200", lines[2])
}

func TestFormatBatchResults_DefaultsToText(t *testing.T) {
	results := []*pipeline.ImageResult{mockImageResult()}
	imagePaths := []string{"/path/test.png"}

	output, err := formatBatchResults(results, imagePaths, "unknown")
	require.NoError(t, err)
	assert.Contains(t, output, "# /path/test.png")
}

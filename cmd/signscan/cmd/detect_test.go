package cmd

import (
	"encoding/json"
	"testing"

	"github.com/roadwatch-ai/signscan/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleImageResult() *pipeline.ImageResult {
	res := &pipeline.ImageResult{Width: 640, Height: 480}
	var d pipeline.DetectionRecord
	d.Label = "stop"
	d.Score = 0.95
	d.ClassID = 3
	d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2 = 100, 200, 150, 260
	res.Detections = append(res.Detections, d)
	return res
}

func TestFormatImageResultText(t *testing.T) {
	out, err := formatImageResult(sampleImageResult(), "road.jpg", outputFormatText, false)
	require.NoError(t, err)
	assert.Contains(t, out, "road.jpg: 1 detection(s)")
	assert.Contains(t, out, "stop 0.9500 (100,200)-(150,260)")
}

func TestFormatImageResultJSON(t *testing.T) {
	out, err := formatImageResult(sampleImageResult(), "road.jpg", outputFormatJSON, false)
	require.NoError(t, err)

	var parsed struct {
		File       string                `json:"file"`
		Detections *pipeline.ImageResult `json:"detections"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, "road.jpg", parsed.File)
	require.Len(t, parsed.Detections.Detections, 1)
	assert.Equal(t, "stop", parsed.Detections.Detections[0].Label)
}

func TestFormatImageResultCSV(t *testing.T) {
	out, err := formatImageResult(sampleImageResult(), "road.jpg", outputFormatCSV, false)
	require.NoError(t, err)
	assert.Contains(t, out, "x1,y1,x2,y2,label,score")
	assert.Contains(t, out, "100,200,150,260,stop,0.9500")
	assert.NotContains(t, out, "# road.jpg")
}

func TestFormatImageResultCSVMultiFile(t *testing.T) {
	out, err := formatImageResult(sampleImageResult(), "road.jpg", outputFormatCSV, true)
	require.NoError(t, err)
	assert.Contains(t, out, "# road.jpg")
}

func TestDetectCommandFlags(t *testing.T) {
	for _, name := range []string{
		"format", "output", "confidence", "iou-threshold", "max-detections",
		"per-class-nms", "score-mode", "model", "compact", "input-size",
		"classes", "taxonomy", "anchors", "overlay-dir", "threads",
		"gpu", "gpu-device", "gpu-mem-limit",
	} {
		assert.NotNil(t, detectCmd.Flags().Lookup(name), "missing flag %s", name)
	}
}

package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roadwatch-ai/signscan/internal/pipeline"
)

// formatBatchResults formats the batch processing results in the specified format.
func formatBatchResults(results []*pipeline.ImageResult, imagePaths []string, format string) (string, error) {
	switch format {
	case "json":
		return formatJSON(results, imagePaths)
	case "csv":
		return formatCSV(results, imagePaths)
	default: // text
		return formatText(results, imagePaths)
	}
}

// batchImage pairs a source path with its detection result for JSON output.
type batchImage struct {
	File       string                `json:"file"`
	Detections *pipeline.ImageResult `json:"detections"`
}

// formatJSON formats results as JSON.
func formatJSON(results []*pipeline.ImageResult, imagePaths []string) (string, error) {
	batchResult := struct {
		Images []batchImage `json:"images"`
	}{
		Images: make([]batchImage, len(results)),
	}

	for i, res := range results {
		batchResult.Images[i] = batchImage{File: imagePaths[i], Detections: res}
	}

	bts, err := json.MarshalIndent(batchResult, "", "  ")
	return string(bts), err
}

// formatCSV formats results as CSV with one row per detection.
func formatCSV(results []*pipeline.ImageResult, imagePaths []string) (string, error) {
	var output strings.Builder
	writer := csv.NewWriter(&output)

	if err := writer.Write([]string{"file", "x1", "y1", "x2", "y2", "label", "score"}); err != nil {
		return "", err
	}

	for i, res := range results {
		if res == nil {
			continue
		}
		for _, d := range res.Detections {
			row := append([]string{imagePaths[i]}, pipeline.DetectionCSVRow(d)...)
			if err := writer.Write(row); err != nil {
				return "", err
			}
		}
	}

	writer.Flush()
	return output.String(), writer.Error()
}

// formatText formats results as plain text, one section per image.
func formatText(results []*pipeline.ImageResult, imagePaths []string) (string, error) {
	var output strings.Builder
	for i, res := range results {
		if i > 0 {
			output.WriteString("\n")
		}
		output.WriteString(fmt.Sprintf("# %s\n", imagePaths[i]))
		if res == nil {
			output.WriteString("  (failed)\n")
			continue
		}
		if len(res.Detections) == 0 {
			output.WriteString("  no detections\n")
			continue
		}
		pipeline.SortDetectionsTopLeft(res)
		for _, d := range res.Detections {
			output.WriteString(fmt.Sprintf("  %s %.4f (%d,%d)-(%d,%d)\n",
				d.Label, d.Score, d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2))
		}
	}
	return output.String(), nil
}

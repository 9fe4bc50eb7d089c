package pipeline

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// detectionCSVHeader is the per-detection column layout shared by the CLI and
// server CSV outputs. Batch output prepends a file column.
var detectionCSVHeader = []string{"x1", "y1", "x2", "y2", "label", "score"}

// ToJSONImage serializes a single ImageResult to pretty JSON.
func ToJSONImage(res *ImageResult) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToJSONImages serializes multiple ImageResult entries to pretty JSON.
func ToJSONImages(results []*ImageResult) (string, error) {
	b, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DetectionCSVRow formats one detection as CSV fields in header order.
func DetectionCSVRow(d DetectionRecord) []string {
	return []string{
		strconv.Itoa(d.Box.X1),
		strconv.Itoa(d.Box.Y1),
		strconv.Itoa(d.Box.X2),
		strconv.Itoa(d.Box.Y2),
		d.Label,
		fmt.Sprintf("%.4f", d.Score),
	}
}

// ToCSVImage exports per-detection data as CSV with a header row.
func ToCSVImage(res *ImageResult) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(detectionCSVHeader)
	for _, d := range res.Detections {
		_ = w.Write(DetectionCSVRow(d))
	}
	w.Flush()
	return buf.String(), nil
}

// SortDetectionsTopLeft orders detections by top-left corner (y, then x) for
// readable listings. Decode order is by descending score.
func SortDetectionsTopLeft(res *ImageResult) {
	sort.SliceStable(res.Detections, func(i, j int) bool {
		if res.Detections[i].Box.Y1 == res.Detections[j].Box.Y1 {
			return res.Detections[i].Box.X1 < res.Detections[j].Box.X1
		}
		return res.Detections[i].Box.Y1 < res.Detections[j].Box.Y1
	})
}

// validateDetectionBox checks a detection's box against the image bounds.
func validateDetectionBox(d DetectionRecord, width, height, index int) error {
	if d.Box.X2 < d.Box.X1 || d.Box.Y2 < d.Box.Y1 {
		return fmt.Errorf("detection %d has inverted corners", index)
	}
	if d.Box.X1 < 0 || d.Box.Y1 < 0 {
		return fmt.Errorf("detection %d has negative coords", index)
	}
	if d.Box.X2 > width {
		return fmt.Errorf("detection %d exceeds image width", index)
	}
	if d.Box.Y2 > height {
		return fmt.Errorf("detection %d exceeds image height", index)
	}
	return nil
}

// ValidateImageResult performs simple consistency checks on a result.
func ValidateImageResult(res *ImageResult) error {
	if res == nil {
		return errors.New("nil result")
	}
	if res.Width <= 0 || res.Height <= 0 {
		return fmt.Errorf("invalid image size %dx%d", res.Width, res.Height)
	}
	for i, d := range res.Detections {
		if err := validateDetectionBox(d, res.Width, res.Height, i); err != nil {
			return err
		}
		if d.Score < 0 || d.Score > 1 {
			return fmt.Errorf("detection %d score out of range", i)
		}
	}
	return nil
}

package pipeline

import (
	"strings"
	"testing"
)

func sampleResult() *ImageResult {
	res := &ImageResult{Width: 640, Height: 480}
	d1 := DetectionRecord{ClassID: 0, Label: "stop", Score: 0.91}
	d1.Box.X1, d1.Box.Y1, d1.Box.X2, d1.Box.Y2 = 100, 200, 150, 260
	d2 := DetectionRecord{ClassID: 1, Label: "yield", Score: 0.72}
	d2.Box.X1, d2.Box.Y1, d2.Box.X2, d2.Box.Y2 = 10, 20, 40, 55
	res.Detections = []DetectionRecord{d1, d2}
	return res
}

func TestToCSVImage(t *testing.T) {
	out, err := ToCSVImage(sampleResult())
	if err != nil {
		t.Fatalf("ToCSVImage: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "x1,y1,x2,y2,label,score" {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[1] != "100,200,150,260,stop,0.9100" {
		t.Fatalf("row 1 = %q", lines[1])
	}
}

func TestToCSVImageNil(t *testing.T) {
	if _, err := ToCSVImage(nil); err == nil {
		t.Fatal("expected error for nil result")
	}
}

func TestToJSONImage(t *testing.T) {
	out, err := ToJSONImage(sampleResult())
	if err != nil {
		t.Fatalf("ToJSONImage: %v", err)
	}
	if !strings.Contains(out, `"label": "stop"`) {
		t.Fatalf("json missing label: %s", out)
	}
	if !strings.Contains(out, `"width": 640`) {
		t.Fatalf("json missing dimensions: %s", out)
	}
}

func TestSortDetectionsTopLeft(t *testing.T) {
	res := sampleResult()
	SortDetectionsTopLeft(res)
	if res.Detections[0].Label != "yield" {
		t.Fatalf("expected top-left detection first, got %q", res.Detections[0].Label)
	}
}

func TestValidateImageResult(t *testing.T) {
	if err := ValidateImageResult(sampleResult()); err != nil {
		t.Fatalf("valid result rejected: %v", err)
	}
	if err := ValidateImageResult(nil); err == nil {
		t.Fatal("expected error for nil result")
	}

	res := sampleResult()
	res.Detections[0].Box.X2 = 700
	if err := ValidateImageResult(res); err == nil {
		t.Fatal("expected error for box past image width")
	}

	res = sampleResult()
	res.Detections[1].Score = 1.5
	if err := ValidateImageResult(res); err == nil {
		t.Fatal("expected error for score out of range")
	}
}

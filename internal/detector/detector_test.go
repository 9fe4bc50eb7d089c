package detector

import (
	"strings"
	"testing"
)

func testDetectorConfig() Config {
	cfg := DefaultConfig()
	cfg.ModelPath = "/models/signscan_yolov2.onnx"
	cfg.NumClasses = 3
	return cfg
}

func TestValidateConfig(t *testing.T) {
	if err := validateConfig(testDetectorConfig()); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty model path", func(c *Config) { c.ModelPath = "" }},
		{"zero input size", func(c *Config) { c.InputSize = 0 }},
		{"zero anchors", func(c *Config) { c.NumAnchors = 0 }},
		{"zero classes", func(c *Config) { c.NumClasses = 0 }},
		{"bad gpu device", func(c *Config) { c.GPU.UseGPU = true; c.GPU.DeviceID = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testDetectorConfig()
			tc.mutate(&cfg)
			if err := validateConfig(cfg); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestUpdateModelPath(t *testing.T) {
	cfg := testDetectorConfig()
	cfg.UseCompactModel = true
	cfg.UpdateModelPath("/srv/models")
	if !strings.HasSuffix(cfg.ModelPath, "signscan_yolov2_tiny.onnx") {
		t.Fatalf("model path = %q, want tiny variant", cfg.ModelPath)
	}
}

func TestInterpretOutputChannelsLast(t *testing.T) {
	// 1 anchor, 3 classes => 8 channels; 2x2 grid in NHWC layout.
	data := make([]float32, 2*2*8)
	data[(1*2+0)*8+4] = 7 // objectness of cell (1,0)

	p, err := interpretOutput(data, []int64{1, 2, 2, 8}, 1, 3)
	if err != nil {
		t.Fatalf("interpretOutput: %v", err)
	}
	if p.GridH() != 2 || p.GridW() != 2 {
		t.Fatalf("grid = %dx%d, want 2x2", p.GridH(), p.GridW())
	}
}

func TestInterpretOutputChannelsFirst(t *testing.T) {
	// Same head in NCHW layout: channel plane 4 (objectness), cell (1,0).
	data := make([]float32, 8*2*2)
	data[4*4+(1*2+0)] = 7

	p, err := interpretOutput(data, []int64{1, 8, 2, 2}, 1, 3)
	if err != nil {
		t.Fatalf("interpretOutput: %v", err)
	}
	if p.GridH() != 2 || p.GridW() != 2 {
		t.Fatalf("grid = %dx%d, want 2x2", p.GridH(), p.GridW())
	}
}

func TestInterpretOutputLayoutsAgree(t *testing.T) {
	// The same logical tensor must decode identically from either layout.
	const c, h, w = 8, 2, 3
	nhwc := make([]float32, h*w*c)
	nchw := make([]float32, c*h*w)
	v := float32(1)
	for y := range h {
		for x := range w {
			for ch := range c {
				nhwc[(y*w+x)*c+ch] = v
				nchw[ch*h*w+y*w+x] = v
				v++
			}
		}
	}

	a, err := interpretOutput(nhwc, []int64{1, h, w, c}, 1, 3)
	if err != nil {
		t.Fatalf("channels-last: %v", err)
	}
	b, err := interpretOutput(nchw, []int64{1, c, h, w}, 1, 3)
	if err != nil {
		t.Fatalf("channels-first: %v", err)
	}
	if a.NumCandidates() != b.NumCandidates() {
		t.Fatalf("candidate counts differ: %d vs %d", a.NumCandidates(), b.NumCandidates())
	}
}

func TestInterpretOutputErrors(t *testing.T) {
	if _, err := interpretOutput(make([]float32, 8), []int64{1, 8}, 1, 3); err == nil {
		t.Fatal("expected error for rank-2 output")
	}
	if _, err := interpretOutput(make([]float32, 2*8), []int64{2, 8, 1, 1}, 1, 3); err == nil {
		t.Fatal("expected error for batch size 2")
	}
	if _, err := interpretOutput(make([]float32, 2*2*9), []int64{1, 2, 2, 9}, 1, 3); err == nil {
		t.Fatal("expected error for channel mismatch")
	}
}

func TestSplitBatchOutput(t *testing.T) {
	// Two images, 1 anchor, 3 classes, 2x2 grid, NHWC.
	per := 2 * 2 * 8
	data := make([]float32, 2*per)
	data[per+5] = 3 // second image differs

	preds, err := splitBatchOutput(data, []int64{2, 2, 2, 8}, 2, 1, 3)
	if err != nil {
		t.Fatalf("splitBatchOutput: %v", err)
	}
	if len(preds) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(preds))
	}

	if _, err := splitBatchOutput(data, []int64{2, 2, 2, 8}, 3, 1, 3); err == nil {
		t.Fatal("expected error for image count mismatch")
	}
}

package server

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"

	"github.com/roadwatch-ai/signscan/internal/pipeline"
)

// mockPipeline is a canned pipeline implementation for handler tests.
type mockPipeline struct {
	failProcess bool
}

func (m *mockPipeline) ProcessImage(img image.Image) (*pipeline.ImageResult, error) {
	if m.failProcess {
		return nil, errors.New("inference failed")
	}

	bounds := img.Bounds()
	var d pipeline.DetectionRecord
	d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2 = 10, 10, 100, 60
	d.ClassID = 0
	d.Label = "stop"
	d.Score = 0.95

	return &pipeline.ImageResult{
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		Detections: []pipeline.DetectionRecord{d},
	}, nil
}

func (m *mockPipeline) Close() error { return nil }

// newTestServer creates a server wired to a mock pipeline.
func newTestServer() *Server {
	return &Server{
		pipeline:       &mockPipeline{},
		labels:         []string{"stop", "yield"},
		corsOrigin:     "*",
		maxUploadMB:    10,
		timeoutSec:     30,
		overlayEnabled: true,
	}
}

// testPNGBytes encodes a small solid image as PNG.
func testPNGBytes(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// newUploadRequest builds a multipart POST with an image part named "image".
func newUploadRequest(target string, imageData []byte) *http.Request {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, _ := writer.CreateFormFile("image", "test.png")
	_, _ = part.Write(imageData)
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

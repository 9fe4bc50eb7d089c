package server

import (
	"image"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/roadwatch-ai/signscan/internal/pipeline"
)

// pipelineInterface defines the methods the server needs from a pipeline.
type pipelineInterface interface {
	ProcessImage(img image.Image) (*pipeline.ImageResult, error)
	Close() error
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	pipeline       pipelineInterface
	labels         []string
	corsOrigin     string
	maxUploadMB    int64
	timeoutSec     int
	overlayEnabled bool
	modelsDir      string
}

// Config holds server configuration.
type Config struct {
	Host           string
	Port           int
	CORSOrigin     string
	MaxUploadMB    int64
	TimeoutSec     int
	OverlayEnabled bool
	ModelsDir      string

	// PipelineBuilder supplies the detection pipeline. A nil builder uses
	// defaults resolved against ModelsDir.
	PipelineBuilder *pipeline.Builder
}

// HealthResponse is the payload of the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// ModelInfo describes one detection model on disk.
type ModelInfo struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Variant   string `json:"variant"`
	Available bool   `json:"available"`
}

// ModelsResponse is the payload of the models endpoint.
type ModelsResponse struct {
	Models []ModelInfo `json:"models"`
	Labels []string    `json:"labels,omitempty"`
	Count  int         `json:"count"`
}

// DetectResponse wraps a detection result or an error.
type DetectResponse struct {
	Success    bool                  `json:"success"`
	Detections *pipeline.ImageResult `json:"detections,omitempty"`
	Error      string                `json:"error,omitempty"`
}

// NewServer creates a new detection server instance.
func NewServer(config Config) (*Server, error) {
	b := config.PipelineBuilder
	if b == nil {
		b = pipeline.NewBuilder().WithModelsDir(config.ModelsDir)
	}

	pl, err := b.Build()
	if err != nil {
		return nil, err
	}

	return &Server{
		pipeline:       pl,
		labels:         pl.Labels(),
		corsOrigin:     config.CORSOrigin,
		maxUploadMB:    config.MaxUploadMB,
		timeoutSec:     config.TimeoutSec,
		overlayEnabled: config.OverlayEnabled,
		modelsDir:      config.ModelsDir,
	}, nil
}

// Close releases server resources.
func (s *Server) Close() error {
	if s.pipeline != nil {
		return s.pipeline.Close()
	}
	return nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/models", s.corsMiddleware(s.modelsHandler))
	mux.HandleFunc("/detect", s.corsMiddleware(s.detectHandler))
	mux.Handle("/metrics", promhttp.Handler())
}

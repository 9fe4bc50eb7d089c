// Package pipeline wires the detector and decoder into an end-to-end image
// processing flow: load, infer, decode, label.
package pipeline

import (
	"errors"
	"fmt"
	"os"

	"github.com/roadwatch-ai/signscan/internal/dataset"
	"github.com/roadwatch-ai/signscan/internal/decode"
	"github.com/roadwatch-ai/signscan/internal/detector"
	"github.com/roadwatch-ai/signscan/internal/models"
)

// DefaultAnchors are the YOLOv2 anchor priors in grid-cell units, used when
// no anchors file is present next to the model.
var DefaultAnchors = []decode.Anchor{
	{Width: 0.57273, Height: 0.677385},
	{Width: 1.87446, Height: 2.06253},
	{Width: 3.33843, Height: 5.47434},
	{Width: 7.88282, Height: 3.52778},
	{Width: 9.77052, Height: 9.16828},
}

// Config holds the full pipeline configuration.
type Config struct {
	ModelsDir      string
	ClassNamesPath string // defaults to <models>/classes.txt
	TaxonomyPath   string // defaults to <models>/taxonomy.yaml for hierarchy modes
	AnchorsPath    string // defaults to <models>/anchors.txt when present
	Detector       detector.Config
	Decode         decode.Config
	Parallel       ParallelConfig
}

// DefaultConfig returns pipeline defaults matching the trained model's
// evaluation settings.
func DefaultConfig() Config {
	return Config{
		Detector: detector.DefaultConfig(),
		Decode:   decode.DefaultConfig(),
		Parallel: DefaultParallelConfig(),
	}
}

// Builder constructs a Pipeline from fluent configuration.
type Builder struct {
	cfg Config
}

// NewBuilder creates a builder with default configuration.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithModelsDir overrides the models directory.
func (b *Builder) WithModelsDir(dir string) *Builder {
	b.cfg.ModelsDir = dir
	return b
}

// WithModelPath sets an explicit detection model path.
func (b *Builder) WithModelPath(path string) *Builder {
	if path != "" {
		b.cfg.Detector.ModelPath = path
	}
	return b
}

// WithCompactModel selects the tiny model variant.
func (b *Builder) WithCompactModel(compact bool) *Builder {
	b.cfg.Detector.UseCompactModel = compact
	return b
}

// WithInputSize sets the square network input edge.
func (b *Builder) WithInputSize(size int) *Builder {
	if size > 0 {
		b.cfg.Detector.InputSize = size
	}
	return b
}

// WithClassNamesPath sets an explicit class-names file.
func (b *Builder) WithClassNamesPath(path string) *Builder {
	b.cfg.ClassNamesPath = path
	return b
}

// WithTaxonomyPath sets an explicit taxonomy file.
func (b *Builder) WithTaxonomyPath(path string) *Builder {
	b.cfg.TaxonomyPath = path
	return b
}

// WithAnchorsPath sets an explicit anchor-priors file.
func (b *Builder) WithAnchorsPath(path string) *Builder {
	b.cfg.AnchorsPath = path
	return b
}

// WithAnchors sets anchor priors directly.
func (b *Builder) WithAnchors(anchors []decode.Anchor) *Builder {
	if len(anchors) > 0 {
		b.cfg.Decode.Anchors = anchors
	}
	return b
}

// WithScoreThreshold sets the minimum final detection score.
func (b *Builder) WithScoreThreshold(t float64) *Builder {
	b.cfg.Decode.ScoreThreshold = t
	return b
}

// WithIoUThreshold sets the suppression overlap threshold.
func (b *Builder) WithIoUThreshold(t float64) *Builder {
	b.cfg.Decode.IoUThreshold = t
	return b
}

// WithMaxDetections caps the number of detections per image.
func (b *Builder) WithMaxDetections(n int) *Builder {
	if n > 0 {
		b.cfg.Decode.MaxDetections = n
	}
	return b
}

// WithPerClassNMS restricts suppression to same-class overlaps.
func (b *Builder) WithPerClassNMS(enabled bool) *Builder {
	b.cfg.Decode.PerClassNMS = enabled
	return b
}

// WithScoreMode sets the class-scoring mode ("flat", "hier1" or "hier2").
func (b *Builder) WithScoreMode(mode string) *Builder {
	if m, err := decode.ParseMode(mode); err == nil {
		b.cfg.Decode.Mode = m
	}
	return b
}

// WithThreads sets the CPU thread count for inference.
func (b *Builder) WithThreads(n int) *Builder {
	if n >= 0 {
		b.cfg.Detector.NumThreads = n
	}
	return b
}

// WithWarmupIterations sets startup warmup passes.
func (b *Builder) WithWarmupIterations(n int) *Builder {
	if n >= 0 {
		b.cfg.Detector.WarmupIterations = n
	}
	return b
}

// WithGPU toggles CUDA acceleration.
func (b *Builder) WithGPU(enabled bool) *Builder {
	b.cfg.Detector.GPU.UseGPU = enabled
	return b
}

// WithGPUDevice selects the CUDA device.
func (b *Builder) WithGPUDevice(deviceID int) *Builder {
	b.cfg.Detector.GPU.DeviceID = deviceID
	return b
}

// WithGPUMemoryLimit caps GPU memory in bytes.
func (b *Builder) WithGPUMemoryLimit(limitBytes uint64) *Builder {
	b.cfg.Detector.GPU.GPUMemLimit = limitBytes
	return b
}

// WithParallelWorkers sets the worker count for multi-image processing.
func (b *Builder) WithParallelWorkers(workers int) *Builder {
	if workers > 0 {
		b.cfg.Parallel.MaxWorkers = workers
	}
	return b
}

// WithProgressCallback attaches progress reporting for multi-image runs.
func (b *Builder) WithProgressCallback(callback ProgressCallback) *Builder {
	b.cfg.Parallel.ProgressCallback = callback
	return b
}

// Config returns the current builder configuration.
func (b *Builder) Config() Config { return b.cfg }

// resolvePaths fills in defaulted companion-file paths.
func (b *Builder) resolvePaths() {
	b.cfg.Detector.UpdateModelPath(b.cfg.ModelsDir)
	if b.cfg.ClassNamesPath == "" {
		b.cfg.ClassNamesPath = models.GetClassNamesPath(b.cfg.ModelsDir)
	}
	if b.cfg.TaxonomyPath == "" {
		b.cfg.TaxonomyPath = models.GetTaxonomyPath(b.cfg.ModelsDir)
	}
	if b.cfg.AnchorsPath == "" {
		candidate := models.GetAnchorsPath(b.cfg.ModelsDir)
		if _, err := os.Stat(candidate); err == nil {
			b.cfg.AnchorsPath = candidate
		}
	}
}

// Validate checks that required files exist and configuration looks sane.
func (b *Builder) Validate() error {
	b.resolvePaths()

	if b.cfg.Detector.ModelPath == "" {
		return errors.New("detection model path is empty")
	}
	if err := models.ValidateModelPath(b.cfg.Detector.ModelPath); err != nil {
		return err
	}
	if b.cfg.Decode.Mode == decode.ModeFlat {
		if _, err := os.Stat(b.cfg.ClassNamesPath); err != nil {
			return fmt.Errorf("class names file not found: %s", b.cfg.ClassNamesPath)
		}
	} else {
		if _, err := os.Stat(b.cfg.TaxonomyPath); err != nil {
			return fmt.Errorf("taxonomy file not found: %s", b.cfg.TaxonomyPath)
		}
	}
	return nil
}

// Pipeline wires together the detector and the decoder with label lookup.
type Pipeline struct {
	cfg      Config
	Detector *detector.Detector
	Decoder  *decode.Decoder
	labels   []string
}

// Build initializes the detection pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	if len(b.cfg.Decode.Anchors) == 0 {
		if b.cfg.AnchorsPath != "" {
			anchors, err := dataset.LoadAnchors(b.cfg.AnchorsPath)
			if err != nil {
				return nil, fmt.Errorf("load anchors: %w", err)
			}
			b.cfg.Decode.Anchors = anchors
		} else {
			b.cfg.Decode.Anchors = DefaultAnchors
		}
	}

	var labels []string
	if b.cfg.Decode.Mode == decode.ModeFlat {
		names, err := dataset.LoadClassNames(b.cfg.ClassNamesPath)
		if err != nil {
			return nil, fmt.Errorf("load class names: %w", err)
		}
		labels = names
		b.cfg.Decode.NumClasses = len(names)
	} else {
		tax, err := decode.LoadTaxonomy(b.cfg.TaxonomyPath)
		if err != nil {
			return nil, fmt.Errorf("load taxonomy: %w", err)
		}
		b.cfg.Decode.Taxonomy = tax
		b.cfg.Decode.NumClasses = tax.NumLogits()
		labels = tax.LeafNames()
	}

	decoder, err := decode.NewDecoder(b.cfg.Decode)
	if err != nil {
		return nil, fmt.Errorf("init decoder: %w", err)
	}

	b.cfg.Detector.NumAnchors = len(b.cfg.Decode.Anchors)
	b.cfg.Detector.NumClasses = b.cfg.Decode.NumClasses
	det, err := detector.New(b.cfg.Detector)
	if err != nil {
		return nil, fmt.Errorf("init detector: %w", err)
	}

	return &Pipeline{
		cfg:      b.cfg,
		Detector: det,
		Decoder:  decoder,
		labels:   labels,
	}, nil
}

// Close releases all resources.
func (p *Pipeline) Close() error {
	if p.Detector != nil {
		err := p.Detector.Close()
		p.Detector = nil
		return err
	}
	return nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Labels returns the class labels in class-id order.
func (p *Pipeline) Labels() []string { return p.labels }

// Label resolves a class id to its name, falling back to a numeric form for
// ids outside the label table.
func (p *Pipeline) Label(classID int) string {
	if classID >= 0 && classID < len(p.labels) {
		return p.labels[classID]
	}
	return fmt.Sprintf("class_%d", classID)
}

// Info returns a map with key pipeline properties and model info.
func (p *Pipeline) Info() map[string]interface{} {
	info := map[string]interface{}{
		"models_dir":      p.cfg.ModelsDir,
		"num_classes":     len(p.labels),
		"score_mode":      p.cfg.Decode.Mode.String(),
		"score_threshold": p.cfg.Decode.ScoreThreshold,
		"iou_threshold":   p.cfg.Decode.IoUThreshold,
		"max_detections":  p.cfg.Decode.MaxDetections,
		"per_class_nms":   p.cfg.Decode.PerClassNMS,
		"num_anchors":     len(p.cfg.Decode.Anchors),
	}
	if p.Detector != nil {
		info["detector"] = p.Detector.GetModelInfo()
	}
	info["parallel"] = map[string]interface{}{
		"max_workers":           p.cfg.Parallel.MaxWorkers,
		"has_progress_callback": p.cfg.Parallel.ProgressCallback != nil,
	}
	return info
}

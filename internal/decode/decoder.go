// Package decode turns dense grid-cell predictions from a YOLOv2-style
// detection head into a sparse list of scored, class-labelled boxes in
// original-image pixel coordinates. The pipeline runs geometry decoding,
// class score resolution, score filtering, non-maximum suppression, and
// coordinate rescaling as pure stages over immutable inputs.
package decode

import (
	"errors"
	"fmt"

	"github.com/roadwatch-ai/signscan/internal/utils"
)

// DefaultMaxDetections caps NMS output when the configuration does not say
// otherwise.
const DefaultMaxDetections = 10

// Config holds the immutable decoding configuration. It is validated once by
// NewDecoder and shared read-only by all decode calls.
type Config struct {
	Anchors        []Anchor
	NumClasses     int
	Mode           Mode
	Taxonomy       *Taxonomy // required for hierarchy modes
	ScoreThreshold float64
	IoUThreshold   float64
	MaxDetections  int
	PerClassNMS    bool
}

// DefaultConfig returns decoding defaults matching the trained model's
// evaluation settings.
func DefaultConfig() Config {
	return Config{
		ScoreThreshold: 0.5,
		IoUThreshold:   0.5,
		MaxDetections:  DefaultMaxDetections,
		Mode:           ModeFlat,
	}
}

// Detection is one final detection: a pixel-space box, its class id, and its
// score. Detections are value types.
type Detection struct {
	Box     utils.Box
	ClassID int
	Score   float64
}

// Decoder decodes raw prediction tensors using a fixed configuration.
// Decode calls are read-only with respect to the decoder and may run
// concurrently for independent images.
type Decoder struct {
	cfg     Config
	resolve resolveFunc
}

// NewDecoder validates the configuration and builds a decoder. Configuration
// problems are fatal for the run and reported as *ConfigError before any
// tensor work.
func NewDecoder(cfg Config) (*Decoder, error) {
	if len(cfg.Anchors) == 0 {
		return nil, &ConfigError{Field: "anchors", Err: errors.New("anchor set is empty")}
	}
	for i, a := range cfg.Anchors {
		if a.Width <= 0 || a.Height <= 0 {
			return nil, &ConfigError{Field: "anchors", Err: fmt.Errorf("anchor %d has non-positive size %gx%g", i, a.Width, a.Height)}
		}
	}
	if cfg.NumClasses <= 0 {
		return nil, &ConfigError{Field: "num_classes", Err: fmt.Errorf("must be positive, got %d", cfg.NumClasses)}
	}
	if cfg.IoUThreshold < 0 || cfg.IoUThreshold > 1 {
		return nil, &ConfigError{Field: "iou_threshold", Err: fmt.Errorf("must be in [0,1], got %g", cfg.IoUThreshold)}
	}
	if cfg.MaxDetections <= 0 {
		cfg.MaxDetections = DefaultMaxDetections
	}

	d := &Decoder{cfg: cfg}
	switch cfg.Mode {
	case ModeFlat:
		d.resolve = resolveFlat
	case ModeHierarchySingle, ModeHierarchyTwo:
		if cfg.Taxonomy == nil {
			return nil, &ConfigError{Field: "taxonomy", Err: fmt.Errorf("mode %s requires a taxonomy", cfg.Mode)}
		}
		if cfg.Taxonomy.NumLogits() != cfg.NumClasses {
			return nil, &ConfigError{Field: "taxonomy", Err: fmt.Errorf(
				"taxonomy expects %d class logits, configuration has %d", cfg.Taxonomy.NumLogits(), cfg.NumClasses)}
		}
		if cfg.Mode == ModeHierarchyTwo {
			if cfg.Taxonomy.Depth() != 2 {
				return nil, &ConfigError{Field: "taxonomy", Err: errors.New("mode hier2 requires a two-level taxonomy")}
			}
			d.resolve = resolverTwo(cfg.Taxonomy)
		} else {
			d.resolve = resolverSingle(cfg.Taxonomy)
		}
	default:
		return nil, &ConfigError{Field: "mode", Err: fmt.Errorf("unknown mode %d", int(cfg.Mode))}
	}
	return d, nil
}

// Config returns a copy of the decoder's configuration.
func (d *Decoder) Config() Config { return d.cfg }

// NumClasses returns the number of final class ids detections can carry.
func (d *Decoder) NumClasses() int {
	if d.cfg.Taxonomy != nil && d.cfg.Mode != ModeFlat {
		return d.cfg.Taxonomy.NumLeaves()
	}
	return d.cfg.NumClasses
}

// Decode runs the full decoding pipeline over one raw prediction tensor and
// returns the surviving detections in descending score order, in pixel
// coordinates of the original originalWidth×originalHeight image. An empty
// result is a valid outcome, not an error. Stage failures abort the decode
// for this image only and are reported as *StageError.
func (d *Decoder) Decode(raw *RawPrediction, originalWidth, originalHeight int) ([]Detection, error) {
	if raw == nil {
		return nil, &StageError{Stage: StageGeometry, Err: errors.New("nil raw prediction")}
	}
	if raw.numAnchors != len(d.cfg.Anchors) || raw.numClasses != d.cfg.NumClasses {
		return nil, &StageError{Stage: StageGeometry, Err: fmt.Errorf(
			"tensor layout %d anchors × %d classes does not match configuration %d × %d",
			raw.numAnchors, raw.numClasses, len(d.cfg.Anchors), d.cfg.NumClasses)}
	}
	if originalWidth <= 0 || originalHeight <= 0 {
		return nil, &StageError{Stage: StageRescale, Err: fmt.Errorf(
			"invalid original image dimensions %dx%d", originalWidth, originalHeight)}
	}

	// Geometry: raw activations to normalized corners.
	cors, err := decodeGeometry(raw, d.cfg.Anchors)
	if err != nil {
		return nil, &StageError{Stage: StageGeometry, Err: err}
	}

	// Scores: best class and final score per candidate.
	n := raw.NumCandidates()
	classIDs := make([]int, n)
	scores := make([]float64, n)
	for idx := range n {
		i, j, k := raw.cellIndex(idx)
		objectness := sigmoid(float64(raw.at(i, j, k, 4)))
		classIDs[idx], scores[idx] = d.resolve(raw.classLogits(i, j, k), objectness)
	}

	// Filter: threshold on final score.
	kept := filterByScore(scores, d.cfg.ScoreThreshold)
	if len(kept) == 0 {
		return nil, nil
	}

	boxes := make([]utils.Box, len(kept))
	keptScores := make([]float64, len(kept))
	keptClasses := make([]int, len(kept))
	for i, idx := range kept {
		boxes[i] = cors[idx].box()
		keptScores[i] = scores[idx]
		keptClasses[i] = classIDs[idx]
	}

	// Suppress: greedy NMS over all remaining candidates.
	order := nonMaxSuppression(boxes, keptScores, keptClasses,
		d.cfg.IoUThreshold, d.cfg.MaxDetections, d.cfg.PerClassNMS)

	// Rescale: normalized space to original pixel space.
	final := make([]utils.Box, len(order))
	for i, idx := range order {
		final[i] = boxes[idx]
	}
	final = rescaleToPixels(final, originalWidth, originalHeight)

	detections := make([]Detection, len(order))
	for i, idx := range order {
		detections[i] = Detection{
			Box:     final[i],
			ClassID: keptClasses[idx],
			Score:   keptScores[idx],
		}
	}
	return detections, nil
}

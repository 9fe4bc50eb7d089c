package decode

import (
	"fmt"
	"math"

	"github.com/roadwatch-ai/signscan/internal/utils"
)

// Anchor is a prior box shape (width, height) in grid-cell units. The anchor
// set is fixed at configuration time and shared read-only by all decodes.
type Anchor struct {
	Width  float64
	Height float64
}

// corners holds one decoded box in normalized [0,1] coordinates, ordered
// (y1, x1, y2, x2). The y-first ordering matches the suppression input
// layout; external consumers get a utils.Box via box().
type corners struct {
	Y1, X1, Y2, X2 float64
}

func (c corners) box() utils.Box {
	return utils.NewBox(c.X1, c.Y1, c.X2, c.Y2)
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// decodeGeometry converts raw per-cell activations into normalized box
// corners, one per (cell, anchor) candidate in flat index order. Box centers
// come from squashed (tx, ty) offset by the cell coordinates; extents come
// from exp(tw, th) scaled by the anchor, all normalized by the grid size.
func decodeGeometry(p *RawPrediction, anchors []Anchor) ([]corners, error) {
	if len(anchors) == 0 {
		return nil, fmt.Errorf("empty anchor set")
	}
	if len(anchors) != p.numAnchors {
		return nil, fmt.Errorf("anchor count %d does not match tensor anchors %d", len(anchors), p.numAnchors)
	}

	gridW := float64(p.gridW)
	gridH := float64(p.gridH)
	out := make([]corners, 0, p.NumCandidates())

	for i := range p.gridH {
		for j := range p.gridW {
			for k, anchor := range anchors {
				cx := (sigmoid(float64(p.at(i, j, k, 0))) + float64(j)) / gridW
				cy := (sigmoid(float64(p.at(i, j, k, 1))) + float64(i)) / gridH
				bw := math.Exp(float64(p.at(i, j, k, 2))) * anchor.Width / gridW
				bh := math.Exp(float64(p.at(i, j, k, 3))) * anchor.Height / gridH

				out = append(out, corners{
					Y1: cy - bh/2,
					X1: cx - bw/2,
					Y2: cy + bh/2,
					X2: cx + bw/2,
				})
			}
		}
	}
	return out, nil
}

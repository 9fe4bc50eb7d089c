// Package evaluate scores detection output against ground-truth annotations
// using greedy IoU matching.
package evaluate

import (
	"sort"

	"github.com/roadwatch-ai/signscan/internal/utils"
)

// GroundTruth is one annotated box.
type GroundTruth struct {
	Label string
	Box   utils.Box
}

// Predicted is one detection to score.
type Predicted struct {
	Label string
	Score float64
	Box   utils.Box
}

// ClassCounts holds match counts for one class label.
type ClassCounts struct {
	TruePositives  int `json:"true_positives"`
	FalsePositives int `json:"false_positives"`
	FalseNegatives int `json:"false_negatives"`
}

// Precision returns TP / (TP + FP), or 0 when nothing was predicted.
func (c ClassCounts) Precision() float64 {
	denom := c.TruePositives + c.FalsePositives
	if denom == 0 {
		return 0
	}
	return float64(c.TruePositives) / float64(denom)
}

// Recall returns TP / (TP + FN), or 0 when nothing was annotated.
func (c ClassCounts) Recall() float64 {
	denom := c.TruePositives + c.FalseNegatives
	if denom == 0 {
		return 0
	}
	return float64(c.TruePositives) / float64(denom)
}

// Report aggregates match counts over a dataset.
type Report struct {
	IoUThreshold float64                `json:"iou_threshold"`
	PerClass     map[string]ClassCounts `json:"per_class"`
	Total        ClassCounts            `json:"total"`
}

// Precision returns the dataset-wide precision.
func (r *Report) Precision() float64 { return r.Total.Precision() }

// Recall returns the dataset-wide recall.
func (r *Report) Recall() float64 { return r.Total.Recall() }

// F1 returns the harmonic mean of dataset-wide precision and recall.
func (r *Report) F1() float64 {
	p, rec := r.Precision(), r.Recall()
	if p+rec == 0 {
		return 0
	}
	return 2 * p * rec / (p + rec)
}

// NewReport creates an empty report for the given matching threshold.
func NewReport(iouThreshold float64) *Report {
	return &Report{
		IoUThreshold: iouThreshold,
		PerClass:     make(map[string]ClassCounts),
	}
}

// AddImage matches one image's predictions against its ground truth and
// accumulates the counts. Matching is greedy in descending score order: each
// prediction claims the unmatched same-label truth with the highest IoU at or
// above the threshold. Unclaimed predictions are false positives, unclaimed
// truths false negatives.
func (r *Report) AddImage(truths []GroundTruth, predictions []Predicted) {
	order := make([]int, len(predictions))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return predictions[order[a]].Score > predictions[order[b]].Score
	})

	claimed := make([]bool, len(truths))
	for _, pi := range order {
		p := predictions[pi]
		best, bestIoU := -1, r.IoUThreshold
		for ti, truth := range truths {
			if claimed[ti] || truth.Label != p.Label {
				continue
			}
			if iou := utils.IoU(p.Box, truth.Box); iou >= bestIoU {
				best, bestIoU = ti, iou
			}
		}
		counts := r.PerClass[p.Label]
		if best >= 0 {
			claimed[best] = true
			counts.TruePositives++
			r.Total.TruePositives++
		} else {
			counts.FalsePositives++
			r.Total.FalsePositives++
		}
		r.PerClass[p.Label] = counts
	}

	for ti, truth := range truths {
		if claimed[ti] {
			continue
		}
		counts := r.PerClass[truth.Label]
		counts.FalseNegatives++
		r.PerClass[truth.Label] = counts
		r.Total.FalseNegatives++
	}
}

// Labels returns the evaluated class labels in sorted order.
func (r *Report) Labels() []string {
	labels := make([]string, 0, len(r.PerClass))
	for l := range r.PerClass {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

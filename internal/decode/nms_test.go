package decode

import (
	"testing"

	"github.com/roadwatch-ai/signscan/internal/utils"
)

func TestNonMaxSuppressionSuppressesOverlap(t *testing.T) {
	boxes := []utils.Box{
		utils.NewBox(0, 0, 10, 10),
		utils.NewBox(1, 1, 11, 11),
	}
	scores := []float64{0.8, 0.9}
	classes := []int{0, 0}

	kept := nonMaxSuppression(boxes, scores, classes, 0.5, 10, false)
	if len(kept) != 1 {
		t.Fatalf("expected 1 survivor, got %v", kept)
	}
	if kept[0] != 1 {
		t.Fatalf("expected the higher-scoring box to survive, got index %d", kept[0])
	}
}

func TestNonMaxSuppressionKeepsDisjoint(t *testing.T) {
	boxes := []utils.Box{
		utils.NewBox(0, 0, 10, 10),
		utils.NewBox(50, 50, 60, 60),
		utils.NewBox(100, 0, 110, 10),
	}
	scores := []float64{0.6, 0.9, 0.7}
	classes := []int{0, 1, 2}

	kept := nonMaxSuppression(boxes, scores, classes, 0.5, 10, false)
	if len(kept) != 3 {
		t.Fatalf("expected all disjoint boxes to survive, got %v", kept)
	}
	// Descending score order.
	if kept[0] != 1 || kept[1] != 2 || kept[2] != 0 {
		t.Fatalf("unexpected order %v", kept)
	}
}

func TestNonMaxSuppressionCap(t *testing.T) {
	var boxes []utils.Box
	var scores []float64
	var classes []int
	for i := range 25 {
		x := float64(i * 20)
		boxes = append(boxes, utils.NewBox(x, 0, x+10, 10))
		scores = append(scores, 0.5+float64(i)*0.01)
		classes = append(classes, 0)
	}

	kept := nonMaxSuppression(boxes, scores, classes, 0.5, 10, false)
	if len(kept) != 10 {
		t.Fatalf("expected cap of 10 survivors, got %d", len(kept))
	}
	// The highest-scoring candidates are kept.
	if kept[0] != 24 {
		t.Fatalf("expected best candidate first, got %v", kept)
	}
}

func TestNonMaxSuppressionTieBreak(t *testing.T) {
	// Identical boxes with identical scores: the lower original index wins.
	boxes := []utils.Box{
		utils.NewBox(0, 0, 10, 10),
		utils.NewBox(0, 0, 10, 10),
		utils.NewBox(0, 0, 10, 10),
	}
	scores := []float64{0.7, 0.7, 0.7}
	classes := []int{0, 0, 0}

	kept := nonMaxSuppression(boxes, scores, classes, 0.5, 10, false)
	if len(kept) != 1 || kept[0] != 0 {
		t.Fatalf("expected only index 0 to survive, got %v", kept)
	}
}

func TestNonMaxSuppressionPerClass(t *testing.T) {
	boxes := []utils.Box{
		utils.NewBox(0, 0, 10, 10),
		utils.NewBox(1, 1, 11, 11),
	}
	scores := []float64{0.9, 0.8}
	classes := []int{0, 1}

	global := nonMaxSuppression(boxes, scores, classes, 0.5, 10, false)
	if len(global) != 1 {
		t.Fatalf("global suppression should merge across classes, got %v", global)
	}

	perClass := nonMaxSuppression(boxes, scores, classes, 0.5, 10, true)
	if len(perClass) != 2 {
		t.Fatalf("per-class suppression should keep both classes, got %v", perClass)
	}
}

func TestNonMaxSuppressionEmpty(t *testing.T) {
	if kept := nonMaxSuppression(nil, nil, nil, 0.5, 10, false); kept != nil {
		t.Fatalf("expected nil for empty input, got %v", kept)
	}
}

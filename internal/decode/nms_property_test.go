package decode

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/roadwatch-ai/signscan/internal/utils"
)

type candidate struct {
	box   utils.Box
	score float64
	class int
}

// genCandidate generates a random scored box on a 200x200 canvas.
func genCandidate() gopter.Gen {
	return gopter.CombineGens(
		gen.Float64Range(0, 180),
		gen.Float64Range(0, 180),
		gen.Float64Range(5, 20),
		gen.Float64Range(0.01, 1.0),
		gen.IntRange(0, 3),
	).Map(func(vals []interface{}) candidate {
		x, ok := vals[0].(float64)
		if !ok {
			panic("expected float64")
		}
		y, ok := vals[1].(float64)
		if !ok {
			panic("expected float64")
		}
		size, ok := vals[2].(float64)
		if !ok {
			panic("expected float64")
		}
		score, ok := vals[3].(float64)
		if !ok {
			panic("expected float64")
		}
		class, ok := vals[4].(int)
		if !ok {
			panic("expected int")
		}
		return candidate{
			box:   utils.NewBox(x, y, x+size, y+size),
			score: score,
			class: class,
		}
	})
}

func genCandidates() gopter.Gen {
	return gen.SliceOfN(30, genCandidate())
}

func splitCandidates(cands []candidate) ([]utils.Box, []float64, []int) {
	boxes := make([]utils.Box, len(cands))
	scores := make([]float64, len(cands))
	classes := make([]int, len(cands))
	for i, c := range cands {
		boxes[i] = c.box
		scores[i] = c.score
		classes[i] = c.class
	}
	return boxes, scores, classes
}

// TestNonMaxSuppression_PairwiseIoU verifies no two survivors overlap above
// the threshold.
func TestNonMaxSuppression_PairwiseIoU(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("kept boxes have pairwise IoU at or below threshold", prop.ForAll(
		func(cands []candidate, iouThreshold float64) bool {
			boxes, scores, classes := splitCandidates(cands)
			kept := nonMaxSuppression(boxes, scores, classes, iouThreshold, len(boxes), false)

			for i := range kept {
				for j := i + 1; j < len(kept); j++ {
					if utils.IoU(boxes[kept[i]], boxes[kept[j]]) > iouThreshold {
						return false
					}
				}
			}
			return true
		},
		genCandidates(),
		gen.Float64Range(0.1, 0.9),
	))

	properties.TestingRun(t)
}

// TestNonMaxSuppression_OutputSorted verifies survivors come back in
// descending score order.
func TestNonMaxSuppression_OutputSorted(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("survivors are sorted by score (descending)", prop.ForAll(
		func(cands []candidate, iouThreshold float64) bool {
			boxes, scores, classes := splitCandidates(cands)
			kept := nonMaxSuppression(boxes, scores, classes, iouThreshold, len(boxes), false)

			for i := 1; i < len(kept); i++ {
				if scores[kept[i]] > scores[kept[i-1]] {
					return false
				}
			}
			return true
		},
		genCandidates(),
		gen.Float64Range(0.1, 0.9),
	))

	properties.TestingRun(t)
}

// TestNonMaxSuppression_SubsetAndCap verifies survivors are valid input
// indices, unique, and never exceed the cap.
func TestNonMaxSuppression_SubsetAndCap(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("survivors are a unique subset capped at the limit", prop.ForAll(
		func(cands []candidate, maxDetections int) bool {
			boxes, scores, classes := splitCandidates(cands)
			kept := nonMaxSuppression(boxes, scores, classes, 0.5, maxDetections, false)

			if len(kept) > maxDetections {
				return false
			}
			seen := make(map[int]bool, len(kept))
			for _, idx := range kept {
				if idx < 0 || idx >= len(boxes) || seen[idx] {
					return false
				}
				seen[idx] = true
			}
			return true
		},
		genCandidates(),
		gen.IntRange(1, 15),
	))

	properties.TestingRun(t)
}

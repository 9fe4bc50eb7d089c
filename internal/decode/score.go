package decode

import (
	"fmt"
	"math"
)

// Mode selects the class-scoring strategy.
type Mode int

const (
	// ModeFlat scores a single softmax over all class logits.
	ModeFlat Mode = iota
	// ModeHierarchySingle restricts the softmax to the taxonomy root's
	// children.
	ModeHierarchySingle
	// ModeHierarchyTwo resolves a parent softmax over the root's children and
	// a conditional softmax over each parent's children.
	ModeHierarchyTwo
)

func (m Mode) String() string {
	switch m {
	case ModeFlat:
		return "flat"
	case ModeHierarchySingle:
		return "hier1"
	case ModeHierarchyTwo:
		return "hier2"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "flat", "":
		return ModeFlat, nil
	case "hier1":
		return ModeHierarchySingle, nil
	case "hier2":
		return ModeHierarchyTwo, nil
	default:
		return ModeFlat, fmt.Errorf("unknown score mode %q (want flat, hier1 or hier2)", s)
	}
}

// resolveFunc turns raw class logits and an objectness score into a best
// class id and its final score. Resolvers are pure; each mode is a separate
// function so it can be tested in isolation.
type resolveFunc func(logits []float32, objectness float64) (classID int, score float64)

// softmaxInto writes softmax(logits[start:start+n]) into dst and returns it.
func softmaxInto(dst []float64, logits []float32, start, n int) []float64 {
	dst = dst[:0]
	maxLogit := float64(logits[start])
	for i := 1; i < n; i++ {
		if v := float64(logits[start+i]); v > maxLogit {
			maxLogit = v
		}
	}
	var sum float64
	for i := range n {
		e := math.Exp(float64(logits[start+i]) - maxLogit)
		dst = append(dst, e)
		sum += e
	}
	for i := range dst {
		dst[i] /= sum
	}
	return dst
}

// argmax returns the index of the largest value; ties resolve to the lowest
// index so results are reproducible.
func argmax(vals []float64) (int, float64) {
	best, bestVal := 0, vals[0]
	for i, v := range vals[1:] {
		if v > bestVal {
			best, bestVal = i+1, v
		}
	}
	return best, bestVal
}

// resolveFlat computes a softmax over all logits and scales by objectness.
func resolveFlat(logits []float32, objectness float64) (int, float64) {
	probs := softmaxInto(make([]float64, 0, len(logits)), logits, 0, len(logits))
	id, p := argmax(probs)
	return id, objectness * p
}

// resolverSingle restricts the softmax to the taxonomy root's children. The
// best child's position among the root children is its leaf class id, per
// the id assignment made at taxonomy construction.
func resolverSingle(t *Taxonomy) resolveFunc {
	return func(logits []float32, objectness float64) (int, float64) {
		probs := softmaxInto(make([]float64, 0, t.rootCount), logits, 0, t.rootCount)
		id, p := argmax(probs)
		return id, objectness * p
	}
}

// resolverTwo resolves parent scores over the root's children, then scales
// each parent's conditional child softmax by its parent score. The
// concatenation of per-parent score vectors follows tree order, which is
// exactly leaf-id order, so the overall argmax maps directly to a leaf class
// id.
func resolverTwo(t *Taxonomy) resolveFunc {
	return func(logits []float32, objectness float64) (int, float64) {
		parents := softmaxInto(make([]float64, 0, t.rootCount), logits, 0, t.rootCount)

		bestLeaf, bestScore := 0, math.Inf(-1)
		scratch := make([]float64, 0, t.numLeaves)
		for r := range t.rootCount {
			children := softmaxInto(scratch, logits, t.childStart[r], t.childCount[r])
			for i, c := range children {
				if s := parents[r] * c; s > bestScore {
					bestLeaf, bestScore = t.leafBase[r]+i, s
				}
			}
			scratch = children
		}
		return bestLeaf, objectness * bestScore
	}
}

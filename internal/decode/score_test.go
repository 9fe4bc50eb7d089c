package decode

import (
	"math"
	"testing"
)

const scoreEps = 1e-9

func softmaxRef(logits ...float64) []float64 {
	var sum float64
	out := make([]float64, len(logits))
	for i, l := range logits {
		out[i] = math.Exp(l)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		in   string
		want Mode
	}{
		{"flat", ModeFlat},
		{"", ModeFlat},
		{"hier1", ModeHierarchySingle},
		{"hier2", ModeHierarchyTwo},
	}
	for _, tc := range cases {
		got, err := ParseMode(tc.in)
		if err != nil {
			t.Fatalf("ParseMode(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseMode(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if _, err := ParseMode("hierarchical"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestResolveFlat(t *testing.T) {
	logits := []float32{2.0, 1.0, 0.1}
	id, score := resolveFlat(logits, 0.9)

	if id != 0 {
		t.Fatalf("expected class 0, got %d", id)
	}
	want := 0.9 * softmaxRef(2.0, 1.0, 0.1)[0]
	if math.Abs(score-want) > scoreEps {
		t.Fatalf("score = %g, want %g", score, want)
	}
}

func TestResolveFlatTieBreaksLowIndex(t *testing.T) {
	id, score := resolveFlat([]float32{1.5, 1.5, 1.5, 1.5}, 1.0)
	if id != 0 {
		t.Fatalf("expected tie to resolve to class 0, got %d", id)
	}
	if math.Abs(score-0.25) > scoreEps {
		t.Fatalf("score = %g, want 0.25", score)
	}
}

func TestResolverSingle(t *testing.T) {
	tax := flatTaxonomy(t, "stop", "yield", "speedLimit")
	resolve := resolverSingle(tax)

	id, score := resolve([]float32{0.1, 3.0, 0.2}, 0.8)
	if id != 1 {
		t.Fatalf("expected class 1, got %d", id)
	}
	want := 0.8 * softmaxRef(0.1, 3.0, 0.2)[1]
	if math.Abs(score-want) > scoreEps {
		t.Fatalf("score = %g, want %g", score, want)
	}
}

func TestResolverTwoUniformLogits(t *testing.T) {
	tax := twoLevelTaxonomy(t)
	resolve := resolverTwo(tax)

	// Uniform logits: parent probabilities are 1/2 each; the first parent's
	// children split 1/2 each, beating the second parent's 1/3 splits. The
	// best conditional score is 0.25 and ties resolve to the lowest leaf id.
	logits := make([]float32, tax.NumLogits())
	id, score := resolve(logits, 1.0)

	if id != 0 {
		t.Fatalf("expected leaf 0, got %d", id)
	}
	if math.Abs(score-0.25) > scoreEps {
		t.Fatalf("score = %g, want 0.25", score)
	}
	if id < 0 || id >= tax.NumLeaves() {
		t.Fatalf("leaf id %d out of range [0,%d)", id, tax.NumLeaves())
	}
}

func TestResolverTwoSelectsConditionalLeaf(t *testing.T) {
	tax := twoLevelTaxonomy(t)
	resolve := resolverTwo(tax)

	// Layout: logits[0:2] parents, [2:4] regulatory children, [4:7] warning
	// children. Favor the warning parent and its last child ("signal").
	logits := []float32{0, 3, 0, 0, 0, 0, 2}
	id, score := resolve(logits, 0.5)

	if id != 4 {
		t.Fatalf("expected leaf 4 (signal), got %d", id)
	}
	parent := softmaxRef(0, 3)[1]
	child := softmaxRef(0, 0, 2)[2]
	want := 0.5 * parent * child
	if math.Abs(score-want) > scoreEps {
		t.Fatalf("score = %g, want %g", score, want)
	}
}

func TestSoftmaxIntoStableForLargeLogits(t *testing.T) {
	// Max-subtraction keeps the computation finite for large activations.
	probs := softmaxInto(nil, []float32{1000, 999}, 0, 2)
	if math.IsNaN(probs[0]) || math.IsInf(probs[0], 0) {
		t.Fatalf("softmax overflowed: %v", probs)
	}
	if sum := probs[0] + probs[1]; math.Abs(sum-1.0) > scoreEps {
		t.Fatalf("probabilities sum to %g, want 1", sum)
	}
	if probs[0] <= probs[1] {
		t.Fatalf("expected larger logit to win: %v", probs)
	}
}

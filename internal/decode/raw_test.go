package decode

import (
	"errors"
	"testing"
)

func TestNewRawPredictionShape(t *testing.T) {
	// 2x2 grid, 1 anchor, 3 classes => 2*2*1*8 = 32 values
	data := make([]float32, 32)
	p, err := NewRawPrediction(data, 2, 2, 1, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.NumCandidates() != 4 {
		t.Fatalf("expected 4 candidates, got %d", p.NumCandidates())
	}
}

func TestNewRawPredictionShapeMismatch(t *testing.T) {
	data := make([]float32, 31)
	_, err := NewRawPrediction(data, 2, 2, 1, 3)
	if err == nil {
		t.Fatal("expected shape error for truncated buffer")
	}
	var shapeErr *ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("expected *ShapeError, got %T", err)
	}
	if shapeErr.Want != 32 || shapeErr.Got != 31 {
		t.Fatalf("unexpected shape error values: got %d want %d", shapeErr.Got, shapeErr.Want)
	}
}

func TestNewRawPredictionZeroGrid(t *testing.T) {
	if _, err := NewRawPrediction(nil, 0, 2, 1, 3); err == nil {
		t.Fatal("expected error for zero grid height")
	}
	if _, err := NewRawPrediction(nil, 2, 2, 0, 3); err == nil {
		t.Fatal("expected error for zero anchors")
	}
}

func TestRawPredictionIndexing(t *testing.T) {
	// 1x2 grid, 2 anchors, 2 classes => stride 7, 28 values
	data := make([]float32, 1*2*2*7)
	for i := range data {
		data[i] = float32(i)
	}
	p, err := NewRawPrediction(data, 1, 2, 2, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// cell (0,1), anchor 1 starts at ((0*2+1)*2+1)*7 = 21
	if got := p.at(0, 1, 1, 0); got != 21 {
		t.Fatalf("at(0,1,1,0) = %v, want 21", got)
	}
	logits := p.classLogits(0, 1, 1)
	if len(logits) != 2 || logits[0] != 26 || logits[1] != 27 {
		t.Fatalf("unexpected class logits %v", logits)
	}

	i, j, k := p.cellIndex(3)
	if i != 0 || j != 1 || k != 1 {
		t.Fatalf("cellIndex(3) = (%d,%d,%d), want (0,1,1)", i, j, k)
	}
}

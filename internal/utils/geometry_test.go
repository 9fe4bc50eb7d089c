package utils

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBoxOrdersCorners(t *testing.T) {
	b := NewBox(50, 60, 10, 20)
	assert.Equal(t, Box{MinX: 10, MinY: 20, MaxX: 50, MaxY: 60}, b)
}

func TestBoxDimensions(t *testing.T) {
	b := NewBox(10, 20, 50, 60)
	assert.InDelta(t, 40, b.Width(), 1e-9)
	assert.InDelta(t, 40, b.Height(), 1e-9)
	assert.InDelta(t, 1600, b.Area(), 1e-9)
}

func TestBoxScale(t *testing.T) {
	b := NewBox(1, 2, 3, 4).Scale(10, 100)
	assert.Equal(t, Box{MinX: 10, MinY: 200, MaxX: 30, MaxY: 400}, b)
}

func TestBoxToRect(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 100)

	tests := []struct {
		name string
		box  Box
		want image.Rectangle
	}{
		{"interior", NewBox(10.2, 20.7, 30.1, 40.9), image.Rect(10, 20, 31, 41)},
		{"clamped", NewBox(-5, -5, 120, 120), image.Rect(0, 0, 100, 100)},
		{"degenerate outside", NewBox(150, 150, 200, 200), image.Rect(100, 100, 100, 100)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.box.ToRect(bounds))
		})
	}
}

func TestIoU(t *testing.T) {
	tests := []struct {
		name string
		a, b Box
		want float64
	}{
		{"identical", NewBox(0, 0, 10, 10), NewBox(0, 0, 10, 10), 1.0},
		{"disjoint", NewBox(0, 0, 10, 10), NewBox(20, 20, 30, 30), 0.0},
		{"touching edge", NewBox(0, 0, 10, 10), NewBox(10, 0, 20, 10), 0.0},
		{"half overlap", NewBox(0, 0, 10, 10), NewBox(5, 0, 15, 10), 1.0 / 3.0},
		{"contained", NewBox(0, 0, 10, 10), NewBox(2, 2, 8, 8), 36.0 / 100.0},
		{"degenerate", NewBox(5, 5, 5, 5), NewBox(0, 0, 10, 10), 0.0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, IoU(tc.a, tc.b), 1e-9)
			assert.InDelta(t, tc.want, IoU(tc.b, tc.a), 1e-9, "IoU should be symmetric")
		})
	}
}

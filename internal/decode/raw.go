package decode

// RawPrediction is the dense output of the detection head for one image,
// viewed as a [gridH][gridW][anchors][5+classes] tensor. The last axis is
// laid out as [tx, ty, tw, th, objectness, class logits...]. The data is
// produced externally (model inference) and never mutated here.
type RawPrediction struct {
	data       []float32
	gridH      int
	gridW      int
	numAnchors int
	numClasses int
}

// NewRawPrediction wraps a flat float32 buffer as a grid prediction tensor.
// The buffer length must equal gridH*gridW*anchors*(5+classes); a mismatch
// yields a ShapeError.
func NewRawPrediction(data []float32, gridH, gridW, numAnchors, numClasses int) (*RawPrediction, error) {
	if gridH <= 0 || gridW <= 0 || numAnchors <= 0 || numClasses <= 0 {
		return nil, &ShapeError{Got: len(data), Want: -1}
	}
	want := gridH * gridW * numAnchors * (5 + numClasses)
	if len(data) != want {
		return nil, &ShapeError{Got: len(data), Want: want}
	}
	return &RawPrediction{
		data:       data,
		gridH:      gridH,
		gridW:      gridW,
		numAnchors: numAnchors,
		numClasses: numClasses,
	}, nil
}

// GridH returns the grid height.
func (p *RawPrediction) GridH() int { return p.gridH }

// GridW returns the grid width.
func (p *RawPrediction) GridW() int { return p.gridW }

// NumAnchors returns the number of anchors per cell.
func (p *RawPrediction) NumAnchors() int { return p.numAnchors }

// NumClasses returns the number of class logits per anchor.
func (p *RawPrediction) NumClasses() int { return p.numClasses }

// NumCandidates returns the number of candidate boxes in the grid.
func (p *RawPrediction) NumCandidates() int { return p.gridH * p.gridW * p.numAnchors }

// at returns the raw activation for cell (i, j), anchor k, channel c.
func (p *RawPrediction) at(i, j, k, c int) float32 {
	stride := 5 + p.numClasses
	return p.data[((i*p.gridW+j)*p.numAnchors+k)*stride+c]
}

// classLogits returns the class-logit slice for cell (i, j), anchor k. The
// returned slice aliases the underlying buffer and must not be modified.
func (p *RawPrediction) classLogits(i, j, k int) []float32 {
	stride := 5 + p.numClasses
	base := ((i*p.gridW+j)*p.numAnchors+k)*stride + 5
	return p.data[base : base+p.numClasses]
}

// cellIndex maps a flat candidate index back to (row, col, anchor).
func (p *RawPrediction) cellIndex(idx int) (i, j, k int) {
	k = idx % p.numAnchors
	idx /= p.numAnchors
	j = idx % p.gridW
	i = idx / p.gridW
	return i, j, k
}

package utils

import (
	"image"
	"image/color"
	"testing"

	"github.com/roadwatch-ai/signscan/internal/mempool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestResizeSquare(t *testing.T) {
	img := solidImage(100, 50, color.RGBA{R: 255, A: 255})

	resized, err := ResizeSquare(img, 32)
	require.NoError(t, err)

	b := resized.Bounds()
	assert.Equal(t, 32, b.Dx())
	assert.Equal(t, 32, b.Dy())
}

func TestResizeSquareNilImage(t *testing.T) {
	_, err := ResizeSquare(nil, 32)
	require.Error(t, err)

	var perr *ImageProcessingError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "resize", perr.Operation)
}

func TestResizeSquareInvalidSize(t *testing.T) {
	img := solidImage(10, 10, color.RGBA{A: 255})
	_, err := ResizeSquare(img, 0)
	require.Error(t, err)
}

func TestNormalizeImage(t *testing.T) {
	img := solidImage(4, 2, color.RGBA{R: 255, G: 128, B: 0, A: 255})

	tensor, w, h, err := NormalizeImage(img)
	require.NoError(t, err)
	assert.Equal(t, 4, w)
	assert.Equal(t, 2, h)
	require.Len(t, tensor, 3*4*2)

	plane := w * h
	for i := 0; i < plane; i++ {
		assert.InDelta(t, 1.0, tensor[i], 1e-6, "red channel")
		assert.InDelta(t, 128.0/255.0, tensor[plane+i], 1e-6, "green channel")
		assert.InDelta(t, 0.0, tensor[2*plane+i], 1e-6, "blue channel")
	}
}

func TestNormalizeImageNil(t *testing.T) {
	_, _, _, err := NormalizeImage(nil)
	require.Error(t, err)
}

func TestNormalizeImagePooled(t *testing.T) {
	img := solidImage(8, 8, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	tensor, w, h, err := NormalizeImagePooled(img)
	require.NoError(t, err)
	defer mempool.PutFloat32(tensor)

	assert.Equal(t, 8, w)
	assert.Equal(t, 8, h)
	require.Len(t, tensor, 3*8*8)
	assert.InDelta(t, 10.0/255.0, tensor[0], 1e-6)
}

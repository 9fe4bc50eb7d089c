package testutil

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// CreateTestImage returns a solid background image of the given size.
func CreateTestImage(width, height int, background color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	return img
}

// SignBox places a synthetic sign blob when building test scenes.
type SignBox struct {
	X1, Y1, X2, Y2 int
	Fill           color.Color
}

// CreateSceneImage builds a gray road-scene stand-in with solid sign blobs.
// The blobs give detection tests recognizable, high-contrast regions at
// known coordinates.
func CreateSceneImage(width, height int, signs ...SignBox) *image.RGBA {
	img := CreateTestImage(width, height, color.RGBA{R: 96, G: 96, B: 96, A: 255})
	for _, s := range signs {
		rect := image.Rect(s.X1, s.Y1, s.X2, s.Y2)
		fill := s.Fill
		if fill == nil {
			fill = color.RGBA{R: 200, G: 30, B: 30, A: 255}
		}
		draw.Draw(img, rect, image.NewUniform(fill), image.Point{}, draw.Src)
	}
	return img
}

// SaveImage writes an image as PNG, creating parent directories as needed.
func SaveImage(t *testing.T, img image.Image, path string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))

	f, err := os.Create(path) //nolint:gosec // G304: test helper writes to caller-chosen path
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	require.NoError(t, png.Encode(f, img))
}

// LoadImage reads and decodes an image file, failing the test on error.
func LoadImage(t *testing.T, path string) image.Image {
	t.Helper()

	f, err := os.Open(path) //nolint:gosec // G304: test helper reads caller-chosen path
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	require.NoError(t, err)
	return img
}

// CompareImages reports whether two images match within a per-channel
// tolerance in [0,1].
func CompareImages(img1, img2 image.Image, tolerance float64) bool {
	b1, b2 := img1.Bounds(), img2.Bounds()
	if b1.Dx() != b2.Dx() || b1.Dy() != b2.Dy() {
		return false
	}

	maxDiff := tolerance * 0xffff
	for y := 0; y < b1.Dy(); y++ {
		for x := 0; x < b1.Dx(); x++ {
			r1, g1, bl1, _ := img1.At(b1.Min.X+x, b1.Min.Y+y).RGBA()
			r2, g2, bl2, _ := img2.At(b2.Min.X+x, b2.Min.Y+y).RGBA()
			if math.Abs(float64(r1)-float64(r2)) > maxDiff ||
				math.Abs(float64(g1)-float64(g2)) > maxDiff ||
				math.Abs(float64(bl1)-float64(bl2)) > maxDiff {
				return false
			}
		}
	}
	return true
}

// WriteSceneFile saves a generated scene into dir and returns its path.
func WriteSceneFile(t *testing.T, dir, name string, width, height int, signs ...SignBox) string {
	t.Helper()

	path := filepath.Join(dir, fmt.Sprintf("%s.png", name))
	SaveImage(t, CreateSceneImage(width, height, signs...), path)
	return path
}

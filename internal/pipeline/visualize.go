package pipeline

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/roadwatch-ai/signscan/internal/utils"
)

// boxPalette cycles per class id so neighbouring classes get distinct colors.
var boxPalette = []color.RGBA{
	{R: 230, G: 57, B: 70, A: 255},
	{R: 29, G: 131, B: 72, A: 255},
	{R: 21, G: 101, B: 192, A: 255},
	{R: 243, G: 156, B: 18, A: 255},
	{R: 142, G: 68, B: 173, A: 255},
	{R: 0, G: 151, B: 167, A: 255},
}

func classColor(classID int) color.RGBA {
	if classID < 0 {
		classID = 0
	}
	return boxPalette[classID%len(boxPalette)]
}

// RenderOverlay draws detection boxes over the image and returns an RGBA
// copy. Each box gets a class-colored outline and a small filled tab above
// its top-left corner where callers can stamp a label.
func RenderOverlay(img image.Image, res *ImageResult) *image.RGBA {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)

	if res == nil {
		return dst
	}
	for _, d := range res.Detections {
		col := classColor(d.ClassID)
		rect := image.Rect(d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2)
		utils.DrawRect(dst, rect, col, 2)

		tab := image.Rect(d.Box.X1, d.Box.Y1-12, d.Box.X1+8*len(d.Label)+4, d.Box.Y1)
		if tab.Min.Y < 0 {
			tab = tab.Add(image.Pt(0, 12))
		}
		utils.FillRect(dst, tab.Intersect(dst.Bounds()), col)
	}
	return dst
}

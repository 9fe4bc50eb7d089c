package decode

import "github.com/roadwatch-ai/signscan/internal/utils"

// rescaleToPixels maps normalized boxes into pixel space of the original
// (pre-resize) image: x coordinates scale by width, y coordinates by height.
// Predictions are decoded in normalized space, so the network input size
// never appears here.
func rescaleToPixels(boxes []utils.Box, width, height int) []utils.Box {
	out := make([]utils.Box, len(boxes))
	for i, b := range boxes {
		out[i] = b.Scale(float64(width), float64(height))
	}
	return out
}

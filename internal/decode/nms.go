package decode

import (
	"sort"

	"github.com/roadwatch-ai/signscan/internal/mempool"
	"github.com/roadwatch-ai/signscan/internal/utils"
)

// nonMaxSuppression performs greedy NMS over the candidate boxes and returns
// the indices of survivors in descending score order, capped at
// maxDetections. Suppression is global across classes unless perClass is
// set, in which case only same-class overlaps suppress. Score ties break on
// the lower original index so results are reproducible across runs.
func nonMaxSuppression(boxes []utils.Box, scores []float64, classes []int,
	iouThreshold float64, maxDetections int, perClass bool,
) []int {
	if len(boxes) == 0 || maxDetections <= 0 {
		return nil
	}

	order := make([]int, len(boxes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if scores[order[a]] != scores[order[b]] {
			return scores[order[a]] > scores[order[b]]
		}
		return order[a] < order[b]
	})

	suppressed := mempool.GetBool(len(boxes))
	defer mempool.PutBool(suppressed)

	kept := make([]int, 0, maxDetections)
	for _, a := range order {
		if suppressed[a] {
			continue
		}
		kept = append(kept, a)
		if len(kept) >= maxDetections {
			break
		}

		for _, b := range order {
			if suppressed[b] || a == b {
				continue
			}
			if perClass && classes[a] != classes[b] {
				continue
			}
			if utils.IoU(boxes[a], boxes[b]) > iouThreshold {
				suppressed[b] = true
			}
		}
	}
	return kept
}

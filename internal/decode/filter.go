package decode

// filterByScore returns the indices of candidates whose score meets the
// threshold, preserving candidate order so index correspondence between
// boxes, scores, and classes survives the filter. Thresholds outside [0,1]
// are accepted and simply yield full or empty retention.
func filterByScore(scores []float64, threshold float64) []int {
	kept := make([]int, 0, len(scores))
	for i, s := range scores {
		if s >= threshold {
			kept = append(kept, i)
		}
	}
	return kept
}

package router

import "github.com/agnivade/levenshtein"

// Suggest returns the candidate closest to name by edit distance, or ""
// when nothing is close enough to be a plausible typo.
func Suggest(name string, candidates []string) string {
	best := ""
	bestDist := -1
	limit := len(name) / 3
	if limit < 2 {
		limit = 2
	}
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(name, c)
		if d > limit {
			continue
		}
		if bestDist == -1 || d < bestDist || (d == bestDist && c < best) {
			best, bestDist = c, d
		}
	}
	return best
}

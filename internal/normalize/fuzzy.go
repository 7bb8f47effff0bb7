package normalize

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// similarity is a 0-100 ratio of how alike two strings are, case-insensitive.
// Defined as (lensum - 2*distance) / lensum * 100 over edit distance, where
// lensum = len(a)+len(b), so identical strings score 100 and disjoint ones 0.
func similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 100
	}
	lensum := len([]rune(a)) + len([]rune(b))
	if lensum == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	score := float64(lensum-2*dist) / float64(lensum) * 100
	if score < 0 {
		return 0
	}
	return score
}

// bestMatch returns the candidate most similar to input and its score.
func bestMatch(input string, candidates []string) (string, float64) {
	best := ""
	bestScore := -1.0
	for _, c := range candidates {
		if s := similarity(input, c); s > bestScore {
			best = c
			bestScore = s
		}
	}
	return best, bestScore
}

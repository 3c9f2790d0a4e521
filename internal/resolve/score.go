package resolve

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// fold normalizes a name for comparison: NFC so composed and decomposed
// forms compare equal, then lowercase.
func fold(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// similarity returns a normalized edit-distance score in [0,1]:
// 1 means identical, 0 maximally dissimilar. Inputs must already be
// folded.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshteinDistance(a, b))/float64(maxLen)
}

func levenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		current := make([]int, len(b)+1)
		current[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			ins := current[j-1] + 1
			del := prev[j] + 1
			sub := prev[j-1] + cost
			current[j] = minInt(ins, minInt(del, sub))
		}
		prev = current
	}

	return prev[len(b)]
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

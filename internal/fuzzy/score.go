// Package fuzzy scores approximate card-name matches for the search index.
package fuzzy

import "strings"

// Score returns a similarity score between query and target in the range
// 0-100. Both inputs are expected to be lowercased already. Matching is
// position-independent: a query matching anywhere inside the target
// scores as a substring match.
func Score(query, target string) int {
	if query == target {
		return 100
	}
	if len(query) == 0 || len(target) == 0 {
		return 0
	}

	if strings.Contains(target, query) {
		// Score by how much of the target the query covers
		return 80 + (len(query) * 20 / len(target))
	}

	distance := levenshtein(query, target)
	maxLen := len(query)
	if len(target) > maxLen {
		maxLen = len(target)
	}
	return 100 - (distance * 100 / maxLen)
}

// levenshtein calculates the edit distance between two strings: the
// minimum number of single-character edits to turn one into the other.
func levenshtein(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	d := make([][]int, len(s1)+1)
	for i := range d {
		d[i] = make([]int, len(s2)+1)
	}
	for i := 0; i <= len(s1); i++ {
		d[i][0] = i
	}
	for j := 0; j <= len(s2); j++ {
		d[0][j] = j
	}

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}
			d[i][j] = min3(
				d[i-1][j]+1,      // deletion
				d[i][j-1]+1,      // insertion
				d[i-1][j-1]+cost, // substitution
			)
		}
	}

	return d[len(s1)][len(s2)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

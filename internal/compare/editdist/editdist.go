// Package editdist computes Levenshtein edit distance between strings.
//
// Distance is used twice by the comparison engine: once over the whole texts
// as a coarse similarity gate, and once per token pair as the substitution
// cost inside the sequence aligner. Both uses operate on runes, so the result
// is consistent with the rune offsets used everywhere else.
package editdist

import (
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// Distance returns the unit-cost Levenshtein distance between a and b
// (insert, delete and substitute all cost 1), measured in runes.
//
// When either string is empty the distance is the rune length of the other.
func Distance(a, b string) int {
	if a == b {
		return 0
	}
	if a == "" {
		return utf8.RuneCountInString(b)
	}
	if b == "" {
		return utf8.RuneCountInString(a)
	}
	return matchr.Levenshtein(a, b)
}

// Similarity returns 1 - Distance(a, b) / max(len(a), len(b)) with lengths in
// runes. Two empty strings are identical and have similarity 1.
func Similarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(Distance(a, b))/float64(longest)
}

// Package stats summarises a token alignment as word-level error counts.
package stats

import "github.com/MrWong99/dictacheck/pkg/types"

// Stats counts the columns of an alignment by kind.
type Stats struct {
	// ReferenceWords is the number of tokens in the original text.
	ReferenceWords int `json:"referenceWords"`

	// TypedWords is the number of tokens in the user text.
	TypedWords int `json:"typedWords"`

	Matches       int `json:"matches"`
	Substitutions int `json:"substitutions"`
	Deletions     int `json:"deletions"`
	Insertions    int `json:"insertions"`
}

// FromPairs counts the columns of pairs.
func FromPairs(pairs []types.AlignedTokenPair) Stats {
	var s Stats
	for _, p := range pairs {
		switch p.Kind() {
		case types.PairMatch:
			s.Matches++
		case types.PairMismatch:
			s.Substitutions++
		case types.PairDeletion:
			s.Deletions++
		case types.PairInsertion:
			s.Insertions++
		}
	}
	s.ReferenceWords = s.Matches + s.Substitutions + s.Deletions
	s.TypedWords = s.Matches + s.Substitutions + s.Insertions
	return s
}

// Errors returns the total number of word errors.
func (s Stats) Errors() int {
	return s.Substitutions + s.Deletions + s.Insertions
}

// WER returns the word error rate (S + D + I) / N, where N is the number of
// reference words. It is 0 when the reference is empty. WER can exceed 1
// when the user typed many extra words.
func (s Stats) WER() float64 {
	if s.ReferenceWords == 0 {
		return 0
	}
	return float64(s.Errors()) / float64(s.ReferenceWords)
}

// Accuracy returns the share of reference words that were typed correctly.
func (s Stats) Accuracy() float64 {
	if s.ReferenceWords == 0 {
		return 1
	}
	return float64(s.Matches) / float64(s.ReferenceWords)
}

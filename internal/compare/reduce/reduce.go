// Package reduce turns a token alignment into the final list of highlighted
// comparison spans.
//
// Each mismatched column becomes a span covering the two mismatched words.
// Each run of gap columns becomes one span that reaches from just after the
// previous anchor (a column with tokens on both sides) to just before the next
// anchor, on both texts, so the highlight snaps to the surrounding word
// boundaries. Consecutive spans that are separated in the user text only by
// whitespace and punctuation are merged into one.
package reduce

import (
	"unicode"

	"github.com/MrWong99/dictacheck/pkg/types"
)

// Reduce converts pairs into comparison spans over originalText and userText.
//
// pairs must come from aligning the tokens of originalText and userText. The
// result is ordered left to right in the user text and every element has its
// text fields populated. The returned slice is never nil.
func Reduce(pairs []types.AlignedTokenPair, originalText, userText string) []types.TextComparison {
	original := []rune(originalText)
	user := []rune(userText)

	out := []types.TextComparison{}

	i := 0
	for i < len(pairs) {
		p := pairs[i]
		switch p.Kind() {
		case types.PairMatch:
			i++

		case types.PairMismatch:
			out = merge(out, user, p.Original.Range, p.User.Range)
			i++

		case types.PairDeletion, types.PairInsertion:
			prev, next := anchorsAround(pairs, i)

			origRange := types.NewRange(0, len(original)-1)
			userRange := types.NewRange(0, len(user)-1)
			if prev >= 0 {
				origRange.InitialIndex = pairs[prev].Original.Range.FinalIndex + 1
				userRange.InitialIndex = pairs[prev].User.Range.FinalIndex + 1
			}
			if next >= 0 {
				origRange.FinalIndex = pairs[next].Original.Range.InitialIndex - 1
				userRange.FinalIndex = pairs[next].User.Range.InitialIndex - 1
			}
			out = merge(out, user, origRange, userRange)

			// Skip the rest of the gap run; the anchor itself is handled by
			// the next iteration.
			if next >= 0 {
				i = next
			} else {
				i = len(pairs)
			}

		default:
			i++
		}
	}

	for k := range out {
		out[k].OriginalText = substring(original, out[k].OriginalRange)
		out[k].UserText = substring(user, out[k].UserRange)
	}
	return out
}

// anchorsAround returns the index of the nearest anchor before i and the
// nearest anchor after i, or -1 for a direction without one.
func anchorsAround(pairs []types.AlignedTokenPair, i int) (prev, next int) {
	prev, next = -1, -1
	for k := i - 1; k >= 0; k-- {
		if pairs[k].IsAnchor() {
			prev = k
			break
		}
	}
	for k := i + 1; k < len(pairs); k++ {
		if pairs[k].IsAnchor() {
			next = k
			break
		}
	}
	return prev, next
}

// merge appends the candidate span to out, or folds it into the last span
// when the two are sequential in the user text.
func merge(out []types.TextComparison, user []rune, origRange, userRange types.TextRange) []types.TextComparison {
	if n := len(out); n > 0 && sequential(user, out[n-1].UserRange, userRange) {
		last := out[n-1]
		out[n-1] = types.TextComparison{
			OriginalRange: last.OriginalRange.ExtendTo(origRange.FinalIndex),
			UserRange:     last.UserRange.ExtendTo(userRange.FinalIndex),
		}
		return out
	}
	return append(out, types.TextComparison{OriginalRange: origRange, UserRange: userRange})
}

// sequential reports whether next continues last in the user text: either
// the ranges overlap, or only whitespace and punctuation separate them.
// The backward scan from next may stop before last's end rather than on it,
// since gap spans end on the separator in front of the next anchor.
func sequential(user []rune, last, next types.TextRange) bool {
	if last.FinalIndex >= next.InitialIndex {
		return true
	}
	k := min(next.InitialIndex-1, len(user)-1)
	for k >= 0 && isSeparator(user[k]) {
		k--
	}
	return last.FinalIndex >= k
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// substring returns the runes covered by r, clamped to text. Empty ranges
// yield "".
func substring(text []rune, r types.TextRange) string {
	start := max(r.InitialIndex, 0)
	end := min(r.FinalIndex+1, len(text))
	if start >= end {
		return ""
	}
	return string(text[start:end])
}

package align

import (
	"slices"

	"github.com/MrWong99/dictacheck/internal/compare/tokenize"
	"github.com/MrWong99/dictacheck/pkg/types"
)

// Pairs walks the traceback of m from the bottom-right cell back to the
// origin and returns the aligned columns in forward order.
//
// seq1 and seq2 must be the token sequences whose texts m was built from.
// Dropping the nil sides of the result reproduces seq1 and seq2 in order.
func Pairs(seq1, seq2 []types.TextToken, m *Matrix) []types.AlignedTokenPair {
	pairs := make([]types.AlignedTokenPair, 0, max(len(seq1), len(seq2)))

	i, j := len(seq1), len(seq2)
	for i > 0 || j > 0 {
		var move Move
		switch {
		case i > 0 && j > 0:
			move = m.Move(i, j)
		case i > 0:
			move = MoveOriginal
		default:
			move = MoveUser
		}

		switch move {
		case MoveDiagonal:
			pairs = append(pairs, types.AlignedTokenPair{Original: &seq1[i-1], User: &seq2[j-1]})
			i--
			j--
		case MoveOriginal:
			pairs = append(pairs, types.AlignedTokenPair{Original: &seq1[i-1]})
			i--
		default:
			pairs = append(pairs, types.AlignedTokenPair{User: &seq2[j-1]})
			j--
		}
	}

	slices.Reverse(pairs)
	return pairs
}

// AlignTokens aligns two token sequences and returns the aligned columns.
func AlignTokens(original, user []types.TextToken, opts ...Option) []types.AlignedTokenPair {
	m := Align(tokenize.Texts(original), tokenize.Texts(user), opts...)
	return Pairs(original, user, m)
}

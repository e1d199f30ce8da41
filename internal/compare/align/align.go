// Package align implements Needleman-Wunsch global alignment over word
// tokens and the traceback walk that turns the alignment into ordered token
// pairs.
//
// Mismatches are not scored with a flat penalty: the cost of aligning two
// different words is their Levenshtein distance, so a near-miss spelling
// ("recieve" for "receive") is cheaper to pair up than an unrelated word and
// the aligner prefers it over opening two gaps.
package align

import "github.com/MrWong99/dictacheck/internal/compare/editdist"

const (
	// DefaultMatchScore is awarded for aligning two equal tokens.
	DefaultMatchScore = 2

	// DefaultGapScore is charged for aligning a token against a gap.
	DefaultGapScore = -2
)

// Move is a traceback direction stored for each cell of the matrix.
type Move uint8

const (
	// MoveNone marks the origin cell.
	MoveNone Move = 0

	// MoveDiagonal pairs seq1[i-1] with seq2[j-1].
	MoveDiagonal Move = 1

	// MoveOriginal consumes seq1[i-1] alone: an original token with no user
	// counterpart.
	MoveOriginal Move = 2

	// MoveUser consumes seq2[j-1] alone: a user token with no original
	// counterpart.
	MoveUser Move = 3
)

// Option is a functional option for [Align].
type Option func(*scoring)

type scoring struct {
	match int
	gap   int
}

// WithScores overrides the match reward and the gap penalty. match should be
// positive and gap negative.
func WithScores(match, gap int) Option {
	return func(s *scoring) {
		s.match = match
		s.gap = gap
	}
}

// Matrix holds the score and traceback tables of one alignment in flat
// row-major buffers of Rows × Cols cells, where Rows = len(seq1)+1 and
// Cols = len(seq2)+1.
type Matrix struct {
	Rows, Cols int

	score []int
	trace []Move
}

// Score returns the optimal score of aligning seq1[:i] with seq2[:j].
func (m *Matrix) Score(i, j int) int {
	return m.score[i*m.Cols+j]
}

// Move returns the traceback move recorded for cell (i, j).
func (m *Matrix) Move(i, j int) Move {
	return m.trace[i*m.Cols+j]
}

// Align runs global alignment of seq1 (original words) against seq2 (user
// words) and returns the filled matrix.
//
// When several moves reach the best score of a cell the diagonal wins, then
// [MoveOriginal], then [MoveUser]. The order decides which side is blamed for
// a gap on ties and keeps the output reproducible.
func Align(seq1, seq2 []string, opts ...Option) *Matrix {
	sc := scoring{match: DefaultMatchScore, gap: DefaultGapScore}
	for _, o := range opts {
		o(&sc)
	}

	rows, cols := len(seq1)+1, len(seq2)+1
	m := &Matrix{
		Rows:  rows,
		Cols:  cols,
		score: make([]int, rows*cols),
		trace: make([]Move, rows*cols),
	}

	for i := 1; i < rows; i++ {
		m.score[i*cols] = sc.gap * i
		m.trace[i*cols] = MoveOriginal
	}
	for j := 1; j < cols; j++ {
		m.score[j] = sc.gap * j
		m.trace[j] = MoveUser
	}

	for i := 1; i < rows; i++ {
		row, prev := i*cols, (i-1)*cols
		for j := 1; j < cols; j++ {
			a, b := seq1[i-1], seq2[j-1]
			pair := sc.match
			if a != b {
				pair = -editdist.Distance(a, b)
			}

			diag := m.score[prev+j-1] + pair
			left := m.score[prev+j] + sc.gap
			up := m.score[row+j-1] + sc.gap

			best := max(diag, left, up)
			m.score[row+j] = best
			switch best {
			case diag:
				m.trace[row+j] = MoveDiagonal
			case left:
				m.trace[row+j] = MoveOriginal
			default:
				m.trace[row+j] = MoveUser
			}
		}
	}
	return m
}

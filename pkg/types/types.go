// Package types defines the shared data model used across all dictacheck
// packages.
//
// These types form the lingua franca between the tokenizer, the aligner, the
// reducer and the orchestrator. They live here to avoid circular imports and
// because they are the public output contract: consumers serialise
// [TextComparison] values directly.
//
// All offsets are rune (code point) indices into the string they describe,
// 0-based and inclusive on both ends.
package types

// TextRange is an inclusive span of rune indices into a specific string.
//
// A realised token or comparison satisfies InitialIndex <= FinalIndex. A range
// with FinalIndex == InitialIndex-1 is empty; it appears only where a bound was
// defaulted (an empty text, or a gap at the very start or end of a text).
//
// TextRange is an immutable value; use [TextRange.ExtendTo] to obtain a grown
// copy.
type TextRange struct {
	InitialIndex int `json:"initialIndex"`
	FinalIndex   int `json:"finalIndex"`
}

// NewRange returns the range [initial, final].
func NewRange(initial, final int) TextRange {
	return TextRange{InitialIndex: initial, FinalIndex: final}
}

// Len returns the number of runes covered by r. Empty ranges have length 0.
func (r TextRange) Len() int {
	if r.FinalIndex < r.InitialIndex {
		return 0
	}
	return r.FinalIndex - r.InitialIndex + 1
}

// IsEmpty reports whether r covers no runes.
func (r TextRange) IsEmpty() bool {
	return r.Len() == 0
}

// ExtendTo returns a copy of r whose end is moved to final. The end never
// moves backwards: when final is before the current end, r is returned
// unchanged.
func (r TextRange) ExtendTo(final int) TextRange {
	if final > r.FinalIndex {
		r.FinalIndex = final
	}
	return r
}

// TextToken is a lowercased word together with the range it occupies in the
// text it was extracted from.
type TextToken struct {
	// Text is the lowercased word.
	Text string `json:"text"`

	// Range locates the word in the source text.
	Range TextRange `json:"range"`
}

// PairKind classifies one column of a token alignment.
type PairKind int

const (
	// PairMatch is a column where both tokens are present and equal.
	PairMatch PairKind = iota + 1

	// PairMismatch is a column where both tokens are present but differ.
	PairMismatch

	// PairDeletion is a column with an original token and no user token:
	// the learner missed a word.
	PairDeletion

	// PairInsertion is a column with a user token and no original token:
	// the learner wrote an extra word.
	PairInsertion
)

// String returns the lowercase name of k.
func (k PairKind) String() string {
	switch k {
	case PairMatch:
		return "match"
	case PairMismatch:
		return "mismatch"
	case PairDeletion:
		return "deletion"
	case PairInsertion:
		return "insertion"
	default:
		return "unknown"
	}
}

// AlignedTokenPair is one column of an alignment between the original and
// the user token sequences. At least one side is non-nil; a nil side is a gap.
//
// Callers should switch on [AlignedTokenPair.Kind] rather than testing the
// pointers directly.
type AlignedTokenPair struct {
	Original *TextToken `json:"original,omitempty"`
	User     *TextToken `json:"user,omitempty"`
}

// Kind classifies the column. A pair with both sides nil is invalid and
// reported as 0.
func (p AlignedTokenPair) Kind() PairKind {
	switch {
	case p.Original != nil && p.User != nil:
		if p.Original.Text == p.User.Text {
			return PairMatch
		}
		return PairMismatch
	case p.Original != nil:
		return PairDeletion
	case p.User != nil:
		return PairInsertion
	}
	return 0
}

// IsAnchor reports whether both sides of the column carry a token.
func (p AlignedTokenPair) IsAnchor() bool {
	return p.Original != nil && p.User != nil
}

// TextComparison is one highlighted discrepancy between the original text and
// the user's text.
//
// The text fields are attached in a final pass once all ranges are fixed; in
// the output of the comparison engine all four fields are always populated.
type TextComparison struct {
	OriginalRange TextRange `json:"originalRange"`
	OriginalText  string    `json:"originalText"`
	UserRange     TextRange `json:"userRange"`
	UserText      string    `json:"userText"`
}

// Segment is one run of a character-level hint: a piece of text and whether
// it differs from the other side.
type Segment struct {
	Text    string `json:"text"`
	Changed bool   `json:"changed"`
}

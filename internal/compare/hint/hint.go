// Package hint computes character-level detail for a highlighted span, so a
// UI can show which letters inside a misheard word were wrong.
//
// The word-level comparison decides *where* the discrepancies are; this
// package only refines a single span pair and never influences the spans
// themselves.
package hint

import (
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/MrWong99/dictacheck/pkg/types"
)

// Hint holds the character segments of one comparison, one list per side.
// Concatenating the segment texts of a side reproduces that side's text.
type Hint struct {
	Original []types.Segment `json:"original"`
	User     []types.Segment `json:"user"`
}

// Differ computes character hints. It is safe for concurrent use.
type Differ struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// NewDiffer returns a ready-to-use [Differ].
func NewDiffer() *Differ {
	return &Differ{dmp: diffmatchpatch.New()}
}

// Diff returns the character segments of original and user.
func (d *Differ) Diff(original, user string) Hint {
	if original == "" && user == "" {
		return Hint{}
	}
	if original == "" {
		return Hint{User: []types.Segment{{Text: user, Changed: true}}}
	}
	if user == "" {
		return Hint{Original: []types.Segment{{Text: original, Changed: true}}}
	}

	diffs := d.dmp.DiffMain(original, user, false)
	diffs = d.dmp.DiffCleanupSemantic(diffs)

	return Hint{
		Original: segmentsFor(diffs, diffmatchpatch.DiffDelete),
		User:     segmentsFor(diffs, diffmatchpatch.DiffInsert),
	}
}

// ForComparisons returns one hint per comparison, in the same order.
func (d *Differ) ForComparisons(comparisons []types.TextComparison) []Hint {
	hints := make([]Hint, len(comparisons))
	for i, c := range comparisons {
		hints[i] = d.Diff(c.OriginalText, c.UserText)
	}
	return hints
}

// segmentsFor keeps the equal runs and the runs of changeOp, dropping the
// runs that only exist on the other side.
func segmentsFor(diffs []diffmatchpatch.Diff, changeOp diffmatchpatch.Operation) []types.Segment {
	var segments []types.Segment
	for _, diff := range diffs {
		switch diff.Type {
		case diffmatchpatch.DiffEqual:
			segments = appendSegment(segments, diff.Text, false)
		case changeOp:
			segments = appendSegment(segments, diff.Text, true)
		}
	}
	return segments
}

// appendSegment appends a run, merging it into the previous one when both
// have the same Changed flag.
func appendSegment(segments []types.Segment, text string, changed bool) []types.Segment {
	if text == "" {
		return segments
	}
	if n := len(segments); n > 0 && segments[n-1].Changed == changed {
		segments[n-1].Text += text
		return segments
	}
	return append(segments, types.Segment{Text: text, Changed: changed})
}

// Package compare is the text comparison engine. It compares a text a learner
// transcribed by ear against the reference text and reports the minimal set
// of discrepancies as rune ranges into both strings.
//
// A comparison runs in fixed stages:
//
//  1. A whole-text similarity gate. Texts that are too different are reported
//     as one span covering both texts, without aligning them.
//  2. Both texts are tokenized ([tokenize]).
//  3. The token sequences are aligned with Needleman-Wunsch ([align]).
//  4. The alignment is reduced to merged, boundary-snapped spans ([reduce]).
//
// [CompareTexts] runs the stages with default settings. An [Engine] adds
// options, alignment statistics, character hints, tracing and metrics.
package compare

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/unicode/norm"

	"github.com/MrWong99/dictacheck/internal/compare/align"
	"github.com/MrWong99/dictacheck/internal/compare/editdist"
	"github.com/MrWong99/dictacheck/internal/compare/hint"
	"github.com/MrWong99/dictacheck/internal/compare/reduce"
	"github.com/MrWong99/dictacheck/internal/compare/stats"
	"github.com/MrWong99/dictacheck/internal/compare/tokenize"
	"github.com/MrWong99/dictacheck/internal/observe"
	"github.com/MrWong99/dictacheck/pkg/types"
)

// DefaultSimilarityThreshold is the whole-text similarity below which two
// texts are not aligned word by word.
const DefaultSimilarityThreshold = 0.60

// Normalization selects the Unicode normal form applied to both texts before
// they are compared.
type Normalization string

const (
	// NormalizeNone compares the texts as given.
	NormalizeNone Normalization = "none"

	// NormalizeNFC composes characters, so "e" followed by a combining
	// acute accent equals "é".
	NormalizeNFC Normalization = "nfc"

	// NormalizeNFKC additionally folds compatibility characters such as
	// ligatures and full-width letters.
	NormalizeNFKC Normalization = "nfkc"
)

// Option is a functional option for configuring an [Engine].
type Option func(*Engine)

// WithSimilarityThreshold sets the gate threshold. Values outside (0, 1] are
// ignored.
func WithSimilarityThreshold(threshold float64) Option {
	return func(e *Engine) {
		if threshold > 0 && threshold <= 1 {
			e.threshold = threshold
		}
	}
}

// WithScores overrides the match reward and gap penalty of the aligner.
func WithScores(match, gap int) Option {
	return func(e *Engine) {
		e.alignOpts = append(e.alignOpts, align.WithScores(match, gap))
	}
}

// WithCharHints enables character-level hints for every reported span.
func WithCharHints(enabled bool) Option {
	return func(e *Engine) {
		if enabled {
			e.differ = hint.NewDiffer()
		} else {
			e.differ = nil
		}
	}
}

// WithNormalization applies the given Unicode normal form to both texts. The
// ranges in the result index into the normalised texts, which are echoed in
// [Result.Original] and [Result.User].
func WithNormalization(form Normalization) Option {
	return func(e *Engine) {
		e.normalization = form
	}
}

// WithMetrics records every comparison on m. Without it nothing is recorded.
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// Result is the outcome of one comparison.
type Result struct {
	// Comparisons are the highlighted spans, left to right in the user text.
	// Never nil.
	Comparisons []types.TextComparison `json:"comparisons"`

	// Similarity is the whole-text similarity used by the gate.
	Similarity float64 `json:"similarity"`

	// Gated is true when the texts were too different to align and
	// Comparisons holds a single span covering both texts.
	Gated bool `json:"gated"`

	// Stats summarises the word alignment. Nil when the comparison was
	// gated or both texts were empty.
	Stats *stats.Stats `json:"stats,omitempty"`

	// Hints holds one entry per comparison when character hints are enabled
	// and the texts were aligned.
	Hints []hint.Hint `json:"hints,omitempty"`

	// Original and User are the compared texts after normalisation.
	Original string `json:"original"`
	User     string `json:"user"`
}

// Engine compares texts. It is read-only after construction and safe for
// concurrent use.
type Engine struct {
	threshold     float64
	alignOpts     []align.Option
	differ        *hint.Differ
	normalization Normalization
	metrics       *observe.Metrics
}

// New returns an [Engine] configured with the supplied options.
func New(opts ...Option) *Engine {
	e := &Engine{
		threshold:     DefaultSimilarityThreshold,
		normalization: NormalizeNone,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// CompareTexts compares original and user with default settings and returns
// the highlighted spans.
func CompareTexts(original, user string) []types.TextComparison {
	return New().compare(context.Background(), original, user).Comparisons
}

// Compare compares original (the reference) and user (the transcription).
// The only error is a cancelled or expired ctx, checked before any work
// starts.
func (e *Engine) Compare(ctx context.Context, original, user string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("compare: %w", err)
	}

	start := time.Now()
	ctx, span := observe.StartCompareSpan(ctx, original, user)
	defer span.End()

	res := e.compare(ctx, original, user)

	outcome := observe.OutcomeAligned
	switch {
	case res.Gated:
		outcome = observe.OutcomeGated
	case res.Original == "" && res.User == "":
		outcome = observe.OutcomeEmpty
	}
	span.SetAttributes(
		attribute.String("compare.outcome", outcome),
		attribute.Float64("compare.similarity", res.Similarity),
		attribute.Int("compare.spans", len(res.Comparisons)),
	)

	if e.metrics != nil {
		var originalTokens, userTokens int
		if res.Stats != nil {
			originalTokens, userTokens = res.Stats.ReferenceWords, res.Stats.TypedWords
		}
		e.metrics.RecordComparison(ctx, outcome, time.Since(start).Seconds(),
			len(res.Comparisons), originalTokens, userTokens)
	}

	observe.Logger(ctx).Debug("comparison finished",
		"outcome", outcome,
		"similarity", res.Similarity,
		"spans", len(res.Comparisons),
		"duration", time.Since(start),
	)
	return res, nil
}

func (e *Engine) compare(ctx context.Context, original, user string) *Result {
	original = e.normalize(original)
	user = e.normalize(user)

	res := &Result{
		Comparisons: []types.TextComparison{},
		Original:    original,
		User:        user,
	}

	if original == "" && user == "" {
		res.Similarity = 1
		return res
	}

	res.Similarity = editdist.Similarity(original, user)
	if res.Similarity < e.threshold {
		res.Gated = true
		res.Comparisons = append(res.Comparisons, fullSpan(original, user))
		return res
	}

	tok := tokenize.New(tokenize.WithDropHandler(func(word string) {
		observe.Logger(ctx).Debug("tokenizer dropped word", "word", word)
		if e.metrics != nil {
			e.metrics.RecordDroppedToken(ctx)
		}
	}))

	pairs := align.AlignTokens(tok.Tokenize(original), tok.Tokenize(user), e.alignOpts...)
	res.Comparisons = reduce.Reduce(pairs, original, user)

	st := stats.FromPairs(pairs)
	res.Stats = &st

	if e.differ != nil {
		res.Hints = e.differ.ForComparisons(res.Comparisons)
	}
	return res
}

func (e *Engine) normalize(s string) string {
	switch e.normalization {
	case NormalizeNFC:
		return norm.NFC.String(s)
	case NormalizeNFKC:
		return norm.NFKC.String(s)
	default:
		return s
	}
}

// fullSpan covers both texts completely.
func fullSpan(original, user string) types.TextComparison {
	o, u := []rune(original), []rune(user)
	return types.TextComparison{
		OriginalRange: types.NewRange(0, len(o)-1),
		OriginalText:  original,
		UserRange:     types.NewRange(0, len(u)-1),
		UserText:      user,
	}
}
